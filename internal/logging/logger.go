package logging

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"regexp"
	"sync"
	"time"
)

// Logger defines a minimal, printf-style logging contract.
//
// Components depend on this interface rather than a concrete logger so tests
// can pass Nop() and the CLI can swap sinks without touching call sites.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// IsNil reports whether logger is nil or wraps a nil pointer receiver.
func IsNil(logger Logger) bool {
	if logger == nil {
		return true
	}
	val := reflect.ValueOf(logger)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return val.IsNil()
	default:
		return false
	}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if IsNil(logger) {
		return Nop()
	}
	return logger
}

var (
	sinkMu      sync.Mutex
	sinkWriter  io.Writer = os.Stderr
	sinkLevel             = LevelInfo
)

// SetOutput redirects all component loggers to w. Intended for the CLI
// entrypoint and for tests.
func SetOutput(w io.Writer) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	sinkWriter = w
}

// SetLevel sets the minimum level emitted by component loggers.
func SetLevel(level Level) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	sinkLevel = level
}

// componentLogger writes timestamped, component-tagged lines to the shared
// sink. Secrets are redacted before any line is written.
type componentLogger struct {
	component string
}

// NewComponentLogger returns the default harness logger scoped to a component.
func NewComponentLogger(component string) Logger {
	return &componentLogger{component: component}
}

func (l *componentLogger) log(level Level, format string, args ...any) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	if level < sinkLevel || sinkWriter == nil {
		return
	}

	component := l.component
	if component == "" {
		component = "guardian"
	}
	message := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s [%s] [%s] %s\n",
		time.Now().Format("2006-01-02 15:04:05"), level, component, message)

	fmt.Fprint(sinkWriter, Redact(line))
}

func (l *componentLogger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

func (l *componentLogger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

func (l *componentLogger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

func (l *componentLogger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

const redactedPlaceholder = "[REDACTED]"

var (
	bearerTokenPattern = regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9\-\._~+/]+=*)`)

	sensitiveKeyValuePattern = regexp.MustCompile(
		`(?i)((?:"|')?(?:api[_-]?key|access[_-]?token|refresh[_-]?token|token|secret|password|credential)(?:"|')?\s*(?:=|:)\s*)(?:"|')?([^"'\s,;]+)((?:"|')?)`,
	)

	standaloneSecretPattern = regexp.MustCompile(
		`(?i)(sk-[A-Za-z0-9]{16,}|ghp_[A-Za-z0-9]{16,}|xox[a-z]-[A-Za-z0-9\-]{10,})`,
	)
)

// Redact masks credential-looking substrings. Harness logs carry prompts and
// configuration dumps, so every emitted line passes through here.
func Redact(line string) string {
	sanitized := sensitiveKeyValuePattern.ReplaceAllStringFunc(line, func(match string) string {
		submatches := sensitiveKeyValuePattern.FindStringSubmatch(match)
		if len(submatches) != 4 {
			return match
		}
		return submatches[1] + redactedPlaceholder + submatches[3]
	})

	sanitized = bearerTokenPattern.ReplaceAllStringFunc(sanitized, func(match string) string {
		parts := bearerTokenPattern.FindStringSubmatch(match)
		if len(parts) != 3 {
			return match
		}
		return parts[1] + redactedPlaceholder
	})

	return standaloneSecretPattern.ReplaceAllString(sanitized, redactedPlaceholder)
}
