package errors

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorType represents the classification of errors for retry logic.
type ErrorType int

const (
	// ErrorTypeTransient - retry-able errors
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent - non-retry-able errors
	ErrorTypePermanent
)

// TransientError represents an error that can be retried.
type TransientError struct {
	Err     error
	Message string
}

func (e *TransientError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError represents an error that should not be retried.
type PermanentError struct {
	Err     error
	Message string
}

func (e *PermanentError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewTransientError marks err as retry-able.
func NewTransientError(err error, message string) *TransientError {
	return &TransientError{Err: err, Message: message}
}

// NewPermanentError marks err as non-retry-able.
func NewPermanentError(err error, message string) *PermanentError {
	return &PermanentError{Err: err, Message: message}
}

// IsTransient checks if an error is retry-able.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return true
	}
	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return false
	}

	if isNetworkError(err) {
		return true
	}
	if statusCode := extractHTTPStatusCode(err); statusCode > 0 {
		return isTransientHTTPStatus(statusCode)
	}

	return false
}

// IsPermanent checks if an error is non-retry-able.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}

	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return true
	}
	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return false
	}

	if statusCode := extractHTTPStatusCode(err); statusCode > 0 {
		return isPermanentHTTPStatus(statusCode)
	}

	lowerErr := strings.ToLower(err.Error())
	permanentPatterns := []string{
		"not found",
		"permission denied",
		"invalid",
		"unauthorized",
		"forbidden",
		"bad request",
	}
	for _, pattern := range permanentPatterns {
		if strings.Contains(lowerErr, pattern) {
			return true
		}
	}

	return false
}

// GetErrorType classifies an error. Unknown errors default to permanent so
// retry loops cannot spin forever on a misclassified failure.
func GetErrorType(err error) ErrorType {
	if IsTransient(err) {
		return ErrorTypeTransient
	}
	return ErrorTypePermanent
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary()
	}

	errStr := strings.ToLower(err.Error())
	networkPatterns := []string{
		"connection refused",
		"timeout",
		"deadline exceeded",
		"connection reset",
		"broken pipe",
	}
	for _, pattern := range networkPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

func isTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isPermanentHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusUnprocessableEntity:
		return true
	}
	return false
}

var knownStatusCodes = []struct {
	needle string
	code   int
}{
	{"429", http.StatusTooManyRequests},
	{"500", http.StatusInternalServerError},
	{"502", http.StatusBadGateway},
	{"503", http.StatusServiceUnavailable},
	{"504", http.StatusGatewayTimeout},
	{"400", http.StatusBadRequest},
	{"401", http.StatusUnauthorized},
	{"403", http.StatusForbidden},
	{"404", http.StatusNotFound},
	{"422", http.StatusUnprocessableEntity},
}

// extractHTTPStatusCode pulls a status code out of provider error strings
// shaped like "API error 429: ..." or "status 500".
func extractHTTPStatusCode(err error) int {
	errStr := strings.ToLower(err.Error())
	for _, entry := range knownStatusCodes {
		if strings.Contains(errStr, "status "+entry.needle) || strings.Contains(errStr, " "+entry.needle+":") {
			return entry.code
		}
	}
	return 0
}
