// Package config loads harness configuration: defaults, then a YAML file,
// then GUARDIAN_* environment overrides, then validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	guarderrors "guardian/internal/errors"
)

// ModelConfig selects and tunes the generation provider.
type ModelConfig struct {
	Provider    string  `yaml:"provider"`
	Name        string  `yaml:"name"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Config is the full harness configuration.
type Config struct {
	TauMax          int         `yaml:"tau_max"`
	Threshold       float64     `yaml:"threshold"`
	RoundTimeoutSec int         `yaml:"round_timeout_seconds"`
	PlateauEnabled  bool        `yaml:"plateau_enabled"`
	PlateauEpsilon  float64     `yaml:"plateau_epsilon"`
	Workers         int         `yaml:"workers"`
	RecordPath      string      `yaml:"record_path"`
	LintCommand     []string    `yaml:"lint_command"`
	Model           ModelConfig `yaml:"model"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		TauMax:          3,
		Threshold:       80,
		RoundTimeoutSec: 300,
		PlateauEpsilon:  1.0,
		Workers:         4,
		RecordPath:      "./runs.jsonl",
		Model: ModelConfig{
			Provider:    "openai",
			Name:        "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.2,
			MaxTokens:   4096,
		},
	}
}

// Load builds the effective configuration. An empty path skips the file
// layer.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the configuration as YAML, creating parent directories.
func Save(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file %s: %w", path, err)
	}
	return nil
}

// RoundTimeout returns the per-round collector budget as a duration.
func (c *Config) RoundTimeout() time.Duration {
	return time.Duration(c.RoundTimeoutSec) * time.Second
}

// Validate enforces the ranges the harness depends on. Violations come back
// as PolicyViolation so callers can surface the offending field.
func (c *Config) Validate() error {
	if c.TauMax < 0 {
		return guarderrors.NewPolicyViolation("tau_max", "must be non-negative")
	}
	if c.Threshold < 0 || c.Threshold > 100 {
		return guarderrors.NewPolicyViolation("threshold", "must be within [0, 100]")
	}
	if c.RoundTimeoutSec <= 0 {
		return guarderrors.NewPolicyViolation("round_timeout_seconds", "must be positive")
	}
	if c.PlateauEnabled && c.PlateauEpsilon <= 0 {
		return guarderrors.NewPolicyViolation("plateau_epsilon", "must be positive when plateau stop is enabled")
	}
	if c.Workers <= 0 {
		return guarderrors.NewPolicyViolation("workers", "must be positive")
	}
	if c.Workers > 64 {
		return guarderrors.NewPolicyViolation("workers", "cannot exceed 64")
	}
	if c.RecordPath == "" {
		return guarderrors.NewPolicyViolation("record_path", "must not be empty")
	}
	if c.Model.Name == "" {
		return guarderrors.NewPolicyViolation("model.name", "is required")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return guarderrors.NewPolicyViolation("model.temperature", "must be within [0, 2]")
	}
	if c.Model.MaxTokens < 0 {
		return guarderrors.NewPolicyViolation("model.max_tokens", "must be non-negative")
	}
	return nil
}

// applyEnvOverrides layers GUARDIAN_* variables over the file values.
func applyEnvOverrides(config *Config) error {
	if v := os.Getenv("GUARDIAN_TAU_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GUARDIAN_TAU_MAX: %w", err)
		}
		config.TauMax = n
	}
	if v := os.Getenv("GUARDIAN_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("GUARDIAN_THRESHOLD: %w", err)
		}
		config.Threshold = f
	}
	if v := os.Getenv("GUARDIAN_ROUND_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GUARDIAN_ROUND_TIMEOUT_SECONDS: %w", err)
		}
		config.RoundTimeoutSec = n
	}
	if v := os.Getenv("GUARDIAN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GUARDIAN_WORKERS: %w", err)
		}
		config.Workers = n
	}
	if v := os.Getenv("GUARDIAN_RECORD_PATH"); v != "" {
		config.RecordPath = v
	}
	if v := os.Getenv("GUARDIAN_MODEL"); v != "" {
		config.Model.Name = v
	}
	if v := os.Getenv("GUARDIAN_BASE_URL"); v != "" {
		config.Model.BaseURL = v
	}
	return nil
}
