package config

import (
	"errors"
	"fmt"

	"github.com/rickgao/okx-withdrawals/internal/writer"
)

// ErrInvalidConfig matches every *ConfigError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError reports an unusable configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + " " + e.Message
}

// Is makes errors.Is(err, ErrInvalidConfig) true.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func fieldError(field, format string, args ...any) error {
	return &ConfigError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := c.ValidateCredentials(); err != nil {
		return err
	}

	if c.API.BaseURL == "" {
		return fieldError("api.base_url", "is required")
	}
	if c.API.Timeout <= 0 {
		return fieldError("api.timeout", "must be > 0")
	}
	if c.API.MaxAttempts < 1 {
		return fieldError("api.max_attempts", "must be >= 1")
	}
	if c.API.InitialBackoff < 0 {
		return fieldError("api.initial_backoff", "must be >= 0")
	}
	if c.API.BackoffMultiplier < 1 {
		return fieldError("api.backoff_multiplier", "must be >= 1, got %g", c.API.BackoffMultiplier)
	}
	if c.API.RequestInterval < 0 {
		return fieldError("api.request_interval", "must be >= 0")
	}

	format, err := writer.ParseFormat(c.Export.Format)
	if err != nil {
		return fieldError("export.format", "%q is not supported (csv, jsonl, postgres)", c.Export.Format)
	}
	if format.IsFile() && c.Export.Output == "" {
		return fieldError("export.output", "is required for format %s", format)
	}
	if format == writer.FormatPostgres {
		if err := c.validateDatabase("database"); err != nil {
			return err
		}
	}

	return nil
}

// ValidateCredentials checks that all three credential fields are set.
func (c *Config) ValidateCredentials() error {
	if c.Credentials.Key == "" {
		return fieldError("credentials.key", "is required (set %s)", EnvKey)
	}
	if c.Credentials.Secret == "" {
		return fieldError("credentials.secret", "is required (set %s)", EnvSecret)
	}
	if c.Credentials.Passphrase == "" {
		return fieldError("credentials.passphrase", "is required (set %s)", EnvPassphrase)
	}
	return nil
}

func (c *Config) validateDatabase(prefix string) error {
	db := c.Database
	if db.IsZero() {
		return fieldError(prefix, "is required for format postgres")
	}
	if db.URL != "" {
		return nil
	}
	if db.Name == "" {
		return fieldError(prefix+".name", "is required")
	}
	if db.User == "" {
		return fieldError(prefix+".user", "is required")
	}
	if db.MaxConns < 1 {
		return fieldError(prefix+".max_conns", "must be >= 1")
	}
	if db.MinConns < 0 {
		return fieldError(prefix+".min_conns", "must be >= 0")
	}
	if db.MinConns > db.MaxConns {
		return fieldError(prefix+".min_conns", "(%d) cannot exceed max_conns (%d)", db.MinConns, db.MaxConns)
	}
	return nil
}
