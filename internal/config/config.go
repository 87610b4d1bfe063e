package config

import (
	"time"

	"github.com/rickgao/okx-withdrawals/internal/auth"
	"github.com/rickgao/okx-withdrawals/internal/database"
)

// Config is the exporter configuration.
type Config struct {
	API         APIConfig         `yaml:"api"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Export      ExportConfig      `yaml:"export"`
	Database    database.Config   `yaml:"database"`
}

// APIConfig holds REST and websocket client settings.
type APIConfig struct {
	BaseURL           string        `yaml:"base_url"`
	WSURL             string        `yaml:"ws_url"`
	Demo              bool          `yaml:"demo"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxAttempts       int           `yaml:"max_attempts"`
	InitialBackoff    time.Duration `yaml:"initial_backoff"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	RequestInterval   time.Duration `yaml:"request_interval"`
}

// CredentialsConfig holds the API key triple. Prefer the OKX_* variables
// over writing these into a file.
type CredentialsConfig struct {
	Key        string `yaml:"key"`
	Secret     string `yaml:"secret"`
	Passphrase string `yaml:"passphrase"`
}

// ExportConfig holds output settings.
type ExportConfig struct {
	Format string `yaml:"format"` // csv, jsonl or postgres
	Output string `yaml:"output"` // file path for csv and jsonl
	Ccy    string `yaml:"ccy"`    // optional currency filter
}

// AuthCredentials returns the credentials in the form the signer uses.
func (c CredentialsConfig) AuthCredentials() *auth.Credentials {
	return &auth.Credentials{
		Key:        c.Key,
		Secret:     c.Secret,
		Passphrase: c.Passphrase,
	}
}
