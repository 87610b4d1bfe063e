package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rickgao/okx-withdrawals/internal/database"
)

func TestLoad(t *testing.T) {
	yaml := `
api:
  base_url: https://aws.okx.com
  timeout: 10s
  max_attempts: 4
  initial_backoff: 250ms
credentials:
  key: file-key
  secret: file-secret
  passphrase: file-pass
export:
  format: jsonl
  output: out.jsonl
  ccy: USDT
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.BaseURL != "https://aws.okx.com" {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, "https://aws.okx.com")
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("API.Timeout = %v, want %v", cfg.API.Timeout, 10*time.Second)
	}
	if cfg.API.InitialBackoff != 250*time.Millisecond {
		t.Errorf("API.InitialBackoff = %v, want %v", cfg.API.InitialBackoff, 250*time.Millisecond)
	}
	if cfg.Credentials.Key != "file-key" {
		t.Errorf("Credentials.Key = %q, want %q", cfg.Credentials.Key, "file-key")
	}
	if cfg.Export.Ccy != "USDT" {
		t.Errorf("Export.Ccy = %q, want %q", cfg.Export.Ccy, "USDT")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.BaseURL != "" {
		t.Errorf("API.BaseURL = %q, want empty", cfg.API.BaseURL)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := writeTempFile(t, "api: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
database:
  host: localhost
  name: okx
  user: exporter
  password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Password != "secret123" {
		t.Errorf("Database.Password = %q, want %q", cfg.Database.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	for _, k := range []string{EnvKey, EnvSecret, EnvPassphrase, EnvBaseURL, EnvUseDemo} {
		unsetEnv(t, k)
	}

	path := writeTempFile(t, "export:\n  output: out.csv\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("API.BaseURL = %q, want default %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.API.WSURL != DefaultWSURL {
		t.Errorf("API.WSURL = %q, want default %q", cfg.API.WSURL, DefaultWSURL)
	}
	if cfg.API.Timeout != DefaultAPITimeout {
		t.Errorf("API.Timeout = %v, want default %v", cfg.API.Timeout, DefaultAPITimeout)
	}
	if cfg.API.MaxAttempts != 10 {
		t.Errorf("API.MaxAttempts = %d, want default %d", cfg.API.MaxAttempts, 10)
	}
	if cfg.API.InitialBackoff != 500*time.Millisecond {
		t.Errorf("API.InitialBackoff = %v, want default %v", cfg.API.InitialBackoff, 500*time.Millisecond)
	}
	if cfg.API.BackoffMultiplier != 2 {
		t.Errorf("API.BackoffMultiplier = %v, want default %v", cfg.API.BackoffMultiplier, 2.0)
	}
	if cfg.API.RequestInterval != 200*time.Millisecond {
		t.Errorf("API.RequestInterval = %v, want default %v", cfg.API.RequestInterval, 200*time.Millisecond)
	}
	if cfg.Export.Format != "csv" {
		t.Errorf("Export.Format = %q, want default %q", cfg.Export.Format, "csv")
	}
}

func TestDefaultsDemoWebsocket(t *testing.T) {
	cfg := &Config{API: APIConfig{Demo: true, BaseURL: "https://www.okx.com/"}}
	cfg.applyDefaults()

	if cfg.API.WSURL != DefaultDemoWSURL {
		t.Errorf("API.WSURL = %q, want %q", cfg.API.WSURL, DefaultDemoWSURL)
	}
	if cfg.API.BaseURL != "https://www.okx.com" {
		t.Errorf("API.BaseURL = %q, want trailing slash trimmed", cfg.API.BaseURL)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvKey:        " env-key ",
		EnvSecret:     "env-secret",
		EnvPassphrase: "env-pass",
		EnvBaseURL:    "https://my.okx.com",
		EnvUseDemo:    "1",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := &Config{Credentials: CredentialsConfig{Key: "file-key", Secret: "file-secret"}}
	cfg.ApplyEnv(lookup)

	if cfg.Credentials.Key != "env-key" {
		t.Errorf("Credentials.Key = %q, want %q", cfg.Credentials.Key, "env-key")
	}
	if cfg.Credentials.Secret != "env-secret" {
		t.Errorf("Credentials.Secret = %q, want %q", cfg.Credentials.Secret, "env-secret")
	}
	if cfg.Credentials.Passphrase != "env-pass" {
		t.Errorf("Credentials.Passphrase = %q, want %q", cfg.Credentials.Passphrase, "env-pass")
	}
	if cfg.API.BaseURL != "https://my.okx.com" {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, "https://my.okx.com")
	}
	if !cfg.API.Demo {
		t.Error("API.Demo = false, want true")
	}
}

func TestApplyEnvDemoValues(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"True", true},
		{"TRUE", false},
		{"0", false},
		{"yes", false},
		{"", false},
	}

	for _, tt := range tests {
		cfg := &Config{API: APIConfig{Demo: true}}
		cfg.ApplyEnv(func(k string) (string, bool) {
			if k == EnvUseDemo {
				return tt.value, true
			}
			return "", false
		})
		if cfg.API.Demo != tt.want {
			t.Errorf("OKX_USE_DEMO=%q: Demo = %v, want %v", tt.value, cfg.API.Demo, tt.want)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "OKX_TEST_FROM_DOTENV=loaded\nOKX_TEST_ALREADY_SET=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	unsetEnv(t, "OKX_TEST_FROM_DOTENV")
	t.Setenv("OKX_TEST_ALREADY_SET", "from-process")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}

	if got := os.Getenv("OKX_TEST_FROM_DOTENV"); got != "loaded" {
		t.Errorf("OKX_TEST_FROM_DOTENV = %q, want %q", got, "loaded")
	}
	if got := os.Getenv("OKX_TEST_ALREADY_SET"); got != "from-process" {
		t.Errorf("OKX_TEST_ALREADY_SET = %q, want %q", got, "from-process")
	}
}

func TestLoadDotEnvMissing(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("LoadDotEnv() with missing file = %v, want nil", err)
	}
}

func validConfig() Config {
	cfg := Config{
		Credentials: CredentialsConfig{Key: "k", Secret: "s", Passphrase: "p"},
		Export:      ExportConfig{Output: "out.csv"},
	}
	cfg.applyDefaults()
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			modify:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "missing key",
			modify:  func(c *Config) { c.Credentials.Key = "" },
			wantErr: "credentials.key is required (set OKX_KEY)",
		},
		{
			name:    "missing secret",
			modify:  func(c *Config) { c.Credentials.Secret = "" },
			wantErr: "credentials.secret is required (set OKX_SECRET)",
		},
		{
			name:    "missing passphrase",
			modify:  func(c *Config) { c.Credentials.Passphrase = "" },
			wantErr: "credentials.passphrase is required (set OKX_PASSPHRASE)",
		},
		{
			name:    "zero attempts",
			modify:  func(c *Config) { c.API.MaxAttempts = 0 },
			wantErr: "api.max_attempts must be >= 1",
		},
		{
			name:    "shrinking backoff",
			modify:  func(c *Config) { c.API.BackoffMultiplier = 0.5 },
			wantErr: "api.backoff_multiplier must be >= 1, got 0.5",
		},
		{
			name:    "unsupported format",
			modify:  func(c *Config) { c.Export.Format = "xml" },
			wantErr: `export.format "xml" is not supported (csv, jsonl, postgres)`,
		},
		{
			name:    "missing output",
			modify:  func(c *Config) { c.Export.Output = "" },
			wantErr: "export.output is required for format csv",
		},
		{
			name:    "postgres without database",
			modify:  func(c *Config) { c.Export.Format = "postgres" },
			wantErr: "database is required for format postgres",
		},
		{
			name: "postgres min_conns exceeds max_conns",
			modify: func(c *Config) {
				c.Export.Format = "postgres"
				c.Database = database.Config{Host: "localhost", Name: "db", User: "user", MaxConns: 5, MinConns: 10}
			},
			wantErr: "database.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name: "postgres url",
			modify: func(c *Config) {
				c.Export.Format = "postgres"
				c.Export.Output = ""
				c.Database = database.Config{URL: "postgres://localhost/okx"}
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestConfigErrorIs(t *testing.T) {
	cfg := validConfig()
	cfg.Credentials.Key = ""

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("errors.Is(%v, ErrInvalidConfig) = false, want true", err)
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if cfgErr.Field != "credentials.key" {
		t.Errorf("Field = %q, want %q", cfgErr.Field, "credentials.key")
	}
}

func TestLoadAndValidate(t *testing.T) {
	t.Setenv(EnvKey, "k")
	t.Setenv(EnvSecret, "s")
	t.Setenv(EnvPassphrase, "p")
	unsetEnv(t, EnvBaseURL)
	unsetEnv(t, EnvUseDemo)

	cfg, err := LoadAndValidate(writeTempFile(t, "export:\n  output: out.csv\n"))
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}
	if cfg.Credentials.AuthCredentials().Key != "k" {
		t.Errorf("AuthCredentials().Key = %q, want %q", cfg.Credentials.AuthCredentials().Key, "k")
	}

	t.Setenv(EnvKey, "")
	_, err = LoadAndValidate(writeTempFile(t, "export:\n  output: out.csv\n"))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoadAndValidate() error = %v, want ErrInvalidConfig", err)
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

// unsetEnv removes k for the duration of the test.
func unsetEnv(t *testing.T, k string) {
	t.Helper()
	t.Setenv(k, "")
	os.Unsetenv(k)
}
