package config

import "strings"

// Environment variables read by ApplyEnv.
const (
	EnvKey        = "OKX_KEY"
	EnvSecret     = "OKX_SECRET"
	EnvPassphrase = "OKX_PASSPHRASE"
	EnvBaseURL    = "OKX_BASE_URL"
	EnvUseDemo    = "OKX_USE_DEMO"
)

// ApplyEnv overrides file values with the OKX_* variables found by lookup.
// Credential values are trimmed.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvKey); ok {
		c.Credentials.Key = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvSecret); ok {
		c.Credentials.Secret = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvPassphrase); ok {
		c.Credentials.Passphrase = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.API.BaseURL = v
	}
	if v, ok := lookup(EnvUseDemo); ok {
		c.API.Demo = isTruthy(v)
	}
}

func isTruthy(v string) bool {
	switch v {
	case "1", "true", "True":
		return true
	}
	return false
}
