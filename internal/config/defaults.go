package config

import (
	"strings"
	"time"
)

// Default values for optional configuration fields.
const (
	DefaultBaseURL           = "https://www.okx.com"
	DefaultWSURL             = "wss://ws.okx.com:8443/ws/v5/business"
	DefaultDemoWSURL         = "wss://wspap.okx.com:8443/ws/v5/business"
	DefaultAPITimeout        = 30 * time.Second
	DefaultMaxAttempts       = 10
	DefaultInitialBackoff    = 500 * time.Millisecond
	DefaultBackoffMultiplier = 2.0
	DefaultRequestInterval   = 200 * time.Millisecond
	DefaultFormat            = "csv"
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 4
)

func (c *Config) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.WSURL == "" {
		c.API.WSURL = DefaultWSURL
		if c.API.Demo {
			c.API.WSURL = DefaultDemoWSURL
		}
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxAttempts == 0 {
		c.API.MaxAttempts = DefaultMaxAttempts
	}
	if c.API.InitialBackoff == 0 {
		c.API.InitialBackoff = DefaultInitialBackoff
	}
	if c.API.BackoffMultiplier == 0 {
		c.API.BackoffMultiplier = DefaultBackoffMultiplier
	}
	if c.API.RequestInterval == 0 {
		c.API.RequestInterval = DefaultRequestInterval
	}

	// Export defaults
	if c.Export.Format == "" {
		c.Export.Format = DefaultFormat
	}

	// Database defaults, only for a configured connection
	if !c.Database.IsZero() && c.Database.URL == "" {
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = DefaultDBSSLMode
		}
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
}
