package database

import (
	"fmt"
	"net/url"
)

// Config holds a single database connection.
type Config struct {
	URL      string `yaml:"url"` // full connection string; overrides the fields below
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// IsZero reports whether no connection has been configured.
func (c Config) IsZero() bool {
	return c.URL == "" && c.Host == ""
}

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg Config) string {
	if cfg.URL != "" {
		return cfg.URL
	}

	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		port,
		cfg.Name,
		sslMode,
	)
}
