// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// After the file is read, the OKX_* environment variables override it:
//
//	OKX_KEY, OKX_SECRET, OKX_PASSPHRASE  credentials
//	OKX_BASE_URL                         REST host
//	OKX_USE_DEMO=1|true|True             simulated trading
//
// A .env file is loaded into the environment first when present; it never
// overrides variables that are already set.
package config
