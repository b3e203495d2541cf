// Package config loads runtime configuration for the SQL Parrot CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-server string            base URL of the backend HTTP API
//	-bridge-socket string     path of the backend command socket
//	-transport string         "http" or "bridge"
//	-timeout duration         per-request deadline, e.g. 10s
//	-health-interval duration backend reachability probe interval
//	-fail-open                treat a failed password status check as unprotected
//	-theme string             shell colour theme
//	-log-level string         debug, info, warn, or error
//
// Boolean flags take the -fail-open=false form when disabling.
//
// # JSON schema
//
// The JSON loader uses timex.Duration for durations, so values can be either
// strings like "10s" or integer nanoseconds:
//
//	{
//	  "server_addr": "http://127.0.0.1:8787",
//	  "transport": "http",
//	  "request_timeout": "10s",
//	  "fail_open": true,
//	  "theme": "dark"
//	}
//
// Primary API
//
//   - type Config                     runtime settings for the CLI
//   - func LoadConfig() *Config       builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults()   sets sensible defaults
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
