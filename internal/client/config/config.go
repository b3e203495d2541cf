package config

import "time"

// Config holds runtime settings for the SQL Parrot CLI.
//
// Fields:
//   - ServerAddr: base URL of the backend HTTP API.
//   - BridgeSocket: path of the backend's local command socket.
//   - Transport: which transport to use, "http" or "bridge".
//   - RequestTimeout: per-request deadline for backend calls.
//   - HealthCheckInterval: how often the shell probes backend reachability.
//   - FailOpen: whether a failed password status check is treated as
//     "no password configured" instead of an error.
//   - Theme: colour theme name for the shell.
//   - LogLevel: minimum level for diagnostic logging.
type Config struct {
	ServerAddr          string
	BridgeSocket        string
	Transport           string
	RequestTimeout      time.Duration
	HealthCheckInterval time.Duration
	FailOpen            bool
	Theme               string
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "http://127.0.0.1:8787"
	c.BridgeSocket = "/tmp/sqlparrot.sock"
	c.Transport = "http"
	c.RequestTimeout = 10 * time.Second
	c.HealthCheckInterval = 15 * time.Second
	c.FailOpen = true
	c.Theme = "default"
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
