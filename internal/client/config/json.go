package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/sqlparrot/sqlparrot/internal/flagx"
	"github.com/sqlparrot/sqlparrot/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify durations either as
// strings like "10s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerAddr          string         `json:"server_addr"`
	BridgeSocket        string         `json:"bridge_socket"`
	Transport           string         `json:"transport"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	HealthCheckInterval timex.Duration `json:"health_check_interval"`
	FailOpen            bool           `json:"fail_open"`
	Theme               string         `json:"theme"`
	LogLevel            string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// The DTO is seeded with the current Config values before unmarshalling,
// so keys missing from the file keep their earlier value. Panics on read
// or unmarshal errors (caller should recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	jc := JsonConfig{
		ServerAddr:          cfg.ServerAddr,
		BridgeSocket:        cfg.BridgeSocket,
		Transport:           cfg.Transport,
		RequestTimeout:      timex.Duration{Duration: cfg.RequestTimeout},
		HealthCheckInterval: timex.Duration{Duration: cfg.HealthCheckInterval},
		FailOpen:            cfg.FailOpen,
		Theme:               cfg.Theme,
		LogLevel:            cfg.LogLevel,
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerAddr = jc.ServerAddr
	cfg.BridgeSocket = jc.BridgeSocket
	cfg.Transport = jc.Transport
	cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	cfg.HealthCheckInterval = time.Duration(jc.HealthCheckInterval.Duration)
	cfg.FailOpen = jc.FailOpen
	cfg.Theme = jc.Theme
	cfg.LogLevel = jc.LogLevel
}
