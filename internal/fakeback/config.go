package fakeback

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/sqlparrot/sqlparrot/internal/flagx"
)

// Config holds the fake backend's runtime settings, loaded in layers:
// defaults, then a YAML file (with ${VAR} environment expansion), then
// command-line flags.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// BridgeConfig holds the command bridge socket configuration.
type BridgeConfig struct {
	SocketPath string `yaml:"socket_path"`
}

// DatabaseConfig holds the metadata store configuration.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

func (c *Config) loadDefaults() {
	c.Server.ListenAddr = "127.0.0.1:8787"
	c.Bridge.SocketPath = "/tmp/sqlparrot.sock"
	c.Database.Path = "sqlparrot.db"
	c.Logging.Level = "info"
}

// LoadConfig constructs a Config from defaults, the YAML file named by
// -config (when given), and command-line flag overrides, in that order.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.loadDefaults()

	if path := configPathFromArgs(os.Args[1:]); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.parseFlags(os.Args[1:]); err != nil {
		return nil, err
	}
	return cfg, cfg.validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with the environment value, or an empty
// string when the variable is unset.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

// configPathFromArgs extracts the -config flag value, ignoring every other
// argument.
func configPathFromArgs(args []string) string {
	var path string

	args = flagx.FilterArgs(args, []string{"-config", "--config"})

	fs := flag.NewFlagSet("config-path", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	_ = fs.Parse(args)

	return path
}

// parseFlags overrides selected fields from command-line flags.
//
// Supported flags:
//
//	-listen string     HTTP listen address
//	-socket string     command bridge socket path
//	-database string   metadata database path
func (c *Config) parseFlags(args []string) error {
	args = flagx.FilterArgs(args, []string{
		"-listen", "--listen",
		"-socket", "--socket",
		"-database", "--database",
	})

	fs := flag.NewFlagSet("fake-backend", flag.ContinueOnError)

	fs.StringVar(&c.Server.ListenAddr, "listen", c.Server.ListenAddr, "HTTP listen address")
	fs.StringVar(&c.Bridge.SocketPath, "socket", c.Bridge.SocketPath, "command bridge socket path")
	fs.StringVar(&c.Database.Path, "database", c.Database.Path, "metadata database path")

	return fs.Parse(args)
}

func (c *Config) validate() error {
	if c.Server.ListenAddr == "" {
		return errors.New("server.listen_addr is required")
	}
	if c.Bridge.SocketPath == "" {
		return errors.New("bridge.socket_path is required")
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	return nil
}
