package config

import (
	"flag"
	"os"

	"github.com/sqlparrot/sqlparrot/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-server string            base URL of the backend HTTP API
//	-bridge-socket string     path of the backend command socket
//	-transport string         "http" or "bridge"
//	-timeout duration         per-request deadline (e.g. 10s)
//	-health-interval duration backend reachability probe interval
//	-fail-open                treat a failed status check as unprotected
//	-theme string             shell colour theme
//	-log-level string         debug, info, warn, or error
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-server", "--server",
		"-bridge-socket", "--bridge-socket",
		"-transport", "--transport",
		"-timeout", "--timeout",
		"-health-interval", "--health-interval",
		"-fail-open", "--fail-open",
		"-theme", "--theme",
		"-log-level", "--log-level",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerAddr, "server", cfg.ServerAddr, "base URL of the backend HTTP API")
	fs.StringVar(&cfg.BridgeSocket, "bridge-socket", cfg.BridgeSocket, "path of the backend command socket")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "transport to use: http or bridge")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "per-request deadline")
	fs.DurationVar(&cfg.HealthCheckInterval, "health-interval", cfg.HealthCheckInterval, "backend reachability probe interval")
	fs.BoolVar(&cfg.FailOpen, "fail-open", cfg.FailOpen, "treat a failed password status check as unprotected")
	fs.StringVar(&cfg.Theme, "theme", cfg.Theme, "shell colour theme")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "minimum log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
