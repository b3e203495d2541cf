package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sqlparrot/sqlparrot/internal/client/config"
)

var rootCmd = &cobra.Command{
	Use:   "parrot",
	Short: "SQL Parrot manages SQL Server database snapshots from the terminal",
	Long: `SQL Parrot groups databases, checkpoints them together, and rolls the
whole group back to a checkpoint in one step. Run without arguments to
start the interactive shell.`,
	Args:         cobra.NoArgs,
	RunE:         runShell,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Flag values are consumed by config.LoadConfig, which layers defaults,
	// the JSON file, and its own parse of os.Args. The declarations here
	// make cobra accept the flags and document them in help.
	defaults := &config.Config{}
	defaults.LoadDefaults()

	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "path to a JSON config file")
	pf.String("server", defaults.ServerAddr, "base URL of the backend HTTP API")
	pf.String("bridge-socket", defaults.BridgeSocket, "path of the backend command socket")
	pf.String("transport", defaults.Transport, "transport to use: http or bridge")
	pf.Duration("timeout", defaults.RequestTimeout, "per-request deadline")
	pf.Duration("health-interval", defaults.HealthCheckInterval, "backend reachability probe interval")
	pf.Bool("fail-open", defaults.FailOpen, "treat a failed password status check as unprotected")
	pf.String("theme", defaults.Theme, "shell colour theme")
	pf.String("log-level", defaults.LogLevel, "minimum log level")
}
