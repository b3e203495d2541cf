package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sqlparrot/sqlparrot/internal/client/cli"
	"github.com/sqlparrot/sqlparrot/internal/client/config"
	"github.com/sqlparrot/sqlparrot/internal/logging"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run the interactive shell",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()

	app, err := cli.NewApp(cfg, logging.NewTextLogger(cfg.LogLevel))
	if err != nil {
		return err
	}
	app.Run(context.Background())
	return nil
}
