package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sqlparrot/sqlparrot/internal/client/cli"
	"github.com/sqlparrot/sqlparrot/internal/client/config"
	"github.com/sqlparrot/sqlparrot/internal/logging"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print session and backend status, then exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		app, err := cli.NewApp(cfg, logging.NewTextLogger(cfg.LogLevel))
		if err != nil {
			return err
		}
		return app.RunStatus(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
