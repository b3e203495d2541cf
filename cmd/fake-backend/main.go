package main

import (
	"context"
	"log"
	"os"

	"github.com/sqlparrot/sqlparrot/internal/buildinfo"
	"github.com/sqlparrot/sqlparrot/internal/fakeback"
	"github.com/sqlparrot/sqlparrot/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()

	cfg, err := fakeback.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := fakeback.NewApp(ctx, cfg, logging.NewTextLogger(cfg.Logging.Level))
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
