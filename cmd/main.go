package main

import (
	"context"
	"os"

	"github.com/desertthunder/summarybot/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("SUMMARYBOT_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config, err := loadConfig(configPath)
	if err != nil {
		logger.Fatalf("configuration error: %v", err)
	}
	if lvl, err := shared.ParseLevel(config.Logging.Level); err == nil {
		shared.SetLogLevel(logger, lvl)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "summarybot",
		Usage:    "Manage users, sessions and schedules in the summarybot database",
		Version:  shared.AppVersion(),
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}
