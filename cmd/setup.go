package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/summarybot/internal/server"
	"github.com/desertthunder/summarybot/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the configuration file when missing and migrates the database it names.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.logger.Info("config file created", "path", configPath)
	}

	config, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	r.config = config
	r.configPath = configPath

	r.logger.Info("initializing database", "driver", config.Database.Driver, "path", config.Database.Path)
	if err := r.MigrateUp(ctx, cmd); err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

func (r *Runner) MigrateUp(ctx context.Context, cmd *cli.Command) error {
	maker, err := r.sessions()
	if err != nil {
		return err
	}

	r.logger.Info("running database migrations")
	applied, err := shared.RunMigrations(maker.DB())
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := shared.CurrentVersion(maker.DB())
	if err != nil {
		return err
	}
	return r.writePlain("✓ applied %d migration(s), schema at version %d\n", applied, version)
}

func (r *Runner) MigrateDown(ctx context.Context, cmd *cli.Command) error {
	maker, err := r.sessions()
	if err != nil {
		return err
	}

	version, err := shared.RollbackMigration(maker.DB())
	if errors.Is(err, shared.ErrNoMigrations) {
		return r.writePlain("nothing to roll back\n")
	}
	if err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	return r.writePlain("✓ rolled back migration %d\n", version)
}

func (r *Runner) MigrateStatus(ctx context.Context, cmd *cli.Command) error {
	maker, err := r.sessions()
	if err != nil {
		return err
	}

	version, err := shared.CurrentVersion(maker.DB())
	if err != nil {
		return r.writePlain("schema not initialized, run 'summarybot migrate up'\n")
	}
	return r.writePlain("schema at version %d\n", version)
}

// Serve runs the API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if host := cmd.String("host"); host != "" {
		r.config.App.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		r.config.App.Port = int(port)
	}

	maker, err := r.sessions()
	if err != nil {
		return err
	}
	if cmd.Bool("migrate") {
		if _, err := shared.RunMigrations(maker.DB()); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	api, err := server.NewAPI(r.config, maker, r.rootLogger("server"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info(shared.VersionString(r.config.API.BaseVersion), "root", r.config.API.RootPath(0))
	return server.Serve(ctx, r.config.App.Addr(), api.Handler(), r.logger)
}

// ConfigShow prints the effective configuration.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("json") {
		return r.writeJSON(r.config, true)
	}

	data, err := r.config.Encode()
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// loadConfig reads path when it exists, overlays the environment and validates the result.
func loadConfig(path string) (*shared.Config, error) {
	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if err := shared.ApplyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
