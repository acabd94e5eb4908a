package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/sumx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml from the embedded template, then creates the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		configPath = "config.toml"
	}

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("using existing config file", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else if config, err := shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load created config, using defaults", "error", err)
		} else {
			r.config = config
		}
	}

	r.logger.Info("initializing database", "path", r.config.Storage.Path)

	db, err := shared.OpenStorage(r.config.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", r.config.Storage.Path)
	r.writePlain("✓ Configuration: %s\n", configPath)
	r.writePlain("✓ Database: %s\n", r.config.Storage.Path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set api.base_url in %s (or export %s)\n", configPath, EnvAPIURL)
	r.writePlain("2. Run 'sumx auth login --username <name>' to sign in\n")
	return nil
}
