package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/econext-bridge/internal/controller"
	"github.com/nerrad567/econext-bridge/internal/infrastructure/config"
	"github.com/nerrad567/econext-bridge/internal/infrastructure/database"
	"github.com/nerrad567/econext-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/econext-bridge/migrations"
)

func newPairCmd(opts *rootOptions) *cobra.Command {
	var dev deviceFlags

	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Test a controller connection and register it",
		Long: `Pair fetches the controller's parameters once, reads its UID and name,
and stores it in the controller registry.

Failures are reported with one of the reasons cannot_connect, invalid_auth,
already_configured or unknown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(opts.configPath, dev.apply)
			if err != nil {
				return err
			}
			log := logging.NewWithWriter(quietLogging(cfg.Logging), version, cmd.ErrOrStderr())

			db, err := database.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer func() {
				if closeErr := db.Close(); closeErr != nil {
					log.Error("error closing database", "error", closeErr)
				}
			}()
			if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
				return fmt.Errorf("running migrations: %w", migrateErr)
			}

			registry := controller.NewRegistry(controller.NewSQLiteRepository(db.DB))
			registry.SetLogger(log)
			if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
				return fmt.Errorf("loading controller registry: %w", refreshErr)
			}

			client, err := newDeviceClient(cfg, log)
			if err != nil {
				return err
			}

			c, err := controller.Pair(ctx, client, registry, client.Host(), client.Port())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(c)
		},
	}
	dev.register(cmd)
	return cmd
}

// quietLogging keeps one-shot commands from printing info logs over their
// JSON output unless the user asked for debug.
func quietLogging(cfg config.LoggingConfig) config.LoggingConfig {
	if cfg.Level != "debug" {
		cfg.Level = "warn"
	}
	return cfg
}
