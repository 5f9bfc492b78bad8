package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/econext-bridge/internal/api"
	"github.com/nerrad567/econext-bridge/internal/bridges/homeassistant"
	"github.com/nerrad567/econext-bridge/internal/controller"
	"github.com/nerrad567/econext-bridge/internal/coordinator"
	"github.com/nerrad567/econext-bridge/internal/entity"
	"github.com/nerrad567/econext-bridge/internal/infrastructure/config"
	"github.com/nerrad567/econext-bridge/internal/infrastructure/database"
	"github.com/nerrad567/econext-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/econext-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/econext-bridge/internal/metrics"
	"github.com/nerrad567/econext-bridge/migrations"
)

const (
	// readyRetryDelay spaces startup attempts while the controller is unreachable.
	readyRetryDelay = 10 * time.Second

	touchTimeout = 5 * time.Second

	dbStepTimeout = 30 * time.Second
)

// detached bounds a local database step without inheriting ctx's
// cancellation.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), dbStepTimeout)
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bridge until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts.configPath)
		},
	}
}

// run is the service, separated from the command for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default(version)
	log.Info("starting econext bridge",
		"commit", commit,
		"build_date", date,
	)

	cfg, err := loadConfig(configPath, nil)
	if err != nil {
		return err
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Local database steps finish even if a signal arrives meanwhile;
	// the shutdown is then noticed while waiting for the controller.
	dbCtx, dbCancel := detached(ctx)
	defer dbCancel()

	if migrateErr := db.Migrate(dbCtx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}

	registry := controller.NewRegistry(controller.NewSQLiteRepository(db.DB))
	registry.SetLogger(log.Component("registry"))
	if refreshErr := registry.RefreshCache(dbCtx); refreshErr != nil {
		return fmt.Errorf("loading controller registry: %w", refreshErr)
	}
	log.Info("controller registry initialised", "controllers", registry.Count())

	client, err := newDeviceClient(cfg, log.Component("econext"))
	if err != nil {
		return err
	}
	coord := coordinator.New(client, coordinator.Options{
		Interval: cfg.GetPollInterval(),
		Logger:   log.Component("coordinator"),
	})

	// Nothing can be published until the controller has told us its UID.
	log.Info("waiting for controller", "host", client.Host(), "port", client.Port())
	if waitErr := coord.WaitReady(ctx, readyRetryDelay); waitErr != nil {
		if errors.Is(waitErr, context.Canceled) {
			log.Info("shutdown before controller became ready")
			return nil
		}
		return fmt.Errorf("waiting for controller: %w", waitErr)
	}
	ident := coord.DeviceIdentity()
	log.Info("controller ready", "uid", ident.UID, "name", ident.Name, "params", coord.Snapshot().Len())

	regCtx, regCancel := detached(ctx)
	defer regCancel()
	if regErr := ensureRegistered(regCtx, registry, ident, client.Host(), client.Port(), coord.Snapshot().Len()); regErr != nil {
		return regErr
	}
	coord.AddListener(touchListener(registry, ident.UID, log))

	table, err := loadEntityTable(cfg.Entities)
	if err != nil {
		return err
	}

	m := metrics.New(nil)
	src := m.InstrumentSource(coord)
	entities := entity.NewIndex(entity.Build(src, table, log.Component("entity")))
	m.SetEntities(entities)
	coord.AddListener(m.HandleUpdate)
	log.Info("entities built", "count", entities.Len())

	var (
		mqttClient *mqtt.Client
		bridge     *homeassistant.Bridge
	)
	if cfg.HomeAssistant.Enabled {
		topics := mqtt.NewTopics(cfg.HomeAssistant.TopicPrefix, ident.UID)
		mqttClient, err = mqtt.Connect(cfg.MQTT, mqtt.Availability{
			Topic:   topics.BridgeStatus(),
			Online:  mqtt.PayloadOnline,
			Offline: mqtt.PayloadOffline,
		})
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT connection lost", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		bridge, err = homeassistant.New(homeassistant.Options{
			MQTTClient:      mqttClient,
			Source:          coord,
			Entities:        entities,
			UID:             ident.UID,
			DiscoveryPrefix: cfg.HomeAssistant.DiscoveryPrefix,
			TopicPrefix:     cfg.HomeAssistant.TopicPrefix,
			Version:         version,
			HealthInterval:  cfg.GetHealthInterval(),
			Logger:          log.Component("homeassistant"),
		})
		if err != nil {
			return fmt.Errorf("creating Home Assistant bridge: %w", err)
		}
		if startErr := bridge.Start(ctx); startErr != nil {
			return fmt.Errorf("starting Home Assistant bridge: %w", startErr)
		}
		defer func() {
			log.Info("stopping Home Assistant bridge")
			bridge.Stop()
		}()
		coord.AddListener(bridge.HandleUpdate)
	} else {
		log.Info("Home Assistant bridge disabled")
	}

	if cfg.API.Enabled {
		deps := api.Deps{
			Config:      cfg.API,
			WS:          cfg.WebSocket,
			Logger:      log.Component("api"),
			Coordinator: coord,
			Writer:      src,
			Entities:    entities,
			Controllers: registry,
			Metrics:     m.Handler(),
			Version:     version,
		}
		if bridge != nil {
			deps.Bridge = bridge
		}
		srv, srvErr := api.New(deps)
		if srvErr != nil {
			return fmt.Errorf("creating API server: %w", srvErr)
		}
		if startErr := srv.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		coord.AddListener(srv.HandleUpdate)
	} else {
		log.Info("API server disabled")
	}

	if err := healthCheck(ctx, db, mqttClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, polling controller", "interval", coord.Interval().String())

	// Blocks until the shutdown signal.
	coord.Run(ctx)

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. API server (if enabled)
	// 2. Home Assistant bridge, then MQTT (if enabled)
	// 3. Database

	return nil
}

// ensureRegistered records the running controller in the registry the first
// time the bridge sees it, so a bridge started without "pair" still lists it.
// A known controller found under a new name or address is updated.
func ensureRegistered(ctx context.Context, reg *controller.Registry, ident coordinator.Identity, host string, port, paramCount int) error {
	exists, err := reg.Exists(ctx, ident.UID)
	if err != nil {
		return fmt.Errorf("checking controller registry: %w", err)
	}
	if exists {
		if _, err := reg.Readdress(ctx, ident.UID, ident.Name, host, port); err != nil {
			return fmt.Errorf("updating controller address: %w", err)
		}
		return nil
	}
	if err := reg.Add(ctx, &controller.Controller{
		UID:        ident.UID,
		Name:       ident.Name,
		Host:       host,
		Port:       port,
		ParamCount: paramCount,
	}); err != nil {
		return fmt.Errorf("registering controller: %w", err)
	}
	return nil
}

// touchListener stamps the registry entry after every successful fetch.
func touchListener(reg *controller.Registry, uid string, log *logging.Logger) func(coordinator.Update) {
	return func(u coordinator.Update) {
		if !u.Success || u.Patched {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()
		if err := reg.Touch(ctx, uid, u.At, u.Snapshot.Len()); err != nil {
			log.Warn("failed to record controller poll", "uid", uid, "error", err)
		}
	}
}

// loadEntityTable returns the built-in table, or the override file merged
// over it when one is configured.
func loadEntityTable(cfg config.EntitiesConfig) (entity.Table, error) {
	if cfg.File == "" {
		return entity.DefaultTable(), nil
	}
	table, err := entity.LoadTable(cfg.File)
	if err != nil {
		return entity.Table{}, fmt.Errorf("loading entity table: %w", err)
	}
	return table, nil
}

// healthCheck verifies the infrastructure connections are healthy.
// mqttClient is nil when the Home Assistant bridge is disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	return nil
}
