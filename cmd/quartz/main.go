// Quartz Core - Dynamic Automation Runtime
//
// This is the main entry point for the Quartz Core application.
// Quartz is a rule-driven automation node designed for:
//   - JSON rule documents applied at runtime, no reflash required
//   - Offline-first operation with bounded on-device persistence
//   - Trigger/action automations over hardware-backed entities
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/quartzhome/quartz-core/migrations"

	"github.com/quartzhome/quartz-core/internal/api"
	"github.com/quartzhome/quartz-core/internal/entity"
	"github.com/quartzhome/quartz-core/internal/infrastructure/config"
	"github.com/quartzhome/quartz-core/internal/infrastructure/database"
	"github.com/quartzhome/quartz-core/internal/infrastructure/influxdb"
	"github.com/quartzhome/quartz-core/internal/infrastructure/logging"
	"github.com/quartzhome/quartz-core/internal/infrastructure/mqtt"
	"github.com/quartzhome/quartz-core/internal/rules"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Quartz Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
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

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Connect to MQTT broker (optional). Without a broker, switch and light
	// commands are discarded and input events arrive only through tests.
	var mqttClient *mqtt.Client
	var sink entity.CommandSink = entity.NopSink{}
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		sink = &mqttCommandSink{client: mqttClient, qos: byte(cfg.MQTT.QoS)}
	} else {
		log.Info("MQTT disabled, entity commands will be discarded")
	}

	// Build the entity registry from configuration
	registry := entity.NewRegistry(sink)
	registry.SetLogger(log)
	if regErr := registerEntities(registry, cfg.Entities); regErr != nil {
		return fmt.Errorf("registering entities: %w", regErr)
	}
	log.Info("entity registry initialised", "entities", registry.Count())

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Create the automation service over the registry and the SQLite store
	svc, err := rules.NewService(rules.ServiceDeps{
		Store:    rules.NewSQLiteStore(db.DB),
		Resolver: resolverAdapter{registry: registry},
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("creating rules service: %w", err)
	}
	// Tear down live automations before the deferred infrastructure closes:
	// detached watchers and cancelled delay chains must not touch a closed
	// MQTT client.
	defer svc.Runtime().Clear()

	wireTelemetry(svc, mqttClient, influxClient, cfg, log)

	// Seed the initial document from disk when configured
	if cfg.Rules.InitialFile != "" {
		initial, readErr := os.ReadFile(cfg.Rules.InitialFile)
		if readErr != nil {
			return fmt.Errorf("reading initial rule document: %w", readErr)
		}
		svc.SetInitialDocument(initial)
		log.Info("initial rule document configured",
			"path", cfg.Rules.InitialFile, "bytes", len(initial))
	}

	if initErr := svc.Initialize(ctx); initErr != nil {
		return fmt.Errorf("initialising rules service: %w", initErr)
	}
	log.Info("rules service initialised",
		"rules", len(svc.Rules()),
		"units", svc.UnitCount(),
	)

	// Subscribe to input events and rule document updates
	if mqttClient != nil {
		if subErr := subscribeBridge(mqttClient, registry, svc, influxClient, cfg, log); subErr != nil {
			return fmt.Errorf("subscribing to broker topics: %w", subErr)
		}
	}

	// Start the diagnostic HTTP API (optional)
	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log,
			Rules:    svc,
			Entities: registry,
			DB:       db,
			MQTT:     mqttClient,
			Version:  version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API server disabled")
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("Quartz Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses QUARTZ_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("QUARTZ_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// registerEntities populates the registry from the configured entity list.
func registerEntities(registry *entity.Registry, entities []config.EntityConfig) error {
	for _, e := range entities {
		name := e.Name
		if name == "" {
			name = e.ID
		}

		var err error
		switch entity.Kind(e.Kind) {
		case entity.KindBinaryInput:
			_, err = registry.AddBinaryInput(e.ID, name)
		case entity.KindSwitch:
			_, err = registry.AddSwitch(e.ID, name)
		case entity.KindLight:
			_, err = registry.AddLight(e.ID, name)
		default:
			// Config validation rejects unknown kinds before this runs.
			err = fmt.Errorf("%w: %q", entity.ErrUnknownKind, e.Kind)
		}
		if err != nil {
			return fmt.Errorf("entity %q: %w", e.ID, err)
		}
	}
	return nil
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
