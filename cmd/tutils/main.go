// TUtils daemon
//
// This is the main entry point for the tutils daemon. It opens the SQLite
// wrapper, runs the configured bootstrap scripts and keeps the database
// observable through metrics, InfluxDB and MQTT until it is told to stop.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/TBye101/TUtils/database"
	"github.com/TBye101/TUtils/internal/api"
	"github.com/TBye101/TUtils/internal/infrastructure/config"
	"github.com/TBye101/TUtils/internal/infrastructure/influxdb"
	"github.com/TBye101/TUtils/internal/infrastructure/metrics"
	"github.com/TBye101/TUtils/internal/infrastructure/mqtt"
	"github.com/TBye101/TUtils/logging"
	"github.com/TBye101/TUtils/scripts"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// configEnvVar names the variable holding the config file path.
// When it is unset the daemon runs on config.Default().
const configEnvVar = "TUTILS_CONFIG"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := logging.Default()
	log.Info("starting tutils",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err = newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close() //nolint:errcheck // Nothing left to log to

	var observers []database.Option

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.New(metrics.WithPrefix(cfg.Metrics.Prefix))
		observers = append(observers, database.WithObserver(collector))
	}

	influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		observers = append(observers, database.WithObserver(influxClient))
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if unsubErr := mqttClient.Unsubscribe(mqttClient.Topics().SystemShutdown()); unsubErr != nil {
				log.Warn("error unsubscribing from shutdown topic", "error", unsubErr)
			}
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected, notifications paused", "error", err)
		})

		notifier := mqtt.NewNotifier(mqttClient, mqttClient.Topics(), mqttClient.QoS(), log)
		observers = append(observers, database.WithObserver(notifier))

		if subErr := mqttClient.Subscribe(mqttClient.Topics().SystemShutdown(), mqttClient.QoS(), func(string, []byte) error {
			log.Info("shutdown requested over MQTT")
			cancel()
			return nil
		}); subErr != nil {
			return fmt.Errorf("subscribing to shutdown topic: %w", subErr)
		}
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	wrapper, err := database.OpenWrapper(ctx, cfg.DatabaseOptions(),
		append(observers, database.WithLogger(log))...)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := wrapper.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", wrapper.Path())

	var recorder scriptRecorder
	if influxClient != nil {
		recorder = influxClient
	}
	if err := runStartupScripts(ctx, wrapper, cfg.Database.Scripts, log, recorder); err != nil {
		return fmt.Errorf("running startup scripts: %w", err)
	}
	log.Info("startup scripts complete", "count", len(cfg.Database.Scripts))

	if cfg.API.Enabled {
		deps := api.Deps{
			Config:   cfg.API,
			Logger:   log,
			Database: wrapper,
			Metrics:  collector,
			Version:  version,
		}
		// Typed nils must not reach the interface fields.
		if mqttClient != nil {
			deps.MQTT = mqttClient
		}
		if influxClient != nil {
			deps.InfluxDB = influxClient
		}

		server, err := api.New(deps)
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, database, MQTT, InfluxDB, logger.

	log.Info("tutils stopped")
	return nil
}

// loadConfig reads the file named by TUTILS_CONFIG, or returns the defaults.
func loadConfig() (*config.Config, error) {
	path := os.Getenv(configEnvVar)
	if path == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("validating default config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the configured logger, opening the log file if needed.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if strings.EqualFold(cfg.Logging.Output, "file") {
		log, err := logging.NewFile(cfg.Logging, version)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		return log, nil
	}
	return logging.New(cfg.Logging, version), nil
}

// scriptRecorder receives the outcome of each startup script.
// *influxdb.Client satisfies it.
type scriptRecorder interface {
	RecordScriptRun(script string, duration time.Duration, err error)
	Flush()
}

// runStartupScripts runs names in order from the embedded scripts, stopping
// at the first failure. Every attempted script is reported to recorder,
// which may be nil.
func runStartupScripts(ctx context.Context, w database.Wrapper, names []string, log *logging.Logger, recorder scriptRecorder) error {
	if recorder != nil {
		defer recorder.Flush()
	}

	for _, name := range names {
		start := time.Now()
		err := database.LaunchScripts(ctx, w, scripts.FS, []string{name}, log)
		if recorder != nil {
			recorder.RecordScriptRun(name, time.Since(start), err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
