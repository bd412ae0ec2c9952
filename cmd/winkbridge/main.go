// Wink MQTT Bridge
//
// This is the main entry point for the Wink bridge daemon. It runs on a
// rooted Wink Hub and connects the hub's paired devices to an MQTT
// broker:
//   - Device state is polled through aprontest and published as retained
//     JSON status documents
//   - Commands arrive on per-device set topics and are written back
//     through aprontest
//   - Optional extras: Home Assistant discovery, a local diagnostic API
//     with WebSocket streaming, InfluxDB telemetry, and mDNS
//     advertisement
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/wink-bridge/internal/api"
	"github.com/nerrad567/wink-bridge/internal/apron"
	"github.com/nerrad567/wink-bridge/internal/bridge"
	"github.com/nerrad567/wink-bridge/internal/infrastructure/config"
	"github.com/nerrad567/wink-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/wink-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/wink-bridge/internal/infrastructure/mdns"
	"github.com/nerrad567/wink-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/wink-bridge/internal/process"
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
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting wink bridge",
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

	// Build the hub controller
	controller, err := buildController(cfg, log)
	if err != nil {
		return fmt.Errorf("building controller: %w", err)
	}
	log.Info("controller ready", "implementation", cfg.Hub.Controller)

	// Topic scheme and diagnostic message ring
	topics := bridge.NewTopics(
		cfg.MQTT.Topics.Prefix,
		cfg.MQTT.Topics.DiscoveryPrefix,
		cfg.MQTT.Topics.DiscoveryListen,
	)
	ring := bridge.NewMessageLog(cfg.Bridge.MessageLogSize)

	// Connect to the MQTT broker. When MQTT is disabled the engine runs
	// against a no-op client: nothing is published, but the controller
	// and diagnostic API stay usable.
	var mqttClient *mqtt.Client
	var engineMQTT bridge.MQTTClient
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
		mqttClient.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", mqttClient.ClientID(),
		)
		engineMQTT = &mqttEngineAdapter{client: mqttClient}
	} else {
		log.Info("MQTT disabled, serving the hub locally only")
		engineMQTT = noopMQTT{}
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	var recorder bridge.StateRecorder
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
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
		recorder = &influxRecorder{client: influxClient}
	} else {
		log.Info("InfluxDB disabled")
	}

	// Create the sync engine
	engine, err := bridge.NewSyncer(bridge.SyncerOptions{
		Controller:      controller,
		MQTTClient:      engineMQTT,
		Topics:          topics,
		MessageLog:      ring,
		Recorder:        recorder,
		Logger:          log,
		QoS:             byte(cfg.MQTT.QoS),
		ResyncInterval:  cfg.GetResyncInterval(),
		RepollQueueSize: cfg.Bridge.RepollQueueSize,
	})
	if err != nil {
		return fmt.Errorf("creating sync engine: %w", err)
	}

	// Start the engine only when there is a broker to sync with. The
	// connection callbacks drive subscribe-and-resync on every reconnect.
	if mqttClient != nil {
		mqttClient.SetOnConnect(engine.HandleConnected)
		mqttClient.SetOnDisconnect(engine.HandleDisconnected)

		engine.Start()
		defer func() {
			log.Info("stopping sync engine")
			engine.Stop()
		}()
		log.Info("sync engine started",
			"prefix", topics.Prefix(),
			"resync_interval", cfg.GetResyncInterval(),
		)
	}

	// Start the diagnostic API server (optional)
	var apiServer *api.Server
	if cfg.API.Enabled {
		deps := api.Deps{
			Config:     cfg.API,
			Logger:     log,
			Controller: controller,
			Engine:     engine,
			Version:    version,
		}
		if mqttClient != nil {
			deps.MQTT = mqttClient
		}

		apiServer, err = api.New(deps)
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API server disabled")
	}

	// Advertise the API over mDNS (optional; requires the API)
	if cfg.MDNS.Enabled && cfg.API.Enabled {
		advertiser, mdnsErr := mdns.NewAdvertiser(mdns.Options{
			Instance: cfg.MDNS.Instance,
			Domain:   cfg.MDNS.Domain,
			Port:     cfg.API.Port,
			Version:  version,
			Logger:   log,
		})
		if mdnsErr != nil {
			return fmt.Errorf("creating mDNS advertiser: %w", mdnsErr)
		}
		if startErr := advertiser.Start(); startErr != nil {
			// Not fatal: the bridge works fine without discovery.
			log.Warn("mDNS advertisement failed", "error", startErr)
		} else {
			defer func() {
				log.Info("stopping mDNS advertiser")
				advertiser.Shutdown()
			}()
			log.Info("mDNS advertisement started", "instance", advertiser.Instance())
		}
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. mDNS advertiser (if enabled)
	// 2. API server (if enabled)
	// 3. Sync engine (if MQTT enabled)
	// 4. InfluxDB (if enabled)
	// 5. MQTT

	log.Info("wink bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses WINKBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("WINKBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildController constructs the configured hub controller.
func buildController(cfg *config.Config, log *logging.Logger) (apron.Controller, error) {
	switch cfg.Hub.Controller {
	case config.ControllerFake:
		return apron.NewFakeController(), nil
	case config.ControllerAprontest:
		runner := process.NewRunner(cfg.GetCommandTimeout(), log)
		return apron.NewAprontestController(cfg.Hub.Binary, runner, log), nil
	default:
		return nil, fmt.Errorf("unknown hub controller %q", cfg.Hub.Controller)
	}
}

// healthCheck verifies all active connections are healthy. Disabled
// components pass nil and are skipped.
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client, apiServer *api.Server) error {
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

	if apiServer != nil {
		if err := apiServer.HealthCheck(ctx); err != nil {
			return fmt.Errorf("api: %w", err)
		}
	}

	return nil
}

// mqttEngineAdapter adapts the infrastructure MQTT client to the sync
// engine's MQTTClient interface. The difference is the Subscribe handler
// signature:
//   - Infrastructure mqtt: func(topic string, payload []byte) error
//   - Engine expects:      func(topic string, payload []byte)
type mqttEngineAdapter struct {
	client *mqtt.Client
}

// Publish implements bridge.MQTTClient.
func (a *mqttEngineAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements bridge.MQTTClient.
func (a *mqttEngineAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	// Wrap the void handler to return nil error (engine handlers report
	// failures through their own logging instead)
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements bridge.MQTTClient.
func (a *mqttEngineAdapter) IsConnected() bool {
	return a.client.IsConnected()
}

// Disconnect implements bridge.MQTTClient.
// Note: the client lifecycle is managed by run's defer chain, so this is
// a no-op.
func (a *mqttEngineAdapter) Disconnect(_ uint) {
	// No-op: MQTT client lifecycle is managed by run's defer chain
}

// noopMQTT serves the engine when MQTT is disabled. Nothing is published
// and the connection always reads as down.
type noopMQTT struct{}

func (noopMQTT) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return nil
}

func (noopMQTT) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return nil
}

func (noopMQTT) IsConnected() bool { return false }

func (noopMQTT) Disconnect(_ uint) {}

// influxRecorder feeds polled device state into InfluxDB, one point per
// numeric attribute.
type influxRecorder struct {
	client *influxdb.Client
}

// RecordDeviceState implements bridge.StateRecorder. Values follow the
// same precedence as the published status document: a pending setting
// wins over the reported value. Attributes that have no numeric
// rendering (write-only buttons, text) are skipped.
func (r *influxRecorder) RecordDeviceState(dev *apron.Device) {
	for i := range dev.Attributes {
		attr := &dev.Attributes[i]
		value, ok := attr.Setting.Or(attr.Current).Float64()
		if !ok {
			continue
		}
		r.client.WriteAttribute(uint32(dev.ID), dev.Name, attr.Description, value)
	}
}
