package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Controller implementation names accepted by HubConfig.Controller.
const (
	ControllerAprontest = "aprontest"
	ControllerFake      = "fake"
)

// Config is the root configuration structure for the Wink bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Hub      HubConfig      `yaml:"hub"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	API      APIConfig      `yaml:"api"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	MDNS     MDNSConfig     `yaml:"mdns"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// HubConfig selects and configures the device controller.
type HubConfig struct {
	// Controller selects the implementation: "aprontest" drives the hub's
	// CLI tool, "fake" serves a fixed in-memory catalog for development.
	Controller string `yaml:"controller"`

	// Binary is the path to the aprontest executable.
	Binary string `yaml:"binary"`

	// CommandTimeout bounds a single aprontest invocation, in seconds.
	CommandTimeout int `yaml:"command_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	Topics    TopicsConfig        `yaml:"topics"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// TopicsConfig contains the topic namespaces the bridge speaks under.
//
// Prefixes are normalised (exactly one trailing separator) when the topic
// scheme is built; raw values are kept here as configured.
type TopicsConfig struct {
	// Prefix is the namespace for per-device status and command topics.
	Prefix string `yaml:"prefix"`

	// DiscoveryPrefix is the namespace for platform auto-discovery
	// announcements. Empty disables discovery publishing.
	DiscoveryPrefix string `yaml:"discovery_prefix"`

	// DiscoveryListen is the topic whose messages trigger a fresh discovery
	// broadcast (platform birth announcements). Empty disables the trigger.
	DiscoveryListen string `yaml:"discovery_listen"`
}

// MQTTReconnectConfig contains MQTT reconnection settings. The bridge never
// gives up on the broker; these only shape the retry cadence.
type MQTTReconnectConfig struct {
	InitialDelayMS int `yaml:"initial_delay_ms"`
	MaxDelayMS     int `yaml:"max_delay_ms"`
}

// BridgeConfig contains synchronisation engine settings.
type BridgeConfig struct {
	// ResyncIntervalMS is the period of the full-repoll timer, in milliseconds.
	ResyncIntervalMS int `yaml:"resync_interval_ms"`

	// RepollQueueSize bounds the pending-repoll queue. Producers drop
	// rather than block when it is full.
	RepollQueueSize int `yaml:"repoll_queue_size"`

	// MessageLogSize bounds the diagnostic ring of recent broker traffic.
	MessageLogSize int `yaml:"message_log_size"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled      bool             `yaml:"enabled"`
	Host         string           `yaml:"host"`
	Port         int              `yaml:"port"`
	Timeouts     APITimeoutConfig `yaml:"timeouts"`
	MaxBodyBytes int64            `yaml:"max_body_bytes"`
}

// APITimeoutConfig contains HTTP timeout settings, in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// InfluxDBConfig contains InfluxDB connection settings for attribute telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// MDNSConfig contains zeroconf advertisement settings for the API.
type MDNSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"`
	Domain   string `yaml:"domain"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: WINKBRIDGE_SECTION_KEY
// For example: WINKBRIDGE_MQTT_HOST, WINKBRIDGE_HUB_BINARY
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Hub: HubConfig{
			Controller:     ControllerAprontest,
			Binary:         "aprontest",
			CommandTimeout: 30,
		},
		MQTT: MQTTConfig{
			Enabled: true,
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			Topics: TopicsConfig{
				Prefix:          "home/wink/",
				DiscoveryPrefix: "",
				DiscoveryListen: "homeassistant/status",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelayMS: 200,
				MaxDelayMS:     30000,
			},
		},
		Bridge: BridgeConfig{
			ResyncIntervalMS: 60000,
			RepollQueueSize:  10,
			MessageLogSize:   10,
		},
		API: APIConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			MaxBodyBytes: 1 << 20,
		},
		InfluxDB: InfluxDBConfig{
			Enabled:       false,
			BatchSize:     100,
			FlushInterval: 5,
		},
		MDNS: MDNSConfig{
			Enabled: false,
			Domain:  "local.",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: WINKBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Hub
	if v := os.Getenv("WINKBRIDGE_HUB_BINARY"); v != "" {
		cfg.Hub.Binary = v
	}

	// MQTT
	if v := os.Getenv("WINKBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("WINKBRIDGE_MQTT_CLIENT_ID"); v != "" {
		cfg.MQTT.Broker.ClientID = v
	}
	if v := os.Getenv("WINKBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("WINKBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("WINKBRIDGE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("WINKBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Hub validation
	switch c.Hub.Controller {
	case ControllerAprontest:
		if c.Hub.Binary == "" {
			errs = append(errs, "hub.binary is required for the aprontest controller")
		}
	case ControllerFake:
		// No further settings.
	default:
		errs = append(errs, fmt.Sprintf("hub.controller must be %q or %q", ControllerAprontest, ControllerFake))
	}
	if c.Hub.CommandTimeout < 1 {
		errs = append(errs, "hub.command_timeout must be at least 1 second")
	}

	// MQTT validation
	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required")
		}
		if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
			errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
		}
		if c.MQTT.Topics.Prefix == "" {
			errs = append(errs, "mqtt.topics.prefix is required")
		}
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Bridge validation
	if c.Bridge.ResyncIntervalMS < 1 {
		errs = append(errs, "bridge.resync_interval_ms must be positive")
	}
	if c.Bridge.RepollQueueSize < 1 {
		errs = append(errs, "bridge.repoll_queue_size must be at least 1")
	}
	if c.Bridge.MessageLogSize < 1 {
		errs = append(errs, "bridge.message_log_size must be at least 1")
	}

	// API validation
	if c.API.Enabled {
		if c.API.Port < 1 || c.API.Port > 65535 {
			errs = append(errs, "api.port must be between 1 and 65535")
		}
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" {
			errs = append(errs, "influxdb.org is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetCommandTimeout returns the hub command timeout as a Duration.
func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Hub.CommandTimeout) * time.Second
}

// GetResyncInterval returns the full-repoll timer period as a Duration.
func (c *Config) GetResyncInterval() time.Duration {
	return time.Duration(c.Bridge.ResyncIntervalMS) * time.Millisecond
}

// GetInitialReconnectDelay returns the first MQTT retry delay as a Duration.
func (c *Config) GetInitialReconnectDelay() time.Duration {
	return time.Duration(c.MQTT.Reconnect.InitialDelayMS) * time.Millisecond
}

// GetMaxReconnectDelay returns the MQTT retry delay ceiling as a Duration.
func (c *Config) GetMaxReconnectDelay() time.Duration {
	return time.Duration(c.MQTT.Reconnect.MaxDelayMS) * time.Millisecond
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
