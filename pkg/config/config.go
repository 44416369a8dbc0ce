package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Hytera   HyteraConfig   `mapstructure:"hytera"`
	Homebrew HomebrewConfig `mapstructure:"homebrew"`
	SNMP     SNMPConfig     `mapstructure:"snmp"`
	Database DatabaseConfig `mapstructure:"database"`
	Web      WebConfig      `mapstructure:"web"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig holds bridge identification
type ServerConfig struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

// HyteraConfig holds the repeater-facing UDP endpoints
type HyteraConfig struct {
	IP       string `mapstructure:"ip"`        // Bind address for all three listeners
	P2PPort  int    `mapstructure:"p2p_port"`  // Registration/control endpoint
	RDACPort int    `mapstructure:"rdac_port"` // RDAC identification endpoint
	DMRPort  int    `mapstructure:"dmr_port"`  // DMR application traffic endpoint

	// RDAC handshake step timeout in seconds; 0 disables the timeout
	RDACStepTimeout int `mapstructure:"rdac_step_timeout"`
}

// HomebrewConfig holds the upstream homebrew master connection
type HomebrewConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	MasterIP   string `mapstructure:"master_ip"`
	MasterPort int    `mapstructure:"master_port"`
	LocalPort  int    `mapstructure:"local_port"`
	Passphrase string `mapstructure:"passphrase"`

	// Identity overrides; when empty the values extracted during RDAC
	// identification are used
	Callsign   string `mapstructure:"callsign"`
	RepeaterID int    `mapstructure:"repeater_id"`

	ColorCode   int     `mapstructure:"color_code"`
	TXPower     int     `mapstructure:"tx_power"`
	Latitude    float64 `mapstructure:"latitude"`
	Longitude   float64 `mapstructure:"longitude"`
	Height      int     `mapstructure:"height"`
	Location    string  `mapstructure:"location"`
	Description string  `mapstructure:"description"`
	URL         string  `mapstructure:"url"`

	PingInterval int `mapstructure:"ping_interval"` // Seconds between RPTPING
}

// SNMPConfig holds repeater SNMP discovery settings
type SNMPConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Community string `mapstructure:"community"`
	Port      int    `mapstructure:"port"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// DatabaseConfig holds persistence settings
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// WebConfig holds the diagnostics dashboard configuration
type WebConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// MQTTConfig holds MQTT event publishing configuration
type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	QoS         byte   `mapstructure:"qos"`
	Retained    bool   `mapstructure:"retained"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled    bool             `mapstructure:"enabled"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig holds Prometheus metrics configuration
type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/hytera-bridge")
	}

	viper.SetEnvPrefix("HYTERA")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file: run on defaults
		} else if os.IsNotExist(err) {
			// Explicitly named file missing is also tolerated
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.name", "hytera-bridge")
	viper.SetDefault("server.description", "Hytera to Homebrew DMR bridge")

	// Hytera repeaters expect these well-known ports
	viper.SetDefault("hytera.ip", "0.0.0.0")
	viper.SetDefault("hytera.p2p_port", 50000)
	viper.SetDefault("hytera.rdac_port", 50002)
	viper.SetDefault("hytera.dmr_port", 50001)
	viper.SetDefault("hytera.rdac_step_timeout", 30)

	viper.SetDefault("homebrew.enabled", true)
	viper.SetDefault("homebrew.master_port", 62031)
	viper.SetDefault("homebrew.local_port", 0)
	viper.SetDefault("homebrew.color_code", 1)
	viper.SetDefault("homebrew.tx_power", 10)
	viper.SetDefault("homebrew.ping_interval", 5)

	viper.SetDefault("snmp.enabled", true)
	viper.SetDefault("snmp.community", "public")
	viper.SetDefault("snmp.port", 161)
	viper.SetDefault("snmp.timeout_ms", 2000)

	viper.SetDefault("database.enabled", true)
	viper.SetDefault("database.path", "hytera-bridge.db")

	viper.SetDefault("web.enabled", true)
	viper.SetDefault("web.host", "0.0.0.0")
	viper.SetDefault("web.port", 8080)

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.topic_prefix", "hytera/bridge")
	viper.SetDefault("mqtt.client_id", "hytera-bridge")
	viper.SetDefault("mqtt.qos", 1)
	viper.SetDefault("mqtt.retained", false)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.prometheus.enabled", true)
	viper.SetDefault("metrics.prometheus.port", 9090)
	viper.SetDefault("metrics.prometheus.path", "/metrics")
}
