package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"port"`
	Environment string `mapstructure:"environment"`

	OTelServiceName  string `mapstructure:"otel_service_name"`
	OTelEndpoint     string `mapstructure:"otel_exporter_otlp_endpoint"`
	TelemetryEnabled bool   `mapstructure:"telemetry_enabled"`

	AMQPURL      string `mapstructure:"amqp_url"`
	AMQPExchange string `mapstructure:"amqp_exchange"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

var defaults = map[string]any{
	"port":                        "8080",
	"environment":                 "development",
	"otel_service_name":           "car-park-service",
	"otel_exporter_otlp_endpoint": "http://localhost:4318",
	"telemetry_enabled":           true,
	"amqp_url":                    "",
	"amqp_exchange":               "carpark.events",
	"shutdown_timeout":            "10s",
}

// New returns a viper instance with defaults applied and environment
// variables bound (PORT, OTEL_SERVICE_NAME, AMQP_URL, ...).
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return v
}

// Load reads an optional config file on top of defaults and environment.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}
	if c.OTelServiceName == "" {
		return fmt.Errorf("OTEL_SERVICE_NAME is required")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
