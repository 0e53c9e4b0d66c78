package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultEndpoint is used when neither FASTAPI_ENDPOINT nor
// ENDPOINT_PARAMETER is set.
const DefaultEndpoint = "https://e40b-35-194-164-86.ngrok-free.app/predict"

// Config holds the function configuration, read once at cold start.
type Config struct {
	Endpoint          string        `mapstructure:"fastapi_endpoint"`
	EndpointParameter string        `mapstructure:"endpoint_parameter"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	LogLevel          string        `mapstructure:"log_level"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("fastapi_endpoint", DefaultEndpoint)
	v.SetDefault("endpoint_parameter", "")
	v.SetDefault("http_timeout", "0s")
	v.SetDefault("log_level", "info")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	cfg.EndpointParameter = strings.TrimSpace(cfg.EndpointParameter)
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.HTTPTimeout < 0 {
		return nil, errors.New("config: HTTP_TIMEOUT must not be negative")
	}
	return &cfg, nil
}
