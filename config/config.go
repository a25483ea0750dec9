package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel int `yaml:"log_level"`

	Server   ServerConfig   `yaml:"server"`
	Sessions SessionsConfig `yaml:"sessions"`
}

type ServerConfig struct {
	Port string `yaml:"port"`

	// CORS origin allowed for browser clients. "*" by default.
	AllowOrigin string `yaml:"allow_origin"`
}

type SessionsConfig struct {
	// Sessions idle for longer than this many hours are evicted.
	IdleTTLHours int `yaml:"idle_ttl_hours"`
}

// IdleTTL returns the eviction threshold as a duration.
func (c SessionsConfig) IdleTTL() time.Duration {
	return time.Duration(c.IdleTTLHours) * time.Hour
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config *Config

	// Unmarshal the YAML data into the struct
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}

	// An empty file unmarshals to a nil config.
	if config == nil {
		config = &Config{}
	}

	applyDefaults(config)
	return config, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}

func applyDefaults(config *Config) {
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	if config.Server.AllowOrigin == "" {
		config.Server.AllowOrigin = "*"
	}

	if config.Sessions.IdleTTLHours == 0 {
		config.Sessions.IdleTTLHours = 24
	}

	// PORT from the environment wins, for container platforms.
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
}
