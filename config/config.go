// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package config loads the host application configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the Sparkplug host application.
type Config struct {
	MQTT MQTTConfig `yaml:"mqtt"`
	Host HostConfig `yaml:"host"`
	Log  LogConfig  `yaml:"log"`
}

// MQTTConfig holds broker connection settings.
type MQTTConfig struct {
	Addr           string        `yaml:"addr"`
	ClientID       string        `yaml:"client_id"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	KeepAlive      time.Duration `yaml:"keep_alive"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// HostConfig holds Sparkplug host application settings.
type HostConfig struct {
	// ID is the host application ID announced on the STATE topic.
	ID string `yaml:"id"`

	// Subscriptions are extra topic filters beyond the Sparkplug defaults.
	Subscriptions []string `yaml:"subscriptions"`

	// Wildcard forces the namespace wildcard subscription even when
	// explicit subscriptions are configured.
	Wildcard bool `yaml:"wildcard"`

	Ordering OrderingConfig `yaml:"ordering"`
}

// OrderingConfig holds sequence reordering settings.
type OrderingConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Addr:           "localhost:1883",
			KeepAlive:      60 * time.Second,
			ConnectTimeout: 10 * time.Second,
		},
		Host: HostConfig{
			ID: "sparkhost",
			Ordering: OrderingConfig{
				Enabled: true,
				Timeout: 5 * time.Second,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
// If the file doesn't exist, returns default configuration.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MQTT.Addr == "" {
		return fmt.Errorf("mqtt.addr cannot be empty")
	}
	if c.Host.ID == "" {
		return fmt.Errorf("host.id cannot be empty")
	}
	if c.Host.Ordering.Enabled && c.Host.Ordering.Timeout < 0 {
		return fmt.Errorf("host.ordering.timeout cannot be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("log.format must be one of: text, json")
	}

	return nil
}
