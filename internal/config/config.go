// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package config handles usdl project configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// CurrentConfigVersion is the current version of the config file format.
const CurrentConfigVersion = 1

// FileName is the name of the optional project configuration file.
const FileName = "usdl.yaml"

// Environment variables that override the file.
const (
	EnvLogLevel  = "USDL_LOG_LEVEL"
	EnvLogFormat = "USDL_LOG_FORMAT"
	EnvAddr      = "USDL_ADDR"
)

// Log output formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Config represents the usdl.yaml project configuration file.
type Config struct {
	Version int           `yaml:"version"`
	Render  RenderConfig  `yaml:"render"`
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
}

// RenderConfig holds the default render options.
type RenderConfig struct {
	PrettyPrint     bool `yaml:"prettyPrint"`
	PreservePattern bool `yaml:"preservePattern"`
}

// LoggingConfig selects the log level and output format. An empty format picks
// console output on a terminal and JSON otherwise.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format,omitempty"`
}

// ServerConfig configures the HTTP conversion service.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	MaxBodyBytes int64  `yaml:"maxBodyBytes"`
}

// Default returns the configuration used when no usdl.yaml exists.
func Default() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Render:  RenderConfig{PrettyPrint: true},
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Addr: ":8080", MaxBodyBytes: 4 << 20},
	}
}

// Load reads a Config from a file path. Keys the file leaves out keep their
// default values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	cfg := Default()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the Config to a file path.
func (c *Config) Save(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(c)
}

// ApplyEnv overrides logging and server settings from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	if c.Version != CurrentConfigVersion {
		return errors.New("unsupported config version")
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", LogFormatConsole, LogFormatJSON:
	default:
		return fmt.Errorf("invalid log format %q (expected console or json)", c.Logging.Format)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.maxBodyBytes must be positive")
	}
	return nil
}
