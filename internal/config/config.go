// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

// Package config loads application-level configuration: store
// location, server listen address, embedding provider credentials, and
// logging. Store-level configuration (shard depth, index toggles)
// lives inside the store itself under .aku/config.yaml.
package config

import (
	"net"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

// Config is the top-level application configuration.
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Server    ServerConfig    `mapstructure:"server"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// StoreConfig points at the knowledge store on disk.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix SUBSTRATE_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("store.path", ".aku-store")
	v.SetDefault("server.listen", "127.0.0.1:7411")
	v.SetDefault("embedding.provider", "mock")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Environment
	v.SetEnvPrefix("SUBSTRATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, suberr.Errorf(suberr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, suberr.Errorf(suberr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, suberr.Wrap(suberr.Join(errs...), suberr.CodeConfigValidateInvalidValue, "validating config")
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns a
// slice of all validation errors found, collecting all issues rather
// than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	if c.Store.Path == "" {
		errs = append(errs, suberr.New(suberr.CodeConfigValidateInvalidValue,
			"config: store.path must not be empty"))
	}

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateEmbedding()...)
	errs = append(errs, c.validateLogging()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, suberr.New(suberr.CodeConfigValidateInvalidValue,
			"config: server.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, suberr.Errorf(suberr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w",
			c.Server.Listen, err))
		return errs
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, suberr.Errorf(suberr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be a number, got %q", portStr))
	} else if port < 1 || port > 65535 {
		errs = append(errs, suberr.Errorf(suberr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be between 1 and 65535, got %d", port))
	}

	return errs
}

func (c *Config) validateEmbedding() []error {
	var errs []error

	validProviders := map[string]bool{"mock": true, "openai": true}
	if !validProviders[c.Embedding.Provider] {
		errs = append(errs, suberr.Errorf(suberr.CodeConfigValidateInvalidValue,
			"config: embedding.provider must be one of [mock, openai], got %q",
			c.Embedding.Provider))
	}

	if c.Embedding.Provider == "openai" && c.Embedding.APIKey == "" {
		errs = append(errs, suberr.New(suberr.CodeConfigValidateInvalidValue,
			"config: embedding.api_key is required when embedding.provider is openai"))
	}

	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, suberr.Errorf(suberr.CodeConfigValidateInvalidValue,
			"config: logging.level must be one of [debug, info, warn, error], got %q",
			c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Logging.Format] {
		errs = append(errs, suberr.Errorf(suberr.CodeConfigValidateInvalidValue,
			"config: logging.format must be one of [text, json], got %q",
			c.Logging.Format))
	}

	return errs
}
