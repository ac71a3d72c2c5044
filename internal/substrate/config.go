// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package substrate

import (
	"gopkg.in/yaml.v3"

	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

// StoreVersion is the on-disk format version written to .aku/version.
const StoreVersion = 1

// IndexToggle enables or disables one derived index.
type IndexToggle struct {
	Enabled bool `yaml:"enabled"`
}

// IndexesConfig toggles the derived indexes.
type IndexesConfig struct {
	Vectors  IndexToggle `yaml:"vectors"`
	Graph    IndexToggle `yaml:"graph"`
	Temporal IndexToggle `yaml:"temporal"`
	FTS      IndexToggle `yaml:"fts"`
}

// DefaultsConfig holds the metadata defaults applied at ingest.
type DefaultsConfig struct {
	Confidence float64    `yaml:"confidence"`
	Volatility Volatility `yaml:"volatility"`
}

// CoreConfig pins the hashing and sharding parameters of the store.
type CoreConfig struct {
	HashAlgorithm string `yaml:"hash_algorithm"`
	ShardDepth    int    `yaml:"shard_depth"`
}

// Config is the substrate configuration persisted at .aku/config.yaml.
// It is an explicit struct passed into the constructor; environment
// resolution happens at the CLI boundary only.
type Config struct {
	Version   int            `yaml:"version"`
	Substrate CoreConfig     `yaml:"substrate"`
	Indexes   IndexesConfig  `yaml:"indexes"`
	Defaults  DefaultsConfig `yaml:"defaults"`
}

// DefaultConfig returns the configuration written to a fresh store.
func DefaultConfig() Config {
	return Config{
		Version: StoreVersion,
		Substrate: CoreConfig{
			HashAlgorithm: "sha256",
			ShardDepth:    2,
		},
		Indexes: IndexesConfig{
			Vectors:  IndexToggle{Enabled: false},
			Graph:    IndexToggle{Enabled: true},
			Temporal: IndexToggle{Enabled: true},
			FTS:      IndexToggle{Enabled: true},
		},
		Defaults: DefaultsConfig{
			Confidence: 0.8,
			Volatility: VolatilityEvolving,
		},
	}
}

// Validate checks the configuration for logical errors, collecting all
// issues rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	if c.Substrate.HashAlgorithm != "sha256" {
		errs = append(errs, suberr.Errorf(suberr.CodeConfigValidateInvalidValue,
			"config: substrate.hash_algorithm must be \"sha256\", got %q", c.Substrate.HashAlgorithm))
	}
	if c.Substrate.ShardDepth < 1 || c.Substrate.ShardDepth > 8 {
		errs = append(errs, suberr.Errorf(suberr.CodeConfigValidateInvalidValue,
			"config: substrate.shard_depth must be between 1 and 8, got %d", c.Substrate.ShardDepth))
	}
	if c.Defaults.Confidence < 0 || c.Defaults.Confidence > 1 {
		errs = append(errs, suberr.Errorf(suberr.CodeConfigValidateInvalidValue,
			"config: defaults.confidence must be in [0,1], got %g", c.Defaults.Confidence))
	}
	if !c.Defaults.Volatility.Valid() {
		errs = append(errs, suberr.Errorf(suberr.CodeConfigValidateInvalidValue,
			"config: defaults.volatility must be one of [stable, evolving, ephemeral], got %q", c.Defaults.Volatility))
	}

	return errs
}

func marshalConfig(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, suberr.Wrapf(err, suberr.CodeConfigParseInvalidFormat, "marshalling store config")
	}
	return data, nil
}

func unmarshalConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, suberr.Wrapf(err, suberr.CodeConfigParseInvalidFormat, "parsing store config")
	}
	return cfg, nil
}
