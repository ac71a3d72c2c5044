// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/substrate-dev/substrate/internal/config"
	"github.com/substrate-dev/substrate/internal/embed"
	"github.com/substrate-dev/substrate/internal/index"
	"github.com/substrate-dev/substrate/internal/substrate"
)

// NewRootCmd creates the root substrate command with all subcommands
// registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "substrate",
		Short:         "substrate — content-addressed knowledge store",
		Long:          "Substrate stores atomic knowledge units as immutable, content-addressed files with derived graph, temporal, full-text, and vector indexes.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().StringP("store", "s", "", "path to the knowledge store (overrides config)")

	root.AddCommand(
		newInitCmd(),
		newIngestCmd(),
		newGetCmd(),
		newListCmd(),
		newLinkCmd(),
		newNeighborsCmd(),
		newLinksCmd(),
		newQueryCmd(),
		newSearchCmd(),
		newRecentCmd(),
		newTraverseCmd(),
		newPathCmd(),
		newVerifyCmd(),
		newStatsCmd(),
		newRebuildCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig resolves application config honoring the --config and
// --store flags (flag > env > file > defaults).
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if storePath, _ := cmd.Flags().GetString("store"); storePath != "" {
		cfg.Store.Path = storePath
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// openStore opens the store and its enabled indexes from config.
// The returned cleanup closes the indexes.
func openStore(cmd *cobra.Command) (*substrate.Substrate, *index.Manager, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(cfg)

	store, err := substrate.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, nil, err
	}

	indexes, err := index.NewManager(cfg.Store.Path+"/indexes", store.Config().Indexes, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	return store, indexes, func() { _ = indexes.Close() }, nil
}

func newEmbedder(cfg *config.Config) (embed.Provider, error) {
	if cfg.Embedding.Provider == "openai" {
		return embed.NewOpenAIProvider(embed.OpenAIConfig{
			APIKey:  cfg.Embedding.APIKey,
			Model:   cfg.Embedding.Model,
			BaseURL: cfg.Embedding.BaseURL,
		})
	}
	return embed.NewMockProvider(0), nil
}
