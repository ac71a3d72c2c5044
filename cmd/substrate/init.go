// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/substrate-dev/substrate/internal/substrate"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Initialise a new knowledge store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			} else {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				dir = cfg.Store.Path
			}

			store, err := substrate.Open(dir)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "initialised store at %s (version %d, shard depth %d)\n",
				dir, store.Config().Version, store.Config().Substrate.ShardDepth)
			return nil
		},
	}
}
