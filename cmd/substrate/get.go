// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/substrate-dev/substrate/internal/substrate"
	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

func newGetCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <hash>",
		Short: "Print a knowledge atom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := substrate.ParseHash(args[0])
			if err != nil {
				return err
			}

			store, _, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			aku, err := store.Get(hash)
			if err != nil {
				return err
			}
			if aku == nil {
				return suberr.New(suberr.CodeSubstrateAtomNotFound, "atom not found",
					suberr.FieldHash(string(hash)))
			}

			if asJSON {
				out, err := json.MarshalIndent(map[string]any{
					"hash": aku.ID,
					"meta": aku.Meta,
					"body": aku.Body,
				}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			content, err := substrate.SerializeAKU(aku)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(content))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
