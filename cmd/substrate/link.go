// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/substrate-dev/substrate/internal/substrate"
)

func newLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link <from> <relation> <to>",
		Short: "Record an external link between two atoms",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := substrate.ParseHash(args[0])
			if err != nil {
				return err
			}
			to, err := substrate.ParseHash(args[2])
			if err != nil {
				return err
			}

			store, _, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := store.Link(from, to, substrate.RelationType(args[1])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -[%s]-> %s\n", from, args[1], to)
			return nil
		},
	}
	return cmd
}

func newNeighborsCmd() *cobra.Command {
	var direction string

	cmd := &cobra.Command{
		Use:   "neighbors <hash>",
		Short: "List atoms linked to or from an atom",
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

			neighbors, err := store.Neighbors(hash, substrate.Direction(direction))
			if err != nil {
				return err
			}

			for _, n := range neighbors {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", n.Direction, n.Relation, n.Hash)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&direction, "direction", "both", "edge direction (in, out, both)")
	return cmd
}
