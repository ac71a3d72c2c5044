// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/substrate-dev/substrate/internal/substrate"
)

func newTraverseCmd() *cobra.Command {
	var (
		depth     int
		direction string
	)

	cmd := &cobra.Command{
		Use:   "traverse <hash>",
		Short: "Walk links breadth-first from an atom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := substrate.ParseHash(args[0])
			if err != nil {
				return err
			}

			_, indexes, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			graph, err := indexes.Graph()
			if err != nil {
				return err
			}
			nodes, err := graph.Traverse(cmd.Context(), start, depth, substrate.Direction(direction))
			if err != nil {
				return err
			}
			for _, node := range nodes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", strings.Repeat("  ", node.Depth), node.Hash)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 2, "maximum traversal depth")
	cmd.Flags().StringVar(&direction, "direction", "both", "edge direction (in, out, both)")
	return cmd
}

func newPathCmd() *cobra.Command {
	var maxDepth int

	cmd := &cobra.Command{
		Use:   "path <from> <to>",
		Short: "Find the shortest link path between two atoms",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := substrate.ParseHash(args[0])
			if err != nil {
				return err
			}
			to, err := substrate.ParseHash(args[1])
			if err != nil {
				return err
			}

			_, indexes, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			graph, err := indexes.Graph()
			if err != nil {
				return err
			}
			path, err := graph.ShortestPath(cmd.Context(), from, to, maxDepth)
			if err != nil {
				return err
			}
			if path == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no path")
				return nil
			}
			for i, hash := range path {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "  ->")
				}
				fmt.Fprintln(cmd.OutOrStdout(), hash)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", 5, "maximum path length in hops")
	return cmd
}

func newQueryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Look up atoms through the graph index",
	}
	cmd.PersistentFlags().IntVar(&limit, "limit", 100, "maximum results")

	byDomain := &cobra.Command{
		Use:   "domain <prefix>",
		Short: "List atoms whose domain starts with a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, indexes, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			graph, err := indexes.Graph()
			if err != nil {
				return err
			}
			hashes, err := graph.ByDomain(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			printHashes(cmd, hashes)
			return nil
		},
	}

	byType := &cobra.Command{
		Use:   "type <type>",
		Short: "List atoms of a knowledge type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, indexes, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			graph, err := indexes.Graph()
			if err != nil {
				return err
			}
			hashes, err := graph.ByType(cmd.Context(), substrate.KnowledgeType(args[0]), limit)
			if err != nil {
				return err
			}
			printHashes(cmd, hashes)
			return nil
		},
	}

	byTag := &cobra.Command{
		Use:   "tag <tag>",
		Short: "List atoms carrying a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, indexes, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			graph, err := indexes.Graph()
			if err != nil {
				return err
			}
			hashes, err := graph.ByTag(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			printHashes(cmd, hashes)
			return nil
		},
	}

	cmd.AddCommand(byDomain, byType, byTag)
	return cmd
}

func newLinksCmd() *cobra.Command {
	var direction string

	cmd := &cobra.Command{
		Use:   "links <hash>",
		Short: "List indexed link rows for an atom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := substrate.ParseHash(args[0])
			if err != nil {
				return err
			}

			_, indexes, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			graph, err := indexes.Graph()
			if err != nil {
				return err
			}

			dir := substrate.Direction(direction)
			if dir == substrate.DirectionOut || dir == substrate.DirectionBoth {
				edges, err := graph.OutgoingLinks(cmd.Context(), hash)
				if err != nil {
					return err
				}
				for _, edge := range edges {
					fmt.Fprintf(cmd.OutOrStdout(), "out\t%s\t%s\n", edge.Relation, edge.To)
				}
			}
			if dir == substrate.DirectionIn || dir == substrate.DirectionBoth {
				edges, err := graph.IncomingLinks(cmd.Context(), hash)
				if err != nil {
					return err
				}
				for _, edge := range edges {
					fmt.Fprintf(cmd.OutOrStdout(), "in\t%s\t%s\n", edge.Relation, edge.From)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&direction, "direction", "both", "edge direction (in, out, both)")
	return cmd
}

func printHashes(cmd *cobra.Command, hashes []substrate.Hash) {
	for _, hash := range hashes {
		fmt.Fprintln(cmd.OutOrStdout(), hash)
	}
}
