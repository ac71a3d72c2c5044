// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var (
		limit         int
		semantic      bool
		minSimilarity float64
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search atoms by keyword or meaning",
		Long:  "Search runs a full-text query by default; --semantic embeds the query and ranks by cosine similarity instead.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, indexes, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if semantic {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				embedder, err := newEmbedder(cfg)
				if err != nil {
					return err
				}
				vector, err := indexes.Vector()
				if err != nil {
					return err
				}

				embedding, err := embedder.Embed(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				results, err := vector.Search(cmd.Context(), embedding, limit, minSimilarity)
				if err != nil {
					return err
				}
				for _, result := range results {
					fmt.Fprintf(cmd.OutOrStdout(), "%.4f\t%s\n", result.Similarity, result.Hash)
				}
				return nil
			}

			fts, err := indexes.FTS()
			if err != nil {
				return err
			}
			results, err := fts.Search(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			for _, result := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%.4f\t%s\t%s\n", result.Score, result.Hash, result.Title)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum results")
	cmd.Flags().BoolVar(&semantic, "semantic", false, "search by embedding similarity")
	cmd.Flags().Float64Var(&minSimilarity, "min-similarity", 0, "minimum cosine similarity for --semantic")

	return cmd
}

func newRecentCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recently created atoms",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, indexes, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			temporal, err := indexes.Temporal()
			if err != nil {
				return err
			}
			entries, err := temporal.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n",
					entry.Created.Format("2006-01-02 15:04:05"), entry.Domain, entry.Hash)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum results")
	return cmd
}
