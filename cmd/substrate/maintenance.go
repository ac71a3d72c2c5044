// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Audit store integrity",
		Long:  "Verify recomputes every atom's content hash and checks embedded link targets for existence.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := store.Verify()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "checked: %d\n", report.TotalChecked)
			if report.Valid {
				fmt.Fprintln(out, "store is healthy")
				return nil
			}

			for _, hash := range report.Corrupted {
				fmt.Fprintf(out, "corrupted: %s\n", hash)
			}
			for _, orphan := range report.OrphanedLinks {
				fmt.Fprintf(out, "orphaned link: %s -> %s\n", orphan.From, orphan.To)
			}
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print store-wide statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := store.Stats()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "atoms: %d\n", stats.TotalAtoms)
			fmt.Fprintf(out, "links: %d\n", stats.TotalLinks)
			fmt.Fprintf(out, "disk:  %d bytes\n", stats.DiskUsage)
			for kind, count := range stats.ByType {
				fmt.Fprintf(out, "type %s: %d\n", kind, count)
			}
			for domain, count := range stats.ByDomain {
				fmt.Fprintf(out, "domain %s: %d\n", domain, count)
			}
			if !stats.OldestAtom.IsZero() {
				fmt.Fprintf(out, "oldest: %s\n", stats.OldestAtom.Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "newest: %s\n", stats.NewestAtom.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild all derived indexes from the atom stream",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, indexes, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := indexes.RebuildAll(cmd.Context(), store)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "graph:    %d atoms\n", result.Graph)
			fmt.Fprintf(out, "temporal: %d atoms\n", result.Temporal)
			fmt.Fprintf(out, "fts:      %d atoms\n", result.FTS)
			return nil
		},
	}
}
