// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/substrate-dev/substrate/internal/substrate"
)

func newListCmd() *cobra.Command {
	var (
		domain        string
		domainPrefix  string
		kind          string
		tags          []string
		minConfidence float64
		limit         int
		offset        int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List atom hashes matching a filter",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			filter := &substrate.Filter{
				Domain:        domain,
				DomainPrefix:  domainPrefix,
				Type:          substrate.KnowledgeType(kind),
				Tags:          tags,
				MinConfidence: minConfidence,
				Limit:         limit,
				Offset:        offset,
			}

			for hash, err := range store.List(filter) {
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), hash)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "", "exact domain match")
	cmd.Flags().StringVar(&domainPrefix, "domain-prefix", "", "domain prefix match")
	cmd.Flags().StringVarP(&kind, "type", "t", "", "knowledge type filter")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "require tag (repeatable)")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "minimum confidence")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results (0 = all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "skip first N results")

	return cmd
}
