// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/substrate-dev/substrate/internal/substrate"
	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

func newIngestCmd() *cobra.Command {
	var (
		domain     string
		kind       string
		tags       []string
		links      []string
		confidence float64
		volatility string
		file       string
	)

	cmd := &cobra.Command{
		Use:   "ingest [text]",
		Short: "Ingest a knowledge atom",
		Long:  "Ingest reads the atom body from the argument, --file, or stdin, and prints the content hash.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body string
			switch {
			case len(args) == 1:
				body = args[0]
			case file != "":
				data, err := os.ReadFile(file)
				if err != nil {
					return suberr.Errorf(suberr.CodeCLIInputInvalid, "reading %s: %w", file, err)
				}
				body = string(data)
			default:
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return suberr.Errorf(suberr.CodeCLIInputInvalid, "reading stdin: %w", err)
				}
				body = string(data)
			}

			store, indexes, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			embedded, err := parseLinkFlags(links)
			if err != nil {
				return err
			}

			input := substrate.IngestInput{
				Body:       body,
				Domain:     domain,
				Type:       substrate.KnowledgeType(kind),
				Volatility: substrate.Volatility(volatility),
				Links:      embedded,
				Tags:       tags,
			}
			if cmd.Flags().Changed("confidence") {
				input.Confidence = &confidence
			}

			hash, err := store.Ingest(input)
			if err != nil {
				return err
			}

			if aku, err := store.Get(hash); err == nil && aku != nil {
				indexes.IndexAKU(cmd.Context(), aku)
			}

			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "", "hierarchical domain path (required)")
	cmd.Flags().StringVarP(&kind, "type", "t", "", "knowledge type (fact, concept, relationship, procedure, insight, question, artifact)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().StringSliceVar(&links, "link", nil, "embedded link as relation=hash (repeatable)")
	cmd.Flags().Float64Var(&confidence, "confidence", 0, "confidence in [0,1]")
	cmd.Flags().StringVar(&volatility, "volatility", "", "volatility (stable, evolving, ephemeral)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read body from file")
	_ = cmd.MarkFlagRequired("domain")

	return cmd
}

func parseLinkFlags(raw []string) (substrate.Links, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	links := make(substrate.Links, len(raw))
	for _, spec := range raw {
		relation, target, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, suberr.Errorf(suberr.CodeCLIInputInvalid,
				"invalid --link %q: expected relation=hash", spec)
		}
		hash, err := substrate.ParseHash(target)
		if err != nil {
			return nil, err
		}
		rel := substrate.RelationType(relation)
		links[rel] = append(links[rel], hash)
	}
	return links, nil
}
