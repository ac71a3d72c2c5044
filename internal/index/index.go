// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

// Package index implements the derived query indexes over the atom
// store: graph, temporal, full-text, and vector. Every index is
// disposable state rebuildable from the atom stream; the store never
// depends on any of them.
package index

import (
	"iter"
	"time"

	"github.com/substrate-dev/substrate/internal/substrate"
)

// AtomSource is the read surface an index rebuild consumes. The store
// satisfies it.
type AtomSource interface {
	List(filter *substrate.Filter) iter.Seq2[substrate.Hash, error]
	Get(hash substrate.Hash) (*substrate.AKU, error)
}

// timeLayout is a fixed-width RFC 3339 variant. Index tables store
// timestamps as TEXT and rely on lexicographic comparison matching
// chronological order, which RFC3339Nano breaks by trimming trailing
// zeros from the fraction.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func dsn(path string) string {
	return path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
}
