// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package substrate

import (
	"bufio"
	"bytes"
	"encoding/json"
	"time"

	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

// Link records a mutable external link between two atoms. The source
// must exist; the target may not exist yet (forward references are
// allowed and surface in Verify as orphans until resolved). External
// links never change either atom's content address.
func (s *Substrate) Link(from, to Hash, relation RelationType) error {
	if !relation.Valid() {
		return suberr.Errorf(suberr.CodeSubstrateInputInvalid, "unknown relation type %q", relation)
	}
	if _, err := ParseHash(string(from)); err != nil {
		return err
	}
	if _, err := ParseHash(string(to)); err != nil {
		return err
	}

	source, err := s.Get(from)
	if err != nil {
		return err
	}
	if source == nil {
		return suberr.New(suberr.CodeSubstrateLinkSourceAbsent, "link source atom does not exist",
			suberr.FieldHash(string(from)))
	}

	entry := ExternalLink{
		From:     from,
		To:       to,
		Relation: relation,
		Created:  time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return suberr.Wrap(err, suberr.CodeSubstrateStorageFailure, "marshalling external link")
	}
	return s.backend.AppendLine(externalLinksPath, data)
}

// ExternalLinks returns every recorded external link in append order.
// Corrupt lines are skipped with a warning rather than failing the
// whole read.
func (s *Substrate) ExternalLinks() ([]ExternalLink, error) {
	ok, err := s.backend.Exists(externalLinksPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []ExternalLink{}, nil
	}

	data, err := s.backend.ReadFile(externalLinksPath)
	if err != nil {
		return nil, err
	}

	links := []ExternalLink{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry ExternalLink
		if err := json.Unmarshal(line, &entry); err != nil {
			s.logger.Warn("skipping corrupt external link record",
				"line", lineNo,
				"error", err)
			continue
		}
		links = append(links, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, suberr.Wrap(err, suberr.CodeSubstrateStorageFailure, "scanning external links")
	}
	return links, nil
}

// Neighbor is one edge incident to an atom, as seen from that atom.
type Neighbor struct {
	Hash      Hash         `json:"hash"`
	Relation  RelationType `json:"relation"`
	Direction Direction    `json:"direction"`
}

// Neighbors merges embedded links (outgoing only, frozen in the
// content address) with external links in both directions. Duplicate
// edges collapse to one entry.
func (s *Substrate) Neighbors(hash Hash, direction Direction) ([]Neighbor, error) {
	if _, err := ParseHash(string(hash)); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	neighbors := []Neighbor{}

	add := func(h Hash, rel RelationType, dir Direction) {
		key := string(h) + "|" + string(rel) + "|" + string(dir)
		if seen[key] {
			return
		}
		seen[key] = true
		neighbors = append(neighbors, Neighbor{Hash: h, Relation: rel, Direction: dir})
	}

	if direction == DirectionOut || direction == DirectionBoth {
		aku, err := s.Get(hash)
		if err != nil {
			return nil, err
		}
		if aku != nil {
			for rel, targets := range aku.Meta.Links {
				for _, target := range targets {
					add(target, rel, DirectionOut)
				}
			}
		}
	}

	external, err := s.ExternalLinks()
	if err != nil {
		return nil, err
	}
	for _, link := range external {
		if link.From == hash && (direction == DirectionOut || direction == DirectionBoth) {
			add(link.To, link.Relation, DirectionOut)
		}
		if link.To == hash && (direction == DirectionIn || direction == DirectionBoth) {
			add(link.From, link.Relation, DirectionIn)
		}
	}

	return neighbors, nil
}
