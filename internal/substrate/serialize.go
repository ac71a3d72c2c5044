// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package substrate

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

const frontmatterDelimiter = "---"

// yamlSource mirrors Source for frontmatter encoding. Field order is
// alphabetical so the emitted mapping has canonically sorted keys.
type yamlSource struct {
	Citation  string `yaml:"citation,omitempty"`
	Session   string `yaml:"session,omitempty"`
	Timestamp string `yaml:"timestamp"`
	Type      string `yaml:"type"`
	URI       string `yaml:"uri,omitempty"`
}

// yamlMeta mirrors Meta for frontmatter encoding, alphabetical field
// order; map-valued fields (links, extra) get their keys sorted by the
// YAML encoder.
type yamlMeta struct {
	Confidence float64             `yaml:"confidence"`
	Created    string              `yaml:"created"`
	Domain     string              `yaml:"domain"`
	Extra      map[string]any      `yaml:"extra,omitempty"`
	Links      map[string][]string `yaml:"links"`
	Source     yamlSource          `yaml:"source"`
	Tags       []string            `yaml:"tags"`
	Type       string              `yaml:"type"`
	Volatility string              `yaml:"volatility"`
}

// SerializeAKU renders an atom as a frontmatter document: a canonical
// YAML metadata block between delimiter lines, a blank line, then the
// raw body.
func SerializeAKU(aku *AKU) ([]byte, error) {
	links := make(map[string][]string, len(aku.Meta.Links))
	for relation, targets := range aku.Meta.Links {
		hashes := make([]string, len(targets))
		for i, t := range targets {
			hashes[i] = string(t)
		}
		links[string(relation)] = hashes
	}

	tags := aku.Meta.Tags
	if tags == nil {
		tags = []string{}
	}

	doc := yamlMeta{
		Confidence: aku.Meta.Confidence,
		Created:    formatTimestamp(aku.Meta.Created),
		Domain:     aku.Meta.Domain,
		Extra:      aku.Meta.Extra,
		Links:      links,
		Source: yamlSource{
			Citation:  aku.Meta.Source.Citation,
			Session:   aku.Meta.Source.Session,
			Timestamp: formatTimestamp(aku.Meta.Source.Timestamp),
			Type:      string(aku.Meta.Source.Type),
			URI:       aku.Meta.Source.URI,
		},
		Tags:       tags,
		Type:       string(aku.Meta.Type),
		Volatility: string(aku.Meta.Volatility),
	}

	frontmatter, err := yaml.Marshal(doc)
	if err != nil {
		return nil, suberr.Wrapf(err, suberr.CodeSubstrateStorageFailure, "marshalling atom frontmatter")
	}

	var sb strings.Builder
	sb.WriteString(frontmatterDelimiter)
	sb.WriteString("\n")
	sb.Write(frontmatter)
	sb.WriteString(frontmatterDelimiter)
	sb.WriteString("\n\n")
	sb.WriteString(aku.Body)

	return []byte(sb.String()), nil
}

// ParseAKU parses a stored frontmatter document back into an atom. The
// hash is supplied by the caller (it is the filename, never stored in
// the file).
func ParseAKU(content []byte, hash Hash) (*AKU, error) {
	lines := strings.Split(string(content), "\n")

	if len(lines) == 0 || lines[0] != frontmatterDelimiter {
		return nil, suberr.New(suberr.CodeSubstrateAtomParseFailed,
			"invalid atom: missing frontmatter start", suberr.FieldHash(string(hash)))
	}

	endIndex := -1
	for i := 1; i < len(lines); i++ {
		if lines[i] == frontmatterDelimiter {
			endIndex = i
			break
		}
	}
	if endIndex == -1 {
		return nil, suberr.New(suberr.CodeSubstrateAtomParseFailed,
			"invalid atom: missing frontmatter end", suberr.FieldHash(string(hash)))
	}

	var doc yamlMeta
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:endIndex], "\n")), &doc); err != nil {
		return nil, suberr.Wrapf(err, suberr.CodeSubstrateAtomParseFailed,
			"invalid atom frontmatter for %s", hash)
	}

	created, err := parseTimestamp(doc.Created)
	if err != nil {
		return nil, suberr.Wrapf(err, suberr.CodeSubstrateAtomParseFailed,
			"invalid created timestamp for %s", hash)
	}
	sourceTS, err := parseTimestamp(doc.Source.Timestamp)
	if err != nil {
		return nil, suberr.Wrapf(err, suberr.CodeSubstrateAtomParseFailed,
			"invalid source timestamp for %s", hash)
	}

	links := make(Links, len(doc.Links))
	for relation, targets := range doc.Links {
		hashes := make([]Hash, len(targets))
		for i, t := range targets {
			hashes[i] = Hash(t)
		}
		links[RelationType(relation)] = hashes
	}

	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}

	body := strings.TrimSpace(strings.Join(lines[endIndex+1:], "\n"))

	return &AKU{
		ID: hash,
		Meta: Meta{
			Created: created,
			Source: Source{
				Type:      SourceType(doc.Source.Type),
				URI:       doc.Source.URI,
				Session:   doc.Source.Session,
				Timestamp: sourceTS,
				Citation:  doc.Source.Citation,
			},
			Domain:     doc.Domain,
			Type:       KnowledgeType(doc.Type),
			Confidence: doc.Confidence,
			Volatility: Volatility(doc.Volatility),
			Links:      links,
			Tags:       tags,
			Extra:      doc.Extra,
		},
		Body: body,
	}, nil
}

// formatTimestamp serialises a timestamp as RFC 3339 UTC.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
