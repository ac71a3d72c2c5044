// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

// Package substrate implements the content-addressed knowledge store:
// immutable, hash-identified atoms (AKUs) persisted as human-readable
// files, plus the external link log and integrity tooling. Derived
// indexes live in internal/index and are rebuilt from this package's
// atom stream.
package substrate

import "time"

// KnowledgeType is the fundamental ontology of knowledge types.
// Small, stable, closed set. Extend via tags, not new types.
type KnowledgeType string

const (
	TypeFact         KnowledgeType = "fact"         // atomic true statement
	TypeConcept      KnowledgeType = "concept"      // abstract idea with definition
	TypeRelationship KnowledgeType = "relationship" // connection between concepts
	TypeProcedure    KnowledgeType = "procedure"    // how to do something
	TypeInsight      KnowledgeType = "insight"      // pattern or meta-observation
	TypeQuestion     KnowledgeType = "question"     // open inquiry
	TypeArtifact     KnowledgeType = "artifact"     // code, diagram, structured output
)

// Valid reports whether t is a member of the closed type set.
func (t KnowledgeType) Valid() bool {
	switch t {
	case TypeFact, TypeConcept, TypeRelationship, TypeProcedure, TypeInsight, TypeQuestion, TypeArtifact:
		return true
	}
	return false
}

// Volatility indicates how likely knowledge is to change.
type Volatility string

const (
	VolatilityStable    Volatility = "stable"
	VolatilityEvolving  Volatility = "evolving"
	VolatilityEphemeral Volatility = "ephemeral"
)

// Valid reports whether v is a member of the closed volatility set.
func (v Volatility) Valid() bool {
	switch v {
	case VolatilityStable, VolatilityEvolving, VolatilityEphemeral:
		return true
	}
	return false
}

// SourceType describes how a piece of knowledge was acquired.
type SourceType string

const (
	SourceTraining     SourceType = "training"
	SourceSearch       SourceType = "search"
	SourceConversation SourceType = "conversation"
	SourceInference    SourceType = "inference"
	SourceUser         SourceType = "user"
	SourceImport       SourceType = "import"
)

// RelationType names an edge kind in the knowledge graph.
type RelationType string

const (
	RelRelatesTo   RelationType = "relates_to"   // general association
	RelDerivedFrom RelationType = "derived_from" // source/origin
	RelSupersedes  RelationType = "supersedes"   // newer version
	RelContradicts RelationType = "contradicts"  // conflicting information
	RelPartOf      RelationType = "part_of"      // hierarchical containment
	RelInstanceOf  RelationType = "instance_of"  // type relationship
	RelCauses      RelationType = "causes"       // causal relationship
	RelRequires    RelationType = "requires"     // dependency
)

// Valid reports whether r is a member of the closed relation set.
func (r RelationType) Valid() bool {
	switch r {
	case RelRelatesTo, RelDerivedFrom, RelSupersedes, RelContradicts,
		RelPartOf, RelInstanceOf, RelCauses, RelRequires:
		return true
	}
	return false
}

// Links maps a relation kind to the ordered list of target hashes.
// Embedded in atom metadata at ingest time and immutable thereafter.
type Links map[RelationType][]Hash

// Source records full provenance for a piece of knowledge.
// The timestamp is informational and excluded from content hashing.
type Source struct {
	Type      SourceType `yaml:"type" json:"type"`
	URI       string     `yaml:"uri,omitempty" json:"uri,omitempty"`
	Session   string     `yaml:"session,omitempty" json:"session,omitempty"`
	Timestamp time.Time  `yaml:"timestamp" json:"timestamp"`
	Citation  string     `yaml:"citation,omitempty" json:"citation,omitempty"`
}

// Meta is the structured metadata of an atom, stored in the file's
// frontmatter. Created and Source.Timestamp are temporal fields and do
// not participate in the content hash.
type Meta struct {
	Created    time.Time     `yaml:"created" json:"created"`
	Source     Source        `yaml:"source" json:"source"`
	Domain     string        `yaml:"domain" json:"domain"`
	Type       KnowledgeType `yaml:"type" json:"type"`
	Confidence float64       `yaml:"confidence" json:"confidence"`
	Volatility Volatility    `yaml:"volatility" json:"volatility"`
	Links      Links         `yaml:"links" json:"links"`
	Tags       []string      `yaml:"tags" json:"tags"`
	Extra      map[string]any `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// AKU is the Atomic Knowledge Unit: the immutable content-addressed
// record combining metadata and body text. The ID is computed from the
// canonical content, never stored as authoritative input.
type AKU struct {
	ID   Hash
	Meta Meta
	Body string
}

// IngestInput is the partial input for ingesting knowledge; unset
// fields are filled from configured defaults.
type IngestInput struct {
	Body       string
	Domain     string
	Type       KnowledgeType
	Source     *Source
	Confidence *float64
	Volatility Volatility
	Links      Links
	Tags       []string
	Extra      map[string]any
}

// Filter selects atoms during List. All set fields must match.
type Filter struct {
	Domain        string
	DomainPrefix  string
	Type          KnowledgeType
	Tags          []string
	Since         time.Time
	Until         time.Time
	MinConfidence float64
	Limit         int
	Offset        int
}

// ExternalLink is a graph edge recorded in the append-only link log
// after the source atom already exists.
type ExternalLink struct {
	From     Hash         `json:"from"`
	To       Hash         `json:"to"`
	Relation RelationType `json:"relation"`
	Created  time.Time    `json:"created"`
}

// Direction selects edge orientation for neighbor queries.
type Direction string

const (
	DirectionIn   Direction = "in"
	DirectionOut  Direction = "out"
	DirectionBoth Direction = "both"
)

// Stats aggregates store-wide counters from a full scan.
type Stats struct {
	TotalAtoms int            `json:"totalAtoms"`
	ByType     map[KnowledgeType]int `json:"byType"`
	ByDomain   map[string]int `json:"byDomain"`
	TotalLinks int            `json:"totalLinks"`
	OldestAtom time.Time      `json:"oldestAtom,omitzero"`
	NewestAtom time.Time      `json:"newestAtom,omitzero"`
	DiskUsage  int64          `json:"diskUsage"`
}

// OrphanedLink identifies an embedded link whose target is absent.
type OrphanedLink struct {
	From Hash `json:"from"`
	To   Hash `json:"to"`
}

// IntegrityReport is the result of a full verify() audit. Integrity
// findings are data, not errors: a corrupted atom is a property of the
// store, not a failure of the audit.
type IntegrityReport struct {
	Valid         bool           `json:"valid"`
	TotalChecked  int            `json:"totalChecked"`
	Corrupted     []Hash         `json:"corrupted"`
	OrphanedLinks []OrphanedLink `json:"orphanedLinks"`
	MissingAtoms  []Hash         `json:"missingAtoms"`
}
