// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package substrate

import (
	"encoding/json"
	"iter"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

const (
	versionPath       = ".aku/version"
	configPath        = ".aku/config.yaml"
	atomsDir          = "atoms"
	headsDir          = "heads"
	domainHeadsDir    = "heads/domains"
	indexesDir        = "indexes"
	walPath           = "WAL/pending.jsonl"
	externalLinksPath = "external-links.jsonl"
)

// Substrate owns the content-addressed atom store: ingest, lookup,
// listing, linking, verification, and statistics. Derived indexes are
// separate consumers of its atom stream.
//
// A single Substrate instance serializes ingestion, making the
// dedup check-then-write linearizable in-process. Multi-process
// writers are out of contract: two processes racing on identical
// content both write the same bytes (harmless by content addressing),
// but no cross-process lock is taken.
type Substrate struct {
	backend Backend
	cfg     Config
	logger  *slog.Logger

	ingestMu sync.Mutex
}

// New assembles a Substrate over an already-initialised backend.
func New(backend Backend, cfg Config, logger *slog.Logger) *Substrate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Substrate{backend: backend, cfg: cfg, logger: logger}
}

// Open opens the store rooted at dir, initialising a fresh one if no
// version marker exists.
func Open(dir string) (*Substrate, error) {
	return OpenBackend(NewOSBackend(dir))
}

// OpenBackend opens (or initialises) a store on an arbitrary backend.
func OpenBackend(backend Backend) (*Substrate, error) {
	ok, err := backend.Exists(versionPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return InitBackend(backend)
	}

	data, err := backend.ReadFile(configPath)
	if err != nil {
		return nil, suberr.Wrapf(err, suberr.CodeConfigLoadReadFailure, "reading store config")
	}
	cfg, err := unmarshalConfig(data)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, suberr.Wrap(suberr.Join(errs...), suberr.CodeConfigValidateInvalidValue, "validating store config")
	}

	return New(backend, cfg, nil), nil
}

// InitBackend scaffolds a fresh store on backend: directory layout,
// version marker, default config, and the indexes marker file (indexes
// are disposable and excluded from version control).
func InitBackend(backend Backend) (*Substrate, error) {
	for _, dir := range []string{".aku", atomsDir, domainHeadsDir, indexesDir, "WAL"} {
		if err := backend.MkdirAll(dir); err != nil {
			return nil, err
		}
	}

	if err := backend.WriteFile(versionPath, []byte(strconv.Itoa(StoreVersion))); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	data, err := marshalConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := backend.WriteFile(configPath, data); err != nil {
		return nil, err
	}

	if err := backend.WriteFile(indexesDir+"/.gitignore", []byte("*\n!.gitignore\n")); err != nil {
		return nil, err
	}

	return New(backend, cfg, nil), nil
}

// Config returns the store configuration.
func (s *Substrate) Config() Config {
	return s.cfg
}

func (s *Substrate) atomPath(hash Hash) string {
	return atomsDir + "/" + hash.ShardPrefix(s.cfg.Substrate.ShardDepth) + "/" + string(hash)
}

// Ingest validates the input, fills defaults, computes the content
// address, and persists the atom. Ingestion is idempotent: identical
// semantic content short-circuits with the existing hash and performs
// no write and no side effects.
func (s *Substrate) Ingest(input IngestInput) (Hash, error) {
	if err := ValidateDomain(input.Domain); err != nil {
		return "", err
	}

	knowledgeType := input.Type
	if knowledgeType == "" {
		knowledgeType = TypeFact
	}
	if !knowledgeType.Valid() {
		return "", suberr.Errorf(suberr.CodeSubstrateInputInvalid, "unknown knowledge type %q", knowledgeType)
	}

	volatility := input.Volatility
	if volatility == "" {
		volatility = s.cfg.Defaults.Volatility
	}
	if !volatility.Valid() {
		return "", suberr.Errorf(suberr.CodeSubstrateInputInvalid, "unknown volatility %q", volatility)
	}

	confidence := s.cfg.Defaults.Confidence
	if input.Confidence != nil {
		confidence = *input.Confidence
	}
	if confidence < 0 || confidence > 1 {
		return "", suberr.Errorf(suberr.CodeSubstrateInputInvalid, "confidence must be in [0,1], got %g", confidence)
	}

	now := time.Now().UTC()

	source := Source{Type: SourceUser, Timestamp: now}
	if input.Source != nil {
		source = *input.Source
		if source.Type == "" {
			source.Type = SourceUser
		}
		if source.Timestamp.IsZero() {
			source.Timestamp = now
		}
	}

	links := input.Links
	if links == nil {
		links = Links{}
	}
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	meta := Meta{
		Created:    now,
		Source:     source,
		Domain:     input.Domain,
		Type:       knowledgeType,
		Confidence: confidence,
		Volatility: volatility,
		Links:      links,
		Tags:       tags,
		Extra:      input.Extra,
	}

	hash := ComputeHash(meta, input.Body)

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	exists, err := s.Exists(hash)
	if err != nil {
		return "", err
	}
	if exists {
		return hash, nil
	}

	opID := uuid.NewString()
	if err := s.appendWAL(opID, hash, "pending"); err != nil {
		return "", err
	}

	aku := &AKU{ID: hash, Meta: meta, Body: input.Body}
	content, err := SerializeAKU(aku)
	if err != nil {
		return "", err
	}
	if err := s.backend.WriteFile(s.atomPath(hash), content); err != nil {
		return "", err
	}

	if err := s.backend.WriteFile(headsDir+"/latest", []byte(hash)); err != nil {
		return "", err
	}
	if err := s.backend.AppendLine(domainHeadsDir+"/"+TopDomain(input.Domain), []byte(hash)); err != nil {
		return "", err
	}

	if err := s.appendWAL(opID, hash, "committed"); err != nil {
		return "", err
	}

	return hash, nil
}

// Get returns the atom for a content address, or nil when the hash is
// well-formed but absent. A malformed hash is an error, never a silent
// miss.
func (s *Substrate) Get(hash Hash) (*AKU, error) {
	if !IsValidHash(string(hash)) {
		return nil, suberr.Errorf(suberr.CodeSubstrateHashInvalid, "invalid hash format: %q", hash)
	}

	path := s.atomPath(hash)
	ok, err := s.backend.Exists(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	content, err := s.backend.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseAKU(content, hash)
}

// Exists reports whether an atom is present for the hash.
func (s *Substrate) Exists(hash Hash) (bool, error) {
	return s.backend.Exists(s.atomPath(hash))
}

// List lazily yields atom hashes matching the filter. The sequence is
// finite and starts fresh on every call; it is not restartable
// mid-stream. A nil filter yields every atom.
func (s *Substrate) List(filter *Filter) iter.Seq2[Hash, error] {
	return func(yield func(Hash, error) bool) {
		shards, err := s.backend.ReadDir(atomsDir)
		if err != nil {
			yield("", err)
			return
		}

		limit := -1
		offset := 0
		if filter != nil {
			if filter.Limit > 0 {
				limit = filter.Limit
			}
			offset = filter.Offset
		}

		count := 0
		skipped := 0

		for _, shard := range shards {
			files, err := s.backend.ReadDir(atomsDir + "/" + shard)
			if err != nil {
				yield("", err)
				return
			}

			for _, file := range files {
				if !IsValidHash(file) {
					continue
				}
				hash := Hash(file)

				if filter != nil && filter.needsAtom() {
					aku, err := s.Get(hash)
					if err != nil || aku == nil {
						// unreadable atoms are surfaced by Verify, not List
						continue
					}
					if !filter.matches(aku) {
						continue
					}
				}

				if skipped < offset {
					skipped++
					continue
				}
				if limit >= 0 && count >= limit {
					return
				}

				if !yield(hash, nil) {
					return
				}
				count++
			}
		}
	}
}

// needsAtom reports whether the filter requires loading atom content.
func (f *Filter) needsAtom() bool {
	return f.Domain != "" || f.DomainPrefix != "" || f.Type != "" ||
		len(f.Tags) > 0 || f.MinConfidence > 0 ||
		!f.Since.IsZero() || !f.Until.IsZero()
}

func (f *Filter) matches(aku *AKU) bool {
	if f.Domain != "" && aku.Meta.Domain != f.Domain {
		return false
	}
	if f.DomainPrefix != "" && !strings.HasPrefix(aku.Meta.Domain, f.DomainPrefix) {
		return false
	}
	if f.Type != "" && aku.Meta.Type != f.Type {
		return false
	}
	if f.MinConfidence > 0 && aku.Meta.Confidence < f.MinConfidence {
		return false
	}
	if !f.Since.IsZero() && aku.Meta.Created.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && aku.Meta.Created.After(f.Until) {
		return false
	}
	for _, want := range f.Tags {
		found := false
		for _, tag := range aku.Meta.Tags {
			if tag == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// GetHead returns the hash recorded under a head pointer name, or ""
// when the head does not exist. Heads are convenience records, never
// authoritative.
func (s *Substrate) GetHead(name string) (Hash, error) {
	if !domainSegment.MatchString(name) {
		return "", suberr.Errorf(suberr.CodeSubstrateInputInvalid, "invalid head name %q", name)
	}

	path := headsDir + "/" + name
	ok, err := s.backend.Exists(path)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	data, err := s.backend.ReadFile(path)
	if err != nil {
		return "", err
	}
	return ParseHash(strings.TrimSpace(string(data)))
}

// Verify recomputes every atom's hash from stored content and checks
// every embedded link target for existence. Findings are report data,
// not errors: they describe the store, not the audit. Full O(n) scan.
func (s *Substrate) Verify() (*IntegrityReport, error) {
	report := &IntegrityReport{
		Corrupted:     []Hash{},
		OrphanedLinks: []OrphanedLink{},
		MissingAtoms:  []Hash{},
	}
	allHashes := make(map[Hash]bool)

	// First pass: content integrity.
	for hash, err := range s.List(nil) {
		if err != nil {
			return nil, err
		}
		report.TotalChecked++
		allHashes[hash] = true

		aku, err := s.Get(hash)
		if err != nil || aku == nil {
			report.Corrupted = append(report.Corrupted, hash)
			continue
		}
		if !VerifyHash(hash, aku.Meta, aku.Body) {
			report.Corrupted = append(report.Corrupted, hash)
		}
	}

	// Second pass: orphaned embedded links.
	for hash, err := range s.List(nil) {
		if err != nil {
			return nil, err
		}
		aku, err := s.Get(hash)
		if err != nil || aku == nil {
			continue
		}
		for _, targets := range aku.Meta.Links {
			for _, target := range targets {
				if !allHashes[target] {
					report.OrphanedLinks = append(report.OrphanedLinks, OrphanedLink{From: hash, To: target})
					report.MissingAtoms = append(report.MissingAtoms, target)
				}
			}
		}
	}

	report.Valid = len(report.Corrupted) == 0 && len(report.OrphanedLinks) == 0
	return report, nil
}

// Stats aggregates store-wide counters in a full scan. ByDomain buckets
// by the first path segment; TotalLinks counts embedded links only.
func (s *Substrate) Stats() (*Stats, error) {
	stats := &Stats{
		ByType:   make(map[KnowledgeType]int),
		ByDomain: make(map[string]int),
	}

	for hash, err := range s.List(nil) {
		if err != nil {
			return nil, err
		}
		aku, err := s.Get(hash)
		if err != nil || aku == nil {
			continue
		}

		stats.TotalAtoms++
		stats.ByType[aku.Meta.Type]++
		stats.ByDomain[TopDomain(aku.Meta.Domain)]++

		for _, targets := range aku.Meta.Links {
			stats.TotalLinks += len(targets)
		}

		created := aku.Meta.Created
		if stats.OldestAtom.IsZero() || created.Before(stats.OldestAtom) {
			stats.OldestAtom = created
		}
		if stats.NewestAtom.IsZero() || created.After(stats.NewestAtom) {
			stats.NewestAtom = created
		}

		if size, err := s.backend.FileSize(s.atomPath(hash)); err == nil {
			stats.DiskUsage += size
		}
	}

	return stats, nil
}

// walEntry is one pending/committed marker in the append-only WAL.
// The log is bookkeeping, not crash recovery: nothing replays it.
type walEntry struct {
	Op        string `json:"op"`
	Hash      Hash   `json:"hash"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
}

func (s *Substrate) appendWAL(opID string, hash Hash, status string) error {
	entry := walEntry{
		Op:        opID,
		Hash:      hash,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Status:    status,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return suberr.Wrapf(err, suberr.CodeSubstrateWALAppendFailure, "marshalling WAL entry")
	}
	if err := s.backend.AppendLine(walPath, data); err != nil {
		return suberr.Wrap(err, suberr.CodeSubstrateWALAppendFailure, "appending WAL entry", suberr.FieldHash(string(hash)))
	}
	return nil
}
