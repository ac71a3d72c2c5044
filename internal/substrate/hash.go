// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package substrate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

// Hash is a content address: the SHA-256 digest of an atom's canonical
// content, hex-encoded lowercase. Values are produced only by ComputeHash
// or the validating ParseHash constructor, so a held Hash is always
// well-formed.
type Hash string

var hashPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// IsValidHash reports whether s is exactly 64 lowercase hex characters.
// Uppercase or wrong-length input is invalid, never normalized.
func IsValidHash(s string) bool {
	return hashPattern.MatchString(s)
}

// ParseHash validates s and returns it as a Hash.
func ParseHash(s string) (Hash, error) {
	if !IsValidHash(s) {
		return "", suberr.Errorf(suberr.CodeSubstrateHashInvalid, "invalid hash format: %q", s)
	}
	return Hash(s), nil
}

func (h Hash) String() string { return string(h) }

// ShardPrefix returns the first depth characters of the hash, used as
// the directory bucket for on-disk atom files.
func (h Hash) ShardPrefix(depth int) string {
	return string(h)[:depth]
}

// Canonicalize builds the canonical representation of an atom for
// hashing: the canonical JSON of the semantic metadata, a delimiter,
// and the normalized body.
//
// The hash is knowledge identity, not discovery-event identity: the
// temporal fields (created, source timestamp) are stripped so the same
// knowledge discovered at different times maps to the same atom.
func Canonicalize(meta Meta, body string) string {
	metaJSON, err := json.Marshal(canonicalMeta(meta))
	if err != nil {
		// canonicalMeta yields only JSON-encodable values; a failure
		// here means Extra holds something like a channel or func.
		panic("substrate: unencodable metadata: " + err.Error())
	}

	return "---AKU-META---\n" + string(metaJSON) + "\n---AKU-BODY---\n" + NormalizeBody(body)
}

// ComputeHash returns the SHA-256 content address of the atom.
func ComputeHash(meta Meta, body string) Hash {
	sum := sha256.Sum256([]byte(Canonicalize(meta, body)))
	return Hash(hex.EncodeToString(sum[:]))
}

// VerifyHash reports whether hash matches the content's computed address.
func VerifyHash(hash Hash, meta Meta, body string) bool {
	return ComputeHash(meta, body) == hash
}

// HashString returns the SHA-256 digest of raw string content, for
// hashing material before full atom construction.
func HashString(content string) Hash {
	sum := sha256.Sum256([]byte(content))
	return Hash(hex.EncodeToString(sum[:]))
}

// NormalizeBody prepares body text for hashing: CRLF/CR to LF, trailing
// whitespace stripped per line, leading/trailing whitespace trimmed
// overall.
func NormalizeBody(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// canonicalMeta projects Meta onto a JSON-encodable tree holding only
// the semantic fields. encoding/json sorts map keys, which gives the
// recursive key ordering; primitive arrays are sorted explicitly so tag
// order never affects identity.
func canonicalMeta(meta Meta) map[string]any {
	tags := make([]string, len(meta.Tags))
	copy(tags, meta.Tags)
	sort.Strings(tags)

	source := map[string]any{
		"type": string(meta.Source.Type),
	}
	if meta.Source.URI != "" {
		source["uri"] = meta.Source.URI
	}
	if meta.Source.Session != "" {
		source["session"] = meta.Source.Session
	}
	if meta.Source.Citation != "" {
		source["citation"] = meta.Source.Citation
	}

	m := map[string]any{
		"domain":     meta.Domain,
		"type":       string(meta.Type),
		"confidence": meta.Confidence,
		"volatility": string(meta.Volatility),
		"source":     source,
		"links":      canonicalLinks(meta.Links),
		"tags":       tags,
	}

	if len(meta.Extra) > 0 {
		m["extra"] = canonicalValue(meta.Extra)
	}

	return m
}

func canonicalLinks(links Links) map[string][]string {
	out := make(map[string][]string, len(links))
	for relation, targets := range links {
		hashes := make([]string, len(targets))
		for i, t := range targets {
			hashes[i] = string(t)
		}
		sort.Strings(hashes)
		out[string(relation)] = hashes
	}
	return out
}

// canonicalValue recursively normalizes open-ended metadata (Extra).
// Mapping keys are sorted by the JSON encoder; arrays whose elements
// are all primitives are sorted here, arrays of structured values keep
// their order.
func canonicalValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = canonicalValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = canonicalValue(item)
		}
		if allStrings(out) {
			sort.Slice(out, func(i, j int) bool { return out[i].(string) < out[j].(string) })
		} else if allNumbers(out) {
			sort.Slice(out, func(i, j int) bool { return asFloat(out[i]) < asFloat(out[j]) })
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		sort.Strings(out)
		return out
	default:
		return v
	}
}

func allStrings(items []any) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if _, ok := item.(string); !ok {
			return false
		}
	}
	return true
}

func allNumbers(items []any) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		switch item.(type) {
		case int, int32, int64, float32, float64:
		default:
			return false
		}
	}
	return true
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
