// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/substrate-dev/substrate/internal/substrate"
	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("writing response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, suberr.HTTPStatus(err), errorBody{
		Error: err.Error(),
		Code:  string(suberr.CodeOf(err)),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type ingestRequest struct {
	Body       string            `json:"body"`
	Domain     string            `json:"domain"`
	Type       string            `json:"type,omitempty"`
	Source     *substrate.Source `json:"source,omitempty"`
	Confidence *float64          `json:"confidence,omitempty"`
	Volatility string            `json:"volatility,omitempty"`
	Links      substrate.Links   `json:"links,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Extra      map[string]any    `json:"extra,omitempty"`
}

type ingestResponse struct {
	Hash substrate.Hash `json:"hash"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, suberr.Errorf(suberr.CodeServerRequestInvalid, "decoding request body: %w", err))
		return
	}

	hash, err := s.store.Ingest(substrate.IngestInput{
		Body:       req.Body,
		Domain:     req.Domain,
		Type:       substrate.KnowledgeType(req.Type),
		Source:     req.Source,
		Confidence: req.Confidence,
		Volatility: substrate.Volatility(req.Volatility),
		Links:      req.Links,
		Tags:       req.Tags,
		Extra:      req.Extra,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	if aku, err := s.store.Get(hash); err == nil && aku != nil {
		s.indexes.IndexAKU(r.Context(), aku)
	}

	s.writeJSON(w, http.StatusCreated, ingestResponse{Hash: hash})
}

type atomResponse struct {
	Hash substrate.Hash `json:"hash"`
	Meta substrate.Meta `json:"meta"`
	Body string         `json:"body"`
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	hash := substrate.Hash(chi.URLParam(r, "hash"))

	aku, err := s.store.Get(hash)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if aku == nil {
		s.writeError(w, suberr.New(suberr.CodeSubstrateAtomNotFound, "atom not found",
			suberr.FieldHash(string(hash))))
		return
	}

	s.writeJSON(w, http.StatusOK, atomResponse{Hash: aku.ID, Meta: aku.Meta, Body: aku.Body})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &substrate.Filter{
		Domain:       q.Get("domain"),
		DomainPrefix: q.Get("domainPrefix"),
		Type:         substrate.KnowledgeType(q.Get("type")),
		Limit:        intParam(q.Get("limit"), 100),
		Offset:       intParam(q.Get("offset"), 0),
	}
	if tag := q.Get("tag"); tag != "" {
		filter.Tags = []string{tag}
	}
	if mc := q.Get("minConfidence"); mc != "" {
		val, err := strconv.ParseFloat(mc, 64)
		if err != nil {
			s.writeError(w, suberr.Errorf(suberr.CodeServerRequestInvalid, "invalid minConfidence %q", mc))
			return
		}
		filter.MinConfidence = val
	}

	hashes := []substrate.Hash{}
	for hash, err := range s.store.List(filter) {
		if err != nil {
			s.writeError(w, err)
			return
		}
		hashes = append(hashes, hash)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"hashes": hashes, "count": len(hashes)})
}

type linkRequest struct {
	From     substrate.Hash         `json:"from"`
	To       substrate.Hash         `json:"to"`
	Relation substrate.RelationType `json:"relation"`
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, suberr.Errorf(suberr.CodeServerRequestInvalid, "decoding request body: %w", err))
		return
	}

	if err := s.store.Link(req.From, req.To, req.Relation); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "linked"})
}

func (s *Server) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	hash := substrate.Hash(chi.URLParam(r, "hash"))

	direction := substrate.Direction(r.URL.Query().Get("direction"))
	if direction == "" {
		direction = substrate.DirectionBoth
	}

	neighbors, err := s.store.Neighbors(hash, direction)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"neighbors": neighbors})
}

func (s *Server) handleTraverse(w http.ResponseWriter, r *http.Request) {
	graph, err := s.indexes.Graph()
	if err != nil {
		s.writeError(w, err)
		return
	}

	hash := substrate.Hash(chi.URLParam(r, "hash"))
	depth := intParam(r.URL.Query().Get("depth"), 2)
	direction := substrate.Direction(r.URL.Query().Get("direction"))
	if direction == "" {
		direction = substrate.DirectionBoth
	}

	nodes, err := graph.Traverse(r.Context(), hash, depth, direction)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}

func (s *Server) handleShortestPath(w http.ResponseWriter, r *http.Request) {
	graph, err := s.indexes.Graph()
	if err != nil {
		s.writeError(w, err)
		return
	}

	q := r.URL.Query()
	from, err := substrate.ParseHash(q.Get("from"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	to, err := substrate.ParseHash(q.Get("to"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	path, err := graph.ShortestPath(r.Context(), from, to, intParam(q.Get("maxDepth"), 5))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"path": path, "found": path != nil})
}

func (s *Server) handleByDomain(w http.ResponseWriter, r *http.Request) {
	graph, err := s.indexes.Graph()
	if err != nil {
		s.writeError(w, err)
		return
	}

	q := r.URL.Query()
	prefix := q.Get("prefix")
	if prefix == "" {
		s.writeError(w, suberr.New(suberr.CodeServerRequestInvalid, "missing prefix parameter"))
		return
	}

	hashes, err := graph.ByDomain(r.Context(), prefix, intParam(q.Get("limit"), 100))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"hashes": hashes, "count": len(hashes)})
}

func (s *Server) handleByType(w http.ResponseWriter, r *http.Request) {
	graph, err := s.indexes.Graph()
	if err != nil {
		s.writeError(w, err)
		return
	}

	q := r.URL.Query()
	knowledgeType := substrate.KnowledgeType(q.Get("type"))
	if knowledgeType == "" {
		s.writeError(w, suberr.New(suberr.CodeServerRequestInvalid, "missing type parameter"))
		return
	}

	hashes, err := graph.ByType(r.Context(), knowledgeType, intParam(q.Get("limit"), 100))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"hashes": hashes, "count": len(hashes)})
}

func (s *Server) handleByTag(w http.ResponseWriter, r *http.Request) {
	graph, err := s.indexes.Graph()
	if err != nil {
		s.writeError(w, err)
		return
	}

	q := r.URL.Query()
	tag := q.Get("tag")
	if tag == "" {
		s.writeError(w, suberr.New(suberr.CodeServerRequestInvalid, "missing tag parameter"))
		return
	}

	hashes, err := graph.ByTag(r.Context(), tag, intParam(q.Get("limit"), 100))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"hashes": hashes, "count": len(hashes)})
}

// handleLinks serves the indexed link rows for one atom, split by
// orientation. Unlike neighbors it reads the graph index, not the
// store, so external links do not appear here.
func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	graph, err := s.indexes.Graph()
	if err != nil {
		s.writeError(w, err)
		return
	}

	hash, err := substrate.ParseHash(chi.URLParam(r, "hash"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	direction := substrate.Direction(r.URL.Query().Get("direction"))
	if direction == "" {
		direction = substrate.DirectionBoth
	}

	response := map[string]any{}
	if direction == substrate.DirectionOut || direction == substrate.DirectionBoth {
		outgoing, err := graph.OutgoingLinks(r.Context(), hash)
		if err != nil {
			s.writeError(w, err)
			return
		}
		response["outgoing"] = outgoing
	}
	if direction == substrate.DirectionIn || direction == substrate.DirectionBoth {
		incoming, err := graph.IncomingLinks(r.Context(), hash)
		if err != nil {
			s.writeError(w, err)
			return
		}
		response["incoming"] = incoming
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	fts, err := s.indexes.FTS()
	if err != nil {
		s.writeError(w, err)
		return
	}

	query := r.URL.Query().Get("q")
	limit := intParam(r.URL.Query().Get("limit"), 20)

	results, err := fts.Search(r.Context(), query, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

type semanticSearchRequest struct {
	Query         string  `json:"query"`
	K             int     `json:"k,omitempty"`
	MinSimilarity float64 `json:"minSimilarity,omitempty"`
}

func (s *Server) handleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	vector, err := s.indexes.Vector()
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req semanticSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, suberr.Errorf(suberr.CodeServerRequestInvalid, "decoding request body: %w", err))
		return
	}

	embedding, err := s.embedder.Embed(r.Context(), req.Query)
	if err != nil {
		s.writeError(w, err)
		return
	}

	results, err := vector.Search(r.Context(), embedding, req.K, req.MinSimilarity)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	vector, err := s.indexes.Vector()
	if err != nil {
		s.writeError(w, err)
		return
	}

	hash, err := substrate.ParseHash(chi.URLParam(r, "hash"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	k := intParam(r.URL.Query().Get("k"), 10)

	results, err := vector.FindNearest(r.Context(), hash, k)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	vector, err := s.indexes.Vector()
	if err != nil {
		s.writeError(w, err)
		return
	}

	hash, err := substrate.ParseHash(chi.URLParam(r, "hash"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	aku, err := s.store.Get(hash)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if aku == nil {
		s.writeError(w, suberr.New(suberr.CodeSubstrateAtomNotFound, "atom not found",
			suberr.FieldHash(string(hash))))
		return
	}

	embedding, err := s.embedder.Embed(r.Context(), aku.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := vector.Store(r.Context(), hash, embedding); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"hash": hash, "dimensions": len(embedding)})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	temporal, err := s.indexes.Temporal()
	if err != nil {
		s.writeError(w, err)
		return
	}

	q := r.URL.Query()
	if from, to := q.Get("from"), q.Get("to"); from != "" || to != "" {
		fromTime, err := parseTimeParam(from, time.Time{})
		if err != nil {
			s.writeError(w, err)
			return
		}
		toTime, err := parseTimeParam(to, time.Now().UTC())
		if err != nil {
			s.writeError(w, err)
			return
		}

		entries, err := temporal.InTimeRange(r.Context(), fromTime, toTime, intParam(q.Get("limit"), 100))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
		return
	}

	entries, err := temporal.Recent(r.Context(), intParam(q.Get("limit"), 20))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	stats, err := s.store.Stats()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleVerify(w http.ResponseWriter, _ *http.Request) {
	report, err := s.store.Verify()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	result, err := s.indexes.RebuildAll(r.Context(), s.store)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		return fallback
	}
	return val
}

func parseTimeParam(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, suberr.Errorf(suberr.CodeServerRequestInvalid, "invalid timestamp %q: %w", raw, err)
	}
	return t, nil
}
