// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substrate-dev/substrate/internal/embed"
	"github.com/substrate-dev/substrate/internal/index"
	"github.com/substrate-dev/substrate/internal/server"
	"github.com/substrate-dev/substrate/internal/substrate"
)

func testServer(t *testing.T) (*server.Server, *substrate.Substrate) {
	t.Helper()

	store, err := substrate.OpenBackend(substrate.NewMemBackend())
	require.NoError(t, err)

	cfg := substrate.DefaultConfig().Indexes
	cfg.Vectors.Enabled = true
	indexes, err := index.NewManager(t.TempDir(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = indexes.Close() })

	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"},
		store, indexes, embed.NewMockProvider(64), nil)
	require.NoError(t, err)
	return srv, store
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestServer_Health(t *testing.T) {
	srv, _ := testServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_IngestAndGet(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/atoms", map[string]any{
		"body":   "# Entropy\n\nDisorder tends to increase.",
		"domain": "science/physics",
		"tags":   []string{"thermodynamics"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[map[string]string](t, rec)
	hash := created["hash"]
	require.NotEmpty(t, hash)

	rec = doJSON(t, h, http.MethodGet, "/atoms/"+hash, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	atom := decode[map[string]any](t, rec)
	assert.Equal(t, hash, atom["hash"])
	assert.Contains(t, atom["body"], "Entropy")

	// Identical content is deduplicated to the same hash.
	rec = doJSON(t, h, http.MethodPost, "/atoms", map[string]any{
		"body":   "# Entropy\n\nDisorder tends to increase.",
		"domain": "science/physics",
		"tags":   []string{"thermodynamics"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, hash, decode[map[string]string](t, rec)["hash"])
}

func TestServer_ErrorStatuses(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()

	// Malformed hash -> 400.
	rec := doJSON(t, h, http.MethodGet, "/atoms/zzz", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Well-formed but absent -> 404.
	absent := substrate.HashString("absent")
	rec = doJSON(t, h, http.MethodGet, "/atoms/"+string(absent), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Invalid domain -> 400.
	rec = doJSON(t, h, http.MethodPost, "/atoms", map[string]any{
		"body": "x", "domain": "../../../etc/passwd",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_SearchAndRecent(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/atoms", map[string]any{
		"body": "# Lighthouse\n\nA tower with a light for navigation.", "domain": "maritime",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/search?q=lighthouse", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode[map[string][]map[string]any](t, rec)
	require.Len(t, results["results"], 1)
	assert.Equal(t, "Lighthouse", results["results"][0]["title"])

	rec = doJSON(t, h, http.MethodGet, "/recent?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	recent := decode[map[string][]map[string]any](t, rec)
	assert.Len(t, recent["entries"], 1)
}

func TestServer_LinksAndGraph(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()

	ingest := func(body string) string {
		rec := doJSON(t, h, http.MethodPost, "/atoms", map[string]any{"body": body, "domain": "t"})
		require.Equal(t, http.StatusCreated, rec.Code)
		return decode[map[string]string](t, rec)["hash"]
	}
	a := ingest("atom a")
	b := ingest("atom b")

	rec := doJSON(t, h, http.MethodPost, "/links", map[string]any{
		"from": a, "to": b, "relation": "relates_to",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/atoms/"+a+"/neighbors?direction=out", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	neighbors := decode[map[string][]map[string]any](t, rec)
	require.Len(t, neighbors["neighbors"], 1)
	assert.Equal(t, b, neighbors["neighbors"][0]["hash"])

	// Linking from a missing atom fails with 404.
	ghost := string(substrate.HashString("ghost"))
	rec = doJSON(t, h, http.MethodPost, "/links", map[string]any{
		"from": ghost, "to": a, "relation": "relates_to",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_GraphLookups(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/atoms", map[string]any{
		"body": "quantum tunnelling", "domain": "science/physics",
		"type": "concept", "tags": []string{"quantum"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	hash := decode[map[string]string](t, rec)["hash"]

	for _, path := range []string{
		"/graph/domain?prefix=science/phy",
		"/graph/type?type=concept",
		"/graph/tag?tag=quantum",
	} {
		rec = doJSON(t, h, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		body := decode[map[string]any](t, rec)
		hashes := body["hashes"].([]any)
		require.Len(t, hashes, 1, path)
		assert.Equal(t, hash, hashes[0], path)
	}

	rec = doJSON(t, h, http.MethodGet, "/graph/domain", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "prefix is required")
}

func TestServer_TraverseAndLinks(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/atoms", map[string]any{"body": "target", "domain": "t"})
	require.Equal(t, http.StatusCreated, rec.Code)
	target := decode[map[string]string](t, rec)["hash"]

	rec = doJSON(t, h, http.MethodPost, "/atoms", map[string]any{
		"body": "pointer", "domain": "t",
		"links": map[string][]string{"relates_to": {target}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	pointer := decode[map[string]string](t, rec)["hash"]

	// Default traversal crosses the edge against its orientation.
	rec = doJSON(t, h, http.MethodGet, "/atoms/"+target+"/traverse?depth=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	nodes := decode[map[string][]map[string]any](t, rec)["nodes"]
	require.Len(t, nodes, 2)
	assert.Equal(t, pointer, nodes[1]["hash"])

	// Restricting to outgoing edges stops at the target.
	rec = doJSON(t, h, http.MethodGet, "/atoms/"+target+"/traverse?depth=1&direction=out", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]map[string]any](t, rec)["nodes"], 1)

	rec = doJSON(t, h, http.MethodGet, "/atoms/"+target+"/links", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	links := decode[map[string][]map[string]any](t, rec)
	assert.Empty(t, links["outgoing"])
	require.Len(t, links["incoming"], 1)
	assert.Equal(t, pointer, links["incoming"][0]["from"])

	// The path endpoint finds the single-hop path either way round.
	rec = doJSON(t, h, http.MethodGet, "/path?from="+target+"&to="+pointer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	path := decode[map[string]any](t, rec)
	assert.Equal(t, true, path["found"])
	assert.Len(t, path["path"].([]any), 2)
}

func TestServer_EmbedAndSemanticSearch(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/atoms", map[string]any{
		"body": "vectors and similarity", "domain": "t",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	hash := decode[map[string]string](t, rec)["hash"]

	rec = doJSON(t, h, http.MethodPost, "/embed/"+hash, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/search/semantic", map[string]any{
		"query": "vectors and similarity", "k": 5,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode[map[string][]map[string]any](t, rec)
	require.NotEmpty(t, results["results"])
	assert.Equal(t, hash, results["results"][0]["hash"])
	assert.InDelta(t, 1.0, results["results"][0]["similarity"].(float64), 1e-3)
}

func TestServer_StatsVerifyRebuild(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/atoms", map[string]any{"body": "x", "domain": "t"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, stats["totalAtoms"])

	rec = doJSON(t, h, http.MethodGet, "/verify", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[map[string]any](t, rec)
	assert.Equal(t, true, report["valid"])

	rec = doJSON(t, h, http.MethodPost, "/rebuild", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, result["graph"])
}
