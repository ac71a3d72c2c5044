// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCLI_InitIngestGet(t *testing.T) {
	dir := t.TempDir()

	out, err := runCmd(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "initialised store")

	out, err = runCmd(t, "--store", dir, "ingest", "Water is wet.", "--domain", "science")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	require.Len(t, hash, 64)

	out, err = runCmd(t, "--store", dir, "get", hash)
	require.NoError(t, err)
	assert.Contains(t, out, "Water is wet.")
	assert.Contains(t, out, "domain: science")
}

func TestCLI_IngestIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := runCmd(t, "--store", dir, "ingest", "same", "--domain", "t")
	require.NoError(t, err)
	second, err := runCmd(t, "--store", dir, "ingest", "same", "--domain", "t")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCLI_ListAndStats(t *testing.T) {
	dir := t.TempDir()

	_, err := runCmd(t, "--store", dir, "ingest", "one", "--domain", "a")
	require.NoError(t, err)
	_, err = runCmd(t, "--store", dir, "ingest", "two", "--domain", "b")
	require.NoError(t, err)

	out, err := runCmd(t, "--store", dir, "list")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(out), 2)

	out, err = runCmd(t, "--store", dir, "list", "--domain", "a")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(out), 1)

	out, err = runCmd(t, "--store", dir, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "atoms: 2")
}

func TestCLI_VerifyHealthy(t *testing.T) {
	dir := t.TempDir()

	_, err := runCmd(t, "--store", dir, "ingest", "content", "--domain", "t")
	require.NoError(t, err)

	out, err := runCmd(t, "--store", dir, "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "store is healthy")
}

func TestCLI_LinkAndNeighbors(t *testing.T) {
	dir := t.TempDir()

	a, err := runCmd(t, "--store", dir, "ingest", "atom a", "--domain", "t")
	require.NoError(t, err)
	b, err := runCmd(t, "--store", dir, "ingest", "atom b", "--domain", "t")
	require.NoError(t, err)
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)

	_, err = runCmd(t, "--store", dir, "link", a, "relates_to", b)
	require.NoError(t, err)

	out, err := runCmd(t, "--store", dir, "neighbors", a)
	require.NoError(t, err)
	assert.Contains(t, out, b)
}

func TestCLI_QueryAndLinks(t *testing.T) {
	dir := t.TempDir()

	target, err := runCmd(t, "--store", dir, "ingest", "target", "--domain", "science/physics", "--tag", "core")
	require.NoError(t, err)
	target = strings.TrimSpace(target)

	pointer, err := runCmd(t, "--store", dir, "ingest", "pointer", "--domain", "science/physics",
		"--type", "concept")
	require.NoError(t, err)
	pointer = strings.TrimSpace(pointer)

	out, err := runCmd(t, "--store", dir, "query", "domain", "science/phy")
	require.NoError(t, err)
	assert.Contains(t, out, target)
	assert.Contains(t, out, pointer)

	out, err = runCmd(t, "--store", dir, "query", "type", "concept")
	require.NoError(t, err)
	assert.Contains(t, out, pointer)
	assert.NotContains(t, out, target)

	out, err = runCmd(t, "--store", dir, "query", "tag", "core")
	require.NoError(t, err)
	assert.Contains(t, out, target)
}

func TestCLI_TraverseAndPath(t *testing.T) {
	dir := t.TempDir()

	target, err := runCmd(t, "--store", dir, "ingest", "linked-to", "--domain", "t")
	require.NoError(t, err)
	target = strings.TrimSpace(target)

	pointer, err := runCmd(t, "--store", dir, "ingest", "links out", "--domain", "t",
		"--link", "relates_to="+target)
	require.NoError(t, err)
	pointer = strings.TrimSpace(pointer)

	// Default traversal follows the edge against its orientation, so
	// starting at the link target still reaches the pointer.
	out, err := runCmd(t, "--store", dir, "traverse", target, "--depth", "1")
	require.NoError(t, err)
	assert.Contains(t, out, pointer)

	out, err = runCmd(t, "--store", dir, "traverse", target, "--depth", "1", "--direction", "out")
	require.NoError(t, err)
	assert.NotContains(t, out, pointer)

	out, err = runCmd(t, "--store", dir, "path", target, pointer)
	require.NoError(t, err)
	assert.Contains(t, out, pointer)
	assert.NotContains(t, out, "no path")

	out, err = runCmd(t, "--store", dir, "links", target)
	require.NoError(t, err)
	assert.Contains(t, out, "in\trelates_to\t"+pointer)
}

func TestCLI_SearchAndRebuild(t *testing.T) {
	dir := t.TempDir()

	hash, err := runCmd(t, "--store", dir, "ingest", "# Tides\n\nThe moon pulls the oceans.", "--domain", "maritime")
	require.NoError(t, err)
	hash = strings.TrimSpace(hash)

	out, err := runCmd(t, "--store", dir, "search", "tides")
	require.NoError(t, err)
	assert.Contains(t, out, hash)

	out, err = runCmd(t, "--store", dir, "rebuild")
	require.NoError(t, err)
	assert.Contains(t, out, "graph:    1 atoms")
}

func TestCLI_RejectsBadInput(t *testing.T) {
	dir := t.TempDir()

	_, err := runCmd(t, "--store", dir, "ingest", "x", "--domain", "../../../etc/passwd")
	assert.Error(t, err)

	_, err = runCmd(t, "--store", dir, "get", "not-a-hash")
	assert.Error(t, err)
}

func TestCLI_Version(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "substrate")
}
