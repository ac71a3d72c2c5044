// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package substrate

import (
	"sort"
	"strings"
	"sync"

	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

// memBackend is an in-memory Backend for unit tests: same contract as
// the filesystem backend without touching disk.
type memBackend struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
}

// NewMemBackend returns an empty in-memory Backend.
func NewMemBackend() Backend {
	return &memBackend{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

func (b *memBackend) ReadFile(path string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.files[path]
	if !ok {
		return nil, suberr.Errorf(suberr.CodeSubstrateStorageFailure, "reading %s: file does not exist", path)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (b *memBackend) WriteFile(path string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	b.files[path] = stored
	b.recordParents(path)
	return nil
}

func (b *memBackend) AppendLine(path string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.files[path] = append(b.files[path], append(data, '\n')...)
	b.recordParents(path)
	return nil
}

func (b *memBackend) Exists(path string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, ok := b.files[path]; ok {
		return true, nil
	}
	return b.dirs[path], nil
}

func (b *memBackend) ReadDir(path string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	prefix := path + "/"
	seen := make(map[string]bool)

	for file := range b.files {
		if strings.HasPrefix(file, prefix) {
			rest := strings.TrimPrefix(file, prefix)
			seen[firstSegment(rest)] = true
		}
	}
	for dir := range b.dirs {
		if strings.HasPrefix(dir, prefix) {
			rest := strings.TrimPrefix(dir, prefix)
			seen[firstSegment(rest)] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (b *memBackend) FileSize(path string) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.files[path]
	if !ok {
		return 0, suberr.Errorf(suberr.CodeSubstrateStorageFailure, "statting %s: file does not exist", path)
	}
	return int64(len(data)), nil
}

func (b *memBackend) MkdirAll(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dirs[path] = true
	b.recordParents(path)
	return nil
}

// recordParents marks every ancestor directory of path as existing.
// Caller must hold the write lock.
func (b *memBackend) recordParents(path string) {
	for {
		idx := strings.LastIndex(path, "/")
		if idx <= 0 {
			return
		}
		path = path[:idx]
		b.dirs[path] = true
	}
}

func firstSegment(path string) string {
	if idx := strings.Index(path, "/"); idx >= 0 {
		return path[:idx]
	}
	return path
}
