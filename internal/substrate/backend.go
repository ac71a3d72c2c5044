// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Substrate Contributors

package substrate

import (
	"os"
	"path/filepath"
	"sort"

	suberr "github.com/substrate-dev/substrate/pkg/errors"
)

// Backend abstracts the store's byte-level persistence. Paths are
// slash-separated and relative to the store root; backends must not
// allow access outside it. The filesystem implementation is the
// production backend; the in-memory one backs unit tests.
type Backend interface {
	// ReadFile returns the contents of the file at path.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to path, creating parent directories.
	// Writes are atomic with respect to concurrent readers.
	WriteFile(path string, data []byte) error

	// AppendLine appends data plus a trailing newline to path,
	// creating the file and parent directories if needed.
	AppendLine(path string, data []byte) error

	// Exists reports whether a file or directory exists at path.
	Exists(path string) (bool, error)

	// ReadDir returns the sorted names of entries under path.
	// A missing directory yields an empty slice, not an error.
	ReadDir(path string) ([]string, error)

	// FileSize returns the size in bytes of the file at path.
	FileSize(path string) (int64, error)

	// MkdirAll creates the directory at path and any parents.
	MkdirAll(path string) error
}

// osBackend persists under a root directory on the local filesystem.
type osBackend struct {
	root string
}

// NewOSBackend returns a Backend rooted at dir.
func NewOSBackend(dir string) Backend {
	return &osBackend{root: dir}
}

func (b *osBackend) abs(path string) string {
	return filepath.Join(b.root, filepath.FromSlash(path))
}

func (b *osBackend) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(b.abs(path))
	if err != nil {
		return nil, suberr.Wrapf(err, suberr.CodeSubstrateStorageFailure, "reading %s", path)
	}
	return data, nil
}

// WriteFile writes through a temp file in the target directory and
// renames it into place, so a concurrent reader never observes a torn
// file.
func (b *osBackend) WriteFile(path string, data []byte) error {
	target := b.abs(path)
	dir := filepath.Dir(target)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return suberr.Wrapf(err, suberr.CodeSubstrateStorageFailure, "creating directory for %s", path)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return suberr.Wrapf(err, suberr.CodeSubstrateStorageFailure, "creating temp file for %s", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return suberr.Wrapf(err, suberr.CodeSubstrateStorageFailure, "writing temp file for %s", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return suberr.Wrapf(err, suberr.CodeSubstrateStorageFailure, "closing temp file for %s", path)
	}

	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return suberr.Wrapf(err, suberr.CodeSubstrateStorageFailure, "renaming into %s", path)
	}
	return nil
}

func (b *osBackend) AppendLine(path string, data []byte) error {
	target := b.abs(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return suberr.Wrapf(err, suberr.CodeSubstrateStorageFailure, "creating directory for %s", path)
	}

	f, err := os.OpenFile(target, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return suberr.Wrapf(err, suberr.CodeSubstrateStorageFailure, "opening %s for append", path)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return suberr.Wrapf(err, suberr.CodeSubstrateStorageFailure, "appending to %s", path)
	}
	return nil
}

func (b *osBackend) Exists(path string) (bool, error) {
	_, err := os.Stat(b.abs(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, suberr.Wrapf(err, suberr.CodeSubstrateStorageFailure, "statting %s", path)
}

func (b *osBackend) ReadDir(path string) ([]string, error) {
	entries, err := os.ReadDir(b.abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, suberr.Wrapf(err, suberr.CodeSubstrateStorageFailure, "listing %s", path)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (b *osBackend) FileSize(path string) (int64, error) {
	info, err := os.Stat(b.abs(path))
	if err != nil {
		return 0, suberr.Wrapf(err, suberr.CodeSubstrateStorageFailure, "statting %s", path)
	}
	return info.Size(), nil
}

func (b *osBackend) MkdirAll(path string) error {
	if err := os.MkdirAll(b.abs(path), 0o755); err != nil {
		return suberr.Wrapf(err, suberr.CodeSubstrateStorageFailure, "creating %s", path)
	}
	return nil
}
