// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/jeranaias/unirag-tui/internal/util"
)

// FileKV stores each key as a file inside BaseDir.
type FileKV struct {
	// BaseDir is the directory holding one file per key.
	// Default: ~/.unirag/state/
	BaseDir string

	mu sync.Mutex
}

// NewFileKV creates a file-backed store, creating dir if needed.
func NewFileKV(dir string) (*FileKV, error) {
	if dir == "" {
		return nil, errors.New("storage directory is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "create storage directory")
	}
	return &FileKV{BaseDir: dir}, nil
}

// Get implements KV.
func (s *FileKV) Get(key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "read %s", key)
	}
	return data, nil
}

// Set implements KV. The write is atomic: readers see the old or the new
// value, never a partial file.
func (s *FileKV) Set(key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := util.AtomicWriteFile(s.filePath(key), value, 0o600); err != nil {
		return errors.Wrapf(err, "write %s", key)
	}
	return nil
}

// Delete implements KV.
func (s *FileKV) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.filePath(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}

// Close implements KV.
func (s *FileKV) Close() error {
	return nil
}

func (s *FileKV) filePath(key string) string {
	return filepath.Join(s.BaseDir, key)
}
