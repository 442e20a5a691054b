// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Well-known keys.
const (
	// KeyConversations holds the serialized conversation collection.
	KeyConversations = "uni_rag_conversations_v1"

	// KeyAdminToken holds the admin credential.
	KeyAdminToken = "uni_admin_token"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// KV is a minimal durable key/value store.
type KV interface {
	// Get returns the value for key or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set replaces the value for key.
	Set(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases resources held by the store.
	Close() error
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned by Get when the key has no value.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &StorageError{Message: "key not found"}

// ErrInvalidKey is returned for keys outside the accepted alphabet.
var ErrInvalidKey = &StorageError{Message: "invalid key"}

// StorageError represents a storage-related error.
// It implements the error interface and can be compared using errors.Is.
type StorageError struct {
	Message string
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing storage errors.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

func validateKey(key string) error {
	if !keyPattern.MatchString(key) || strings.Trim(key, ".") == "" {
		return errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	return nil
}

// =============================================================================
// FACTORY
// =============================================================================

// Open returns the backend named by backend rooted at dir.
func Open(backend, dir string) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		return NewFileKV(dir)
	case BackendSQLite:
		return NewSQLiteKV(SQLitePath(dir))
	default:
		return nil, errors.Errorf("unknown storage backend %q (want %q or %q)", backend, BackendFile, BackendSQLite)
	}
}

// GetString is Get for string values. A missing key yields "".
func GetString(kv KV, key string) (string, error) {
	data, err := kv.Get(key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// SetString is Set for string values.
func SetString(kv KV, key, value string) error {
	return kv.Set(key, []byte(value))
}
