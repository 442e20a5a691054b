// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns a fresh instance of every KV implementation.
func backends(t *testing.T) map[string]KV {
	t.Helper()

	fileKV, err := NewFileKV(t.TempDir())
	require.NoError(t, err)

	sqliteKV, err := NewSQLiteKV(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		fileKV.Close()
		sqliteKV.Close()
	})

	return map[string]KV{
		BackendFile:   fileKV,
		BackendSQLite: sqliteKV,
	}
}

func TestKV_SetGetDelete(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get(KeyConversations)
			assert.True(t, errors.Is(err, ErrNotFound), "missing key should be ErrNotFound, got %v", err)

			require.NoError(t, kv.Set(KeyConversations, []byte(`{"conversations":[]}`)))
			got, err := kv.Get(KeyConversations)
			require.NoError(t, err)
			assert.Equal(t, `{"conversations":[]}`, string(got))

			require.NoError(t, kv.Set(KeyConversations, []byte(`{}`)))
			got, err = kv.Get(KeyConversations)
			require.NoError(t, err)
			assert.Equal(t, `{}`, string(got))

			require.NoError(t, kv.Delete(KeyConversations))
			_, err = kv.Get(KeyConversations)
			assert.True(t, errors.Is(err, ErrNotFound))

			assert.NoError(t, kv.Delete(KeyConversations), "deleting a missing key is not an error")
		})
	}
}

func TestKV_InvalidKey(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "..", "../escape", "a/b", "with space"} {
				err := kv.Set(key, []byte("x"))
				assert.True(t, errors.Is(err, ErrInvalidKey), "key %q: got %v", key, err)
			}
		})
	}
}

func TestKV_StringHelpers(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v, err := GetString(kv, KeyAdminToken)
			require.NoError(t, err)
			assert.Equal(t, "", v)

			require.NoError(t, SetString(kv, KeyAdminToken, "secret"))
			v, err = GetString(kv, KeyAdminToken)
			require.NoError(t, err)
			assert.Equal(t, "secret", v)
		})
	}
}

func TestFileKV_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileKV(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set("k", []byte("v")))

	second, err := NewFileKV(dir)
	require.NoError(t, err)
	got, err := second.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	info, err := os.Stat(filepath.Join(dir, "k"))
	require.NoError(t, err)
	if os.PathSeparator == '/' {
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestSQLiteKV_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	first, err := NewSQLiteKV(path)
	require.NoError(t, err)
	require.NoError(t, first.Set("k", []byte("v")))
	require.NoError(t, first.Close())

	second, err := NewSQLiteKV(path)
	require.NoError(t, err)
	defer second.Close()
	got, err := second.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	kv, err := Open("", dir)
	require.NoError(t, err)
	assert.IsType(t, &FileKV{}, kv)

	kv, err = Open("SQLite", dir)
	require.NoError(t, err)
	defer kv.Close()
	assert.IsType(t, &SQLiteKV{}, kv)
	assert.FileExists(t, SQLitePath(dir))

	_, err = Open("redis", dir)
	assert.Error(t, err)
}
