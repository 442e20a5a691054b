// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local key/value persistence used for client
// state that must survive restarts.
//
// Two backends implement KV:
//
//   - FileKV: one file per key in the state directory, written atomically
//   - SQLiteKV: a single SQLite database (pure Go driver)
//
// # Usage
//
//	kv, err := storage.Open(storage.BackendFile, "~/.unirag/state")
//	if err != nil {
//	    return err
//	}
//	defer kv.Close()
//
//	err = kv.Set(storage.KeyConversations, blob)
//	blob, err = kv.Get(storage.KeyConversations)
//	if errors.Is(err, storage.ErrNotFound) { ... }
//
// # Keys
//
// Keys are short identifiers ([A-Za-z0-9_.-]); they double as file names in
// the file backend.
package storage
