// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across unirag.
//
// # Key Functions
//
// Text:
//   - TruncateGraphemes: cut a string to N user-perceived characters without
//     splitting combining sequences (Thai vowels and tone marks, emoji, ...)
//   - SingleLine: collapse line breaks for one-line display
//   - PadRight / TruncateWidth: terminal column aware layout helpers
//
// Identifiers:
//   - NewID: time-ordered identifier with a random suffix
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	title := util.TruncateGraphemes(firstQuestion, 40)
//	id := util.NewID("conv")
//	err := util.AtomicWriteFile(path, data, 0600)
package util
