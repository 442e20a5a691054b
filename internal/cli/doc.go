// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the unirag command tree.
//
// Running unirag with no subcommand starts the full-screen chat. Every other
// surface of the client is reachable from scripts and terminals:
//
//   - ask: one question, printed answer
//   - chat: line-oriented chat REPL with input history
//   - history: list, show, create, select and delete conversations
//   - admin: token, documents, PDF upload, feedback and statistics
//   - config: init, show, path, get and set
//   - health, version
//
// All commands support --json, which prints the envelope
// {success, data, error, timestamp, command} on stdout.
package cli
