// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the knowledge-assistant backend.
//
// The client covers the public chat and feedback endpoints and the admin
// endpoints (documents, PDF upload, feedback listing, statistics). Admin
// calls carry the credential in the X-API-Key header.
//
// # Errors
//
// Non-2xx responses become *Error, whose message prefers the backend's
// "detail" field, then the raw body, then the HTTP status text. Transport
// failures are returned wrapped. Message(err) gives the string shown to
// users for either kind.
//
// # Retries
//
// GET requests are retried on transport errors, 5xx and 429 with
// exponential backoff. POST, PUT and DELETE are sent exactly once.
//
// # Usage
//
//	client := api.NewClient("http://localhost:8000").
//	    WithTimeout(30 * time.Second).
//	    WithRateLimit(5, 10)
//	resp, err := client.Chat(ctx, "ทุนการศึกษามีอะไรบ้าง", "web")
package api
