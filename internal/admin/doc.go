// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package admin implements the content-management console: the admin
// credential, document create/update/delete, PDF upload, and the read-only
// feedback and statistics views.
//
// The server owns every document. After each mutation the controller reloads
// the full list instead of patching it locally, and a failed call never
// alters the local lists. Every outcome is reported through Status().
//
// # Usage
//
//	ctrl := admin.NewController(kv, client, admin.Options{})
//	defer ctrl.Close()
//
//	if err := ctrl.SaveToken(token); err != nil { ... }
//	docs, err := ctrl.LoadDocuments(ctx)
//	ctrl.SetView(admin.ViewFeedback) // starts auto-refresh
package admin
