// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the chat and admin
// surfaces.
//
// # Key Types
//
//   - Conversation: a titled, ordered thread of messages kept on this device
//   - Message: one user or bot turn; immutable once appended
//   - Document: a server-owned unit of knowledge content
//   - Feedback: a helpful/unhelpful rating for one question/answer pair
//   - StatsSummary, TopQuestion, IntentCount: admin statistics views
//   - Timestamp: time value tolerant of naive ISO-8601 backend dates
//
// # Usage
//
//	conv := model.NewConversation(id, welcome, time.Now())
//	conv.Append(model.NewUserMessage("กำหนดการลงทะเบียนเรียนเมื่อไหร่", time.Now()), time.Now())
package model
