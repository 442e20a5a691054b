// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the student-facing chat session: sending a
// question, recording the answer (or the failure) as a bot message, and
// rating answers.
//
// # Send lifecycle
//
//	Idle -> Sending -> Succeeded | Failed -> Idle
//
// At most one send is in flight; a second Send while busy is skipped, not
// queued. Send never returns an error: failures become bot messages that
// start with ErrorPrefix.
//
// # Usage
//
//	ctrl := chat.NewController(store, client, chat.Options{UserID: "web"})
//	res := ctrl.Send(ctx, "ทุนการศึกษามีอะไรบ้าง")
//	if res.State == chat.StateSucceeded {
//	    fmt.Println(res.BotMessage.Text)
//	}
package chat
