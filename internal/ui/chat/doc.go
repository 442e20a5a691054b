// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat for the unirag TUI.

The screen has a history sidebar, the active conversation and an input line.
All state lives in the chat controller and conversation store; the Model
only tracks focus, dialogs and the typing reveal.

# Files

  - model.go: the Bubble Tea model, key handling and actions
  - view.go: rendering of every pane and dialog
  - messages.go: Bubble Tea messages and the commands producing them
  - keys.go: key bindings and the status bar help

# Panes

Tab cycles focus between the input, the sidebar and the answer pane. In the
answer pane the arrow keys pick a related topic (or a suggested question on
an empty conversation), Enter asks it, and + or - rates the newest answer.
Left and right move the rating to an earlier answer. A negative rating opens
a comment box.

# Typing reveal

A new answer is typed out word by word on a tea.Tick timer. Related topics
and the rating hint stay hidden until the reveal ends. Switching or creating
a conversation cancels it; Esc shows the whole answer at once.

# Usage

	m := chat.New(ctx, chat.Options{
		Controller:     controller,
		Theme:          styles.NewTheme(cfg.UI.Theme),
		RevealInterval: cfg.Chat.RevealInterval,
		Markdown:       !cfg.UI.NoMarkdown,
	})
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()

The Model watches the conversation store itself. Store notifications run on
whichever goroutine mutated the store, often the event loop, so they are
queued rather than sent with Program.Send.
*/
package chat
