// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the unirag TUI.

# Color System (colors.go)

All colors are Lip Gloss AdaptiveColor values, so each has a light and a dark
variant:

  - Purple - Assistant label, dialogs
  - Cyan - Prompts, the student's messages, next topics
  - Emerald - Success states, helpful feedback
  - Amber - Warnings
  - Rose - Errors and destructive actions

# Theme (theme.go)

NewTheme builds the styles of the chat screen. The name comes from the
ui.theme setting: "dark" and "light" force a palette, "auto" follows the
terminal background.

	theme := styles.NewTheme(cfg.UI.Theme)
	theme.SetSize(width, height)
	if theme.GetLayoutMode() == styles.LayoutNarrow {
		// history sidebar hidden
	}
*/
package styles
