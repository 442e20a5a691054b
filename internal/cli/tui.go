// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Full-screen chat, the default command.
package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	uichat "github.com/jeranaias/unirag-tui/internal/ui/chat"
	"github.com/jeranaias/unirag-tui/internal/ui/styles"
)

// runTUI starts the Bubble Tea chat on the alternate screen.
func runTUI(ctx context.Context, s *cliState) error {
	if s.opts.jsonMode {
		return NewUsageError("the full-screen chat has no JSON output", `unirag ask --json "ทุนการศึกษามีอะไรบ้าง"`)
	}
	if !s.interactive() || !IsStdoutTTY() {
		return &TTYRequiredError{Operation: "the full-screen chat"}
	}

	app, err := s.application()
	if err != nil {
		return err
	}

	m := uichat.New(ctx, uichat.Options{
		Controller:     app.Chat,
		Theme:          styles.NewTheme(s.cfg.UI.Theme),
		RevealInterval: s.cfg.Chat.RevealInterval,
		Markdown:       !s.cfg.UI.NoMarkdown,
	})

	defer m.Close()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	log.Debug().Str("theme", s.cfg.UI.Theme).Msg("Starting full-screen chat")
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "run chat screen")
	}
	return nil
}
