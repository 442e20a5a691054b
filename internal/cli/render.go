// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/unirag-tui/internal/config"
	"github.com/jeranaias/unirag-tui/internal/linkify"
	"github.com/jeranaias/unirag-tui/internal/model"
	"github.com/jeranaias/unirag-tui/internal/util"
)

// =============================================================================
// ANSWER RENDERING
// =============================================================================

// answerRenderer formats assistant answers for the terminal.
type answerRenderer struct {
	markdown *glamour.TermRenderer
}

// newAnswerRenderer renders markdown only on a terminal and only when the
// configuration allows it. Piped output stays plain.
func newAnswerRenderer(cfg *config.Config, width int, tty bool) *answerRenderer {
	r := &answerRenderer{}
	if !tty || cfg == nil || cfg.UI.NoMarkdown {
		return r
	}

	style := glamour.WithAutoStyle()
	switch cfg.UI.Theme {
	case "dark", "light":
		style = glamour.WithStandardStyle(cfg.UI.Theme)
	}
	md, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return r
	}
	r.markdown = md
	return r
}

// Render returns the display form of an answer. URLs, e-mail addresses and
// phone numbers become terminal hyperlinks.
func (r *answerRenderer) Render(text string) string {
	if r.markdown != nil {
		if out, err := r.markdown.Render(text); err == nil {
			return strings.TrimRight(out, "\n") + contactFooter(text)
		}
	}
	return linkify.Render(text, func(seg linkify.Segment) string {
		return Hyperlink(seg.Href(), seg.Text)
	})
}

// contactFooter lists e-mail and phone links that markdown does not link.
func contactFooter(text string) string {
	var b strings.Builder
	for _, seg := range linkify.Links(text) {
		if seg.Kind == linkify.URL {
			continue
		}
		fmt.Fprintf(&b, "\n  %s %s", DimStyle.Render(seg.Kind.String()+":"), Hyperlink(seg.Href(), seg.Text))
	}
	return b.String()
}

// =============================================================================
// MESSAGES
// =============================================================================

// printMessage writes one transcript entry.
func printMessage(w io.Writer, r *answerRenderer, msg model.Message) {
	if msg.IsUser() {
		fmt.Fprintf(w, "%s %s\n", UserStyle.Render(msg.Role.DisplayName()+":"), msg.Text)
		return
	}
	fmt.Fprintf(w, "%s\n%s\n", BotStyle.Render(msg.Role.DisplayName()+":"), r.Render(msg.Text))
	printNextTopics(w, msg.NextTopics)
}

// printNextTopics lists follow-up questions with their REPL shortcuts.
func printNextTopics(w io.Writer, topics []string) {
	if len(topics) == 0 {
		return
	}
	fmt.Fprintln(w, DimStyle.Render("หัวข้อที่เกี่ยวข้อง:"))
	for i, topic := range topics {
		fmt.Fprintf(w, "  %s %s\n", DimStyle.Render(fmt.Sprintf("[%d]", i+1)), topic)
	}
}

// =============================================================================
// TABLES
// =============================================================================

// renderTable writes rows aligned by terminal column width. maxWidths caps
// individual columns; zero means no cap.
func renderTable(w io.Writer, headers []string, rows [][]string, maxWidths ...int) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := range headers {
			if i < len(row) {
				if cw := runewidth.StringWidth(row[i]); cw > widths[i] {
					widths[i] = cw
				}
			}
		}
	}
	for i := range widths {
		if i < len(maxWidths) && maxWidths[i] > 0 && widths[i] > maxWidths[i] {
			widths[i] = maxWidths[i]
		}
	}

	line := func(cells []string, header bool) {
		parts := make([]string, len(headers))
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = util.SingleLine(cells[i])
			}
			cell = util.PadRight(util.TruncateWidth(cell, widths[i]), widths[i])
			if header {
				cell = TitleStyle.Render(cell)
			}
			parts[i] = cell
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	line(headers, true)
	for _, row := range rows {
		line(row, false)
	}
}

// maskToken shows only the last four characters of a credential.
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", 8) + token[len(token)-4:]
}
