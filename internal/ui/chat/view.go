// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file contains all rendering: header, history sidebar, conversation,
// input, status bar and dialogs.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/unirag-tui/internal/chat"
	"github.com/jeranaias/unirag-tui/internal/linkify"
	"github.com/jeranaias/unirag-tui/internal/model"
	"github.com/jeranaias/unirag-tui/internal/util"
)

// Fixed row counts around the conversation viewport.
const (
	headerHeight = 1
	inputHeight  = 3
	statusHeight = 1
)

// View renders the screen.
func (m Model) View() string {
	if !m.ready {
		return "กำลังโหลด..."
	}

	header := m.renderHeader()
	status := m.renderStatusBar()

	var body string
	if m.dialog != dialogNone {
		bodyHeight := m.height - headerHeight - statusHeight
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, m.renderDialog())
	} else {
		main := lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), m.renderInput())
		if sw := m.theme.SidebarWidth(); sw > 0 {
			sidebar := m.renderSidebar(sw, m.height-headerHeight-statusHeight)
			body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
		} else {
			body = main
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, status)
}

// mainWidth is the width left for the conversation column.
func (m Model) mainWidth() int {
	w := m.width
	if sw := m.theme.SidebarWidth(); sw > 0 {
		// Sidebar border and padding.
		w -= sw + 3
	}
	if w < 20 {
		w = 20
	}
	return w
}

// refresh re-renders the conversation into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderConversation())
}

// =============================================================================
// HEADER AND STATUS
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("MFU Knowledge Assistant")
	hint := m.theme.HeaderHint.Render("? ติดต่อผู้ดูแลระบบ")
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(hint) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(title + strings.Repeat(" ", gap) + hint)
}

func (m Model) renderStatusBar() string {
	if m.status != "" {
		style := m.theme.StatusSuccess
		if m.statusErr {
			style = m.theme.StatusError
		}
		return m.theme.StatusBar.Width(m.width).Render(style.Render(m.status))
	}

	var bindings []key.Binding
	switch m.dialog {
	case dialogDelete:
		bindings = []key.Binding{m.keys.Confirm, m.keys.Dismiss}
	case dialogComment:
		bindings = []key.Binding{m.keys.Submit, m.keys.Dismiss}
	case dialogContact:
		bindings = []key.Binding{m.keys.Dismiss}
	default:
		if m.revealing() {
			bindings = append(bindings, m.keys.SkipReveal)
		}
		bindings = append(bindings, m.keys.ShortHelp(m.focus)...)
	}

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return m.theme.StatusBar.Width(m.width).MaxWidth(m.width).Render(strings.Join(parts, "  "))
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) renderSidebar(width, height int) string {
	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("ประวัติการสนทนา"))
	b.WriteString("\n")

	row := func(i int, text string, style lipgloss.Style) {
		line := style.Render(util.TruncateWidth(text, width))
		if m.focus == FocusSidebar && m.sidebarCursor == i {
			line = m.theme.SidebarCursor.Width(width).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	row(0, "+ แชทใหม่", m.theme.SidebarNew)

	activeID := m.store.ActiveID()
	history := m.store.History()
	if len(history) == 0 {
		b.WriteString(m.theme.SidebarSnippet.Render("ยังไม่มีประวัติ"))
		b.WriteString("\n")
	}
	for i, conv := range history {
		style := m.theme.SidebarItem
		title := conv.DisplayTitle()
		if conv.ID == activeID {
			style = m.theme.SidebarActive
			title = "● " + title
		}
		row(i+1, title, style)
		if snippet := conv.Snippet(); snippet != "" {
			b.WriteString(m.theme.SidebarSnippet.Render(util.TruncateWidth(snippet, width)))
			b.WriteString("\n")
		}
	}

	return m.theme.Sidebar.Width(width).Height(height).MaxHeight(height).Render(b.String())
}

// =============================================================================
// CONVERSATION
// =============================================================================

func (m Model) renderConversation() string {
	conv, ok := m.store.Active()
	if !ok {
		return m.renderSuggestions()
	}

	width := m.viewport.Width - 2
	var b strings.Builder
	for i, msg := range conv.Messages {
		if msg.IsUser() {
			b.WriteString(m.renderUserMessage(msg, width))
		} else {
			b.WriteString(m.renderBotMessage(conv, msg, i, width))
		}
		b.WriteString("\n")
	}

	if m.sending {
		b.WriteString(m.spinner.View() + " " + m.theme.Thinking.Render("กำลังพิมพ์คำตอบ..."))
		b.WriteString("\n")
	}

	if !conv.HasUserMessage() && !m.sending {
		b.WriteString("\n")
		b.WriteString(m.renderSuggestions())
	}
	return b.String()
}

func (m Model) renderUserMessage(msg model.Message, width int) string {
	label := m.theme.UserLabel.Render(msg.Role.DisplayName())
	stamp := m.theme.Timestamp.Render(msg.CreatedAt.Local().Format("15:04"))
	bubble := m.theme.UserBubble.Width(width - 2).Render(msg.Text)
	return label + " " + stamp + "\n" + bubble + "\n"
}

func (m Model) renderBotMessage(conv *model.Conversation, msg model.Message, index, width int) string {
	typing := m.reveal != nil && m.reveal.MessageID() == msg.ID && !m.reveal.Done()
	failed := strings.HasPrefix(msg.Text, chat.ErrorPrefix)

	var text string
	switch {
	case typing:
		text = m.renderLinks(m.reveal.Text()) + m.theme.TypingCursor.Render("▌")
	case failed:
		text = msg.Text
	default:
		text = m.renderAnswer(msg.Text)
	}

	style := m.theme.AssistantBubble
	if failed {
		style = m.theme.ErrorBubble
	}

	var b strings.Builder
	b.WriteString(m.theme.AssistantLabel.Render(msg.Role.DisplayName()))
	b.WriteString(" ")
	b.WriteString(m.theme.Timestamp.Render(msg.CreatedAt.Local().Format("15:04")))
	b.WriteString("\n")
	b.WriteString(style.Width(width - 2).Render(text))
	b.WriteString("\n")

	if typing || index == 0 {
		return b.String()
	}

	if last, ok := m.lastAnswer(); ok && last.ID == msg.ID && !m.sending {
		b.WriteString(m.renderTopics(msg.NextTopics))
	}
	if _, ok := conv.QuestionFor(index); ok {
		b.WriteString(m.renderFeedback(msg))
	}
	return b.String()
}

// renderAnswer formats a finished answer.
func (m Model) renderAnswer(text string) string {
	if m.markdown != nil {
		if out, err := m.markdown.Render(text); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return m.renderLinks(text)
}

// renderLinks underlines URLs, e-mail addresses and phone numbers.
func (m Model) renderLinks(text string) string {
	return linkify.Render(text, func(seg linkify.Segment) string {
		return m.theme.Link.Render(seg.Text)
	})
}

func (m Model) renderTopics(topics []string) string {
	if len(topics) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.theme.TopicHeader.Render("หัวข้อที่เกี่ยวข้อง"))
	b.WriteString("\n")
	for i, t := range topics {
		style := m.theme.Topic
		if m.focus == FocusAnswer && m.answerCursor == i {
			style = m.theme.TopicSelected
		}
		b.WriteString(style.Render("› " + t))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderFeedback(msg model.Message) string {
	if strings.HasPrefix(msg.Text, chat.ErrorPrefix) {
		return ""
	}
	if m.ctl.FeedbackSent(msg.ID) {
		return m.theme.FeedbackDone.Render("ขอบคุณสำหรับความคิดเห็น! 🙏") + "\n"
	}
	target, ok := m.feedbackTarget()
	if !ok || target.ID != msg.ID {
		return m.theme.Muted.Render("คำตอบนี้มีประโยชน์ไหม?  ←/→ เลือกคำตอบ") + "\n"
	}
	hint := "คำตอบนี้มีประโยชน์ไหม?  Tab แล้วกด + มีประโยชน์ / - ไม่มีประโยชน์"
	if m.focus == FocusAnswer {
		hint = "› คำตอบนี้มีประโยชน์ไหม?  + มีประโยชน์ / - ไม่มีประโยชน์"
	}
	return m.theme.FeedbackHint.Render(hint) + "\n"
}

func (m Model) renderSuggestions() string {
	var b strings.Builder
	b.WriteString(m.theme.TopicHeader.Render("คำถามแนะนำ"))
	b.WriteString("\n")
	for i, s := range chat.Suggestions() {
		style := m.theme.Suggestion
		if m.focus == FocusAnswer && m.answerCursor == i {
			style = m.theme.SuggestionSelected
		}
		b.WriteString(style.Render(s.Label))
		b.WriteString("\n")
	}
	if m.focus != FocusAnswer {
		b.WriteString(m.theme.Muted.Render("กด Tab เพื่อเลือกคำถามแนะนำ"))
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// INPUT
// =============================================================================

func (m Model) renderInput() string {
	style := m.theme.InputContainer.Width(m.mainWidth() - 2)
	if m.focus == FocusInput {
		style = style.BorderForeground(m.theme.InputPrompt.GetForeground())
	}
	view := m.input.View()
	if m.sending {
		view = m.theme.Muted.Render("รอคำตอบก่อนส่งคำถามถัดไป...")
	}
	return style.Render(view)
}

// =============================================================================
// DIALOGS
// =============================================================================

func (m Model) renderDialog() string {
	width := m.width - 8
	if width > 64 {
		width = 64
	}
	style := m.theme.Dialog.Width(width)

	switch m.dialog {
	case dialogContact:
		c := chat.Contact()
		body := lipgloss.JoinVertical(lipgloss.Left,
			m.theme.DialogTitle.Render("ติดต่อผู้ดูแลระบบ"),
			"หากคำตอบไม่ตรงกับที่ต้องการ สามารถติดต่อเจ้าหน้าที่ได้ที่",
			"",
			fmt.Sprintf("อีเมล:  %s", m.theme.Link.Render(c.Email)),
			fmt.Sprintf("โทร:    %s", m.theme.Link.Render(c.Phone)),
			fmt.Sprintf("เวลา:   %s", c.Hours),
			"",
			m.theme.Muted.Render("Esc เพื่อปิด"),
		)
		return style.Render(body)

	case dialogDelete:
		title := m.deleteID
		if conv, ok := m.store.Get(m.deleteID); ok {
			title = conv.DisplayTitle()
		}
		body := lipgloss.JoinVertical(lipgloss.Left,
			m.theme.DialogDanger.Render("ลบแชทนี้?"),
			"",
			title,
			"",
			m.theme.Muted.Render("y ยืนยัน  ·  Esc ยกเลิก"),
		)
		return style.BorderForeground(m.theme.DialogDanger.GetForeground()).Render(body)

	case dialogComment:
		body := lipgloss.JoinVertical(lipgloss.Left,
			m.theme.DialogTitle.Render("คำตอบนี้ไม่มีประโยชน์"),
			m.comment.View(),
			"",
			m.theme.Muted.Render("Enter ส่ง  ·  Esc ยกเลิก"),
		)
		return style.Render(body)
	}
	return ""
}
