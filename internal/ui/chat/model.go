// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file contains the Bubble Tea model and its update loop.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jeranaias/unirag-tui/internal/chat"
	"github.com/jeranaias/unirag-tui/internal/conversation"
	"github.com/jeranaias/unirag-tui/internal/logging"
	"github.com/jeranaias/unirag-tui/internal/model"
	"github.com/jeranaias/unirag-tui/internal/reveal"
	"github.com/jeranaias/unirag-tui/internal/ui/styles"
)

// MaxInputLength caps a typed question.
const MaxInputLength = 2000

// =============================================================================
// FOCUS AND DIALOGS
// =============================================================================

// Focus is the pane receiving keys.
type Focus int

const (
	FocusInput Focus = iota
	FocusSidebar
	FocusAnswer
)

// dialog is a modal drawn over the chat.
type dialog int

const (
	dialogNone dialog = iota
	dialogContact
	dialogDelete
	dialogComment
)

// =============================================================================
// MODEL
// =============================================================================

// Options configures a Model.
type Options struct {
	Controller     *chat.Controller
	Theme          *styles.Theme
	RevealInterval time.Duration
	// Markdown renders answers through glamour.
	Markdown bool
	// CopyText replaces the system clipboard, mainly for tests.
	CopyText func(string) error
}

// Model is the full-screen chat.
type Model struct {
	ctx    context.Context
	ctl    *chat.Controller
	store  *conversation.Store
	theme  *styles.Theme
	keys   KeyMap
	logger zerolog.Logger

	input    textinput.Model
	comment  textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	markdown *glamour.TermRenderer
	useMD    bool

	width  int
	height int
	ready  bool

	focus         Focus
	sidebarCursor int
	answerCursor  int
	rateID        string
	dialog        dialog
	deleteID      string
	commentFor    string

	sending        bool
	reveal         *reveal.Reveal
	revealInterval time.Duration

	status    string
	statusErr bool
	statusSeq int

	copyText func(string) error
	watcher  *storeWatcher
}

// New creates the chat model.
func New(ctx context.Context, opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme(styles.ThemeAuto)
	}
	if opts.RevealInterval <= 0 {
		opts.RevealInterval = reveal.DefaultInterval
	}
	if opts.CopyText == nil {
		opts.CopyText = clipboard.WriteAll
	}

	in := textinput.New()
	in.Placeholder = "พิมพ์คำถามของคุณ..."
	in.Prompt = "› "
	in.PromptStyle = opts.Theme.InputPrompt
	in.CharLimit = MaxInputLength
	in.Focus()

	comment := textinput.New()
	comment.Placeholder = "บอกเราว่าคำตอบนี้ควรปรับปรุงอย่างไร (ไม่บังคับ)"
	comment.CharLimit = 500

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = opts.Theme.Thinking

	m := Model{
		ctx:            ctx,
		ctl:            opts.Controller,
		store:          opts.Controller.Store(),
		theme:          opts.Theme,
		keys:           DefaultKeyMap(),
		logger:         logging.Component("tui"),
		input:          in,
		comment:        comment,
		spinner:        sp,
		useMD:          opts.Markdown,
		revealInterval: opts.RevealInterval,
		copyText:       opts.CopyText,
	}
	m.watcher = newStoreWatcher(m.store)
	if draft := m.ctl.Draft(); draft != "" {
		m.input.SetValue(draft)
	}
	return m
}

// Init starts the cursor blink and the store watch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.watcher.wait())
}

// Close stops watching the conversation store. Call it after the program
// exits.
func (m Model) Close() {
	m.watcher.close()
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SendResultMsg:
		return m.handleSendResult(msg)

	case RevealTickMsg:
		return m.handleRevealTick(msg)

	case StoreChangedMsg:
		m.clampCursors()
		m.refresh()
		return m, m.watcher.wait()

	case FeedbackSentMsg:
		switch {
		case msg.Err == nil:
			return m.setStatus("ขอบคุณสำหรับความคิดเห็น!", false)
		case errors.Is(msg.Err, chat.ErrFeedbackAlreadySent):
			return m.setStatus("ส่งความคิดเห็นสำหรับคำตอบนี้แล้ว", false)
		default:
			m.logger.Warn().Err(msg.Err).Str("message", msg.MessageID).Msg("Feedback rejected")
			return m.setStatus(msg.Err.Error(), true)
		}

	case CopyResultMsg:
		if msg.Err != nil {
			return m.setStatus("คัดลอกไม่สำเร็จ: "+msg.Err.Error(), true)
		}
		return m.setStatus("คัดลอกคำตอบแล้ว", false)

	case StatusClearMsg:
		if msg.Seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	if m.focus == FocusInput && m.dialog == dialogNone {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width, m.height = msg.Width, msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	mainWidth := m.mainWidth()
	vpHeight := m.height - headerHeight - inputHeight - statusHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	if !m.ready {
		m.viewport = viewport.New(mainWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = mainWidth
		m.viewport.Height = vpHeight
	}
	m.input.Width = mainWidth - 6
	m.comment.Width = mainWidth - 10

	if m.useMD {
		md, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.theme.Name),
			glamour.WithWordWrap(mainWidth-6),
		)
		if err != nil {
			m.logger.Debug().Err(err).Msg("Markdown renderer unavailable")
		}
		m.markdown = md
	}

	m.refresh()
	m.viewport.GotoBottom()
	return m, nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" || msg.String() == "ctrl+q" {
		return m, tea.Quit
	}

	if m.dialog != dialogNone {
		return m.handleDialogKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.SkipReveal) && m.revealing():
		m.reveal.Finish()
		m.reveal = nil
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.Focus):
		return m.cycleFocus(msg.String() == "shift+tab"), nil
	case key.Matches(msg, m.keys.New):
		return m.newConversation()
	case key.Matches(msg, m.keys.Copy):
		return m.copyLastAnswer()
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	switch m.focus {
	case FocusSidebar:
		return m.handleSidebarKey(msg)
	case FocusAnswer:
		return m.handleAnswerKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Contact) && m.input.Value() == "":
		m.dialog = dialogContact
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.send(m.input.Value())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.ctl.SetDraft(m.input.Value())
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	history := m.store.History()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.sidebarCursor > 0 {
			m.sidebarCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.sidebarCursor < len(history) {
			m.sidebarCursor++
		}
	case key.Matches(msg, m.keys.Select):
		if m.sidebarCursor == 0 {
			return m.newConversation()
		}
		conv := history[m.sidebarCursor-1]
		m.stopReveal()
		if m.ctl.SelectConversation(conv.ID) {
			m.input.SetValue("")
			m.answerCursor, m.rateID = 0, ""
			m.refresh()
			m.viewport.GotoBottom()
		}
	case key.Matches(msg, m.keys.Delete):
		if m.sidebarCursor > 0 {
			m.deleteID = history[m.sidebarCursor-1].ID
			m.dialog = dialogDelete
		}
	case key.Matches(msg, m.keys.Contact):
		m.dialog = dialogContact
	}
	return m, nil
}

func (m Model) handleAnswerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	choices := m.answerChoices()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.answerCursor > 0 {
			m.answerCursor--
		}
		m.refresh()
	case key.Matches(msg, m.keys.Down):
		if m.answerCursor < len(choices)-1 {
			m.answerCursor++
		}
		m.refresh()
	case key.Matches(msg, m.keys.Select):
		if m.answerCursor >= len(choices) {
			return m, nil
		}
		choice := choices[m.answerCursor]
		if choice.suggestion {
			// A suggestion only fills the draft.
			m.ctl.UseSuggestion(chat.Suggestion{Label: choice.label, Prompt: choice.prompt})
			m.input.SetValue(choice.prompt)
			m.input.CursorEnd()
			return m.setFocus(FocusInput), nil
		}
		return m.send(choice.prompt)
	case key.Matches(msg, m.keys.PrevAnswer):
		return m.moveFeedbackTarget(-1), nil
	case key.Matches(msg, m.keys.NextAnswer):
		return m.moveFeedbackTarget(1), nil
	case key.Matches(msg, m.keys.Helpful):
		if id, ok := m.rateable(); ok {
			return m, feedbackCmd(m.ctx, m.ctl, id, true, "")
		}
	case key.Matches(msg, m.keys.NotHelpful):
		if id, ok := m.rateable(); ok {
			m.commentFor = id
			m.comment.SetValue("")
			m.dialog = dialogComment
			cmd := m.comment.Focus()
			return m, cmd
		}
	case key.Matches(msg, m.keys.Contact):
		m.dialog = dialogContact
	}
	return m, nil
}

func (m Model) handleDialogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.dialog {
	case dialogDelete:
		switch {
		case key.Matches(msg, m.keys.Confirm):
			id := m.deleteID
			m.dialog, m.deleteID = dialogNone, ""
			if id == m.store.ActiveID() {
				m.stopReveal()
			}
			if m.ctl.DeleteConversation(id) {
				m.clampCursors()
				m.refresh()
				return m.setStatus("ลบแชทแล้ว", false)
			}
			return m, nil
		case key.Matches(msg, m.keys.Dismiss), msg.String() == "n":
			m.dialog, m.deleteID = dialogNone, ""
		}
		return m, nil

	case dialogComment:
		switch msg.Type {
		case tea.KeyEsc:
			m.dialog, m.commentFor = dialogNone, ""
			m.comment.Blur()
			return m, nil
		case tea.KeyEnter:
			id, text := m.commentFor, m.comment.Value()
			m.dialog, m.commentFor = dialogNone, ""
			m.comment.Blur()
			return m, feedbackCmd(m.ctx, m.ctl, id, false, text)
		}
		var cmd tea.Cmd
		m.comment, cmd = m.comment.Update(msg)
		return m, cmd

	default:
		if key.Matches(msg, m.keys.Dismiss) || key.Matches(msg, m.keys.Contact) || msg.Type == tea.KeyEnter {
			m.dialog = dialogNone
		}
		return m, nil
	}
}

// =============================================================================
// ACTIONS
// =============================================================================

// send asks text unless a question is already pending.
func (m Model) send(text string) (tea.Model, tea.Cmd) {
	if m.sending || m.ctl.Busy() {
		return m, nil
	}
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	m.stopReveal()
	m.sending = true
	m.input.SetValue("")
	m.answerCursor, m.rateID = 0, ""
	m = m.setFocus(FocusInput)
	m.refresh()
	m.viewport.GotoBottom()
	return m, tea.Batch(sendCmd(m.ctx, m.ctl, text), m.spinner.Tick)
}

func (m Model) handleSendResult(msg SendResultMsg) (tea.Model, tea.Cmd) {
	m.sending = false
	res := msg.Result
	var cmd tea.Cmd
	if res.BotMessage != nil && res.ConversationID == m.store.ActiveID() {
		m.reveal = reveal.New(res.BotMessage.ID, res.BotMessage.Text)
		cmd = revealTickCmd(res.BotMessage.ID, m.revealInterval)
	}
	m.refresh()
	m.viewport.GotoBottom()
	return m, cmd
}

func (m Model) handleRevealTick(msg RevealTickMsg) (tea.Model, tea.Cmd) {
	if m.reveal == nil || m.reveal.MessageID() != msg.MessageID {
		return m, nil
	}
	if !m.reveal.Advance() || m.reveal.Done() {
		m.reveal = nil
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil
	}
	m.refresh()
	m.viewport.GotoBottom()
	return m, revealTickCmd(msg.MessageID, m.revealInterval)
}

func (m Model) newConversation() (tea.Model, tea.Cmd) {
	m.stopReveal()
	m.ctl.NewConversation()
	m.input.SetValue("")
	m.sidebarCursor = 0
	m.answerCursor, m.rateID = 0, ""
	m = m.setFocus(FocusInput)
	m.refresh()
	return m, nil
}

func (m Model) copyLastAnswer() (tea.Model, tea.Cmd) {
	msg, ok := m.lastAnswer()
	if !ok {
		return m.setStatus("ยังไม่มีคำตอบให้คัดลอก", true)
	}
	return m, copyCmd(m.copyText, msg.Text)
}

func (m Model) setStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.statusSeq++
	m.status, m.statusErr = text, isErr
	return m, statusClearCmd(m.statusSeq)
}

// stopReveal cancels an animation in progress.
func (m *Model) stopReveal() {
	if m.reveal != nil {
		m.reveal.Cancel()
		m.reveal = nil
	}
}

func (m Model) cycleFocus(back bool) Model {
	order := []Focus{FocusInput, FocusAnswer}
	if m.theme.SidebarWidth() > 0 {
		order = []Focus{FocusInput, FocusSidebar, FocusAnswer}
	}
	i := 0
	for j, f := range order {
		if f == m.focus {
			i = j
		}
	}
	if back {
		i = (i - 1 + len(order)) % len(order)
	} else {
		i = (i + 1) % len(order)
	}
	m = m.setFocus(order[i])
	m.refresh()
	return m
}

func (m Model) setFocus(f Focus) Model {
	m.focus = f
	if f == FocusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	return m
}

// =============================================================================
// STATE QUERIES
// =============================================================================

// revealing reports whether an answer is still being typed out.
func (m Model) revealing() bool {
	return m.reveal != nil && !m.reveal.Done()
}

// lastAnswer returns the newest real answer of the active conversation.
func (m Model) lastAnswer() (model.Message, bool) {
	conv, ok := m.store.Active()
	if !ok {
		return model.Message{}, false
	}
	for i := len(conv.Messages) - 1; i > 0; i-- {
		if conv.Messages[i].IsBot() {
			return conv.Messages[i], true
		}
	}
	return model.Message{}, false
}

// answers lists the replies that can carry feedback, oldest first: bot
// messages answering a question, excluding errors and the one being typed.
func (m Model) answers() []model.Message {
	conv, ok := m.store.Active()
	if !ok {
		return nil
	}
	var out []model.Message
	for i, msg := range conv.Messages {
		if !msg.IsBot() || strings.HasPrefix(msg.Text, chat.ErrorPrefix) {
			continue
		}
		if m.revealing() && m.reveal.MessageID() == msg.ID {
			continue
		}
		if _, ok := conv.QuestionFor(i); ok {
			out = append(out, msg)
		}
	}
	return out
}

// feedbackTarget returns the answer + and - apply to. Without an explicit
// choice it is the newest answer, once that is fully shown.
func (m Model) feedbackTarget() (model.Message, bool) {
	answers := m.answers()
	if len(answers) == 0 {
		return model.Message{}, false
	}
	if m.rateID != "" {
		for _, a := range answers {
			if a.ID == m.rateID {
				return a, true
			}
		}
	}
	newest := answers[len(answers)-1]
	if last, ok := m.lastAnswer(); !ok || last.ID != newest.ID {
		return model.Message{}, false
	}
	return newest, true
}

// moveFeedbackTarget steps the rating target through the answers.
func (m Model) moveFeedbackTarget(delta int) Model {
	answers := m.answers()
	if len(answers) == 0 {
		return m
	}
	i := len(answers)
	if target, ok := m.feedbackTarget(); ok {
		for j, a := range answers {
			if a.ID == target.ID {
				i = j
			}
		}
	}
	i = max(0, min(i+delta, len(answers)-1))
	m.rateID = answers[i].ID
	m.refresh()
	return m
}

// rateable returns the target answer if it has not been rated yet.
func (m Model) rateable() (string, bool) {
	msg, ok := m.feedbackTarget()
	if !ok || m.ctl.FeedbackSent(msg.ID) {
		return "", false
	}
	return msg.ID, true
}

// answerChoice is a selectable line under the conversation.
type answerChoice struct {
	label      string
	prompt     string
	suggestion bool
}

// answerChoices lists next topics of the last answer, or the preset
// suggestions while the conversation has no question yet.
func (m Model) answerChoices() []answerChoice {
	conv, ok := m.store.Active()
	if !ok || !conv.HasUserMessage() {
		out := []answerChoice{}
		for _, s := range chat.Suggestions() {
			out = append(out, answerChoice{label: s.Label, prompt: s.Prompt, suggestion: true})
		}
		return out
	}
	if m.revealing() || m.sending {
		return nil
	}
	msg, ok := m.lastAnswer()
	if !ok {
		return nil
	}
	out := make([]answerChoice, len(msg.NextTopics))
	for i, t := range msg.NextTopics {
		out[i] = answerChoice{label: t, prompt: t}
	}
	return out
}

func (m *Model) clampCursors() {
	if n := len(m.store.History()); m.sidebarCursor > n {
		m.sidebarCursor = n
	}
	if n := len(m.answerChoices()); m.answerCursor >= n {
		m.answerCursor = 0
	}
}

// Focus returns the pane receiving keys.
func (m Model) Focus() Focus {
	return m.focus
}

// Sending reports whether a question is pending.
func (m Model) Sending() bool {
	return m.sending
}

// Status returns the transient status line.
func (m Model) Status() string {
	return m.status
}
