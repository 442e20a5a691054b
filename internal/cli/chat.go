// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat.
//
// Handles "unirag chat", a readline REPL for terminals where the full-screen
// chat is unwanted. Input history is kept in ~/.unirag/chat_history.
//
// Interactive commands:
//
//	/help, /h           Show available commands
//	/new                Start a new conversation
//	/history            List conversations
//	/select N           Switch to conversation N
//	/delete N           Delete conversation N
//	/suggest [N]        List suggested questions or ask number N
//	/topic N            Ask related topic N of the last answer
//	/good, /bad [note]  Rate the last answer
//	/copy               Copy the last answer to the clipboard
//	/contact            Show how to reach the administrators
//	/quit, /q           Exit
//	Ctrl+C              Cancel the pending question, or exit at the prompt
//	Ctrl+D              Exit
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/unirag-tui/internal/chat"
	"github.com/jeranaias/unirag-tui/internal/config"
	"github.com/jeranaias/unirag-tui/internal/conversation"
	"github.com/jeranaias/unirag-tui/internal/model"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader provides input history and line editing for the REPL.
type lineReader struct {
	line        *liner.State
	historyFile string
}

func newLineReader() *lineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &lineReader{line: line}
	if dir, err := config.ConfigDir(); err == nil && config.EnsureConfigDir() == nil {
		r.historyFile = filepath.Join(dir, "chat_history")
		if f, err := os.Open(r.historyFile); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

// Prompt reads one line and records it in the history.
func (r *lineReader) Prompt(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history with owner-only permissions.
func (r *lineReader) Close() error {
	if r.historyFile != "" {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			_, _ = r.line.WriteHistory(f)
			f.Close()
		}
	}
	return r.line.Close()
}

// =============================================================================
// COMMAND
// =============================================================================

func newChatCommand(s *cliState) *cobra.Command {
	var newConversation bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat in line mode",
		Long: `Chat with the assistant in a simple prompt loop.

Type a question and press Enter. Commands start with "/"; type /help for
the list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.opts.jsonMode {
				return NewUsageError("chat is interactive; use \"unirag ask --json\"", `unirag ask --json "ทุนการศึกษามีอะไรบ้าง"`)
			}
			if !s.interactive() {
				return &TTYRequiredError{Operation: "chat"}
			}
			app, err := s.application()
			if err != nil {
				return err
			}
			if newConversation {
				app.Chat.NewConversation()
			}

			reader := newLineReader()
			defer reader.Close()
			return newREPL(s, app).Run(cmd.Context(), reader.Prompt)
		},
	}
	cmd.Flags().BoolVar(&newConversation, "new", false, "start a new conversation first")
	return cmd
}

// =============================================================================
// REPL
// =============================================================================

// repl is the line-mode chat session.
type repl struct {
	s        *cliState
	app      *App
	out      io.Writer
	renderer *answerRenderer

	// copyText writes to the system clipboard.
	copyText func(string) error
}

func newREPL(s *cliState, app *App) *repl {
	return &repl{
		s:        s,
		app:      app,
		out:      s.out,
		renderer: newAnswerRenderer(s.cfg, GetTerminalWidth()-4, ColorsEnabled()),
		copyText: clipboard.WriteAll,
	}
}

// Run reads lines until EOF, Ctrl+C at the prompt or /quit.
func (r *repl) Run(ctx context.Context, prompt func(string) (string, error)) error {
	r.welcome()
	for {
		if ctx.Err() != nil {
			return nil
		}
		input, err := prompt(PromptStyle.Render("คุณ") + " › ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return errors.Wrap(err, "read input")
		}
		if quit := r.handle(ctx, input); quit {
			return nil
		}
	}
}

func (r *repl) welcome() {
	fmt.Fprintln(r.out, TitleStyle.Render("MFU Knowledge Assistant"))
	if conv, ok := r.app.Store.Active(); ok && len(conv.Messages) > 0 {
		last := conv.Messages[len(conv.Messages)-1]
		if len(conv.Messages) == 1 {
			printMessage(r.out, r.renderer, last)
		} else {
			fmt.Fprintf(r.out, "%s %s\n", DimStyle.Render("ต่อจากแชท:"), conv.DisplayTitle())
		}
	}
	fmt.Fprintln(r.out, DimStyle.Render("พิมพ์คำถาม หรือ /help เพื่อดูคำสั่ง"))
	fmt.Fprintln(r.out)
	r.printSuggestions()
}

// handle processes one input line and reports whether to exit.
func (r *repl) handle(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}
	if !strings.HasPrefix(input, "/") {
		r.send(ctx, input)
		return false
	}

	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case "/quit", "/q", "/exit":
		return true
	case "/help", "/h", "/?":
		r.help()
	case "/new", "/n":
		conv := r.app.Chat.NewConversation()
		fmt.Fprintf(r.out, "%s %s\n", SuccessStyle.Render("แชทใหม่:"), shortID(conv.ID))
	case "/history", "/hist":
		r.history()
	case "/select":
		r.selectConversation(arg)
	case "/delete":
		r.deleteConversation(arg)
	case "/suggest", "/s":
		r.suggest(ctx, arg)
	case "/topic", "/t":
		r.topic(ctx, arg)
	case "/good", "/+":
		r.feedback(ctx, true, "")
	case "/bad", "/-":
		r.feedback(ctx, false, arg)
	case "/copy":
		r.copyLast()
	case "/contact":
		printContact(r.out)
	default:
		fmt.Fprintf(r.out, "%s %s\n", WarningStyle.Render("ไม่รู้จักคำสั่ง:"), name)
	}
	return false
}

// send asks a question. Ctrl+C while waiting cancels the request only.
func (r *repl) send(ctx context.Context, question string) {
	reqCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(r.out, DimStyle.Render("กำลังค้นหาคำตอบ..."))
	res := r.app.Chat.Send(reqCtx, question)
	switch res.State {
	case chat.StateSkipped:
		return
	case chat.StateFailed:
		if res.BotMessage != nil {
			fmt.Fprintln(r.out, ErrorStyle.Render(res.BotMessage.Text))
		} else {
			fmt.Fprintln(r.out, ErrorStyle.Render(errorMessage(res.Err)))
		}
	default:
		if res.BotMessage != nil {
			printMessage(r.out, r.renderer, *res.BotMessage)
			fmt.Fprintln(r.out, DimStyle.Render("/good หรือ /bad เพื่อให้คะแนนคำตอบนี้"))
		}
	}
	fmt.Fprintln(r.out)
}

func (r *repl) help() {
	rows := [][]string{
		{"/new", "เริ่มแชทใหม่"},
		{"/history", "ดูประวัติการสนทนา"},
		{"/select N", "เปิดแชทลำดับที่ N"},
		{"/delete N", "ลบแชทลำดับที่ N"},
		{"/suggest [N]", "ดูคำถามแนะนำ หรือถามข้อที่ N"},
		{"/topic N", "ถามหัวข้อที่เกี่ยวข้องข้อที่ N"},
		{"/good, /bad [ความเห็น]", "ให้คะแนนคำตอบล่าสุด"},
		{"/copy", "คัดลอกคำตอบล่าสุด"},
		{"/contact", "ติดต่อผู้ดูแลระบบ"},
		{"/quit", "ออก"},
	}
	renderTable(r.out, []string{"COMMAND", ""}, rows)
}

func (r *repl) history() {
	convs := r.app.Store.History()
	if len(convs) == 0 {
		fmt.Fprintln(r.out, DimStyle.Render("ยังไม่มีประวัติการสนทนา"))
		return
	}
	activeID := r.app.Store.ActiveID()
	rows := make([][]string, len(convs))
	for i, c := range convs {
		marker := " "
		if c.ID == activeID {
			marker = "*"
		}
		rows[i] = []string{marker + strconv.Itoa(i+1), c.DisplayTitle(), c.Snippet()}
	}
	renderTable(r.out, []string{"#", "TITLE", "LAST QUESTION"}, rows, 0, 40, 40)
}

func (r *repl) selectConversation(ref string) {
	conv, err := resolveConversation(r.app.Store, ref)
	if err != nil {
		fmt.Fprintln(r.out, WarningStyle.Render(errorMessage(err)))
		return
	}
	r.app.Chat.SelectConversation(conv.ID)
	printTranscript(r.out, r.s, conv)
}

func (r *repl) deleteConversation(ref string) {
	conv, err := resolveConversation(r.app.Store, ref)
	if err != nil {
		fmt.Fprintln(r.out, WarningStyle.Render(errorMessage(err)))
		return
	}
	if err := r.s.confirm(false, "ลบแชทนี้?", [2]string{"Title", conv.DisplayTitle()}); err != nil {
		return
	}
	r.app.Chat.DeleteConversation(conv.ID)
	fmt.Fprintf(r.out, "%s %s\n", SuccessStyle.Render("ลบแล้ว:"), conv.DisplayTitle())
}

func (r *repl) printSuggestions() {
	fmt.Fprintln(r.out, DimStyle.Render("คำถามแนะนำ:"))
	for i, sg := range chat.Suggestions() {
		fmt.Fprintf(r.out, "  %s %s\n", DimStyle.Render(fmt.Sprintf("[%d]", i+1)), sg.Label)
	}
	fmt.Fprintln(r.out, DimStyle.Render("พิมพ์ /suggest N เพื่อถาม"))
}

func (r *repl) suggest(ctx context.Context, arg string) {
	if arg == "" {
		r.printSuggestions()
		return
	}
	suggestions := chat.Suggestions()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(suggestions) {
		fmt.Fprintf(r.out, "%s %s\n", WarningStyle.Render("ไม่มีคำถามแนะนำข้อ"), arg)
		return
	}
	prompt := suggestions[n-1].Prompt
	fmt.Fprintf(r.out, "%s %s\n", UserStyle.Render(model.RoleUser.DisplayName()+":"), prompt)
	r.send(ctx, prompt)
}

func (r *repl) topic(ctx context.Context, arg string) {
	msg, ok := r.lastAnswer()
	if !ok || len(msg.NextTopics) == 0 {
		fmt.Fprintln(r.out, WarningStyle.Render("ไม่มีหัวข้อที่เกี่ยวข้อง"))
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(msg.NextTopics) {
		printNextTopics(r.out, msg.NextTopics)
		return
	}
	topic := msg.NextTopics[n-1]
	fmt.Fprintf(r.out, "%s %s\n", UserStyle.Render(model.RoleUser.DisplayName()+":"), topic)
	r.send(ctx, topic)
}

func (r *repl) feedback(ctx context.Context, helpful bool, comment string) {
	msg, ok := r.lastAnswer()
	if !ok || strings.HasPrefix(msg.Text, chat.ErrorPrefix) {
		fmt.Fprintln(r.out, WarningStyle.Render("ยังไม่มีคำตอบให้ประเมิน"))
		return
	}
	err := r.app.Chat.SubmitFeedback(ctx, msg.ID, helpful, comment)
	switch {
	case errors.Is(err, chat.ErrFeedbackAlreadySent):
		fmt.Fprintln(r.out, DimStyle.Render("ส่งความคิดเห็นสำหรับคำตอบนี้แล้ว"))
	case err != nil:
		log.Warn().Err(err).Msg("Feedback rejected")
		fmt.Fprintln(r.out, WarningStyle.Render(errorMessage(err)))
	default:
		fmt.Fprintln(r.out, SuccessStyle.Render("ขอบคุณสำหรับความคิดเห็น"))
	}
}

func (r *repl) copyLast() {
	msg, ok := r.lastAnswer()
	if !ok {
		fmt.Fprintln(r.out, WarningStyle.Render("ยังไม่มีคำตอบให้คัดลอก"))
		return
	}
	if err := r.copyText(msg.Text); err != nil {
		fmt.Fprintf(r.out, "%s %v\n", WarningStyle.Render("คัดลอกไม่สำเร็จ:"), err)
		return
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("คัดลอกแล้ว"))
}

// lastAnswer returns the newest assistant message of the active conversation.
func (r *repl) lastAnswer() (model.Message, bool) {
	conv, ok := r.app.Store.Active()
	if !ok {
		return model.Message{}, false
	}
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if msg := conv.Messages[i]; msg.IsBot() && !(i == 0 && msg.Text == conversation.WelcomeText) {
			return conv.Messages[i], true
		}
	}
	return model.Message{}, false
}

// printContact shows the administrator contact details.
func printContact(w io.Writer) {
	c := chat.Contact()
	fmt.Fprintln(w, TitleStyle.Render("ติดต่อผู้ดูแลระบบ"))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Email:"), Hyperlink("mailto:"+c.Email, c.Email))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Phone:"), Hyperlink("tel:"+c.Phone, c.Phone))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Hours:"), c.Hours)
}
