// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command.
//
// Examples:
//
//	unirag ask "ทุนการศึกษามีอะไรบ้าง"
//	unirag ask --new "หอพักนักศึกษา"
//	echo "ลงทะเบียนเรียนเมื่อไหร่" | unirag ask --json
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/unirag-tui/internal/chat"
)

// MaxQuestionSize caps a question read from stdin.
const MaxQuestionSize = 64 * 1024

func newAskCommand(s *cliState) *cobra.Command {
	var newConversation bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question",
		Long: `Ask one question in the active conversation and print the answer.

The question is read from stdin when no argument is given. The exchange is
saved to history like any other chat.`,
		Example: `  unirag ask "ทุนการศึกษามีอะไรบ้าง"
  unirag ask --new "หอพักนักศึกษา"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" && !s.interactive() {
				data, err := io.ReadAll(io.LimitReader(s.in, MaxQuestionSize))
				if err != nil {
					return err
				}
				question = strings.TrimSpace(string(data))
			}
			if question == "" {
				return NewUsageError("question is empty", `unirag ask "ทุนการศึกษามีอะไรบ้าง"`)
			}

			app, err := s.application()
			if err != nil {
				return err
			}
			if newConversation {
				app.Chat.NewConversation()
			}
			return s.ask(cmd, app, question)
		},
	}
	cmd.Flags().BoolVar(&newConversation, "new", false, "start a new conversation first")
	return cmd
}

// ask sends one question and prints the outcome.
func (s *cliState) ask(cmd *cobra.Command, app *App, question string) error {
	res := app.Chat.Send(cmd.Context(), question)
	if res.State == chat.StateSkipped {
		return NewUsageError("question was not sent", "")
	}

	data := AskData{
		ConversationID: res.ConversationID,
		Question:       question,
		NextTopics:     []string{},
		Failed:         res.State == chat.StateFailed,
	}
	if res.BotMessage != nil {
		data.Answer = res.BotMessage.Text
		data.MessageID = res.BotMessage.ID
		if res.BotMessage.NextTopics != nil {
			data.NextTopics = res.BotMessage.NextTopics
		}
	}

	if res.State == chat.StateFailed {
		if s.opts.jsonMode {
			return res.Err
		}
		fmt.Fprintln(s.out, ErrorStyle.Render(data.Answer))
		return &reportedError{err: res.Err}
	}

	return s.respond(cmd, data, func(w io.Writer) {
		r := newAnswerRenderer(s.cfg, GetTerminalWidth()-4, ColorsEnabled())
		fmt.Fprintln(w, r.Render(data.Answer))
		printNextTopics(w, data.NextTopics)
	})
}
