// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - Conversation history commands.
//
// Conversations are addressed by their position in "history list" or by
// an ID prefix.
package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/unirag-tui/internal/conversation"
	"github.com/jeranaias/unirag-tui/internal/model"
)

func newHistoryCommand(s *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"hist"},
		Short:   "List and manage saved conversations",
	}
	cmd.AddCommand(
		newHistoryListCommand(s),
		newHistoryShowCommand(s),
		newHistoryNewCommand(s),
		newHistorySelectCommand(s),
		newHistoryDeleteCommand(s),
	)
	return cmd
}

func newHistoryListCommand(s *cliState) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List conversations, most recently updated first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.application()
			if err != nil {
				return err
			}
			convs := listConversations(app.Store, all)
			activeID := app.Store.ActiveID()

			items := make([]HistoryItem, len(convs))
			for i, c := range convs {
				items[i] = HistoryItem{
					ID:        c.ID,
					Title:     c.DisplayTitle(),
					Snippet:   c.Snippet(),
					Messages:  len(c.Messages),
					UpdatedAt: model.Timestamp{Time: c.UpdatedAt},
					Active:    c.ID == activeID,
				}
			}

			return s.respond(cmd, items, func(w io.Writer) {
				if len(items) == 0 {
					fmt.Fprintln(w, DimStyle.Render("ยังไม่มีประวัติการสนทนา"))
					return
				}
				rows := make([][]string, len(items))
				for i, it := range items {
					marker := " "
					if it.Active {
						marker = "*"
					}
					rows[i] = []string{
						marker + strconv.Itoa(i+1),
						shortID(it.ID),
						it.Title,
						it.Snippet,
						it.UpdatedAt.Local().Format("2006-01-02 15:04"),
					}
				}
				renderTable(w, []string{"#", "ID", "TITLE", "LAST QUESTION", "UPDATED"}, rows, 0, 0, 40, 40, 0)
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include conversations without questions")
	return cmd
}

func newHistoryShowCommand(s *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "show [# | id]",
		Short: "Print a conversation (default: the active one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.application()
			if err != nil {
				return err
			}
			var conv *model.Conversation
			if len(args) == 0 {
				active, ok := app.Store.Active()
				if !ok {
					return NewNotFoundError("conversation", "active")
				}
				conv = active
			} else if conv, err = resolveConversation(app.Store, args[0]); err != nil {
				return err
			}

			return s.respond(cmd, conv, func(w io.Writer) {
				printTranscript(w, s, conv)
			})
		},
	}
}

func newHistoryNewCommand(s *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a new conversation and make it active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.application()
			if err != nil {
				return err
			}
			conv := app.Chat.NewConversation()
			return s.respond(cmd, conv, func(w io.Writer) {
				fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("แชทใหม่:"), conv.ID)
			})
		},
	}
}

func newHistorySelectCommand(s *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "select <# | id>",
		Short: "Make a conversation active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.application()
			if err != nil {
				return err
			}
			conv, err := resolveConversation(app.Store, args[0])
			if err != nil {
				return err
			}
			if !app.Chat.SelectConversation(conv.ID) {
				return NewNotFoundError("conversation", args[0])
			}
			return s.respond(cmd, conv, func(w io.Writer) {
				fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("เลือกแชท:"), conv.DisplayTitle())
			})
		},
	}
}

func newHistoryDeleteCommand(s *cliState) *cobra.Command {
	var confirmFlag bool
	cmd := &cobra.Command{
		Use:     "delete <# | id>",
		Aliases: []string{"rm"},
		Short:   "Delete a conversation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.application()
			if err != nil {
				return err
			}
			conv, err := resolveConversation(app.Store, args[0])
			if err != nil {
				return err
			}
			if err := s.confirm(confirmFlag, "ลบแชทนี้?",
				[2]string{"Title", conv.DisplayTitle()},
				[2]string{"Messages", strconv.Itoa(len(conv.Messages))},
			); err != nil {
				return err
			}
			if !app.Chat.DeleteConversation(conv.ID) {
				return NewNotFoundError("conversation", args[0])
			}
			data := map[string]string{"deleted": conv.ID, "active": app.Store.ActiveID()}
			return s.respond(cmd, data, func(w io.Writer) {
				fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("ลบแล้ว:"), conv.DisplayTitle())
			})
		},
	}
	cmd.Flags().BoolVar(&confirmFlag, "confirm", false, "skip the confirmation prompt")
	return cmd
}

// =============================================================================
// HELPERS
// =============================================================================

// listConversations returns the sidebar list, or every conversation with all.
func listConversations(store *conversation.Store, all bool) []*model.Conversation {
	if all {
		return store.Conversations()
	}
	return store.History()
}

// resolveConversation finds a conversation by 1-based history position or
// by a unique ID prefix or short ID.
func resolveConversation(store *conversation.Store, ref string) (*model.Conversation, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		history := store.History()
		if n < 1 || n > len(history) {
			return nil, NewNotFoundError("conversation", ref)
		}
		return history[n-1], nil
	}

	var match *model.Conversation
	for _, c := range store.Conversations() {
		if c.ID == ref {
			return c, nil
		}
		if strings.HasPrefix(c.ID, ref) || strings.HasPrefix(shortID(c.ID), ref) {
			if match != nil {
				return nil, NewUsageError(fmt.Sprintf("conversation id %q is ambiguous", ref), "")
			}
			match = c
		}
	}
	if match == nil {
		return nil, NewNotFoundError("conversation", ref)
	}
	return match, nil
}

// printTranscript writes every message of conv.
func printTranscript(w io.Writer, s *cliState, conv *model.Conversation) {
	r := newAnswerRenderer(s.cfg, GetTerminalWidth()-4, ColorsEnabled())
	fmt.Fprintln(w, TitleStyle.Render(conv.DisplayTitle()))
	fmt.Fprintln(w, DimStyle.Render(conv.UpdatedAt.Local().Format("2006-01-02 15:04")))
	fmt.Fprintln(w, RenderSeparator())
	for _, msg := range conv.Messages {
		printMessage(w, r, msg)
		fmt.Fprintln(w)
	}
}

// shortID returns the random tail of an id, which is enough to address it.
func shortID(id string) string {
	if i := strings.LastIndexByte(id, '_'); i >= 0 && i < len(id)-1 {
		return id[i+1:]
	}
	return id
}
