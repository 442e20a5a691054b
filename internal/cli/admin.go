// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// admin.go - Admin console commands.
//
// Every command runs one admin controller operation and prints the
// controller's status line, so the messages match the full-screen console.
//
// Examples:
//
//	unirag admin token set
//	unirag admin docs list
//	unirag admin docs create --title "ทุนเรียนดี" --file scholarship.md
//	unirag admin docs upload handbook.pdf
//	unirag admin feedback --watch
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeranaias/unirag-tui/internal/admin"
	"github.com/jeranaias/unirag-tui/internal/model"
)

// MaxContentFileSize caps document content read from a file.
const MaxContentFileSize = 5 * 1024 * 1024

func newAdminCommand(s *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage knowledge documents, feedback and statistics",
		Long: `Admin console for the knowledge assistant.

Admin calls need the token saved with "unirag admin token set".`,
	}
	cmd.AddCommand(
		newAdminTokenCommand(s),
		newAdminDocsCommand(s),
		newAdminFeedbackCommand(s),
		newAdminStatsCommand(s),
	)
	return cmd
}

// status prints the controller's latest status line.
func (s *cliState) status(w io.Writer, c *admin.Controller) {
	if st := c.Status(); st != "" {
		fmt.Fprintln(w, st)
	}
}

// =============================================================================
// TOKEN
// =============================================================================

func newAdminTokenCommand(s *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Save, show or clear the admin token",
	}

	set := &cobra.Command{
		Use:   "set [token]",
		Short: "Save the admin token (prompts when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.application()
			if err != nil {
				return err
			}
			token := ""
			if len(args) == 1 {
				token = args[0]
			} else if token, err = s.readSecret("Admin token: "); err != nil {
				return err
			}
			if err := app.Admin.SaveToken(token); err != nil {
				return err
			}
			data := TokenData{Set: true, Masked: maskToken(app.Admin.Token())}
			return s.respond(cmd, data, func(w io.Writer) { s.status(w, app.Admin) })
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show whether a token is saved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.application()
			if err != nil {
				return err
			}
			data := TokenData{Set: app.Admin.HasToken(), Masked: maskToken(app.Admin.Token())}
			return s.respond(cmd, data, func(w io.Writer) {
				if !data.Set {
					fmt.Fprintln(w, WarningStyle.Render("ยังไม่ได้ตั้งค่า Admin Token"))
					return
				}
				fmt.Fprintf(w, "%s%s\n", RenderLabel("Admin token:"), data.Masked)
			})
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Forget the saved token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.application()
			if err != nil {
				return err
			}
			app.Admin.ClearToken()
			return s.respond(cmd, TokenData{Set: false}, func(w io.Writer) { s.status(w, app.Admin) })
		},
	}

	cmd.AddCommand(set, show, clear)
	return cmd
}

// readSecret prompts without echo on a terminal, or reads one line from a
// pipe.
func (s *cliState) readSecret(prompt string) (string, error) {
	if s.interactive() && !s.opts.jsonMode {
		line := liner.NewLiner()
		defer line.Close()
		line.SetCtrlCAborts(true)
		secret, err := line.PasswordPrompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return "", ErrCancelled
			}
			return "", errors.Wrap(err, "read token")
		}
		return secret, nil
	}
	data, err := io.ReadAll(io.LimitReader(s.in, 4096))
	if err != nil {
		return "", errors.Wrap(err, "read token")
	}
	return strings.TrimSpace(string(data)), nil
}

// =============================================================================
// DOCUMENTS
// =============================================================================

func newAdminDocsCommand(s *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "docs",
		Aliases: []string{"documents", "doc"},
		Short:   "List, read, create, update, delete and upload documents",
	}
	cmd.AddCommand(
		newDocsListCommand(s, "list"),
		newDocsListCommand(s, "search"),
		newDocsGetCommand(s),
		newDocsSaveCommand(s, false),
		newDocsSaveCommand(s, true),
		newDocsDeleteCommand(s),
		newDocsUploadCommand(s),
	)
	return cmd
}

func newDocsListCommand(s *cliState, name string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: "List documents, PDF uploads first",
		Args:  cobra.NoArgs,
	}
	if name == "search" {
		cmd.Use = "search <title words>"
		cmd.Short = "Find documents whose title contains the query"
		cmd.Args = cobra.MinimumNArgs(1)
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		app, err := s.application()
		if err != nil {
			return err
		}
		if _, err := app.Admin.LoadDocuments(cmd.Context()); err != nil {
			return err
		}
		query := strings.Join(args, " ")
		groups := app.Admin.FilterDocuments(query)
		data := DocumentsData{Query: query, PDF: groups.PDF, Text: groups.Text}
		if data.PDF == nil {
			data.PDF = []model.Document{}
		}
		if data.Text == nil {
			data.Text = []model.Document{}
		}

		return s.respond(cmd, data, func(w io.Writer) {
			s.status(w, app.Admin)
			if groups.Len() == 0 {
				fmt.Fprintln(w, DimStyle.Render("ไม่พบเอกสาร"))
				return
			}
			printDocumentGroup(w, "PDF", groups.PDF)
			printDocumentGroup(w, "TEXT", groups.Text)
		})
	}
	return cmd
}

func printDocumentGroup(w io.Writer, label string, docs []model.Document) {
	if len(docs) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render(label), DimStyle.Render(fmt.Sprintf("(%d)", len(docs))))
	rows := make([][]string, len(docs))
	for i, d := range docs {
		rows[i] = []string{strconv.Itoa(d.ID), admin.DisplayTitle(d), d.UpdatedAt.Display()}
	}
	renderTable(w, []string{"ID", "TITLE", "UPDATED"}, rows, 0, 60, 0)
}

func newDocsGetCommand(s *cliState) *cobra.Command {
	return &cobra.Command{
		Use:     "get <id>",
		Aliases: []string{"show", "preview"},
		Short:   "Print a document and its revision history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDocumentID(args[0])
			if err != nil {
				return err
			}
			app, err := s.application()
			if err != nil {
				return err
			}
			doc, err := app.Admin.PreviewDocument(cmd.Context(), id)
			if err != nil {
				return err
			}
			return s.respond(cmd, doc, func(w io.Writer) {
				fmt.Fprintln(w, TitleStyle.Render(doc.Title))
				fmt.Fprintf(w, "%s%d\n", RenderLabel("ID:"), doc.ID)
				fmt.Fprintf(w, "%s%s\n", RenderLabel("Created:"), doc.CreatedAt.Display())
				fmt.Fprintf(w, "%s%s\n", RenderLabel("Updated:"), doc.UpdatedAt.Display())
				fmt.Fprintln(w, RenderSeparator())
				fmt.Fprintln(w, doc.CurrentContent)
				if len(doc.Revisions) > 0 {
					fmt.Fprintln(w, RenderSeparator())
					rows := make([][]string, len(doc.Revisions))
					for i, r := range doc.Revisions {
						rows[i] = []string{strconv.Itoa(r.ID), r.UpdatedBy, r.UpdatedAt.Display()}
					}
					renderTable(w, []string{"REVISION", "BY", "AT"}, rows)
				}
			})
		},
	}
}

func newDocsSaveCommand(s *cliState, update bool) *cobra.Command {
	var title, content, file, updatedBy string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a text document",
		Args:  cobra.NoArgs,
	}
	if update {
		cmd.Use = "update <id>"
		cmd.Short = "Replace a document's title or content (adds a revision)"
		cmd.Args = cobra.ExactArgs(1)
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if file != "" {
			data, err := readContentFile(file)
			if err != nil {
				return err
			}
			content = data
		}

		app, err := s.application()
		if err != nil {
			return err
		}
		ctl := app.Admin

		if update {
			id, err := parseDocumentID(args[0])
			if err != nil {
				return err
			}
			newTitle, newContent := title, content
			if !cmd.Flags().Changed("title") || (!cmd.Flags().Changed("content") && file == "") {
				// Keep what the flags leave out.
				if _, err := ctl.OpenDocument(cmd.Context(), id); err != nil {
					return err
				}
				form := ctl.Form()
				if !cmd.Flags().Changed("title") {
					newTitle = form.Title
				}
				if !cmd.Flags().Changed("content") && file == "" {
					newContent = form.Content
				}
			}
			ctl.EditDocument(id, newTitle, newContent)
		} else {
			ctl.ClearForm()
			ctl.SetForm(title, content)
		}
		if updatedBy != "" {
			ctl.SetUpdatedBy(updatedBy)
		}

		doc, err := ctl.SaveDocument(cmd.Context())
		if err != nil {
			return err
		}
		return s.respond(cmd, doc, func(w io.Writer) { s.status(w, ctl) })
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "document title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "document content")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read content from a file ('-' for stdin)")
	cmd.Flags().StringVar(&updatedBy, "by", "", "editor name recorded with the revision")
	return cmd
}

func newDocsDeleteCommand(s *cliState) *cobra.Command {
	var confirmFlag bool
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDocumentID(args[0])
			if err != nil {
				return err
			}
			app, err := s.application()
			if err != nil {
				return err
			}
			ctl := app.Admin

			ctl.RequestDelete(id)
			if err := s.confirm(confirmFlag, ctl.Status()); err != nil {
				ctl.CancelDelete()
				return err
			}
			if err := ctl.ConfirmDelete(cmd.Context()); err != nil {
				return err
			}
			return s.respond(cmd, map[string]int{"deleted": id}, func(w io.Writer) { s.status(w, ctl) })
		},
	}
	cmd.Flags().BoolVar(&confirmFlag, "confirm", false, "skip the confirmation prompt")
	return cmd
}

func newDocsUploadCommand(s *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Upload a PDF; the server extracts its text into a new document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.application()
			if err != nil {
				return err
			}
			ctl := app.Admin
			if err := ctl.SelectPDF(args[0]); err != nil {
				return err
			}
			res, err := ctl.UploadPDF(cmd.Context())
			if err != nil {
				return err
			}
			return s.respond(cmd, res, func(w io.Writer) {
				s.status(w, ctl)
				fmt.Fprintf(w, "%s%s\n", RenderLabel("File:"), res.Filename)
				fmt.Fprintf(w, "%s%d\n", RenderLabel("Pages:"), res.Pages)
				fmt.Fprintf(w, "%s%d\n", RenderLabel("Characters:"), res.Chars)
			})
		},
	}
}

// =============================================================================
// FEEDBACK
// =============================================================================

func newAdminFeedbackCommand(s *cliState) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Show the newest student feedback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.application()
			if err != nil {
				return err
			}
			if watch {
				if s.opts.jsonMode {
					return NewUsageError("--watch cannot be combined with --json", "")
				}
				return s.watchFeedback(cmd.Context(), app.Admin)
			}
			list, err := app.Admin.LoadFeedback(cmd.Context())
			if err != nil {
				return err
			}
			return s.respond(cmd, list, func(w io.Writer) { printFeedback(w, list) })
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep refreshing until interrupted")
	return cmd
}

// watchFeedback enters the feedback view, which refreshes on a timer, and
// reprints the list after every load.
func (s *cliState) watchFeedback(ctx context.Context, c *admin.Controller) error {
	if !c.HasToken() {
		return admin.ErrNoToken
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	updates := make(chan struct{}, 1)
	unsubscribe := c.Subscribe(func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	c.SetView(admin.ViewFeedback)
	defer c.SetView(admin.ViewDocuments)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return nil
		case <-updates:
			if ColorsEnabled() {
				fmt.Fprint(s.out, "\033[H\033[2J")
			}
			fmt.Fprintln(s.out, DimStyle.Render("Ctrl+C to stop"))
			s.status(s.out, c)
			printFeedback(s.out, c.Feedback())
		}
	}
}

func printFeedback(w io.Writer, list []model.Feedback) {
	if len(list) == 0 {
		fmt.Fprintln(w, DimStyle.Render("ยังไม่มีความคิดเห็น"))
		return
	}
	rows := make([][]string, len(list))
	for i, f := range list {
		rating := SuccessStyle.Render("👍")
		if !f.IsHelpful {
			rating = ErrorStyle.Render("👎")
		}
		rows[i] = []string{f.CreatedAt.Display(), rating, f.Question, f.CommentText()}
	}
	renderTable(w, []string{"TIME", "", "QUESTION", "COMMENT"}, rows, 0, 0, 50, 40)
}

// =============================================================================
// STATISTICS
// =============================================================================

func newAdminStatsCommand(s *cliState) *cobra.Command {
	return &cobra.Command{
		Use:     "stats",
		Aliases: []string{"statistics"},
		Short:   "Show usage statistics",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.application()
			if err != nil {
				return err
			}
			stats, err := app.Admin.LoadStatistics(cmd.Context())
			if err != nil && stats.Summary == nil && stats.TopQuestions == nil && stats.Intents == nil {
				return err
			}

			data := StatsData{Summary: stats.Summary, TopQuestions: stats.TopQuestions, Intents: stats.Intents}
			for _, e := range []error{stats.SummaryErr, stats.TopQuestionsErr, stats.IntentsErr} {
				if e != nil {
					data.Errors = append(data.Errors, errorMessage(e))
				}
			}
			return s.respond(cmd, data, func(w io.Writer) { printStats(w, app.Admin, stats) })
		},
	}
}

func printStats(w io.Writer, c *admin.Controller, stats admin.Stats) {
	if stats.Err() != nil {
		fmt.Fprintln(w, WarningStyle.Render(c.Status()))
	}
	if sum := stats.Summary; sum != nil {
		fmt.Fprintln(w, TitleStyle.Render("ภาพรวม"))
		fmt.Fprintf(w, "%s%d\n", RenderLabel("Questions:", 20), sum.TotalQuestions)
		fmt.Fprintf(w, "%s%d\n", RenderLabel("Documents:", 20), sum.TotalDocuments)
		fmt.Fprintf(w, "%s%d\n", RenderLabel("Feedback:", 20), sum.TotalFeedback)
		fmt.Fprintf(w, "%s%d (%.1f%%)\n", RenderLabel("Helpful:", 20), sum.HelpfulFeedback, sum.FeedbackRate)
		fmt.Fprintln(w)
	}
	if len(stats.TopQuestions) > 0 {
		fmt.Fprintln(w, TitleStyle.Render("คำถามยอดนิยม"))
		rows := make([][]string, len(stats.TopQuestions))
		for i, q := range stats.TopQuestions {
			rows[i] = []string{strconv.Itoa(i + 1), q.Question, strconv.Itoa(q.Count)}
		}
		renderTable(w, []string{"#", "QUESTION", "COUNT"}, rows, 0, 60, 0)
		fmt.Fprintln(w)
	}
	if len(stats.Intents) > 0 {
		fmt.Fprintln(w, TitleStyle.Render("ประเภทคำถาม"))
		rows := make([][]string, len(stats.Intents))
		for i, in := range stats.Intents {
			rows[i] = []string{in.Intent, strconv.Itoa(in.Count)}
		}
		renderTable(w, []string{"INTENT", "COUNT"}, rows)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDocumentID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id <= 0 {
		return 0, NewUsageError(fmt.Sprintf("invalid document id %q", arg), "unirag admin docs get 12")
	}
	return id, nil
}

// readContentFile reads document content from path, or stdin for "-".
func readContentFile(path string) (string, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return "", errors.Wrap(err, "open content file")
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxContentFileSize+1))
	if err != nil {
		return "", errors.Wrap(err, "read content file")
	}
	if len(data) > MaxContentFileSize {
		return "", NewUsageError(fmt.Sprintf("content file is larger than %d bytes", MaxContentFileSize), "")
	}
	return string(data), nil
}
