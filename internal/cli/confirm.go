// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation handling for destructive commands.
//
// The flow is the same for every command:
//  1. --confirm proceeds without prompting
//  2. --json requires --confirm (no interactive prompts in JSON mode)
//  3. a non-terminal stdin requires --confirm
//  4. otherwise the user is asked [y/N]
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// ConfirmationOptions controls RequireConfirmation.
type ConfirmationOptions struct {
	// ConfirmFlag indicates if --confirm was passed
	ConfirmFlag bool
	// JSONMode indicates if --json was passed
	JSONMode bool
	// Interactive reports whether the input can be prompted
	Interactive bool
}

// RequireConfirmation asks before a destructive action. details are printed
// as label/value lines above the question.
func RequireConfirmation(in io.Reader, out io.Writer, action string, details [][2]string, opts ConfirmationOptions) (bool, error) {
	if opts.ConfirmFlag {
		return true, nil
	}
	if opts.JSONMode {
		return false, NewUsageError("confirmation required: use --confirm for destructive actions in JSON mode", "")
	}
	if !opts.Interactive {
		return false, NewUsageError("confirmation required but stdin is not a terminal; use --confirm", "")
	}

	if len(details) > 0 {
		fmt.Fprintln(out)
		for _, d := range details {
			fmt.Fprintf(out, "  %s%s\n", RenderLabel(d[0]+":"), d[1])
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s [y/N]: ", action)

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, errors.Wrap(err, "failed to read confirmation")
	}

	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes", nil
}

// ShowCancellationMessage displays a standard cancellation message.
func ShowCancellationMessage(out io.Writer) {
	fmt.Fprintln(out, DimStyle.Render("Cancelled."))
}
