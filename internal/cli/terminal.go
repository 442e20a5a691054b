// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for the unirag CLI.
//
// A terminal gets colors, prompts, markdown answers and clickable contact
// links. Piped output stays plain so answers can be grepped or saved.
// NO_COLOR and FORCE_COLOR are respected.
package cli

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTTY reports whether stdin is a terminal, i.e. whether prompts work.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY reports whether stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

const (
	// DefaultTerminalWidth is used when stdout is not a terminal
	DefaultTerminalWidth = 80

	// MinTerminalWidth keeps answer wrapping readable on tiny windows
	MinTerminalWidth = 40
)

// GetTerminalWidth returns the width answers are wrapped to.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return max(width, MinTerminalWidth)
}

var (
	colorsEnabled     bool
	colorsEnabledOnce sync.Once
)

// ColorsEnabled reports whether output may carry ANSI styling and OSC 8
// hyperlinks. See https://no-color.org/.
func ColorsEnabled() bool {
	colorsEnabledOnce.Do(func() {
		switch {
		case os.Getenv("NO_COLOR") != "":
			colorsEnabled = false
		case os.Getenv("FORCE_COLOR") != "":
			colorsEnabled = true
		default:
			colorsEnabled = IsStdoutTTY()
		}
	})
	return colorsEnabled
}

// GetColorProfile returns Ascii when colors are off.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// Hyperlink makes a URL, mailto: or tel: target clickable in terminals that
// support OSC 8. Other output gets the bare text.
func Hyperlink(href, text string) string {
	if !ColorsEnabled() || href == "" {
		return text
	}
	return termenv.Hyperlink(href, text)
}

// TTYRequiredError is returned by the full-screen and line-mode chats when
// there is no terminal to draw on.
type TTYRequiredError struct {
	Operation string
}

func (e *TTYRequiredError) Error() string {
	return "not a terminal; cannot run " + e.Operation + " (try \"unirag ask\")"
}
