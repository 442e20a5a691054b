// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

// UNICODE: Thai, Devanagari and emoji sequences span several code points.
// Counting grapheme clusters keeps a vowel or tone mark attached to its base
// consonant when a string is cut.

// TruncateGraphemes returns at most max grapheme clusters of s. The input is
// NFC-normalized first so equivalent spellings truncate identically. No
// ellipsis is appended.
func TruncateGraphemes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	s = norm.NFC.String(s)

	var sb strings.Builder
	count := 0
	state := -1
	rest := s
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if count == max {
			return sb.String()
		}
		sb.WriteString(cluster)
		count++
	}
	return sb.String()
}

// SingleLine replaces line breaks with spaces and trims the result.
func SingleLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.TrimSpace(s)
}

// TruncateWidth cuts s to fit maxWidth terminal columns, appending "..." when
// something was removed.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// PadRight pads s with spaces to width terminal columns.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}
