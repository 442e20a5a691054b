// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package linkify finds URLs, e-mail addresses, and phone numbers in answer
// text so renderers can highlight them or emit terminal hyperlinks.
package linkify

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind classifies a segment.
type Kind int

const (
	Plain Kind = iota
	URL
	Email
	Phone
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case URL:
		return "url"
	case Email:
		return "email"
	case Phone:
		return "phone"
	default:
		return "plain"
	}
}

// minPhoneLength is the shortest segment treated as a phone number.
const minPhoneLength = 9

var (
	urlPattern   = regexp.MustCompile(`https?://\S+`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._-]+@[a-zA-Z0-9._-]+\.[a-zA-Z0-9._-]+`)
	phonePattern = regexp.MustCompile(`\d{2,4}-?\d{3,4}-?\d{3,4}`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// Segment is a run of text. Whitespace runs are kept as Plain segments so
// joining every segment's Text reproduces the line.
type Segment struct {
	Kind Kind
	Text string
}

// Href returns the link target for linkable segments.
func (s Segment) Href() string {
	switch s.Kind {
	case URL:
		return s.Text
	case Email:
		return "mailto:" + s.Text
	case Phone:
		return "tel:" + s.Text
	default:
		return ""
	}
}

// IsLink reports whether the segment is linkable.
func (s Segment) IsLink() bool {
	return s.Kind != Plain
}

// Lines splits text on newlines and classifies each whitespace-delimited
// word of every line.
func Lines(text string) [][]Segment {
	lines := strings.Split(text, "\n")
	out := make([][]Segment, len(lines))
	for i, line := range lines {
		out[i] = Line(line)
	}
	return out
}

// Line classifies the words of a single line.
func Line(line string) []Segment {
	var segs []Segment
	last := 0
	for _, loc := range spacePattern.FindAllStringIndex(line, -1) {
		if loc[0] > last {
			segs = append(segs, classify(line[last:loc[0]]))
		}
		segs = append(segs, Segment{Kind: Plain, Text: line[loc[0]:loc[1]]})
		last = loc[1]
	}
	if last < len(line) {
		segs = append(segs, classify(line[last:]))
	}
	return segs
}

func classify(word string) Segment {
	switch {
	case urlPattern.MatchString(word):
		return Segment{Kind: URL, Text: word}
	case emailPattern.MatchString(word):
		return Segment{Kind: Email, Text: word}
	case phonePattern.MatchString(word) && utf8.RuneCountInString(word) >= minPhoneLength:
		return Segment{Kind: Phone, Text: word}
	default:
		return Segment{Kind: Plain, Text: word}
	}
}

// Render rewrites text, passing linkable segments through link. Plain text
// and line breaks are preserved.
func Render(text string, link func(Segment) string) string {
	var b strings.Builder
	for i, line := range Lines(text) {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, seg := range line {
			if seg.IsLink() && link != nil {
				b.WriteString(link(seg))
			} else {
				b.WriteString(seg.Text)
			}
		}
	}
	return b.String()
}

// Links returns every linkable segment in text, in order.
func Links(text string) []Segment {
	var out []Segment
	for _, line := range Lines(text) {
		for _, seg := range line {
			if seg.IsLink() {
				out = append(out, seg)
			}
		}
	}
	return out
}
