// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme names accepted by NewTheme.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeAuto  = "auto"
)

// Theme holds the styled components of the chat screen.
type Theme struct {
	// Name is "dark" or "light" after auto detection.
	Name         string
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderHint  lipgloss.Style

	// ==========================================================================
	// HISTORY SIDEBAR
	// ==========================================================================

	Sidebar        lipgloss.Style
	SidebarTitle   lipgloss.Style
	SidebarItem    lipgloss.Style
	SidebarActive  lipgloss.Style
	SidebarCursor  lipgloss.Style
	SidebarSnippet lipgloss.Style
	SidebarNew     lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserLabel       lipgloss.Style
	UserBubble      lipgloss.Style
	AssistantLabel  lipgloss.Style
	AssistantBubble lipgloss.Style
	ErrorBubble     lipgloss.Style
	Timestamp       lipgloss.Style
	TypingCursor    lipgloss.Style
	Thinking        lipgloss.Style

	// Next topics and feedback under an answer
	TopicHeader   lipgloss.Style
	Topic         lipgloss.Style
	TopicSelected lipgloss.Style
	FeedbackHint  lipgloss.Style
	FeedbackDone  lipgloss.Style

	// Suggestions shown on an empty conversation
	Suggestion         lipgloss.Style
	SuggestionSelected lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	StatusBar      lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style
	StatusSuccess  lipgloss.Style
	StatusError    lipgloss.Style

	// ==========================================================================
	// DIALOGS
	// ==========================================================================

	Dialog       lipgloss.Style
	DialogTitle  lipgloss.Style
	DialogDanger lipgloss.Style
	Link         lipgloss.Style
	Muted        lipgloss.Style
}

// NewTheme creates a theme. "dark" and "light" force the palette; anything
// else follows the terminal background.
func NewTheme(name string) *Theme {
	isDark := termenv.HasDarkBackground()
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ThemeDark:
		isDark = true
	case ThemeLight:
		isDark = false
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
		Name:         ThemeLight,
	}
	if isDark {
		t.Name = ThemeDark
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.HeaderHint = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(OverlayDim).
		Padding(0, 1)

	t.SidebarTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary).
		MarginBottom(1)

	t.SidebarItem = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.SidebarActive = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.SidebarCursor = lipgloss.NewStyle().
		Background(SelectionBg)

	t.SidebarSnippet = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.SidebarNew = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	// Messages
	t.UserLabel = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1)

	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1)

	t.ErrorBubble = lipgloss.NewStyle().
		Foreground(ErrorBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 1)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.TypingCursor = lipgloss.NewStyle().
		Foreground(Purple).
		Blink(true)

	t.Thinking = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.TopicHeader = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true)

	t.Topic = lipgloss.NewStyle().
		Foreground(Cyan).
		PaddingLeft(2)

	t.TopicSelected = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Cyan).
		PaddingLeft(2)

	t.FeedbackHint = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.FeedbackDone = lipgloss.NewStyle().
		Foreground(Emerald)

	t.Suggestion = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SuggestionSelected = t.Suggestion.
		BorderForeground(Cyan).
		Foreground(Cyan)

	// Input and status
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.StatusSuccess = lipgloss.NewStyle().
		Foreground(Emerald)

	t.StatusError = lipgloss.NewStyle().
		Foreground(Rose)

	// Dialogs
	t.Dialog = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)

	t.DialogTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		MarginBottom(1)

	t.DialogDanger = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	t.Link = lipgloss.NewStyle().
		Foreground(LinkColor).
		Underline(true)

	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// SidebarWidth is the history column width for the current layout. The
// narrow layout hides the sidebar.
func (t *Theme) SidebarWidth() int {
	switch t.GetLayoutMode() {
	case LayoutNarrow:
		return 0
	case LayoutMedium:
		return 24
	default:
		return 32
	}
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)
