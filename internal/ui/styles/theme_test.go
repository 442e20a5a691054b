// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestNewTheme_ForcedPalette(t *testing.T) {
	defer lipgloss.SetHasDarkBackground(true)

	dark := NewTheme("dark")
	if !dark.IsDark || dark.Name != ThemeDark {
		t.Errorf("NewTheme(dark) = %q dark=%v", dark.Name, dark.IsDark)
	}
	if !lipgloss.HasDarkBackground() {
		t.Error("dark theme should switch lipgloss to the dark palette")
	}

	light := NewTheme(" LIGHT ")
	if light.IsDark || light.Name != ThemeLight {
		t.Errorf("NewTheme(light) = %q dark=%v", light.Name, light.IsDark)
	}
	if lipgloss.HasDarkBackground() {
		t.Error("light theme should switch lipgloss to the light palette")
	}
}

func TestNewTheme_AutoResolvesName(t *testing.T) {
	defer lipgloss.SetHasDarkBackground(true)

	theme := NewTheme(ThemeAuto)
	if theme.Name != ThemeDark && theme.Name != ThemeLight {
		t.Errorf("auto theme should resolve to dark or light, got %q", theme.Name)
	}
}

func TestThemeInitStyles(t *testing.T) {
	theme := NewTheme(ThemeDark)
	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"Sidebar", theme.Sidebar},
		{"UserBubble", theme.UserBubble},
		{"AssistantBubble", theme.AssistantBubble},
		{"ErrorBubble", theme.ErrorBubble},
		{"Topic", theme.Topic},
		{"InputContainer", theme.InputContainer},
		{"StatusBar", theme.StatusBar},
		{"Dialog", theme.Dialog},
	}
	for _, s := range styles {
		if s.style.Render("test") == "" {
			t.Errorf("%s style should render", s.name)
		}
	}
}

func TestThemeLayout(t *testing.T) {
	theme := NewTheme(ThemeDark)
	tests := []struct {
		width   int
		mode    LayoutMode
		sidebar int
	}{
		{0, LayoutNarrow, 0},
		{59, LayoutNarrow, 0},
		{60, LayoutMedium, 24},
		{99, LayoutMedium, 24},
		{100, LayoutWide, 32},
		{200, LayoutWide, 32},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 40)
		if got := theme.GetLayoutMode(); got != tt.mode {
			t.Errorf("width %d: layout = %v, want %v", tt.width, got, tt.mode)
		}
		if got := theme.SidebarWidth(); got != tt.sidebar {
			t.Errorf("width %d: sidebar = %d, want %d", tt.width, got, tt.sidebar)
		}
	}
}
