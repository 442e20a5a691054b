// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines keyboard bindings and the help line built from them.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat screen.
type KeyMap struct {
	Submit      key.Binding
	Focus       key.Binding
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Select      key.Binding
	PrevAnswer  key.Binding
	NextAnswer  key.Binding
	New         key.Binding
	Delete      key.Binding
	Helpful     key.Binding
	NotHelpful  key.Binding
	Copy        key.Binding
	Contact     key.Binding
	Confirm     key.Binding
	Dismiss     key.Binding
	SkipReveal  key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("Tab", "switch pane"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "open"),
		),
		PrevAnswer: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("left/h", "older answer"),
		),
		NextAnswer: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("right/l", "newer answer"),
		),
		New: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete chat"),
		),
		Helpful: key.NewBinding(
			key.WithKeys("+", "y"),
			key.WithHelp("+", "helpful"),
		),
		NotHelpful: key.NewBinding(
			key.WithKeys("-", "n"),
			key.WithHelp("-", "not helpful"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "copy answer"),
		),
		Contact: key.NewBinding(
			key.WithKeys("?", "f1"),
			key.WithHelp("?", "contact admin"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y", "confirm"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "close"),
		),
		SkipReveal: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "show whole answer"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar for a focus.
func (k KeyMap) ShortHelp(f Focus) []key.Binding {
	switch f {
	case FocusSidebar:
		return []key.Binding{k.Up, k.Down, k.Select, k.Delete, k.New, k.Focus}
	case FocusAnswer:
		return []key.Binding{k.Up, k.Down, k.Select, k.PrevAnswer, k.Helpful, k.NotHelpful, k.Copy, k.Focus}
	default:
		return []key.Binding{k.Submit, k.New, k.Copy, k.Contact, k.Focus, k.Quit}
	}
}
