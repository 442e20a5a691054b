// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestColorsHaveBothVariants(t *testing.T) {
	colors := map[string]lipgloss.AdaptiveColor{
		"Purple":                Purple,
		"Cyan":                  Cyan,
		"Emerald":               Emerald,
		"Rose":                  Rose,
		"Amber":                 Amber,
		"Surface":               Surface,
		"SurfaceDim":            SurfaceDim,
		"Overlay":               Overlay,
		"OverlayDim":            OverlayDim,
		"SelectionBg":           SelectionBg,
		"TextPrimary":           TextPrimary,
		"TextSecondary":         TextSecondary,
		"TextMuted":             TextMuted,
		"TextInverse":           TextInverse,
		"UserBubbleFg":          UserBubbleFg,
		"UserBubbleBorder":      UserBubbleBorder,
		"AssistantBubbleFg":     AssistantBubbleFg,
		"AssistantBubbleBorder": AssistantBubbleBorder,
		"ErrorBubbleFg":         ErrorBubbleFg,
		"LinkColor":             LinkColor,
	}
	for name, c := range colors {
		if !strings.HasPrefix(c.Light, "#") || !strings.HasPrefix(c.Dark, "#") {
			t.Errorf("%s should define hex light and dark variants, got %+v", name, c)
		}
	}
}
