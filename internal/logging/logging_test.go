// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for input, want := range tests {
		assert.Equal(t, want, ParseLevel(input), "ParseLevel(%q)", input)
	}
}

func TestSetup_WritesToFile(t *testing.T) {
	saved := log.Logger
	t.Cleanup(func() { log.Logger = saved })

	path := filepath.Join(t.TempDir(), "logs", "unirag.log")
	closer, err := Setup(Options{Level: "info", File: path})
	require.NoError(t, err)

	logger := Component("test")
	logger.Info().Msg("hello from test")
	logger.Debug().Msg("filtered out")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
	assert.Contains(t, string(data), "component=test")
	assert.NotContains(t, string(data), "filtered out")
}

func TestSetup_NoFileDiscards(t *testing.T) {
	saved := log.Logger
	t.Cleanup(func() { log.Logger = saved })

	closer, err := Setup(Options{})
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
	assert.Equal(t, zerolog.Disabled, log.Logger.GetLevel())
}
