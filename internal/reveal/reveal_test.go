// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReveal_AdvancesWordByWord(t *testing.T) {
	r := New("m1", "one two three")
	assert.Equal(t, "m1", r.MessageID())
	assert.Equal(t, "", r.Text())
	assert.False(t, r.Done())

	want := []string{"one", "one two", "one two three"}
	for _, w := range want {
		require.True(t, r.Advance())
		assert.Equal(t, w, r.Text())
	}
	assert.True(t, r.Done())
	assert.False(t, r.Advance())
}

func TestReveal_PreservesSpacingAndNewlines(t *testing.T) {
	text := "a  b\nc"
	r := New("m", text)
	for r.Advance() {
	}
	assert.Equal(t, text, r.Text())
}

func TestReveal_Cancel(t *testing.T) {
	r := New("m", "one two three")
	r.Advance()
	r.Cancel()

	assert.True(t, r.Done())
	assert.False(t, r.Advance())
	assert.Equal(t, "one", r.Text())
}

func TestReveal_Finish(t *testing.T) {
	r := New("m", "one two three")
	r.Finish()
	assert.Equal(t, "one two three", r.Text())
	assert.True(t, r.Done())
}

func TestReveal_FinishAfterCancelKeepsPrefix(t *testing.T) {
	r := New("m", "one two three")
	r.Advance()
	r.Cancel()
	r.Finish()
	assert.Equal(t, "one", r.Text())
}
