// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output support for scripting.
//
// Every command prints the same envelope in --json mode so callers can
// check success without parsing command-specific shapes.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jeranaias/unirag-tui/internal/model"
)

// JSONResponse is the standardized response format for all CLI commands.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the ISO8601 timestamp when the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := errorMessage(err)
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the indented JSON response to w.
func (r *JSONResponse) Print(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(r)
}

// String returns the JSON response as a string.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// AskData is the result of ask and of each chat REPL turn.
type AskData struct {
	ConversationID string   `json:"conversation_id"`
	Question       string   `json:"question"`
	Answer         string   `json:"answer"`
	NextTopics     []string `json:"next_topics"`
	MessageID      string   `json:"message_id,omitempty"`
	Failed         bool     `json:"failed"`
}

// HistoryItem is one row of history list.
type HistoryItem struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Snippet   string          `json:"snippet"`
	Messages  int             `json:"messages"`
	UpdatedAt model.Timestamp `json:"updated_at"`
	Active    bool            `json:"active"`
}

// TokenData describes the saved admin token without revealing it.
type TokenData struct {
	Set    bool   `json:"set"`
	Masked string `json:"masked,omitempty"`
}

// DocumentsData is the result of admin docs list and search.
type DocumentsData struct {
	Query string           `json:"query,omitempty"`
	PDF   []model.Document `json:"pdf"`
	Text  []model.Document `json:"text"`
}

// StatsData is the result of admin stats.
type StatsData struct {
	Summary      *model.StatsSummary `json:"summary"`
	TopQuestions []model.TopQuestion `json:"top_questions"`
	Intents      []model.IntentCount `json:"intents"`
	Errors       []string            `json:"errors,omitempty"`
}

// HealthData is the result of health.
type HealthData struct {
	BaseURL   string `json:"base_url"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

// VersionData is the result of version.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// ConfigPathData is the result of config path and config init.
type ConfigPathData struct {
	Path    string `json:"path"`
	Exists  bool   `json:"exists"`
	Written bool   `json:"written,omitempty"`
}

// ConfigValueData is the result of config get and config set.
type ConfigValueData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}
