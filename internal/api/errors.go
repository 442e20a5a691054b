// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Error is a non-2xx response from the backend.
type Error struct {
	Status     int
	StatusText string
	Detail     string
	Body       string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Body != "":
		return e.Body
	case e.StatusText != "":
		return e.StatusText
	default:
		return fmt.Sprintf("HTTP %d", e.Status)
	}
}

// IsStatus reports whether err is an *Error with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Message returns the human-readable form of err shown to users.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}

// newError builds an *Error from a response status and body.
func newError(resp *http.Response, body []byte) *Error {
	e := &Error{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Body:       strings.TrimSpace(string(body)),
	}
	e.Detail = extractDetail(body)
	return e
}

// extractDetail returns the "detail" field of a JSON error body. Structured
// details (validation error lists) are returned as compact JSON.
func extractDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil || len(payload.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	if string(payload.Detail) == "null" {
		return ""
	}
	return string(payload.Detail)
}

func statusText(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
