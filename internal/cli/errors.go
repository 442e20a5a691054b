// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/jeranaias/unirag-tui/internal/admin"
	"github.com/jeranaias/unirag-tui/internal/api"
	"github.com/jeranaias/unirag-tui/internal/chat"
	"github.com/jeranaias/unirag-tui/internal/config"
	"github.com/jeranaias/unirag-tui/internal/conversation"
)

// =============================================================================
// EXIT CODES - Specific codes for different error categories
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates a missing or rejected admin token
	ExitAuthError = 4
	// ExitNetworkError indicates the backend could not be reached
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 6
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 7
	// ExitCancelled indicates the user declined a confirmation
	ExitCancelled = 8
)

// =============================================================================
// ERROR TYPES FOR STRUCTURED ERROR HANDLING
// =============================================================================

// UsageError represents invalid arguments.
type UsageError struct {
	Reason  string
	Example string
}

func (e *UsageError) Error() string {
	if e.Example != "" {
		return fmt.Sprintf("%s\nExample: %s", e.Reason, e.Example)
	}
	return e.Reason
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ConfigError wraps a failure to load or save configuration.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ErrCancelled is returned when a confirmation prompt is declined.
var ErrCancelled = errors.New("cancelled")

// NewUsageError creates a usage error with an optional example.
func NewUsageError(reason, example string) error {
	return &UsageError{Reason: reason, Example: example}
}

// NewNotFoundError creates a not-found error.
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError prints err for humans, or as a JSON envelope in JSON mode.
func DisplayError(out, errOut io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		_ = NewJSONErrorResponse(command, err).Print(out)
		return
	}
	fmt.Fprintf(errOut, "%s %s\n", ErrorStyle.Render("[ERROR]"), errorMessage(err))
}

// errorMessage prefers the backend's own explanation over wrapped context.
func errorMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return api.Message(apiErr)
	}
	return err.Error()
}

// GetExitCode determines the appropriate exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, ErrCancelled) {
		return ExitCancelled
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) ||
		errors.Is(err, admin.ErrValidation) ||
		errors.Is(err, admin.ErrNoFileSelected) ||
		errors.Is(err, admin.ErrNoPendingDelete) ||
		errors.Is(err, chat.ErrFeedbackAlreadySent) ||
		errors.Is(err, chat.ErrNotBotMessage) {
		return ExitUsageError
	}

	var cfgErr *ConfigError
	var verrs config.ValidateErrors
	if errors.As(err, &cfgErr) || errors.As(err, &verrs) {
		return ExitConfigError
	}

	if errors.Is(err, admin.ErrNoToken) ||
		api.IsStatus(err, http.StatusUnauthorized) ||
		api.IsStatus(err, http.StatusForbidden) {
		return ExitAuthError
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) ||
		errors.Is(err, conversation.ErrConversationNotFound) ||
		errors.Is(err, chat.ErrMessageNotFound) ||
		api.IsStatus(err, http.StatusNotFound) {
		return ExitNotFoundError
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeoutError
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return ExitNetworkError
	}

	return ExitGeneralError
}

// reportedError is an error whose message the command already printed.
// Execute uses it only for the exit code.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }
