// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// PDFTitlePrefix marks documents created from an uploaded PDF.
const PDFTitlePrefix = "[PDF]"

// =============================================================================
// DOCUMENTS
// =============================================================================

// Revision is one saved version of a document's content.
type Revision struct {
	ID        int       `json:"id"`
	Content   string    `json:"content"`
	UpdatedBy string    `json:"updated_by"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// Document is a server-owned unit of knowledge content.
type Document struct {
	ID             int        `json:"id"`
	Title          string     `json:"title"`
	CurrentContent string     `json:"current_content,omitempty"`
	CreatedAt      Timestamp  `json:"created_at"`
	UpdatedAt      Timestamp  `json:"updated_at"`
	Revisions      []Revision `json:"revisions,omitempty"`
}

// IsPDF reports whether the document was created by a PDF upload.
func (d Document) IsPDF() bool {
	return strings.HasPrefix(d.Title, PDFTitlePrefix)
}

// DocumentInput is the body of a create or update request.
type DocumentInput struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	UpdatedBy string `json:"updated_by"`
}

// UploadResult describes the document produced by a PDF upload.
type UploadResult struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Filename string `json:"filename"`
	Pages    int    `json:"pages"`
	Chars    int    `json:"chars"`
}

// =============================================================================
// FEEDBACK
// =============================================================================

// Feedback is a rating of one question/answer pair as stored by the backend.
type Feedback struct {
	ID        int       `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	IsHelpful bool      `json:"is_helpful"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
}

// CommentText returns the comment or "" when none was given.
func (f Feedback) CommentText() string {
	if f.Comment == nil {
		return ""
	}
	return *f.Comment
}

// FeedbackInput is the body of a feedback submission.
type FeedbackInput struct {
	Question  string  `json:"question"`
	Answer    string  `json:"answer"`
	IsHelpful bool    `json:"is_helpful"`
	Comment   *string `json:"comment"`
}

// =============================================================================
// STATISTICS
// =============================================================================

// StatsSummary holds the headline counters of the statistics view.
type StatsSummary struct {
	TotalQuestions  int     `json:"total_questions"`
	TotalDocuments  int     `json:"total_documents"`
	TotalFeedback   int     `json:"total_feedback"`
	HelpfulFeedback int     `json:"helpful_feedback"`
	FeedbackRate    float64 `json:"feedback_rate"`
}

// TopQuestion is one row of the most-asked questions list.
type TopQuestion struct {
	Question string `json:"question"`
	Count    int    `json:"count"`
}

// IntentCount is the number of questions routed to one intent.
type IntentCount struct {
	Intent string `json:"intent"`
	Count  int    `json:"count"`
}

// =============================================================================
// CHAT WIRE TYPES
// =============================================================================

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Question string `json:"question"`
	UserID   string `json:"user_id,omitempty"`
}

// ChatResponse is the reply of POST /chat.
type ChatResponse struct {
	Answer     string   `json:"answer"`
	NextTopics []string `json:"next_topics"`
}
