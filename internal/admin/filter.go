// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package admin

import (
	"strings"

	"github.com/jeranaias/unirag-tui/internal/model"
)

// DocumentGroups splits a document list by origin.
type DocumentGroups struct {
	PDF  []model.Document
	Text []model.Document
}

// Len returns the number of documents in both groups.
func (g DocumentGroups) Len() int {
	return len(g.PDF) + len(g.Text)
}

// FilterDocuments matches titles case-insensitively against query and
// splits the result into PDF-derived and text documents.
func FilterDocuments(docs []model.Document, query string) DocumentGroups {
	q := strings.ToLower(strings.TrimSpace(query))
	var groups DocumentGroups
	for _, d := range docs {
		if q != "" && !strings.Contains(strings.ToLower(d.Title), q) {
			continue
		}
		if d.IsPDF() {
			groups.PDF = append(groups.PDF, d)
		} else {
			groups.Text = append(groups.Text, d)
		}
	}
	return groups
}

// DisplayTitle strips the PDF marker from a title.
func DisplayTitle(d model.Document) string {
	return strings.TrimSpace(strings.TrimPrefix(d.Title, model.PDFTitlePrefix))
}

// FilterDocuments applies FilterDocuments to the loaded list.
func (c *Controller) FilterDocuments(query string) DocumentGroups {
	return FilterDocuments(c.Documents(), query)
}
