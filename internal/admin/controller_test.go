// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package admin

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/unirag-tui/internal/api"
	"github.com/jeranaias/unirag-tui/internal/model"
	"github.com/jeranaias/unirag-tui/internal/storage"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakeBackend is an in-memory document server.
type fakeBackend struct {
	mu      sync.Mutex
	token   string
	docs    []model.Document
	nextID  int
	calls   map[string]int
	created []model.DocumentInput
	updated map[int]model.DocumentInput
	uploads []string

	failList     error
	failMutation error
	failSummary  error
	failTop      error
	failIntents  error
	feedback     []model.Feedback
	feedbackHits atomic.Int32
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{nextID: 1, calls: make(map[string]int), updated: make(map[int]model.DocumentInput)}
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeBackend) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *fakeBackend) ListDocuments(ctx context.Context) ([]model.Document, error) {
	f.hit("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	return append([]model.Document(nil), f.docs...), nil
}

func (f *fakeBackend) GetDocument(ctx context.Context, id int) (*model.Document, error) {
	f.hit("get")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.docs {
		if d.ID == id {
			d := d
			return &d, nil
		}
	}
	return nil, &api.Error{Status: 404, StatusText: "Not Found", Detail: "Document not found"}
}

func (f *fakeBackend) CreateDocument(ctx context.Context, in model.DocumentInput) (*model.Document, error) {
	f.hit("create")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMutation != nil {
		return nil, f.failMutation
	}
	f.created = append(f.created, in)
	d := model.Document{ID: f.nextID, Title: in.Title, CurrentContent: in.Content}
	f.nextID++
	f.docs = append([]model.Document{d}, f.docs...)
	return &d, nil
}

func (f *fakeBackend) UpdateDocument(ctx context.Context, id int, in model.DocumentInput) (*model.Document, error) {
	f.hit("update")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMutation != nil {
		return nil, f.failMutation
	}
	f.updated[id] = in
	for i := range f.docs {
		if f.docs[i].ID == id {
			f.docs[i].Title = in.Title
			f.docs[i].CurrentContent = in.Content
			d := f.docs[i]
			return &d, nil
		}
	}
	return nil, &api.Error{Status: 404, Detail: "Document not found"}
}

func (f *fakeBackend) DeleteDocument(ctx context.Context, id int) error {
	f.hit("delete")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMutation != nil {
		return f.failMutation
	}
	for i := range f.docs {
		if f.docs[i].ID == id {
			f.docs = append(f.docs[:i], f.docs[i+1:]...)
			return nil
		}
	}
	return &api.Error{Status: 404, Detail: "Document not found"}
}

func (f *fakeBackend) UploadPDF(ctx context.Context, filename string, r io.Reader) (*model.UploadResult, error) {
	f.hit("upload")
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMutation != nil {
		return nil, f.failMutation
	}
	f.uploads = append(f.uploads, filename)
	d := model.Document{ID: f.nextID, Title: "[PDF] " + filename[:len(filename)-4]}
	f.nextID++
	f.docs = append([]model.Document{d}, f.docs...)
	return &model.UploadResult{ID: d.ID, Title: d.Title, Filename: filename, Pages: 1, Chars: len(data)}, nil
}

func (f *fakeBackend) ListFeedback(ctx context.Context, limit int) ([]model.Feedback, error) {
	f.feedbackHits.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Feedback(nil), f.feedback...), nil
}

func (f *fakeBackend) StatsSummary(ctx context.Context) (*model.StatsSummary, error) {
	if f.failSummary != nil {
		return nil, f.failSummary
	}
	return &model.StatsSummary{TotalQuestions: 12, TotalFeedback: 4, HelpfulFeedback: 3, FeedbackRate: 75}, nil
}

func (f *fakeBackend) TopQuestions(ctx context.Context, limit int) ([]model.TopQuestion, error) {
	if f.failTop != nil {
		return nil, f.failTop
	}
	return []model.TopQuestion{{Question: "ทุน", Count: limit}}, nil
}

func (f *fakeBackend) IntentStats(ctx context.Context) ([]model.IntentCount, error) {
	if f.failIntents != nil {
		return nil, f.failIntents
	}
	return []model.IntentCount{{Intent: "faq", Count: 5}}, nil
}

func newKV(t *testing.T) storage.KV {
	t.Helper()
	kv, err := storage.NewFileKV(t.TempDir())
	require.NoError(t, err)
	return kv
}

func newController(t *testing.T, backend *fakeBackend, opts Options) *Controller {
	t.Helper()
	c := NewController(newKV(t), backend, opts)
	t.Cleanup(c.Close)
	require.NoError(t, c.SaveToken("secret"))
	return c
}

// =============================================================================
// CREDENTIAL
// =============================================================================

func TestSaveToken(t *testing.T) {
	kv := newKV(t)
	backend := newFakeBackend()
	c := NewController(kv, backend, Options{})
	defer c.Close()

	err := c.SaveToken("   ")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, msgTokenRequired, c.Status())
	assert.False(t, c.HasToken())

	require.NoError(t, c.SaveToken("  abc  "))
	assert.Equal(t, "abc", c.Token())
	assert.Equal(t, "abc", backend.token)
	assert.Equal(t, msgTokenSaved, c.Status())

	restored := NewController(kv, newFakeBackend(), Options{})
	defer restored.Close()
	assert.Equal(t, "abc", restored.Token())

	restored.ClearToken()
	assert.False(t, restored.HasToken())
	again := NewController(kv, newFakeBackend(), Options{})
	defer again.Close()
	assert.False(t, again.HasToken())
}

func TestCallsWithoutToken(t *testing.T) {
	backend := newFakeBackend()
	c := NewController(newKV(t), backend, Options{})
	defer c.Close()

	_, err := c.LoadDocuments(context.Background())
	assert.True(t, errors.Is(err, ErrNoToken))
	_, err = c.SaveDocument(context.Background())
	assert.True(t, errors.Is(err, ErrNoToken))
	assert.Equal(t, msgNoToken, c.Status())
	assert.Zero(t, backend.count("list"))
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// Scenario: create clears the form, update keeps it, both reload the list.
func TestSaveDocument_CreateThenUpdate(t *testing.T) {
	backend := newFakeBackend()
	c := newController(t, backend, Options{})
	ctx := context.Background()

	c.SetForm("  ระเบียบหอพัก ", "  ห้ามนำสัตว์เลี้ยง  ")
	doc, err := c.SaveDocument(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.ID)
	assert.Equal(t, "✅ เพิ่มข้อมูลใหม่แล้ว (id=1)", c.Status())
	assert.Equal(t, Form{UpdatedBy: DefaultUpdatedBy}, c.Form(), "create mode clears the form")
	require.Len(t, c.Documents(), 1)
	assert.Equal(t, 1, backend.count("list"))
	assert.Equal(t, model.DocumentInput{Title: "ระเบียบหอพัก", Content: "ห้ามนำสัตว์เลี้ยง", UpdatedBy: DefaultUpdatedBy}, backend.created[0])

	_, err = c.OpenDocument(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ViewUpload, c.View())
	assert.Equal(t, "✏️ โหมดแก้ไขเอกสาร (id=1)", c.Status())

	c.SetForm("ระเบียบหอพัก", "อนุญาตแมว")
	_, err = c.SaveDocument(ctx)
	require.NoError(t, err)
	assert.Equal(t, "✅ อัปเดตสำเร็จ (id=1)", c.Status())
	form := c.Form()
	assert.Equal(t, 1, form.EditingID, "update mode keeps the form")
	assert.Equal(t, "อนุญาตแมว", form.Content)
	assert.Equal(t, 1, backend.count("create"))
	assert.Equal(t, 1, backend.count("update"))
	assert.Equal(t, 2, backend.count("list"))
	assert.Equal(t, "อนุญาตแมว", c.Documents()[0].CurrentContent)
}

func TestSaveDocument_ValidationMakesNoRequest(t *testing.T) {
	backend := newFakeBackend()
	c := newController(t, backend, Options{})

	for _, tc := range [][2]string{{"", "content"}, {"title", "   "}, {" ", " "}} {
		c.SetForm(tc[0], tc[1])
		_, err := c.SaveDocument(context.Background())
		assert.True(t, errors.Is(err, ErrValidation))
		assert.Equal(t, msgFormIncomplete, c.Status())
	}
	assert.Zero(t, backend.count("create"))
	assert.Zero(t, backend.count("update"))
	assert.Zero(t, backend.count("list"))
}

func TestSaveDocument_FailureLeavesListAlone(t *testing.T) {
	backend := newFakeBackend()
	backend.docs = []model.Document{{ID: 9, Title: "existing"}}
	c := newController(t, backend, Options{})
	_, err := c.LoadDocuments(context.Background())
	require.NoError(t, err)

	backend.failMutation = &api.Error{Status: 403, Detail: "Not authorized as admin"}
	c.SetForm("t", "c")
	_, err = c.SaveDocument(context.Background())
	require.Error(t, err)
	assert.Equal(t, msgSaveFailed+"Not authorized as admin", c.Status())
	assert.Len(t, c.Documents(), 1)
	assert.Equal(t, "t", c.Form().Title, "failed create keeps the form")
}

func TestLoadDocuments_FailureKeepsPreviousList(t *testing.T) {
	backend := newFakeBackend()
	backend.docs = []model.Document{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}
	c := newController(t, backend, Options{})

	docs, err := c.LoadDocuments(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, "📄 โหลดเอกสารล่าสุด 2 รายการ", c.Status())

	backend.failList = errors.New("connection refused")
	_, err = c.LoadDocuments(context.Background())
	require.Error(t, err)
	assert.Len(t, c.Documents(), 2)
	assert.Equal(t, msgDocsFailed+"connection refused", c.Status())
}

func TestPreviewDocument(t *testing.T) {
	backend := newFakeBackend()
	backend.docs = []model.Document{{ID: 3, Title: "[PDF] guide", CurrentContent: "body"}}
	c := newController(t, backend, Options{})

	doc, err := c.PreviewDocument(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "body", doc.CurrentContent)
	assert.Equal(t, Form{UpdatedBy: DefaultUpdatedBy}, c.Form(), "preview does not touch the editor")

	_, err = c.PreviewDocument(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, msgReadFailed+"Document not found", c.Status())

	c.ClosePreview()
	_, ok := c.Preview()
	assert.False(t, ok)
}

// =============================================================================
// DELETE
// =============================================================================

// Scenario: deleting the document open in the editor clears the form.
func TestDelete_TwoStepClearsEditor(t *testing.T) {
	backend := newFakeBackend()
	backend.docs = []model.Document{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}
	c := newController(t, backend, Options{})
	ctx := context.Background()

	_, err := c.OpenDocument(ctx, 2)
	require.NoError(t, err)

	assert.True(t, errors.Is(c.ConfirmDelete(ctx), ErrNoPendingDelete))
	assert.Zero(t, backend.count("delete"))

	c.RequestDelete(2)
	c.CancelDelete()
	assert.True(t, errors.Is(c.ConfirmDelete(ctx), ErrNoPendingDelete))

	c.RequestDelete(2)
	id, ok := c.PendingDelete()
	require.True(t, ok)
	assert.Equal(t, 2, id)

	require.NoError(t, c.ConfirmDelete(ctx))
	assert.Equal(t, msgDeleted, c.Status())
	assert.False(t, c.Form().Editing())
	assert.Equal(t, "", c.Form().Title)
	require.Len(t, c.Documents(), 1)
	assert.Equal(t, 1, c.Documents()[0].ID)
	_, ok = c.PendingDelete()
	assert.False(t, ok)
}

func TestDelete_OtherDocumentKeepsEditor(t *testing.T) {
	backend := newFakeBackend()
	backend.docs = []model.Document{{ID: 1, Title: "a", CurrentContent: "x"}, {ID: 2, Title: "b"}}
	c := newController(t, backend, Options{})
	ctx := context.Background()

	_, err := c.OpenDocument(ctx, 1)
	require.NoError(t, err)
	c.RequestDelete(2)
	require.NoError(t, c.ConfirmDelete(ctx))
	assert.Equal(t, 1, c.Form().EditingID)
}

func TestDelete_FailureLeavesList(t *testing.T) {
	backend := newFakeBackend()
	backend.docs = []model.Document{{ID: 1, Title: "a"}}
	c := newController(t, backend, Options{})
	_, err := c.LoadDocuments(context.Background())
	require.NoError(t, err)

	backend.failMutation = errors.New("boom")
	c.RequestDelete(1)
	require.Error(t, c.ConfirmDelete(context.Background()))
	assert.Equal(t, msgDeleteFailed+"boom", c.Status())
	assert.Len(t, c.Documents(), 1)
}

// =============================================================================
// PDF UPLOAD
// =============================================================================

func TestUploadPDF(t *testing.T) {
	backend := newFakeBackend()
	c := newController(t, backend, Options{})
	ctx := context.Background()

	_, err := c.UploadPDF(ctx)
	assert.True(t, errors.Is(err, ErrNoFileSelected))
	assert.Equal(t, msgChoosePDF, c.Status())

	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o600))
	assert.True(t, errors.Is(c.SelectPDF(txt), ErrValidation))
	assert.True(t, errors.Is(c.SelectPDF(filepath.Join(dir, "missing.pdf")), ErrValidation))

	pdf := filepath.Join(dir, "Handbook.PDF")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4 0123456789"), 0o600))
	require.NoError(t, c.SelectPDF(pdf))

	res, err := c.UploadPDF(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Handbook.PDF"}, backend.uploads)
	assert.Equal(t, "✅ สำเร็จ (id=1, 19 ตัวอักษร)", c.Status())
	assert.Equal(t, 19, res.Chars)
	assert.Equal(t, "", c.SelectedPDF(), "selection is cleared after upload")
	assert.Equal(t, 1, backend.count("list"))

	groups := c.FilterDocuments("")
	assert.Len(t, groups.PDF, 1)
	assert.Empty(t, groups.Text)
}

// =============================================================================
// FEEDBACK & STATISTICS
// =============================================================================

func TestSetView_FeedbackAutoRefresh(t *testing.T) {
	backend := newFakeBackend()
	backend.feedback = []model.Feedback{{ID: 1, Question: "q", Answer: "a", IsHelpful: true}}
	c := newController(t, backend, Options{RefreshInterval: 10 * time.Millisecond})

	c.SetView(ViewFeedback)
	assert.True(t, c.Refreshing())
	require.Eventually(t, func() bool { return backend.feedbackHits.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Len(t, c.Feedback(), 1)

	c.SetView(ViewDocuments)
	assert.False(t, c.Refreshing())
	stopped := backend.feedbackHits.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, backend.feedbackHits.Load(), "timer must stop when the view is left")
}

func TestSetView_FeedbackLoadsImmediately(t *testing.T) {
	backend := newFakeBackend()
	c := newController(t, backend, Options{RefreshInterval: time.Hour})

	c.SetView(ViewFeedback)
	require.Eventually(t, func() bool { return backend.feedbackHits.Load() == 1 }, time.Second, 5*time.Millisecond)
	c.SetView(ViewFeedback)
	c.Close()
	assert.False(t, c.Refreshing())
	assert.Equal(t, int32(1), backend.feedbackHits.Load())
}

func TestSetView_NoTokenNoRefresh(t *testing.T) {
	backend := newFakeBackend()
	c := NewController(newKV(t), backend, Options{RefreshInterval: 10 * time.Millisecond})
	defer c.Close()

	c.SetView(ViewFeedback)
	assert.False(t, c.Refreshing())
	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, backend.feedbackHits.Load())
}

func TestLoadStatistics_All(t *testing.T) {
	backend := newFakeBackend()
	c := newController(t, backend, Options{TopQuestionsLimit: 7})

	stats, err := c.LoadStatistics(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stats.Summary)
	assert.Equal(t, 12, stats.Summary.TotalQuestions)
	assert.Equal(t, []model.TopQuestion{{Question: "ทุน", Count: 7}}, stats.TopQuestions)
	assert.Len(t, stats.Intents, 1)
}

// Scenario: one failing statistics call does not block the others.
func TestLoadStatistics_PartialFailure(t *testing.T) {
	backend := newFakeBackend()
	c := newController(t, backend, Options{})

	_, err := c.LoadStatistics(context.Background())
	require.NoError(t, err)

	backend.failTop = &api.Error{Status: 500, Detail: "db down"}
	stats, err := c.LoadStatistics(context.Background())
	require.Error(t, err)
	assert.NotNil(t, stats.Summary)
	assert.Len(t, stats.Intents, 1)
	assert.Error(t, stats.TopQuestionsErr)
	assert.NoError(t, stats.SummaryErr)
	assert.Len(t, stats.TopQuestions, 1, "failed piece keeps its previous value")
	assert.Contains(t, c.Status(), "db down")
}

func TestFilterDocuments(t *testing.T) {
	docs := []model.Document{
		{ID: 1, Title: "[PDF] Student Handbook"},
		{ID: 2, Title: "ระเบียบการแต่งกาย"},
		{ID: 3, Title: "handbook addendum"},
	}

	all := FilterDocuments(docs, "")
	assert.Equal(t, 3, all.Len())

	hits := FilterDocuments(docs, "HANDBOOK")
	require.Len(t, hits.PDF, 1)
	require.Len(t, hits.Text, 1)
	assert.Equal(t, "Student Handbook", DisplayTitle(hits.PDF[0]))
	assert.Equal(t, 3, hits.Text[0].ID)

	assert.Zero(t, FilterDocuments(docs, "nothing").Len())
}
