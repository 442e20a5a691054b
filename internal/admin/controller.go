// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package admin

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jeranaias/unirag-tui/internal/api"
	"github.com/jeranaias/unirag-tui/internal/logging"
	"github.com/jeranaias/unirag-tui/internal/model"
	"github.com/jeranaias/unirag-tui/internal/storage"
)

// Defaults for Options.
const (
	DefaultUpdatedBy         = "admin01"
	DefaultFeedbackLimit     = 100
	DefaultTopQuestionsLimit = 10
	DefaultRefreshInterval   = 10 * time.Second
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoToken is returned when an admin call is attempted without a credential.
	ErrNoToken = errors.New("admin token not set")

	// ErrValidation is returned when input is rejected before any request.
	ErrValidation = errors.New("invalid input")

	// ErrNoFileSelected is returned by UploadPDF without a selected file.
	ErrNoFileSelected = errors.New("no PDF file selected")

	// ErrNoPendingDelete is returned by ConfirmDelete without RequestDelete.
	ErrNoPendingDelete = errors.New("no delete pending")
)

// =============================================================================
// TYPES
// =============================================================================

// Backend is the subset of the API the admin console needs.
type Backend interface {
	SetToken(token string)
	ListDocuments(ctx context.Context) ([]model.Document, error)
	GetDocument(ctx context.Context, id int) (*model.Document, error)
	CreateDocument(ctx context.Context, in model.DocumentInput) (*model.Document, error)
	UpdateDocument(ctx context.Context, id int, in model.DocumentInput) (*model.Document, error)
	DeleteDocument(ctx context.Context, id int) error
	UploadPDF(ctx context.Context, filename string, r io.Reader) (*model.UploadResult, error)
	ListFeedback(ctx context.Context, limit int) ([]model.Feedback, error)
	StatsSummary(ctx context.Context) (*model.StatsSummary, error)
	TopQuestions(ctx context.Context, limit int) ([]model.TopQuestion, error)
	IntentStats(ctx context.Context) ([]model.IntentCount, error)
}

// Options configures a Controller. Zero values take the defaults above.
type Options struct {
	UpdatedBy         string
	FeedbackLimit     int
	TopQuestionsLimit int
	RefreshInterval   time.Duration
}

func (o *Options) fillDefaults() {
	if strings.TrimSpace(o.UpdatedBy) == "" {
		o.UpdatedBy = DefaultUpdatedBy
	}
	if o.FeedbackLimit <= 0 {
		o.FeedbackLimit = DefaultFeedbackLimit
	}
	if o.TopQuestionsLimit <= 0 {
		o.TopQuestionsLimit = DefaultTopQuestionsLimit
	}
	if o.RefreshInterval <= 0 {
		o.RefreshInterval = DefaultRefreshInterval
	}
}

// Form is the document editor state. EditingID is 0 in create mode.
type Form struct {
	EditingID int
	Title     string
	Content   string
	UpdatedBy string
}

// Editing reports whether the form targets an existing document.
func (f Form) Editing() bool {
	return f.EditingID != 0
}

// Controller holds the admin console state.
type Controller struct {
	kv      storage.KV
	backend Backend
	opts    Options
	logger  zerolog.Logger

	mu            sync.Mutex
	token         string
	status        string
	view          View
	documents     []model.Document
	form          Form
	preview       *model.Document
	pendingDelete int
	selectedPDF   string
	feedback      []model.Feedback
	stats         Stats

	subscribers map[int]func()
	nextSubID   int

	rootCtx       context.Context
	rootCancel    context.CancelFunc
	refreshCancel context.CancelFunc
	refreshDone   chan struct{}
}

// NewController creates the console and restores a saved credential.
func NewController(kv storage.KV, backend Backend, opts Options) *Controller {
	opts.fillDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		kv:          kv,
		backend:     backend,
		opts:        opts,
		logger:      logging.Component("admin"),
		view:        ViewDocuments,
		form:        Form{UpdatedBy: opts.UpdatedBy},
		subscribers: make(map[int]func()),
		rootCtx:     ctx,
		rootCancel:  cancel,
	}

	token, err := storage.GetString(kv, storage.KeyAdminToken)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Cannot read saved admin token")
	}
	c.token = strings.TrimSpace(token)
	backend.SetToken(c.token)
	return c
}

// Close stops background work.
func (c *Controller) Close() {
	c.stopRefresh()
	c.rootCancel()
}

// =============================================================================
// STATUS & SUBSCRIPTIONS
// =============================================================================

// Status returns the latest human-readable outcome.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) setStatus(s string) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
	c.notify()
}

// Subscribe registers fn to run after every state change.
func (c *Controller) Subscribe(fn func()) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *Controller) notify() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// =============================================================================
// CREDENTIAL
// =============================================================================

// Token returns the admin credential.
func (c *Controller) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// HasToken reports whether a credential is set.
func (c *Controller) HasToken() bool {
	return c.Token() != ""
}

// SaveToken stores a trimmed, non-empty credential.
func (c *Controller) SaveToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		c.setStatus(msgTokenRequired)
		return errors.Wrap(ErrValidation, "token is empty")
	}
	if err := storage.SetString(c.kv, storage.KeyAdminToken, token); err != nil {
		c.logger.Warn().Err(err).Msg("Cannot persist admin token")
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	c.backend.SetToken(token)
	c.setStatus(msgTokenSaved)
	return nil
}

// ClearToken forgets the credential.
func (c *Controller) ClearToken() {
	if err := c.kv.Delete(storage.KeyAdminToken); err != nil {
		c.logger.Warn().Err(err).Msg("Cannot delete admin token")
	}
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	c.backend.SetToken("")
	c.stopRefresh()
	c.setStatus(msgTokenCleared)
}

func (c *Controller) requireToken() error {
	if !c.HasToken() {
		c.setStatus(msgNoToken)
		return ErrNoToken
	}
	return nil
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// Documents returns a copy of the loaded document list.
func (c *Controller) Documents() []model.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Document(nil), c.documents...)
}

// LoadDocuments fetches the full document list.
func (c *Controller) LoadDocuments(ctx context.Context) ([]model.Document, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	docs, err := c.backend.ListDocuments(ctx)
	if err != nil {
		c.setStatus(msgDocsFailed + api.Message(err))
		return nil, errors.Wrap(err, "list documents")
	}
	c.mu.Lock()
	c.documents = docs
	c.mu.Unlock()
	c.setStatus(fmt.Sprintf(msgDocsLoaded, len(docs)))
	return append([]model.Document(nil), docs...), nil
}

// reload refreshes the list after a mutation, keeping the mutation's status
// unless the reload itself fails.
func (c *Controller) reload(ctx context.Context) {
	docs, err := c.backend.ListDocuments(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Document list reload failed")
		c.setStatus(msgDocsFailed + api.Message(err))
		return
	}
	c.mu.Lock()
	c.documents = docs
	c.mu.Unlock()
	c.notify()
}

// OpenDocument loads a document into the editor in update mode.
func (c *Controller) OpenDocument(ctx context.Context, id int) (*model.Document, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	doc, err := c.backend.GetDocument(ctx, id)
	if err != nil {
		c.setStatus(msgReadFailed + api.Message(err))
		return nil, errors.Wrapf(err, "get document %d", id)
	}

	c.mu.Lock()
	c.form.EditingID = doc.ID
	c.form.Title = doc.Title
	c.form.Content = doc.CurrentContent
	c.mu.Unlock()
	c.SetView(ViewUpload)
	c.setStatus(fmt.Sprintf(msgEditing, doc.ID))
	return doc, nil
}

// PreviewDocument fetches a document for read-only display.
func (c *Controller) PreviewDocument(ctx context.Context, id int) (*model.Document, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	doc, err := c.backend.GetDocument(ctx, id)
	if err != nil {
		c.setStatus(msgReadFailed + api.Message(err))
		return nil, errors.Wrapf(err, "get document %d", id)
	}
	c.mu.Lock()
	c.preview = doc
	c.mu.Unlock()
	c.notify()
	return doc, nil
}

// Preview returns the last previewed document.
func (c *Controller) Preview() (*model.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview, c.preview != nil
}

// ClosePreview dismisses the preview.
func (c *Controller) ClosePreview() {
	c.mu.Lock()
	c.preview = nil
	c.mu.Unlock()
	c.notify()
}

// =============================================================================
// EDITOR FORM
// =============================================================================

// Form returns the editor state.
func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// SetForm replaces the editor's title and content.
func (c *Controller) SetForm(title, content string) {
	c.mu.Lock()
	c.form.Title = title
	c.form.Content = content
	c.mu.Unlock()
}

// SetUpdatedBy sets the editor name recorded with each revision.
func (c *Controller) SetUpdatedBy(name string) {
	c.mu.Lock()
	c.form.UpdatedBy = name
	c.mu.Unlock()
}

// EditDocument puts the form in update mode for id without fetching it.
func (c *Controller) EditDocument(id int, title, content string) {
	c.mu.Lock()
	c.form.EditingID = id
	c.form.Title = title
	c.form.Content = content
	c.mu.Unlock()
}

// ClearForm returns the editor to create mode.
func (c *Controller) ClearForm() {
	c.clearForm()
	c.setStatus(msgNewMode)
}

func (c *Controller) clearForm() {
	c.mu.Lock()
	c.form.EditingID = 0
	c.form.Title = ""
	c.form.Content = ""
	c.mu.Unlock()
}

// SaveDocument creates or updates the document in the form. Title and
// content are required after trimming; otherwise no request is made. Create
// mode clears the form afterwards, update mode keeps it.
func (c *Controller) SaveDocument(ctx context.Context) (*model.Document, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}

	form := c.Form()
	in := model.DocumentInput{
		Title:     strings.TrimSpace(form.Title),
		Content:   strings.TrimSpace(form.Content),
		UpdatedBy: strings.TrimSpace(form.UpdatedBy),
	}
	if in.Title == "" || in.Content == "" {
		c.setStatus(msgFormIncomplete)
		return nil, errors.Wrap(ErrValidation, "title and content are required")
	}
	if in.UpdatedBy == "" {
		in.UpdatedBy = c.opts.UpdatedBy
	}

	c.setStatus(msgSaving)

	var (
		doc *model.Document
		err error
	)
	if form.Editing() {
		doc, err = c.backend.UpdateDocument(ctx, form.EditingID, in)
	} else {
		doc, err = c.backend.CreateDocument(ctx, in)
	}
	if err != nil {
		c.setStatus(msgSaveFailed + api.Message(err))
		return nil, errors.Wrap(err, "save document")
	}

	if form.Editing() {
		c.setStatus(fmt.Sprintf(msgUpdated, doc.ID))
	} else {
		c.clearForm()
		c.setStatus(fmt.Sprintf(msgCreated, doc.ID))
	}
	c.logger.Info().Int("id", doc.ID).Bool("update", form.Editing()).Msg("Document saved")

	c.reload(ctx)
	return doc, nil
}

// =============================================================================
// DELETE
// =============================================================================

// RequestDelete asks for confirmation before deleting id.
func (c *Controller) RequestDelete(id int) {
	c.mu.Lock()
	c.pendingDelete = id
	c.mu.Unlock()
	c.setStatus(fmt.Sprintf(msgConfirmDelete, id))
}

// PendingDelete returns the id awaiting confirmation.
func (c *Controller) PendingDelete() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingDelete, c.pendingDelete != 0
}

// CancelDelete drops the pending delete.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	c.pendingDelete = 0
	c.mu.Unlock()
	c.notify()
}

// ConfirmDelete deletes the pending document. Deleting the document open in
// the editor clears the form.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	if err := c.requireToken(); err != nil {
		return err
	}
	c.mu.Lock()
	id := c.pendingDelete
	c.pendingDelete = 0
	c.mu.Unlock()
	if id == 0 {
		return ErrNoPendingDelete
	}

	if err := c.backend.DeleteDocument(ctx, id); err != nil {
		c.setStatus(msgDeleteFailed + api.Message(err))
		return errors.Wrapf(err, "delete document %d", id)
	}

	if c.Form().EditingID == id {
		c.clearForm()
	}
	c.setStatus(msgDeleted)
	c.logger.Info().Int("id", id).Msg("Document deleted")

	c.reload(ctx)
	return nil
}

// =============================================================================
// PDF UPLOAD
// =============================================================================

// SelectPDF chooses the file for the next upload.
func (c *Controller) SelectPDF(path string) error {
	path = strings.TrimSpace(path)
	if path == "" || !strings.EqualFold(filepath.Ext(path), ".pdf") {
		c.setStatus(msgChoosePDF)
		return errors.Wrapf(ErrValidation, "%q is not a PDF file", path)
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		c.setStatus(msgChoosePDF)
		return errors.Wrapf(ErrValidation, "%q is not a readable file", path)
	}
	c.mu.Lock()
	c.selectedPDF = path
	c.mu.Unlock()
	c.notify()
	return nil
}

// SelectedPDF returns the chosen file path.
func (c *Controller) SelectedPDF() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedPDF
}

// UploadPDF sends the selected file, then clears the selection and reloads
// the document list.
func (c *Controller) UploadPDF(ctx context.Context) (*model.UploadResult, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	path := c.SelectedPDF()
	if path == "" {
		c.setStatus(msgChoosePDF)
		return nil, ErrNoFileSelected
	}

	f, err := os.Open(path)
	if err != nil {
		c.setStatus(msgUploadFailed + err.Error())
		return nil, errors.Wrap(err, "open PDF")
	}
	defer f.Close()

	c.setStatus(msgUploading)
	res, err := c.backend.UploadPDF(ctx, filepath.Base(path), f)
	if err != nil {
		c.setStatus(msgUploadFailed + api.Message(err))
		return nil, errors.Wrap(err, "upload PDF")
	}

	c.mu.Lock()
	c.selectedPDF = ""
	c.mu.Unlock()
	c.setStatus(fmt.Sprintf(msgUploaded, res.ID, res.Chars))
	c.logger.Info().Int("id", res.ID).Int("pages", res.Pages).Int("chars", res.Chars).Msg("PDF uploaded")

	c.reload(ctx)
	return res, nil
}
