// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jeranaias/unirag-tui/internal/logging"
	"github.com/jeranaias/unirag-tui/internal/model"
)

// Configuration constants for the backend client.
const (
	// DefaultBaseURL is the backend address used when none is configured.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the number of extra attempts for idempotent calls.
	DefaultMaxRetries = 2

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024

	// HeaderAPIKey carries the admin credential.
	HeaderAPIKey = "X-API-Key"

	userAgent = "unirag/1.0"
)

// HealthStatus is the reply of GET /health.
type HealthStatus struct {
	Status string `json:"status"`
}

// Client talks to the knowledge-assistant backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	limiter    *rate.Limiter
	logger     zerolog.Logger

	mu    sync.RWMutex
	token string
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		maxRetries: DefaultMaxRetries,
		backoff:    retryBaseDelay,
		logger:     logging.Component("api"),
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithMaxRetries sets the number of extra attempts for GET requests.
func (c *Client) WithMaxRetries(maxRetries int) *Client {
	if maxRetries >= 0 {
		c.maxRetries = maxRetries
	}
	return c
}

// WithRateLimit throttles outgoing requests to rps per second. Zero disables
// the limit.
func (c *Client) WithRateLimit(rps float64, burst int) *Client {
	if rps <= 0 {
		c.limiter = nil
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// WithToken sets the admin credential.
func (c *Client) WithToken(token string) *Client {
	c.SetToken(token)
	return c
}

// SetToken replaces the admin credential.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

// HasToken reports whether an admin credential is set.
func (c *Client) HasToken() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// PUBLIC ENDPOINTS
// =============================================================================

// Chat sends a question to POST /chat.
func (c *Client) Chat(ctx context.Context, question, userID string) (*model.ChatResponse, error) {
	var resp model.ChatResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/chat",
		body:   model.ChatRequest{Question: question, UserID: userID},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitFeedback posts a rating to POST /feedback.
func (c *Client) SubmitFeedback(ctx context.Context, fb model.FeedbackInput) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/feedback",
		body:   fb,
	}, nil)
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.do(ctx, request{method: http.MethodGet, path: "/health"}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// =============================================================================
// ADMIN ENDPOINTS
// =============================================================================

// ListDocuments returns the document list.
func (c *Client) ListDocuments(ctx context.Context) ([]model.Document, error) {
	var docs []model.Document
	if err := c.do(ctx, request{method: http.MethodGet, path: "/admin/documents/list", admin: true}, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetDocument returns one document with its content and revisions.
func (c *Client) GetDocument(ctx context.Context, id int) (*model.Document, error) {
	var doc model.Document
	if err := c.do(ctx, request{method: http.MethodGet, path: documentPath(id), admin: true}, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// CreateDocument creates a document.
func (c *Client) CreateDocument(ctx context.Context, in model.DocumentInput) (*model.Document, error) {
	var doc model.Document
	err := c.do(ctx, request{method: http.MethodPost, path: "/admin/documents", body: in, admin: true}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateDocument replaces a document's title and content.
func (c *Client) UpdateDocument(ctx context.Context, id int, in model.DocumentInput) (*model.Document, error) {
	var doc model.Document
	err := c.do(ctx, request{method: http.MethodPut, path: documentPath(id), body: in, admin: true}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument deletes a document.
func (c *Client) DeleteDocument(ctx context.Context, id int) error {
	return c.do(ctx, request{method: http.MethodDelete, path: documentPath(id), admin: true}, nil)
}

// UploadPDF sends a PDF as multipart field "file".
func (c *Client) UploadPDF(ctx context.Context, filename string, r io.Reader) (*model.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+escapeQuotes(filepath.Base(filename))+`"`)
	header.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, errors.Wrap(err, "create multipart part")
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, errors.Wrap(err, "read upload file")
	}
	if err := mw.Close(); err != nil {
		return nil, errors.Wrap(err, "finish multipart body")
	}

	var result model.UploadResult
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/admin/upload_pdf",
		raw:         buf.Bytes(),
		contentType: mw.FormDataContentType(),
		admin:       true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListFeedback returns the newest feedback entries.
func (c *Client) ListFeedback(ctx context.Context, limit int) ([]model.Feedback, error) {
	var out []model.Feedback
	err := c.do(ctx, request{method: http.MethodGet, path: "/admin/feedback", query: limitQuery(limit), admin: true}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// StatsSummary returns the headline counters.
func (c *Client) StatsSummary(ctx context.Context) (*model.StatsSummary, error) {
	var out model.StatsSummary
	if err := c.do(ctx, request{method: http.MethodGet, path: "/admin/stats/summary", admin: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TopQuestions returns the most frequently asked questions.
func (c *Client) TopQuestions(ctx context.Context, limit int) ([]model.TopQuestion, error) {
	var out []model.TopQuestion
	err := c.do(ctx, request{method: http.MethodGet, path: "/admin/stats/top-questions", query: limitQuery(limit), admin: true}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IntentStats returns question counts grouped by intent.
func (c *Client) IntentStats(ctx context.Context) ([]model.IntentCount, error) {
	var out []model.IntentCount
	if err := c.do(ctx, request{method: http.MethodGet, path: "/admin/stats/intents", admin: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

type request struct {
	method      string
	path        string
	query       url.Values
	body        any
	raw         []byte
	contentType string
	admin       bool
}

func (r request) idempotent() bool {
	return r.method == http.MethodGet || r.method == http.MethodHead
}

// do sends r and decodes a 2xx JSON reply into out (when non-nil).
func (c *Client) do(ctx context.Context, r request, out any) error {
	payload, contentType, err := r.encode()
	if err != nil {
		return err
	}

	attempts := 1
	if r.idempotent() {
		attempts += c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.roundTrip(ctx, r, payload, contentType)
		if err != nil {
			if attempt+1 < attempts && isRetryable(ctx, err) {
				c.logger.Debug().Err(err).Int("attempt", attempt+1).Str("path", r.path).Msg("Retrying request")
				lastErr = err
				continue
			}
			return err
		}

		if out == nil || len(bytes.TrimSpace(body)) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return errors.Wrapf(err, "decode %s response", r.path)
		}
		return nil
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

func (r request) encode() ([]byte, string, error) {
	if r.raw != nil {
		return r.raw, r.contentType, nil
	}
	if r.body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(r.body)
	if err != nil {
		return nil, "", errors.Wrap(err, "encode request")
	}
	return data, "application/json", nil
}

// roundTrip performs one HTTP exchange and returns the body of a 2xx reply.
func (c *Client) roundTrip(ctx context.Context, r request, payload []byte, contentType string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "rate limit")
		}
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, bodyReader)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.admin {
		c.mu.RLock()
		token := c.token
		c.mu.RUnlock()
		if token != "" {
			req.Header.Set(HeaderAPIKey, token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", r.method).Str("path", r.path).Msg("Request failed")
		return nil, errors.Wrapf(err, "%s %s", r.method, r.path)
	}
	defer resp.Body.Close()

	// Headers are not logged; they may carry the admin credential.
	c.logger.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("API response")

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newError(resp, body)
	}
	return body, nil
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, errors.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// isRetryable determines if an error should trigger a retry.
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// calculateBackoff returns the delay to wait before the next retry.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := c.backoff * time.Duration(1<<uint(attempt-1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

func documentPath(id int) string {
	return "/admin/documents/" + strconv.Itoa(id)
}

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		return nil
	}
	return url.Values{"limit": []string{strconv.Itoa(limit)}}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
