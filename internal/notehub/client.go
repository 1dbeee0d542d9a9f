// Package notehub is a typed client for the remote NoteHub notes API.
package notehub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/starford/notehub/internal/apperr"
	"github.com/starford/notehub/internal/models"
)

// DefaultBaseURL is the production NoteHub endpoint.
const DefaultBaseURL = "https://notehub-public.goit.study/api"

// Client talks to the NoteHub REST API. It never retries; callers decide.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithTimeout sets a hard per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.client = &http.Client{Timeout: d, Transport: c.client.Transport}
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for baseURL that authenticates with token.
// An empty token is sent as-is; the server rejects it.
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListParams selects a page of notes.
type ListParams struct {
	Page    int
	PerPage int
	Search  string
}

type listResponse struct {
	Data       []models.Note `json:"data"`
	Notes      []models.Note `json:"notes"`
	Page       int           `json:"page"`
	PerPage    int           `json:"perPage"`
	TotalPages int           `json:"totalPages"`
	TotalItems int           `json:"totalItems"`
}

type noteEnvelope struct {
	Data *models.Note `json:"data"`
}

// ListNotes fetches one page of notes. Search is omitted when blank.
func (c *Client) ListNotes(ctx context.Context, p ListParams) (*models.PageResult, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("perPage", strconv.Itoa(p.PerPage))
	if strings.TrimSpace(p.Search) != "" {
		q.Set("search", p.Search)
	}

	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/notes?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	notes := resp.Data
	if notes == nil {
		notes = resp.Notes
	}
	if notes == nil {
		notes = []models.Note{}
	}
	page := resp.Page
	if page == 0 {
		page = p.Page
	}
	perPage := resp.PerPage
	if perPage == 0 {
		perPage = p.PerPage
	}
	return &models.PageResult{
		Notes:      notes,
		Page:       page,
		PerPage:    perPage,
		TotalPages: resp.TotalPages,
		TotalItems: resp.TotalItems,
	}, nil
}

// CreateNote submits draft and returns the server-assigned note.
func (c *Client) CreateNote(ctx context.Context, draft models.NoteDraft) (*models.Note, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft: %w", err)
	}
	note, err := c.doNote(ctx, http.MethodPost, "/notes", body)
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return note, nil
}

// DeleteNote deletes the note with id and returns the deleted note.
func (c *Client) DeleteNote(ctx context.Context, id string) (*models.Note, error) {
	note, err := c.doNote(ctx, http.MethodDelete, "/notes/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("delete note %s: %w", id, err)
	}
	return note, nil
}

// doNote decodes either a {"data": Note} envelope or a bare Note.
func (c *Client) doNote(ctx context.Context, method, path string, body []byte) (*models.Note, error) {
	var raw json.RawMessage
	if err := c.do(ctx, method, path, body, &raw); err != nil {
		return nil, err
	}
	var env noteEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Data != nil {
		return env.Data, nil
	}
	var note models.Note
	if err := json.Unmarshal(raw, &note); err != nil || note.ID == "" {
		return nil, &apperr.RequestError{Kind: apperr.KindUnknown, Message: "unexpected response body", Err: err}
	}
	return &note, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &apperr.RequestError{Kind: apperr.KindUnknown, Message: "failed to create request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("notehub request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()))
		return &apperr.RequestError{Kind: apperr.KindNetwork, Message: "request failed", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.logger.Debug("notehub request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &apperr.RequestError{
			Kind:    classify(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: errorMessage(resp.StatusCode, raw),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		kind := apperr.KindUnknown
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			kind = apperr.KindNetwork
		}
		return &apperr.RequestError{Kind: kind, Status: resp.StatusCode, Message: "failed to decode response", Err: err}
	}
	return nil
}

// classify maps an HTTP status to an error kind. 404 is reported as a
// server error so that deleting a missing note surfaces like any other
// server-side rejection.
func classify(status int) apperr.Kind {
	switch {
	case status == http.StatusUnauthorized:
		return apperr.KindAuthFailure
	case status == http.StatusNotFound, status >= 500:
		return apperr.KindServerError
	default:
		return apperr.KindUnknown
	}
}

func errorMessage(status int, raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && len(text) <= 200 {
		return text
	}
	return http.StatusText(status)
}
