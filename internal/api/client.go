package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"jobsync/internal/config"
)

// Client defines the remote operations the sync engine requires. Identifier
// parameters accept a server id when the mapping is known and fall back to the
// client-generated id, which the server honors as an idempotency key.
type Client interface {
	CreateJob(ctx context.Context, req JobRequest) (*JobRecord, error)
	UpdateJob(ctx context.Context, jobID string, req JobRequest) (*JobRecord, error)
	DeleteJob(ctx context.Context, jobID string) error
	ListJobs(ctx context.Context) ([]JobRecord, error)

	CreateNote(ctx context.Context, jobID string, req NoteRequest) (*NoteRecord, error)
	UpdateNote(ctx context.Context, jobID, noteID string, req NoteRequest) (*NoteRecord, error)
	DeleteNote(ctx context.Context, jobID, noteID string) error

	UploadVideo(ctx context.Context, upload VideoUpload) (*VideoRecord, error)
}

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

type httpClient struct {
	baseURL string
	token   string
	timeout time.Duration
	client  HTTPDoer
}

// NewHTTPClient constructs a Client using the provided HTTP backend. When doer
// is nil a default http.Client is used.
func NewHTTPClient(baseURL, token string, timeout time.Duration, doer HTTPDoer) Client {
	if doer == nil {
		doer = &http.Client{}
	}
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: timeout,
		client:  doer,
	}
}

// NewFromConfig constructs a Client from application configuration.
func NewFromConfig(cfg *config.Config) Client {
	return NewHTTPClient(cfg.API.BaseURL, cfg.API.Token,
		time.Duration(cfg.API.RequestTimeout)*time.Second, nil)
}

func (c *httpClient) CreateJob(ctx context.Context, req JobRequest) (*JobRecord, error) {
	var record JobRecord
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/jobs", req, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *httpClient) UpdateJob(ctx context.Context, jobID string, req JobRequest) (*JobRecord, error) {
	var record JobRecord
	path := "/api/v1/jobs/" + url.PathEscape(jobID)
	if err := c.doJSON(ctx, http.MethodPut, path, req, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *httpClient) DeleteJob(ctx context.Context, jobID string) error {
	path := "/api/v1/jobs/" + url.PathEscape(jobID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *httpClient) ListJobs(ctx context.Context) ([]JobRecord, error) {
	var records []JobRecord
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/jobs", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *httpClient) CreateNote(ctx context.Context, jobID string, req NoteRequest) (*NoteRecord, error) {
	var record NoteRecord
	path := "/api/v1/jobs/" + url.PathEscape(jobID) + "/notes"
	if err := c.doJSON(ctx, http.MethodPost, path, req, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *httpClient) UpdateNote(ctx context.Context, jobID, noteID string, req NoteRequest) (*NoteRecord, error) {
	var record NoteRecord
	path := "/api/v1/jobs/" + url.PathEscape(jobID) + "/notes/" + url.PathEscape(noteID)
	if err := c.doJSON(ctx, http.MethodPut, path, req, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *httpClient) DeleteNote(ctx context.Context, jobID, noteID string) error {
	path := "/api/v1/jobs/" + url.PathEscape(jobID) + "/notes/" + url.PathEscape(noteID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *httpClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, readErrorBody(resp.Body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *httpClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func readErrorBody(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 512))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
