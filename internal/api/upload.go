package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// UploadVideo streams the file at upload.FilePath as a multipart request to
// the parent job's site-video endpoint. The client id rides along as a form
// field so a repeated upload after a lost acknowledgment stays idempotent.
func (c *httpClient) UploadVideo(ctx context.Context, upload VideoUpload) (*VideoRecord, error) {
	file, err := os.Open(upload.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open video file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("client_id", upload.ClientID); err != nil {
		return nil, fmt.Errorf("write client_id field: %w", err)
	}
	part, err := writer.CreateFormFile("video", filepath.Base(upload.FilePath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy video data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	path := "/api/v1/jobs/" + url.PathEscape(upload.JobID) + "/site-video"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: upload video: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, readErrorBody(resp.Body))
	}

	var record VideoRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return &record, nil
}
