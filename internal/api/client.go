package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrDaemonUnavailable indicates the daemon API could not be reached.
var ErrDaemonUnavailable = errors.New("daemon not reachable")

// StatusError carries the decoded error body of a non-2xx API reply.
type StatusError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("api: http %d", e.StatusCode)
}

// Client talks to the daemon's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs an API client for the given bind address.
// Accepts either a host:port pair or a full http:// URL.
func NewClient(address string) *Client {
	address = strings.TrimSpace(address)
	if address != "" && !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}
	return &Client{
		baseURL:    strings.TrimRight(address, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Status fetches the daemon runtime status.
func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	var status DaemonStatus
	if err := c.getJSON(ctx, "/api/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CreateCase registers a new case with the given title.
func (c *Client) CreateCase(ctx context.Context, title string) (*CaseView, error) {
	body, err := json.Marshal(CreateCaseRequest{Title: title})
	if err != nil {
		return nil, fmt.Errorf("api: encode request: %w", err)
	}
	var resp CaseResponse
	if err := c.do(ctx, http.MethodPost, "/api/cases", "application/json", bytes.NewReader(body), &resp); err != nil {
		return nil, err
	}
	return &resp.Case, nil
}

// ListCases fetches cases, optionally filtered by lifecycle status.
func (c *Client) ListCases(ctx context.Context, statuses ...string) ([]CaseView, error) {
	path := "/api/cases"
	if len(statuses) > 0 {
		values := url.Values{}
		for _, status := range statuses {
			if trimmed := strings.TrimSpace(status); trimmed != "" {
				values.Add("status", trimmed)
			}
		}
		if encoded := values.Encode(); encoded != "" {
			path += "?" + encoded
		}
	}
	var resp CaseListResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Cases, nil
}

// GetCase fetches one case by identifier.
func (c *Client) GetCase(ctx context.Context, id string) (*CaseView, error) {
	var resp CaseResponse
	if err := c.getJSON(ctx, "/api/cases/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp.Case, nil
}

// UploadInput streams a local file to the daemon as the case's document or
// recording.
func (c *Client) UploadInput(ctx context.Context, id, role, path string) (*CaseView, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("api: open input file: %w", err)
	}
	defer file.Close()

	endpoint := fmt.Sprintf("/api/cases/%s/inputs/%s?filename=%s",
		url.PathEscape(id), url.PathEscape(role), url.QueryEscape(filepath.Base(path)))
	var resp CaseResponse
	if err := c.do(ctx, http.MethodPut, endpoint, "application/octet-stream", file, &resp); err != nil {
		return nil, err
	}
	return &resp.Case, nil
}

// StartRun queues the case for pipeline processing.
func (c *Client) StartRun(ctx context.Context, id string) (*CaseView, error) {
	var resp CaseResponse
	if err := c.do(ctx, http.MethodPost, "/api/cases/"+url.PathEscape(id)+"/run", "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Case, nil
}

// CaseStatus fetches the case plus its run snapshot when one exists.
func (c *Client) CaseStatus(ctx context.Context, id string) (*CaseStatusResponse, error) {
	var resp CaseStatusResponse
	if err := c.getJSON(ctx, "/api/cases/"+url.PathEscape(id)+"/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Document downloads the generated sentence document for a completed case.
func (c *Client) Document(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.request(ctx, http.MethodGet, "/api/cases/"+url.PathEscape(id)+"/document", "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeStatusError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: read document: %w", err)
	}
	return data, nil
}

// RemoveCase deletes a case.
func (c *Client) RemoveCase(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/cases/"+url.PathEscape(id), "", nil, nil)
}

// ClearCases bulk-removes finished cases. Scope may be "completed", "failed",
// or empty for every case not mid-run.
func (c *Client) ClearCases(ctx context.Context, scope string) (int64, error) {
	path := "/api/cases"
	if trimmed := strings.TrimSpace(scope); trimmed != "" {
		path += "?status=" + url.QueryEscape(trimmed)
	}
	var resp ClearResponse
	if err := c.do(ctx, http.MethodDelete, path, "", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

// RetryCase requeues a failed case for a fresh run.
func (c *Client) RetryCase(ctx context.Context, id string) (*CaseView, error) {
	var resp CaseResponse
	if err := c.do(ctx, http.MethodPost, "/api/cases/"+url.PathEscape(id)+"/retry", "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Case, nil
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	return c.do(ctx, http.MethodGet, path, "", nil, target)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, target any) error {
	resp, err := c.request(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeStatusError(resp)
	}
	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

func (c *Client) request(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	if c.baseURL == "" {
		return nil, ErrDaemonUnavailable
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("api: new request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDaemonUnavailable, err)
	}
	return resp, nil
}

func decodeStatusError(resp *http.Response) error {
	statusErr := &StatusError{StatusCode: resp.StatusCode}
	var payload ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload); err == nil {
		statusErr.Message = strings.TrimSpace(payload.Error)
		statusErr.Code = strings.TrimSpace(payload.Code)
	}
	return statusErr
}
