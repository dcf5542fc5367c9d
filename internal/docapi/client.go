package docapi

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
)

// DocumentService defines the remote document operations editer relies on.
// This interface is implemented by *Client and can be replaced in tests.
type DocumentService interface {
	GetDocument(ctx context.Context, shareID string) (*Document, error)
	CreateDocument(ctx context.Context, content string) (*Document, error)
	UpdateDocument(ctx context.Context, shareID, content string) (*Document, error)
}

// Ensure Client implements DocumentService at compile time.
var _ DocumentService = (*Client)(nil)

// Client talks to the document REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultBaseURL   = "http://localhost:8000"
	defaultUserAgent = "editer/0.1"
	requestTimeout   = 10 * time.Second
	documentsPath    = "/api/v1/documents"
	maxErrorBody     = 4 << 10
)

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Status     int
	StatusText string
	Path       string
	Detail     string
}

func (e *StatusError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// RequestError is returned when a request never produced a response.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewClient builds a Client for baseURL ("host:port" or a full URL).
func NewClient(baseURL string) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// GetDocument fetches a document by share id.
func (c *Client) GetDocument(ctx context.Context, shareID string) (*Document, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	path, err := documentPath(shareID)
	if err != nil {
		return nil, err
	}
	var payload Document
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// CreateDocument stores new content and returns the document with its
// freshly assigned share id.
func (c *Client) CreateDocument(ctx context.Context, content string) (*Document, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload Document
	if err := c.do(ctx, http.MethodPost, documentsPath, ContentRequest{Content: content}, &payload); err != nil {
		return nil, err
	}
	if strings.TrimSpace(payload.ShareID) == "" {
		return nil, fmt.Errorf("create document: response has no share_id")
	}
	return &payload, nil
}

// UpdateDocument replaces the content of an existing document.
func (c *Client) UpdateDocument(ctx context.Context, shareID, content string) (*Document, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	path, err := documentPath(shareID)
	if err != nil {
		return nil, err
	}
	var payload Document
	if err := c.do(ctx, http.MethodPut, path, ContentRequest{Content: content}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func documentPath(shareID string) (string, error) {
	trimmed := strings.TrimSpace(shareID)
	if trimmed == "" {
		return "", fmt.Errorf("share id required")
	}
	if strings.ContainsAny(trimmed, "/?#") {
		return "", fmt.Errorf("invalid share id %q", shareID)
	}
	return documentsPath + "/" + trimmed, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Op: "execute request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Path:       rel.String(),
			Detail:     readDetail(resp.Body),
		}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// readDetail extracts the "detail" field error bodies usually carry, falling
// back to the trimmed body text.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if s, ok := payload.Detail.(string); ok {
			return s
		}
	}
	return strings.TrimSpace(string(data))
}

func parseBaseURL(baseURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", baseURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", baseURL)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
