// Package backend is the HTTP adapter for the website-intelligence REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	domain "github.com/bryanwahyu/website-intel/internal/domain/scans"
	"github.com/bryanwahyu/website-intel/internal/domain/session"
)

const DefaultBaseURL = "http://localhost:8000"

// maxErrorBody caps how much of an error response is read for its detail.
const maxErrorBody = 64 << 10

// UnauthorizedHook runs once for every 401 response, whichever call got it.
type UnauthorizedHook func(sess *session.Session)

type Client struct {
	baseURL        *url.URL
	http           *http.Client
	onUnauthorized UnauthorizedHook
	logger         *log.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithUnauthorizedHook(h UnauthorizedHook) Option {
	return func(c *Client) { c.onUnauthorized = h }
}

func WithLogger(l *log.Logger) Option { return func(c *Client) { c.logger = l } }

// NewClient builds a client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: scheme and host required", baseURL)
	}
	c := &Client{baseURL: u, http: &http.Client{}, logger: log.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string { return c.baseURL.String() }

// SetUnauthorizedHook installs the hook after construction (wiring order in main).
func (c *Client) SetUnauthorizedHook(h UnauthorizedHook) { c.onUnauthorized = h }

// Login POST /auth/login
func (c *Client) Login(ctx context.Context, creds session.Credentials) (*session.Token, error) {
	var tok session.Token
	if err := c.do(ctx, nil, http.MethodPost, "/auth/login", nil, creds, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// CreateScan POST /scans/
func (c *Client) CreateScan(ctx context.Context, sess *session.Session, websiteURL string) (*domain.Scan, error) {
	body := struct {
		WebsiteURL string `json:"website_url"`
	}{websiteURL}
	var scan domain.Scan
	if err := c.do(ctx, sess, http.MethodPost, "/scans/", nil, body, &scan); err != nil {
		return nil, err
	}
	return &scan, nil
}

// ListScans GET /scans/?page=&page_size=
func (c *Client) ListScans(ctx context.Context, sess *session.Session, page, pageSize int) (*domain.ScanListResponse, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	var resp domain.ScanListResponse
	if err := c.do(ctx, sess, http.MethodGet, "/scans/", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetScan GET /scans/{id}
func (c *Client) GetScan(ctx context.Context, sess *session.Session, id domain.ScanID) (*domain.Scan, error) {
	var scan domain.Scan
	if err := c.do(ctx, sess, http.MethodGet, fmt.Sprintf("/scans/%d", id), nil, nil, &scan); err != nil {
		return nil, err
	}
	return &scan, nil
}

// DeleteScan DELETE /scans/{id}
func (c *Client) DeleteScan(ctx context.Context, sess *session.Session, id domain.ScanID) error {
	return c.do(ctx, sess, http.MethodDelete, fmt.Sprintf("/scans/%d", id), nil, nil, nil)
}

// Check pings GET /health; used by the readiness handler.
func (c *Client) Check(ctx context.Context) error {
	return c.do(ctx, nil, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, sess *session.Session, method, path string, query url.Values, in, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := domain.NewAPIError(resp.StatusCode, readDetail(resp.Body))
		if apiErr.Kind == domain.KindUnauthorized && c.onUnauthorized != nil && sess != nil {
			c.onUnauthorized(sess)
		}
		c.logger.Debug("backend error", "method", method, "path", path, "status", resp.StatusCode, "detail", apiErr.Detail)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// readDetail pulls {"detail": "..."} out of an error body. Non-string
// details (validation error lists) are ignored.
func readDetail(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(b) == 0 {
		return ""
	}
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(b, &body) != nil || len(body.Detail) == 0 {
		return ""
	}
	var detail string
	if json.Unmarshal(body.Detail, &detail) != nil {
		return ""
	}
	return strings.TrimSpace(detail)
}
