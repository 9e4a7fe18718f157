// Package report converts rendered HTML into PDF documents through Gotenberg.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	convertPath = "/forms/chromium/convert/html"
	healthPath  = "/health"

	// errorBodyLimit bounds how much of a failed conversion body is kept.
	errorBodyLimit = 4 << 10
)

// ErrDisabled is returned when no Gotenberg endpoint is configured.
var ErrDisabled = errors.New("report: gotenberg not configured")

// Client talks to a Gotenberg instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Options tune the chromium conversion.
type Options struct {
	Landscape bool
	WaitDelay time.Duration
	// Margin in inches applied to every side. Zero keeps Gotenberg's default.
	Margin float64
}

func (o Options) fields() map[string]string {
	fields := map[string]string{}
	if o.Landscape {
		fields["landscape"] = "true"
	}
	if o.WaitDelay > 0 {
		fields["waitDelay"] = o.WaitDelay.String()
	}
	if o.Margin > 0 {
		m := strconv.FormatFloat(o.Margin, 'f', -1, 64)
		for _, side := range []string{"marginTop", "marginBottom", "marginLeft", "marginRight"} {
			fields[side] = m
		}
	}
	return fields
}

// RenderError is a non-2xx answer from the conversion endpoint.
type RenderError struct {
	Status int
	Body   string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("report: render failed with status %d: %s", e.Status, e.Body)
}

// HTTPStatus surfaces conversion failures as a bad gateway.
func (e *RenderError) HTTPStatus() int { return http.StatusBadGateway }

// Detail is the message shown to API callers.
func (e *RenderError) Detail() string { return "konversi PDF gagal" }

// Health is the decoded body of Gotenberg's health endpoint.
type Health struct {
	Status  string                  `json:"status"`
	Details map[string]HealthDetail `json:"details,omitempty"`
}

// HealthDetail describes one Gotenberg module.
type HealthDetail struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Up reports whether Gotenberg and every listed module are up.
func (h Health) Up() bool {
	if h.Status != "up" {
		return false
	}
	for _, d := range h.Details {
		if d.Status != "up" {
			return false
		}
	}
	return true
}

// NewClient constructs a client. An empty baseURL yields a disabled client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a Gotenberg endpoint is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// Health fetches the health report. A reachable but unhealthy instance
// returns the decoded report together with an error.
func (c *Client) Health(ctx context.Context) (Health, error) {
	if !c.Enabled() {
		return Health{}, ErrDisabled
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return Health{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Health{}, fmt.Errorf("report: health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var health Health
	if err := json.NewDecoder(io.LimitReader(resp.Body, errorBodyLimit)).Decode(&health); err != nil || health.Status == "" {
		health = Health{Status: "up"}
		if resp.StatusCode >= http.StatusBadRequest {
			health.Status = "down"
		}
	}
	if resp.StatusCode >= http.StatusBadRequest || !health.Up() {
		return health, fmt.Errorf("report: gotenberg unhealthy (status %d)", resp.StatusCode)
	}
	return health, nil
}

// RenderHTML converts a self-contained HTML document into a PDF.
func (c *Client) RenderHTML(ctx context.Context, html string, opts Options) ([]byte, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	body, contentType, err := htmlForm(html, opts)
	if err != nil {
		return nil, fmt.Errorf("report: build form: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+convertPath, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("report: convert: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &RenderError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return io.ReadAll(resp.Body)
}

// htmlForm builds the multipart body Gotenberg expects: the document as
// index.html followed by the conversion fields.
func htmlForm(html string, opts Options) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, "", err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, "", err
	}
	for k, v := range opts.fields() {
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}
