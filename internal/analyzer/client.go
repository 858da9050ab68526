// Package analyzer calls the external VAD model and turns its output into
// validated emotion analyses.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrAnalysisFailed is returned when the service reports failure or its
// reply cannot be used.
var ErrAnalysisFailed = errors.New("emotion analysis failed")

// ErrNotConfigured is returned by New when no service URL is set.
var ErrNotConfigured = errors.New("analyzer URL not configured")

// Config configures the client.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Client posts audio to {URL}/analyze.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.URL, "/"),
	}, nil
}

// Analyze uploads one recording and decodes the model's reply.
func (c *Client) Analyze(ctx context.Context, audio []byte, filename string) (*Response, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, fmt.Errorf("writing audio: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", &b)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyze request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading analyze response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: %s", ErrAnalysisFailed, resp.Status, strings.TrimSpace(string(body)))
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrAnalysisFailed, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrAnalysisFailed, out.Error)
	}
	out.Body = body
	return &out, nil
}
