// Package openai is a minimal client for chat completions and audio
// transcription on OpenAI-compatible endpoints.
package openai

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

	"golang.org/x/oauth2"
)

const userAgent = "voice-diary/1.0"

// Sentinel errors.
var (
	// ErrMissingAPIKey is returned by New when no key is configured.
	ErrMissingAPIKey = errors.New("missing OpenAI API key")

	// ErrRateLimited is returned when the API rate limit is exceeded after retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidAPIKey is returned when the API rejects the key.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrEmptyResponse is returned when a completion has no content.
	ErrEmptyResponse = errors.New("empty response")

	errServer = errors.New("server error")
)

// Config holds client configuration.
type Config struct {
	APIKey             string
	BaseURL            string
	ChatModel          string
	TranscriptionModel string
	Language           string
	Timeout            time.Duration
}

// Client talks to the API with bearer authentication from a static token source.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	chatModel   string
	transModel  string
	language    string
	retryDelays []time.Duration
}

// New creates a client. The API key is attached by an oauth2 transport.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &oauth2.Transport{Source: src, Base: http.DefaultTransport},
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		chatModel:   cfg.ChatModel,
		transModel:  cfg.TranscriptionModel,
		language:    cfg.Language,
		retryDelays: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}, nil
}

// Complete runs a chat completion and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.chatModel,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	respBody, err := c.doRequest(ctx, "/chat/completions", "application/json", body)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("parsing chat response: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// Transcribe sends audio to the transcription endpoint and returns the text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}
	if err := w.WriteField("model", c.transModel); err != nil {
		return "", fmt.Errorf("writing model field: %w", err)
	}
	if c.language != "" {
		if err := w.WriteField("language", c.language); err != nil {
			return "", fmt.Errorf("writing language field: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing multipart writer: %w", err)
	}

	respBody, err := c.doRequest(ctx, "/audio/transcriptions", w.FormDataContentType(), buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}

	var resp transcriptionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("parsing transcription response: %w", err)
	}
	return resp.Text, nil
}

// doRequest performs a POST with retry on rate limiting and server errors.
// Retries up to 3 times with exponential backoff (1s, 2s, 4s).
func (c *Client) doRequest(ctx context.Context, path, contentType string, body []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= len(c.retryDelays); attempt++ {
		// Wait before retry (skip on first attempt)
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelays[attempt-1]):
			}
		}

		respBody, err := c.doSingleRequest(ctx, path, contentType, body)
		if err == nil {
			return respBody, nil
		}

		if errors.Is(err, ErrRateLimited) || errors.Is(err, errServer) {
			lastErr = err
			continue
		}

		// Non-retryable error
		return nil, err
	}

	return nil, lastErr
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, path, contentType string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return respBody, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrInvalidAPIKey
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s", errServer, resp.Status)
	}

	var apiErr errorResponse
	if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, apiErr.Error.Message)
	}
	return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
}
