package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client is a Producer backed by a line-delimited streaming HTTP
// endpoint. Each response line is one chunk: either plain text or a JSON
// envelope (see DecodeChunk). An optional "data:" prefix and a trailing
// "[DONE]" marker are tolerated so SSE-flavoured endpoints work too.
//
// No timeout is imposed on the stream itself; a stalled stream blocks
// until the caller cancels the context.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	logger  *slog.Logger
}

// NewClient creates a streaming client for the given completions
// endpoint. apiKey may be empty for unauthenticated endpoints.
func NewClient(baseURL, apiKey string, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		// Only the connect phase is bounded; reading the stream is
		// governed by the request context alone.
		httpc:  &http.Client{Transport: &http.Transport{ResponseHeaderTimeout: 30 * time.Second}},
		logger: logger,
	}, nil
}

type streamRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Image  string `json:"image,omitempty"`
	Stream bool   `json:"stream"`
}

// Stream implements Producer.
func (c *Client) Stream(ctx context.Context, req Request, onChunk func(delta, full string)) (string, error) {
	body, err := json.Marshal(streamRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		Image:  req.Image,
		Stream: true,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("starting stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("stream endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	c.logger.Debug("stream started", "model", req.Model)

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		line = strings.TrimPrefix(line, "data:")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "[DONE]" {
			break
		}

		delta := DecodeChunk(line)
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if onChunk != nil {
			onChunk(delta, full.String())
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("reading stream: %w", err)
	}

	c.logger.Debug("stream finished", "model", req.Model, "bytes", full.Len())
	return full.String(), nil
}
