package echoyz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/echo-chat/internal/domain/summarizer"
)

const (
	defaultBaseURL   = "https://www.echoyz.net/api/generate"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	maxResponseBytes = 4 << 20
)

// Options configures the generate endpoint client.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client posts summarize payloads to the generate endpoint.
type Client struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
}

// NewClient constructs a generate endpoint client.
func NewClient(opts Options) (*Client, error) {
	endpoint := strings.TrimSpace(opts.BaseURL)
	if endpoint == "" {
		endpoint = defaultBaseURL
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, errors.New("echoyz base url must be an http(s) url")
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint:  endpoint,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Post sends one request. Non-2xx statuses are returned in the reply, not as errors.
func (c *Client) Post(ctx context.Context, payload summarizer.Payload) (summarizer.Reply, error) {
	httpReq, err := c.newHTTPRequest(ctx, payload)
	if err != nil {
		return summarizer.Reply{}, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return summarizer.Reply{}, fmt.Errorf("request generate: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return summarizer.Reply{}, fmt.Errorf("read generate response: %w", err)
	}
	return summarizer.Reply{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, payload summarizer.Payload) (*http.Request, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode generate request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	return httpReq, nil
}

var _ summarizer.Transport = (*Client)(nil)
