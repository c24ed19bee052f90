package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperjump/radar/internal/metrics"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.ydc-index.io/v1"
	defaultTimeout = 15 * time.Second
)

// ErrMissingAPIKey is returned by providers that have no API key configured.
var ErrMissingAPIKey = errors.New("search: missing API key")

// StatusError is a non-2xx response from the search provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search: provider returned %d: %s", e.StatusCode, e.Body)
}

// Provider runs one web search and returns the decoded JSON body.
type Provider interface {
	Search(ctx context.Context, query string) (map[string]any, error)
	// HasKey reports whether the provider can be called at all.
	HasKey() bool
}

// YouComClient talks to the You.com search API.
type YouComClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientOption configures a YouComClient.
type ClientOption func(*YouComClient)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *YouComClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient overrides the internal HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *YouComClient) { c.httpClient = hc }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *YouComClient) { c.logger = l }
}

// NewYouComClient creates a client for the given API key.
func NewYouComClient(apiKey string, opts ...ClientOption) *YouComClient {
	c := &YouComClient{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 2 * defaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasKey reports whether an API key is configured.
func (c *YouComClient) HasKey() bool {
	return c.apiKey != ""
}

// Search issues GET {base}/search?query=... with the X-API-Key header.
func (c *YouComClient) Search(ctx context.Context, query string) (map[string]any, error) {
	if !c.HasKey() {
		return nil, ErrMissingAPIKey
	}
	start := time.Now()
	body, err := c.do(ctx, query)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordSearch(status, time.Since(start))
	return body, err
}

func (c *YouComClient) do(ctx context.Context, query string) (map[string]any, error) {
	endpoint := c.baseURL + "/search?query=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call search provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return out, nil
}
