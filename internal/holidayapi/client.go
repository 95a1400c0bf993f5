// Package holidayapi talks to the remote holiday/festival data service.
package holidayapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	EndpointHolidays  = "holidays"
	EndpointFestivals = "festivals"
)

// Recorder observes fetch outcomes. *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveFetch(endpoint string, ok bool, d time.Duration)
}

// Client issues GET requests against the data API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	recorder   Recorder
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used to report failed fetches.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

var errNoData = errors.New("response has no data")

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// Fetch performs GET baseURL/endpoint?params and returns the payload under
// the response's "data" key. Any failure, including a missing or null
// "data" key, yields (nil, false); the cause is logged, never returned.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, bool) {
	start := time.Now()
	data, err := c.fetch(ctx, endpoint, params)
	ok := err == nil
	if c.recorder != nil {
		c.recorder.ObserveFetch(endpoint, ok, time.Since(start))
	}
	if err != nil {
		c.logger.Warn("holiday api fetch failed",
			zap.String("endpoint", endpoint),
			zap.String("params", params.Encode()),
			zap.Error(err),
		)
		return nil, false
	}
	return data, true
}

func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	u := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, errNoData
	}
	return json.RawMessage(data), nil
}
