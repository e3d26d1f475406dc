package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultTimeout = 60 * time.Second

// ClientOptions configures the HTTP client shared by the catalog adapters.
type ClientOptions struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Logger            *zap.SugaredLogger
}

// Client handles HTTP communication with the catalogs and file hosts.
type Client struct {
	UserAgent   string
	HTTPClient  *http.Client
	RateLimiter *rate.Limiter
	log         *zap.SugaredLogger
}

// NewClient creates a rate-limited HTTP client.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.UserAgent == "" {
		return nil, fmt.Errorf("USERAGENT is not configured")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Client{
		UserAgent:   opts.UserAgent,
		HTTPClient:  &http.Client{Timeout: opts.Timeout},
		RateLimiter: rate.NewLimiter(limit, burst),
		log:         log,
	}, nil
}

func (c *Client) makeRequest(ctx context.Context, fullURL string, isBinary bool) (*http.Response, error) {
	if err := c.RateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.UserAgent)
	if !isBinary {
		req.Header.Set("Accept", "application/json")
	} else {
		req.Header.Set("Accept", "application/octet-stream")
	}

	c.log.Debugw("Request", zap.String("url", fullURL), zap.Bool("binary", isBinary))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, &StatusError{URL: fullURL, StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}
	return resp, nil
}

// getJSON fetches fullURL and decodes the body into target.
func (c *Client) getJSON(ctx context.Context, fullURL string, target any) error {
	resp, err := c.makeRequest(ctx, fullURL, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode json response from %s: %w", fullURL, err)
	}
	return nil
}

// FetchBinary downloads the full body at fileURL.
func (c *Client) FetchBinary(ctx context.Context, fileURL string) ([]byte, error) {
	resp, err := c.makeRequest(ctx, fileURL, true)
	if err != nil {
		return nil, fmt.Errorf("failed to start download from %s: %w", fileURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read download from %s: %w", fileURL, err)
	}
	return data, nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api request to %s failed: status %d, body: %s", e.URL, e.StatusCode, e.Body)
}
