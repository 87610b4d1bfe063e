package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rickgao/okx-withdrawals/internal/auth"
)

// DefaultBaseURL is the production REST host.
const DefaultBaseURL = "https://www.okx.com"

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Client provides access to the OKX REST API.
type Client struct {
	baseURL    string
	creds      *auth.Credentials
	httpClient *http.Client
	logger     *slog.Logger

	demo  bool
	retry RetryPolicy

	// Injected for tests.
	sleep SleepFunc
	now   func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client. creds may be nil for public endpoints.
func NewClient(baseURL string, creds *auth.Credentials, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
		retry:  DefaultRetryPolicy(),
		sleep:  sleepContext,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the per-call HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the attempt budget and initial backoff, keeping the
// default multiplier and retry predicate.
func WithRetries(maxAttempts int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.retry.MaxAttempts = maxAttempts
		c.retry.InitialBackoff = backoff
	}
}

// WithRetryPolicy replaces the retry policy.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) {
		c.retry = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithDemoTrading marks every request as simulated trading.
func WithDemoTrading(demo bool) ClientOption {
	return func(c *Client) {
		c.demo = demo
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
