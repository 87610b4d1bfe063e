package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rickgao/okx-withdrawals/internal/version"
)

// SuccessCode is the envelope code of a successful response.
const SuccessCode = "0"

// APIError is a response the server delivered successfully but rejected at
// the application level (envelope code other than "0").
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("okx api error: code=%s msg=%s", e.Code, e.Message)
}

// HTTPError is a non-2xx HTTP response.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("okx http error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true for rate limiting and server-side failures.
func (e *HTTPError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// NetworkError is a connection-level failure: no complete response arrived.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// envelope is the common response wrapper.
type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// requestPath joins path and the encoded query exactly as it is sent and signed.
func requestPath(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

// doRequest performs a single signed HTTP request.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	reqPath := requestPath(path, query)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+reqPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if c.demo {
		req.Header.Set("x-simulated-trading", "1")
	}
	if c.creds != nil {
		headers, err := c.creds.SignRequestAt(c.now(), method, reqPath)
		if err != nil {
			return nil, fmt.Errorf("sign request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "do request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return body, nil
}

// doWithRetry performs a request under the client's retry policy. Every
// attempt is signed with a fresh timestamp.
func (c *Client) doWithRetry(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	var body []byte

	err := c.retry.Do(ctx, c.sleep, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"path", path,
			)
		}

		b, err := c.doRequest(ctx, method, path, query)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return body, nil
}

// Get performs a GET request with retries, checks the envelope code and
// decodes the data array into result.
func (c *Client) Get(ctx context.Context, path string, query url.Values, result any) error {
	body, err := c.doWithRetry(ctx, http.MethodGet, path, query)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if env.Code != SuccessCode {
		return &APIError{Code: env.Code, Message: env.Msg}
	}

	if result == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}

	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}

	return nil
}

// IsRetryable reports whether err is a transient transport failure.
func IsRetryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.IsRetryable()
	}

	var netErr *NetworkError
	return errors.As(err, &netErr)
}
