// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package httpclient provides a retrying HTTP client for the embedding
// backends. Transient upstream failures (429, 5xx) are retried with
// exponential backoff, honoring Retry-After when the server sends one.
package httpclient

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"
)

// Client wraps http.Client with retry behavior.
type Client struct {
	client     *http.Client
	maxRetries int
	baseDelay  time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.client = client }
}

// WithMaxRetries sets how many times a retryable request is re-attempted.
func WithMaxRetries(max int) Option {
	return func(c *Client) { c.maxRetries = max }
}

// WithBaseDelay sets the backoff base delay.
func WithBaseDelay(delay time.Duration) Option {
	return func(c *Client) { c.baseDelay = delay }
}

// WithTimeout sets the per-request timeout on the underlying client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.client.Timeout = timeout }
}

// New creates a retrying client. Defaults: 3 retries, 1s base delay,
// 30s request timeout.
func New(opts ...Option) *Client {
	client := &Client{
		client:     &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
		baseDelay:  time.Second,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Do executes the request, retrying retryable failures. The request needs
// GetBody set (http.NewRequest does this for common body types) so the
// body can be replayed on retry.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("recreate request body for retry: %w", err)
			}
			req.Body = body
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			if ctxErr := req.Context().Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if attempt < c.maxRetries {
				c.sleep(attempt, 0)
			}
			continue
		}

		if !retryable(resp.StatusCode) {
			return resp, nil
		}

		lastErr = &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d from %s", resp.StatusCode, req.URL.Host),
		}
		retryAfter := parseRetryAfter(resp.Header)
		resp.Body.Close()

		if attempt < c.maxRetries {
			c.sleep(attempt, retryAfter)
		}
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

func retryable(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (c *Client) sleep(attempt int, retryAfter time.Duration) {
	delay := retryAfter
	if delay <= 0 {
		delay = time.Duration(math.Pow(2, float64(attempt))) * c.baseDelay
	}
	time.Sleep(delay)
}

// parseRetryAfter reads a Retry-After header given in seconds or as an
// HTTP date.
func parseRetryAfter(headers http.Header) time.Duration {
	value := headers.Get("Retry-After")
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// RetryableError records the last retryable upstream status when retries
// are exhausted.
type RetryableError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *RetryableError) Error() string {
	return e.Message
}
