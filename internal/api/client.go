package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lansepyy/article-admin/internal/config"
	"github.com/lansepyy/article-admin/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// ErrCircuitOpen is returned when the breaker rejects a call without sending it.
var ErrCircuitOpen = errors.New("catalog API circuit open")

// APIError is returned when the catalog API answers with an error status
// or a non-success envelope code.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client is the HTTP wrapper around the catalog REST API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	maxRetries  int
	baseBackoff time.Duration
	log         *logrus.Entry
}

// NewClient creates a new API client from the api config section.
func NewClient(c config.API) *Client {
	baseURL := strings.TrimRight(c.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := c.MaxRetries
	if retries < 1 {
		retries = 1
	}

	limit := rate.Inf
	if c.RatePerSecond > 0 {
		limit = rate.Limit(c.RatePerSecond)
	}

	return &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(limit, 1),
		breaker:     newBreaker(baseURL),
		maxRetries:  retries,
		baseBackoff: time.Second,
		log:         logging.WithComponent("api"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		// Client errors say nothing about the health of the server.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.Temporary()
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// SetBackoff overrides the base retry delay. Attempt n waits base*2^(n-1).
func (c *Client) SetBackoff(base time.Duration) {
	c.baseBackoff = base
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request performs one API call and returns the raw response body.
// Retries automatically on connection errors, HTTP 5xx and 429 with exponential back-off.
func (c *Client) Request(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.requestWithRetry(ctx, method, endpoint, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func (c *Client) requestWithRetry(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	urlStr := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(endpoint, "/"))
	requestID := uuid.New().String()
	log := c.log.WithFields(logrus.Fields{"method": method, "url": urlStr, "request_id": requestID})
	log.Debug("request")

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, urlStr, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set(RequestIDHeader, requestID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt < c.maxRetries {
				wait := c.backoff(attempt)
				log.WithField("attempt", attempt).Warnf("connection error; retrying in %v", wait)
				if err := sleep(ctx, wait); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastErr
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode >= 400 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
			if !apiErr.Temporary() {
				return nil, apiErr
			}
			lastErr = apiErr
			if attempt < c.maxRetries {
				wait := c.backoff(attempt)
				if resp.StatusCode == http.StatusTooManyRequests {
					if ra := resp.Header.Get("Retry-After"); ra != "" {
						if secs, err := strconv.Atoi(ra); err == nil {
							wait = time.Duration(secs) * time.Second
						}
					}
				}
				log.WithFields(logrus.Fields{"attempt": attempt, "status": resp.StatusCode}).Warnf("retrying in %v", wait)
				if err := sleep(ctx, wait); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastErr
		}

		log.WithFields(logrus.Fields{"status": resp.StatusCode, "bytes": len(respBody)}).Debug("response")
		return respBody, nil
	}

	return nil, lastErr
}

func (c *Client) backoff(attempt int) time.Duration {
	return c.baseBackoff * time.Duration(1<<(attempt-1))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
