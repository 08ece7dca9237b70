// ABOUTME: Resilient HTTP client for the Karbon v3 API
// ABOUTME: Handles auth headers, 429 Retry-After backoff, and JSON-or-text responses
package karbon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// maxRateLimitRetries is the number of additional attempts allowed after the
// first request comes back 429. Only rate limiting is retried; every other
// failure surfaces immediately.
const maxRateLimitRetries = 10

const defaultRetryAfter = 1 * time.Second

var errRateLimited = errors.New("rate limited")

// Client talks to the Karbon v3 API. The bearer token rides on the underlying
// transport via oauth2; the tenant AccessKey is attached per request.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accessKey  string
	noteAuthor string
	log        *slog.Logger

	// Overridable in tests to avoid real sleeps during 429 backoff.
	timer backoff.Timer
}

// NewClient builds a client for the given API root (e.g.
// "https://api.karbonhq.com/v3").
func NewClient(baseURL, bearerToken, accessKey, noteAuthor string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: bearerToken})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = 30 * time.Second
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		accessKey:  accessKey,
		noteAuthor: noteAuthor,
		log:        logger,
	}
}

// retryAfterBackOff waits exactly as long as the last 429 told us to.
type retryAfterBackOff struct {
	delay time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration { return b.delay }
func (b *retryAfterBackOff) Reset()                     {}

// Do sends one API request and returns the response body as raw JSON. A
// non-JSON 2xx body is returned as a JSON-encoded string; some Karbon
// endpoints answer in plain text. 429s are retried per Retry-After up to
// maxRateLimitRetries; all other failures return immediately.
func (c *Client) Do(ctx context.Context, method, endpoint string, body any, query url.Values) (json.RawMessage, error) {
	reqURL := c.baseURL + "/" + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("karbon: encoding %s %s body: %w", method, reqURL, err)
		}
	}

	requestID := uuid.NewString()
	log := c.log.With("method", method, "url", reqURL, "request_id", requestID)

	bo := &retryAfterBackOff{delay: defaultRetryAfter}
	var raw json.RawMessage

	op := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("karbon: building %s %s: %w", method, reqURL, err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("AccessKey", c.accessKey)
		req.Header.Set("X-Request-Id", requestID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Error("request failed", "error", err)
			return backoff.Permanent(fmt.Errorf("karbon: %s %s: %w", method, reqURL, err))
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			log.Error("reading response failed", "error", err)
			return backoff.Permanent(fmt.Errorf("karbon: reading %s %s response: %w", method, reqURL, err))
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			bo.delay = retryAfterDelay(resp.Header)
			log.Warn("rate limited", "retry_after", bo.delay)
			return errRateLimited
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			log.Error("request rejected", "status", resp.StatusCode)
			return backoff.Permanent(&StatusError{Method: method, URL: reqURL, Code: resp.StatusCode, Body: string(data)})
		}

		log.Info("request succeeded", "status", resp.StatusCode)
		raw = normalizeBody(data)
		return nil
	}

	err := backoff.RetryNotifyWithTimer(op,
		backoff.WithContext(backoff.WithMaxRetries(bo, maxRateLimitRetries), ctx),
		nil, c.timer)
	if err != nil {
		if errors.Is(err, errRateLimited) {
			log.Error("rate limit retries exhausted")
			return nil, &RateLimitError{Method: method, URL: reqURL, Attempts: maxRateLimitRetries + 1}
		}
		return nil, err
	}
	return raw, nil
}

// retryAfterDelay reads the Retry-After header in seconds, defaulting to one
// second when the header is absent or unparseable.
func retryAfterDelay(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return defaultRetryAfter
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

// normalizeBody returns the body unchanged when it is valid JSON, otherwise
// wraps the raw text in a JSON string so callers always get JSON back.
func normalizeBody(data []byte) json.RawMessage {
	if len(bytes.TrimSpace(data)) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(data) {
		return json.RawMessage(data)
	}
	wrapped, _ := json.Marshal(string(data))
	return json.RawMessage(wrapped)
}
