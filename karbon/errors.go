// ABOUTME: Error types surfaced by the Karbon API client
// ABOUTME: Distinguishes non-2xx responses from an exhausted rate-limit budget
package karbon

import "fmt"

// StatusError is any non-2xx response other than a retryable 429. It carries
// the status code and response body and is never retried.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("karbon: %s %s returned %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// RateLimitError means the request kept hitting 429 until the retry budget
// ran out.
type RateLimitError struct {
	Method   string
	URL      string
	Attempts int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("karbon: %s %s rate limited after %d attempts", e.Method, e.URL, e.Attempts)
}
