// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the search and
// reasoning clients.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 500 * time.Millisecond

const (
	defaultMaxRetries = 3

	// maxBackoff caps a single wait so a hostile Retry-After header cannot
	// stall a run past its time budget.
	maxBackoff = 15 * time.Second
)

// retryable reports whether a status code is worth retrying. Search and
// reasoning providers signal transient pressure with 429 and gateway
// errors; anything else is the caller's problem.
func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// DoWithRetry executes an HTTP request and retries transient failures with
// exponential backoff: RetryBaseDelay doubled each attempt, capped at
// maxBackoff. A Retry-After header on a 429 takes precedence over the
// computed delay (still capped).
//
// When maxRetries is 0 the default (3) is used. Before each retry the
// response body is drained and closed. If the context ends during a backoff
// wait the function returns ctx.Err(). After exhausting retries the last
// response is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		backoff := RetryBaseDelay << attempt
		if resp.StatusCode == http.StatusTooManyRequests {
			if after := retryAfter(resp); after > 0 {
				backoff = after
			}
		}
		if backoff > maxBackoff {
			backoff = maxBackoff
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// retryAfter parses a Retry-After header given in seconds. HTTP-date form
// is ignored; the providers this package talks to only send seconds.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
