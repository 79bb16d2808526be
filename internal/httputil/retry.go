// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the retrying HTTP round trip used by the
// GraphQL client.
package httputil

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/pdiddy/leaderboard/pkg/types"
)

// Outcome reports how many attempts DoWithRetry made.
type Outcome struct {
	Attempts int
}

// DoWithRetry executes req and retries on the statuses listed in policy and
// on transport errors. The wait before retry n (0-based) is
// policy.BackoffFactor * 2^n: 0.8s, 1.6s, 3.2s, 6.4s with the defaults.
//
// A zero MaxAttempts falls back to the default policy's value. Requests with
// a body must be built so that GetBody is set (http.NewRequest does this for
// bytes.Reader), since the body is re-read on every attempt.
//
// After exhausting attempts on a retryable status the last response is
// returned so the caller can inspect it. After exhausting attempts on
// transport errors the last error is returned. Context cancellation during
// a backoff wait returns ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, policy types.RetryPolicy) (*http.Response, Outcome, error) {
	maxAttempts := policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = types.DefaultRetryPolicy().MaxAttempts
	}

	var out Outcome
	for attempt := 0; ; attempt++ {
		out.Attempts = attempt + 1

		attemptReq, err := cloneWithBody(ctx, req)
		if err != nil {
			return nil, out, err
		}

		resp, err := client.Do(attemptReq)
		last := attempt+1 >= maxAttempts
		if err != nil {
			if ctx.Err() != nil {
				return nil, out, ctx.Err()
			}
			if last {
				return nil, out, err
			}
		} else {
			if !policy.Retryable(resp.StatusCode) || last {
				return resp, out, nil
			}
			// Drain and close the body before retrying.
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, out, ctx.Err()
		case <-time.After(Backoff(policy.BackoffFactor, attempt)):
		}
	}
}

// Backoff returns the wait before retry n (0-based).
func Backoff(factor time.Duration, n int) time.Duration {
	return time.Duration(math.Pow(2, float64(n))) * factor
}

func cloneWithBody(ctx context.Context, req *http.Request) (*http.Request, error) {
	c := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewinding request body: %w", err)
		}
		c.Body = body
	}
	return c, nil
}
