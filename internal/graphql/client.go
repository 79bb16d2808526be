// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graphql sends a single GraphQL query over HTTP POST and returns
// the raw JSON body. Transient server errors are retried according to the
// client's RetryPolicy.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/leaderboard/internal/httputil"
	"github.com/pdiddy/leaderboard/pkg/types"
)

const (
	// DefaultEndpoint is the GitHub GraphQL API.
	DefaultEndpoint = "https://api.github.com/graphql"

	defaultTimeout = 20 * time.Second

	// maxErrorBody caps how much of a failed response is kept in errors.
	maxErrorBody = 64 << 10
)

// ErrRetriesExhausted is the cause of a NetworkFailure whose every attempt
// got a retryable status.
var ErrRetriesExhausted = errors.New("retries exhausted")

// NetworkFailure means the request could not be completed: every attempt
// ended in a transport error (connection refused, DNS, per-attempt timeout),
// or every attempt got a retryable status. In the latter case StatusCode
// holds the last status and Err is ErrRetriesExhausted; otherwise
// StatusCode is 0.
type NetworkFailure struct {
	Attempts   int
	StatusCode int
	Err        error
}

func (e *NetworkFailure) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("graphql request failed after %d attempt(s), last status %d: %v", e.Attempts, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("graphql request failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *NetworkFailure) Unwrap() error { return e.Err }

// RequestFailure means the final response had a non-200 status, either
// because the status is not retryable or because attempts ran out. When
// attempts ran out it also unwraps to a *NetworkFailure, so both
// errors.As(err, &RequestFailure) and errors.As(err, &NetworkFailure) hold.
type RequestFailure struct {
	StatusCode int
	// Body is the response body, cut at maxErrorBody bytes and suffixed
	// with TruncatedMarker when longer.
	Body     string
	Attempts int

	exhausted bool
}

func (e *RequestFailure) Error() string {
	return fmt.Sprintf("request failed with code of %d after %d attempt(s)\n%s", e.StatusCode, e.Attempts, e.Body)
}

// Exhausted reports whether the status was retryable and every attempt was
// spent on it.
func (e *RequestFailure) Exhausted() bool { return e.exhausted }

func (e *RequestFailure) Unwrap() error {
	if !e.exhausted {
		return nil
	}
	return &NetworkFailure{Attempts: e.Attempts, StatusCode: e.StatusCode, Err: ErrRetriesExhausted}
}

// TruncatedMarker ends a RequestFailure body that was cut short.
const TruncatedMarker = "\n... (truncated)"

// Client posts queries to a single GraphQL endpoint.
type Client struct {
	http *http.Client
	cfg  types.ClientConfig
}

// New validates cfg, fills defaults, and returns a Client. The token is
// required; an empty endpoint falls back to DefaultEndpoint.
func New(cfg types.ClientConfig) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("authorization token is empty: set GITHUB_TOKEN")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	def := types.DefaultRetryPolicy()
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = def.MaxAttempts
	}
	if cfg.Retry.BackoffFactor <= 0 {
		cfg.Retry.BackoffFactor = def.BackoffFactor
	}
	if len(cfg.Retry.Statuses) == 0 {
		cfg.Retry.Statuses = def.Statuses
	}

	return &Client{
		http: &http.Client{Timeout: cfg.Timeout},
		cfg:  cfg,
	}, nil
}

// Config returns the effective configuration after defaults were applied.
func (c *Client) Config() types.ClientConfig { return c.cfg }

// Execute posts q and returns the body of a 200 response. Any other final
// outcome is reported as *NetworkFailure or *RequestFailure.
func (c *Client) Execute(ctx context.Context, q types.QueryRequest) (types.RawResponse, error) {
	payload, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, out, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.Retry)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &NetworkFailure{Attempts: out.Attempts, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &RequestFailure{
			StatusCode: resp.StatusCode,
			Body:       errorBody(resp.Body),
			Attempts:   out.Attempts,
			exhausted:  c.cfg.Retry.Retryable(resp.StatusCode) && out.Attempts >= c.cfg.Retry.MaxAttempts,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkFailure{Attempts: out.Attempts, Err: fmt.Errorf("reading response body: %w", err)}
	}
	return body, nil
}

// errorBody reads at most maxErrorBody bytes of a failed response.
func errorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBody+1))
	var b strings.Builder
	if len(body) > maxErrorBody {
		b.Write(body[:maxErrorBody])
		b.WriteString(TruncatedMarker)
	} else {
		b.Write(body)
	}
	if err != nil {
		fmt.Fprintf(&b, "\n(reading body: %v)", err)
	}
	return b.String()
}
