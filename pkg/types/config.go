package types

import (
	"net/http"
	"time"
)

// HTTPConfig holds the transport settings for the GraphQL request.
type HTTPConfig struct {
	// Timeout bounds each individual attempt, not the whole retry loop.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with the request
	// (e.g. "leaderboard/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RetryPolicy controls how transient server errors are retried.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first (default 5).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// BackoffFactor is the base of the exponential backoff. The wait before
	// retry n (0-based) is BackoffFactor * 2^n.
	BackoffFactor time.Duration `json:"backoff_factor" yaml:"backoff_factor"`

	// Statuses lists the HTTP status codes that trigger a retry.
	Statuses []int `json:"statuses" yaml:"statuses"`
}

// Retryable reports whether status is in the policy's retry list.
func (p RetryPolicy) Retryable(status int) bool {
	for _, s := range p.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// DefaultRetryPolicy returns the policy used when none is configured:
// five attempts, 0.8s backoff factor, retry on 500/502/503/504.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   5,
		BackoffFactor: 800 * time.Millisecond,
		Statuses: []int{
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// ClientConfig is everything the GraphQL client needs. It replaces any
// process-wide header or endpoint state.
type ClientConfig struct {
	HTTPConfig `yaml:",inline"`

	// Endpoint is the GraphQL URL (default https://api.github.com/graphql).
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Token is sent verbatim as the Authorization header.
	Token string `json:"-" yaml:"-"`

	Retry RetryPolicy `json:"retry" yaml:"retry"`
}

// ScoringConfig holds the weights of the default weighted-sum scoring rule.
type ScoringConfig struct {
	// Weights maps a metric name (e.g. "pull_request", "label:bug") to its weight.
	Weights map[string]float64 `json:"weights" yaml:"weights"`

	// DefaultWeight applies to metrics absent from Weights.
	DefaultWeight float64 `json:"default_weight" yaml:"default_weight"`

	// NormalizeTo rescales final scores so the top score equals this value.
	// Zero leaves scores untouched.
	NormalizeTo float64 `json:"normalize_to" yaml:"normalize_to"`
}

// RankingConfig controls which entries make it into the final table.
type RankingConfig struct {
	// Limit keeps only the top N entries. Zero keeps all.
	Limit int `json:"limit" yaml:"limit"`

	// MinScore drops entries scoring strictly below it.
	MinScore float64 `json:"min_score" yaml:"min_score"`
}

// PipelineConfig groups the settings for one leaderboard run.
type PipelineConfig struct {
	// SnapshotPath is where the raw response is written (default data.json).
	SnapshotPath string `json:"snapshot" yaml:"snapshot"`

	// OutputPath is where the markdown leaderboard is written. "-" means stdout.
	OutputPath string `json:"output" yaml:"output"`

	Scoring ScoringConfig `json:"scoring" yaml:"scoring"`
	Ranking RankingConfig `json:"ranking" yaml:"ranking"`
}
