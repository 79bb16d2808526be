// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared across the leaderboard
// pipeline: the query sent to the API, the rows extracted from its response,
// and the scores derived from them.
package types

import "encoding/json"

// QueryRequest is a GraphQL query plus its variables. It is built once per
// run and encodes to the {"query", "variables"} request body.
type QueryRequest struct {
	Query     string         `json:"query" yaml:"query"`
	Variables map[string]any `json:"variables" yaml:"variables"`
}

// RawResponse is the undecoded JSON body returned by the API.
type RawResponse = json.RawMessage

// Metric names emitted by the parser.
const (
	MetricPullRequest = "pull_request"
	// MetricLabelPrefix is prepended to a label name to form its metric,
	// e.g. "label:bug".
	MetricLabelPrefix = "label:"
)

// Row is one normalized record extracted from a raw response.
type Row struct {
	Contributor string  `json:"contributor" yaml:"contributor"`
	Metric      string  `json:"metric" yaml:"metric"`
	Value       float64 `json:"value" yaml:"value"`
}

// ScoreEntry pairs a contributor with a score. Contributors are unique
// within a score set.
type ScoreEntry struct {
	Contributor string  `json:"contributor" yaml:"contributor"`
	Score       float64 `json:"score" yaml:"score"`
}

// RankedEntry is a ScoreEntry with its 1-based position in the leaderboard.
type RankedEntry struct {
	Rank int `json:"rank" yaml:"rank"`
	ScoreEntry
}

// FinalTable is the leaderboard in rank order: descending score, ties
// broken by ascending contributor.
type FinalTable []RankedEntry

// Contributors returns the contributor names in table order.
func (t FinalTable) Contributors() []string {
	names := make([]string, len(t))
	for i, e := range t {
		names[i] = e.Contributor
	}
	return names
}
