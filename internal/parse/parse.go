// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse converts a raw GraphQL search response into the ordered
// intermediate rows the scorer consumes. The shape is validated here so
// later stages never see "maybe present" fields.
package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/leaderboard/pkg/types"
)

// Failure reports a payload whose structure does not match the expected
// search response.
type Failure struct {
	// Path is the dotted location of the offending value, e.g. "data.search".
	Path   string
	Reason string
}

func (e *Failure) Error() string {
	return fmt.Sprintf("parsing response at %s: %s", e.Path, e.Reason)
}

// Response JSON structures. Pointers mark fields whose absence must be
// distinguished from an empty value.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type searchData struct {
	Search *searchConnection `json:"search"`
}

type searchConnection struct {
	Nodes *[]*pullRequestNode `json:"nodes"`
}

type pullRequestNode struct {
	Author *actor           `json:"author"`
	Labels *labelConnection `json:"labels"`
}

type actor struct {
	Login string `json:"login"`
}

type labelConnection struct {
	Nodes []*labelNode `json:"nodes"`
}

type labelNode struct {
	Name string `json:"name"`
}

// Rows extracts one MetricPullRequest row per pull request, followed by one
// label row per label on it, in response order. Nodes without an author
// login (deleted users, non-PR search hits) are skipped.
func Rows(raw []byte) ([]types.Row, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &Failure{Path: "$", Reason: err.Error()}
	}

	// Errors are fatal even alongside partial data.
	if len(env.Errors) > 0 {
		msgs := make([]string, len(env.Errors))
		for i, e := range env.Errors {
			msgs[i] = e.Message
		}
		return nil, &Failure{Path: "errors", Reason: strings.Join(msgs, "; ")}
	}
	if isNull(env.Data) {
		return nil, &Failure{Path: "data", Reason: "missing"}
	}

	var data searchData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &Failure{Path: "data", Reason: err.Error()}
	}
	if data.Search == nil {
		return nil, &Failure{Path: "data.search", Reason: "missing"}
	}
	if data.Search.Nodes == nil {
		return nil, &Failure{Path: "data.search.nodes", Reason: "missing"}
	}

	var rows []types.Row
	for _, node := range *data.Search.Nodes {
		if node == nil || node.Author == nil || node.Author.Login == "" {
			continue
		}
		login := node.Author.Login
		rows = append(rows, types.Row{Contributor: login, Metric: types.MetricPullRequest, Value: 1})

		if node.Labels == nil {
			continue
		}
		for _, l := range node.Labels.Nodes {
			if l == nil || l.Name == "" {
				continue
			}
			rows = append(rows, types.Row{Contributor: login, Metric: types.MetricLabelPrefix + l.Name, Value: 1})
		}
	}
	return rows, nil
}

// SnapshotRows reads a response previously written to disk and parses it.
func SnapshotRows(path string) ([]types.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return Rows(data)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
