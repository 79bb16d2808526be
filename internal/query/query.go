// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query builds the GraphQL request for a run, either from the
// built-in pull request search or from a YAML query file.
package query

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/leaderboard/pkg/types"
)

// SearchVar is the variable carrying the GitHub search string.
const SearchVar = "q"

// defaultPageSize is the largest page the GitHub search API returns.
const defaultPageSize = 100

// PullRequestSearch is the built-in query. It returns up to $first pull
// requests matching $q with their author and labels.
const PullRequestSearch = `query ($q: String!, $first: Int!) {
  search(query: $q, type: ISSUE, first: $first) {
    issueCount
    nodes {
      ... on PullRequest {
        author { login }
        labels(first: 20) { nodes { name } }
      }
    }
  }
}`

// File is the on-disk form of a query:
//
//	query: |
//	  query ($q: String!) { ... }
//	variables:
//	  q: "repo:owner/name is:pr is:merged"
type File struct {
	Query     string         `yaml:"query"`
	Variables map[string]any `yaml:"variables"`
}

// Build returns the request for a run. With an empty path it uses
// PullRequestSearch and requires search. A non-empty search overrides the
// file's SearchVar variable.
func Build(path, search string) (types.QueryRequest, error) {
	if path == "" {
		if strings.TrimSpace(search) == "" {
			return types.QueryRequest{}, errors.New("search string is required: pass --search or a --query-file")
		}
		return types.QueryRequest{
			Query: PullRequestSearch,
			Variables: map[string]any{
				SearchVar: search,
				"first":   defaultPageSize,
			},
		}, nil
	}

	f, err := ReadFile(path)
	if err != nil {
		return types.QueryRequest{}, err
	}
	vars := make(map[string]any, len(f.Variables)+1)
	for k, v := range f.Variables {
		vars[k] = v
	}
	if search != "" {
		vars[SearchVar] = search
	}
	return types.QueryRequest{Query: f.Query, Variables: vars}, nil
}

// ReadFile loads and validates a query file.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	if strings.TrimSpace(f.Query) == "" {
		return nil, fmt.Errorf("query file %s has no query", path)
	}
	return &f, nil
}

// WriteFile saves req as a query file, so a run can be repeated later.
func WriteFile(path string, req types.QueryRequest) error {
	data, err := yaml.Marshal(&File{Query: req.Query, Variables: req.Variables})
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
