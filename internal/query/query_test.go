// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/leaderboard/pkg/types"
)

func TestBuildDefault(t *testing.T) {
	req, err := Build("", "repo:octo/hello is:pr is:merged")
	require.NoError(t, err)
	assert.Equal(t, PullRequestSearch, req.Query)
	assert.Equal(t, "repo:octo/hello is:pr is:merged", req.Variables[SearchVar])
	assert.Equal(t, 100, req.Variables["first"])
}

func TestBuildDefaultRequiresSearch(t *testing.T) {
	_, err := Build("", "  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--search")
}

func TestBuildFromFile(t *testing.T) {
	path := writeQuery(t, `
query: |
  query ($q: String!, $first: Int!) { search(query: $q, type: ISSUE, first: $first) { nodes { id } } }
variables:
  q: "org:octo is:pr"
  first: 50
`)

	req, err := Build(path, "")
	require.NoError(t, err)
	assert.Contains(t, req.Query, "search(query: $q")
	assert.Equal(t, "org:octo is:pr", req.Variables["q"])
	assert.Equal(t, 50, req.Variables["first"])

	req, err = Build(path, "org:other is:pr")
	require.NoError(t, err)
	assert.Equal(t, "org:other is:pr", req.Variables["q"])
}

func TestReadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		msg     string
	}{
		{"no query", "variables:\n  q: x\n", "has no query"},
		{"bad yaml", "query: [unterminated\n", "parsing query file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFile(writeQuery(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading query file")
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.yaml")
	req := types.QueryRequest{
		Query:     PullRequestSearch,
		Variables: map[string]any{"q": "is:pr", "first": 100},
	}
	require.NoError(t, WriteFile(path, req))

	got, err := Build(path, "")
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func writeQuery(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "query.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
