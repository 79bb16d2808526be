// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/leaderboard/internal/graphql"
	"github.com/pdiddy/leaderboard/internal/parse"
	"github.com/pdiddy/leaderboard/internal/render"
	"github.com/pdiddy/leaderboard/internal/score"
	"github.com/pdiddy/leaderboard/pkg/types"
)

const searchResponse = `{"data":{"search":{"nodes":[
  {"author":{"login":"octocat"},"labels":{"nodes":[{"name":"bug"}]}},
  {"author":{"login":"hubot"},"labels":{"nodes":[]}},
  {"author":{"login":"monalisa"},"labels":{"nodes":[{"name":"docs"}]}},
  {"author":{"login":"octocat"},"labels":{"nodes":[]}},
  {"author":null}
]}}}`

type fakeFetcher struct {
	raw   string
	err   error
	calls int
}

func (f *fakeFetcher) Execute(_ context.Context, _ types.QueryRequest) (types.RawResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return types.RawResponse(f.raw), nil
}

func testConfig(t *testing.T) types.PipelineConfig {
	t.Helper()
	dir := t.TempDir()
	return types.PipelineConfig{
		SnapshotPath: filepath.Join(dir, "data.json"),
		OutputPath:   filepath.Join(dir, "leaderboard.md"),
		Scoring: types.ScoringConfig{
			Weights: map[string]float64{
				types.MetricPullRequest: 1,
				"label:bug":             3,
			},
		},
	}
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	f := &fakeFetcher{raw: searchResponse}

	res, err := New(f, cfg, zaptest.NewLogger(t)).Run(context.Background(), types.QueryRequest{Query: "q"})
	require.NoError(t, err)

	// octocat: 2 PRs + bug label = 5; hubot 1; monalisa 1 (docs unweighted).
	want := types.FinalTable{
		{Rank: 1, ScoreEntry: types.ScoreEntry{Contributor: "octocat", Score: 5}},
		{Rank: 2, ScoreEntry: types.ScoreEntry{Contributor: "hubot", Score: 1}},
		{Rank: 3, ScoreEntry: types.ScoreEntry{Contributor: "monalisa", Score: 1}},
	}
	assert.Equal(t, want, res.Table)

	md, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, res.Markdown, string(md))

	back, err := render.ParseMarkdown(string(md))
	require.NoError(t, err)
	assert.Equal(t, want, back)

	snap, err := os.ReadFile(cfg.SnapshotPath)
	require.NoError(t, err)
	assert.JSONEq(t, searchResponse, string(snap))
	assert.Contains(t, string(snap), "\n    \"data\": {", "snapshot should be indented with four spaces")
}

func TestRunEveryContributorTracesToARow(t *testing.T) {
	cfg := testConfig(t)
	res, err := New(&fakeFetcher{raw: searchResponse}, cfg, nil).Run(context.Background(), types.QueryRequest{})
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, r := range res.Rows {
		seen[r.Contributor] = true
	}
	for _, e := range res.Table {
		assert.True(t, seen[e.Contributor], "%s has no source row", e.Contributor)
	}
}

func TestRunZeroEntities(t *testing.T) {
	cfg := testConfig(t)
	res, err := New(&fakeFetcher{raw: `{"data":{"search":{"nodes":[]}}}`}, cfg, nil).Run(context.Background(), types.QueryRequest{})
	require.NoError(t, err)

	assert.Empty(t, res.Table)
	assert.Equal(t, "| Rank | Contributor | Score |\n| ---: | :--- | ---: |\n", res.Markdown)
}

func TestRunFetchFailureWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	fetchErr := &graphql.RequestFailure{StatusCode: 404, Body: "Not Found", Attempts: 1}

	_, err := New(&fakeFetcher{err: fetchErr}, cfg, nil).Run(context.Background(), types.QueryRequest{})
	var rf *graphql.RequestFailure
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, 404, rf.StatusCode)

	assert.NoFileExists(t, cfg.SnapshotPath)
	assert.NoFileExists(t, cfg.OutputPath)
}

func TestRunParseFailureKeepsSnapshotOnly(t *testing.T) {
	cfg := testConfig(t)
	_, err := New(&fakeFetcher{raw: `{"data":{"viewer":{}}}`}, cfg, nil).Run(context.Background(), types.QueryRequest{})

	var pf *parse.Failure
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, "data.search", pf.Path)

	assert.FileExists(t, cfg.SnapshotPath)
	assert.NoFileExists(t, cfg.OutputPath)
}

func TestRunPartialDataWithErrorsFails(t *testing.T) {
	cfg := testConfig(t)
	raw := `{"data":{"search":{"nodes":[{"author":{"login":"octocat"}}]}},"errors":[{"message":"timeout"}]}`

	_, err := New(&fakeFetcher{raw: raw}, cfg, nil).Run(context.Background(), types.QueryRequest{})
	var pf *parse.Failure
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, "errors", pf.Path)
	assert.Equal(t, "timeout", pf.Reason)

	assert.FileExists(t, cfg.SnapshotPath)
	assert.NoFileExists(t, cfg.OutputPath)
}

func TestRunScoringFailureWritesNoLeaderboard(t *testing.T) {
	cfg := testConfig(t)
	failing := WithScoreFunc(func([]types.Row) (float64, error) {
		return 0, errors.New("no weights for this season")
	})

	_, err := New(&fakeFetcher{raw: searchResponse}, cfg, nil, failing).Run(context.Background(), types.QueryRequest{})
	var sf *score.Failure
	require.True(t, errors.As(err, &sf))
	assert.NoFileExists(t, cfg.OutputPath)
}

func TestRunCustomRule(t *testing.T) {
	cfg := testConfig(t)
	dropHubot := WithRule(func(m map[string]float64) (map[string]float64, error) {
		out := map[string]float64{}
		for k, v := range m {
			if k != "hubot" {
				out[k] = v
			}
		}
		return out, nil
	})

	res, err := New(&fakeFetcher{raw: searchResponse}, cfg, nil, dropHubot).Run(context.Background(), types.QueryRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"octocat", "monalisa"}, res.Table.Contributors())
}

func TestRunNilFetcher(t *testing.T) {
	_, err := New(nil, testConfig(t), nil).Run(context.Background(), types.QueryRequest{})
	require.Error(t, err)
}

func TestRunLogsPayloadAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := testConfig(t)

	_, err := New(&fakeFetcher{raw: searchResponse}, cfg, zap.New(core)).Run(context.Background(), types.QueryRequest{})
	require.NoError(t, err)

	payload := logs.FilterMessage("raw response").All()
	require.Len(t, payload, 1)
	assert.Equal(t, zapcore.DebugLevel, payload[0].Level)
	assert.Contains(t, fmt.Sprint(payload[0].ContextMap()["body"]), "octocat")
}

func TestRunAgainstServerWithTransientFailure(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var q types.QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil || !strings.Contains(q.Query, "search") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(searchResponse))
	}))
	defer ts.Close()

	retry := types.DefaultRetryPolicy()
	retry.BackoffFactor = time.Millisecond
	client, err := graphql.New(types.ClientConfig{Endpoint: ts.URL, Token: "bearer x", Retry: retry})
	require.NoError(t, err)

	cfg := testConfig(t)
	res, err := New(client, cfg, zaptest.NewLogger(t)).Run(context.Background(), types.QueryRequest{Query: "query { search }"})
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"octocat", "hubot", "monalisa"}, res.Table.Contributors())
}

func TestRenderSnapshot(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.SnapshotPath, []byte(searchResponse), 0o644))

	cfg.Ranking.Limit = 1
	res, err := New(nil, cfg, nil).RenderSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"octocat"}, res.Table.Contributors())
	assert.FileExists(t, cfg.OutputPath)
}

func TestRenderSnapshotMissing(t *testing.T) {
	_, err := New(nil, testConfig(t), nil).RenderSnapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading snapshot")
}

func TestPrettyJSON(t *testing.T) {
	assert.Equal(t, "{\n    \"a\": 1\n}\n", string(prettyJSON([]byte(`{"a":1}`))))
	assert.Equal(t, "not json", string(prettyJSON([]byte("not json"))))
}
