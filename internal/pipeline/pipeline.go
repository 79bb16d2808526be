// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences one leaderboard run: fetch, snapshot, parse,
// score, rank, render.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pdiddy/leaderboard/internal/parse"
	"github.com/pdiddy/leaderboard/internal/render"
	"github.com/pdiddy/leaderboard/internal/score"
	"github.com/pdiddy/leaderboard/pkg/types"
)

const (
	defaultSnapshot = "data.json"
	defaultOutput   = "leaderboard.md"
)

// Fetcher executes a GraphQL request. *graphql.Client implements it.
type Fetcher interface {
	Execute(ctx context.Context, q types.QueryRequest) (types.RawResponse, error)
}

// Result holds every intermediate product of a run.
type Result struct {
	Rows         []types.Row
	Intermediate map[string]float64
	Table        types.FinalTable
	Markdown     string
}

// Pipeline runs the stages with a fixed configuration.
type Pipeline struct {
	fetcher Fetcher
	cfg     types.PipelineConfig
	scoreFn score.Func
	rule    score.Rule
	log     *zap.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithScoreFunc replaces the weighted-sum scoring derived from the config.
func WithScoreFunc(fn score.Func) Option {
	return func(p *Pipeline) { p.scoreFn = fn }
}

// WithRule replaces the final rule derived from the config.
func WithRule(r score.Rule) Option {
	return func(p *Pipeline) { p.rule = r }
}

// New returns a Pipeline. fetcher may be nil when only RenderSnapshot is used.
func New(fetcher Fetcher, cfg types.PipelineConfig, log *zap.Logger, opts ...Option) *Pipeline {
	if cfg.SnapshotPath == "" {
		cfg.SnapshotPath = defaultSnapshot
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = defaultOutput
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pipeline{
		fetcher: fetcher,
		cfg:     cfg,
		scoreFn: score.FuncFor(cfg.Scoring),
		rule:    score.RuleFor(cfg.Scoring),
		log:     log,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run fetches q and produces the leaderboard. The raw snapshot is written
// as soon as the fetch succeeds, so it survives a later parse or scoring
// failure. The leaderboard output is written only when every stage succeeds.
func (p *Pipeline) Run(ctx context.Context, q types.QueryRequest) (*Result, error) {
	if p.fetcher == nil {
		return nil, fmt.Errorf("pipeline has no fetcher")
	}

	p.log.Info("fetching contributor activity")
	raw, err := p.fetcher.Execute(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetching: %w", err)
	}

	pretty := prettyJSON(raw)
	p.log.Debug("raw response", zap.ByteString("body", pretty))

	if err := writeSnapshot(p.cfg.SnapshotPath, pretty); err != nil {
		return nil, err
	}
	p.log.Info("wrote snapshot", zap.String("path", p.cfg.SnapshotPath), zap.Int("bytes", len(pretty)))

	rows, err := parse.Rows(raw)
	if err != nil {
		return nil, err
	}
	return p.finish(rows)
}

// RenderSnapshot rebuilds the leaderboard from the snapshot written by a
// previous Run, without touching the network.
func (p *Pipeline) RenderSnapshot(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.log.Info("reading snapshot", zap.String("path", p.cfg.SnapshotPath))
	rows, err := parse.SnapshotRows(p.cfg.SnapshotPath)
	if err != nil {
		return nil, err
	}
	return p.finish(rows)
}

func (p *Pipeline) finish(rows []types.Row) (*Result, error) {
	p.log.Info("parsed response", zap.Int("rows", len(rows)))

	intermediate, err := score.Intermediate(rows, p.scoreFn)
	if err != nil {
		return nil, err
	}

	table, err := score.Final(intermediate, p.rule, p.cfg.Ranking)
	if err != nil {
		return nil, err
	}
	p.log.Info("ranked contributors", zap.Int("contributors", len(intermediate)), zap.Int("entries", len(table)))

	md := render.Markdown(table)
	if err := render.Write(p.cfg.OutputPath, md); err != nil {
		return nil, err
	}
	if p.cfg.OutputPath != "-" {
		p.log.Info("wrote leaderboard", zap.String("path", p.cfg.OutputPath))
	}

	return &Result{
		Rows:         rows,
		Intermediate: intermediate,
		Table:        table,
		Markdown:     md,
	}, nil
}

// prettyJSON re-indents raw with four spaces. Bodies that are not valid
// JSON are returned unchanged.
func prettyJSON(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "    "); err != nil {
		return raw
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}

// writeSnapshot replaces path atomically via a temp file in the same directory.
func writeSnapshot(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}
