// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score aggregates intermediate rows into per-contributor scores and
// ranks them into the final leaderboard table. Both the per-contributor
// formula and the final normalization are pluggable.
package score

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pdiddy/leaderboard/pkg/types"
)

// Failure reports data that cannot be scored.
type Failure struct {
	Contributor string
	Reason      string
}

func (e *Failure) Error() string {
	if e.Contributor == "" {
		return "scoring: " + e.Reason
	}
	return fmt.Sprintf("scoring %s: %s", e.Contributor, e.Reason)
}

// Func computes one contributor's intermediate score from that
// contributor's rows, in response order.
type Func func(rows []types.Row) (float64, error)

// WeightedSum returns the default Func: the sum of weight(metric) * value,
// where metrics absent from weights use defaultWeight.
func WeightedSum(weights map[string]float64, defaultWeight float64) Func {
	return func(rows []types.Row) (float64, error) {
		var total float64
		for _, r := range rows {
			w, ok := weights[r.Metric]
			if !ok {
				w = defaultWeight
			}
			total += w * r.Value
		}
		return total, nil
	}
}

// Intermediate groups rows by contributor and applies fn to each group.
func Intermediate(rows []types.Row, fn Func) (map[string]float64, error) {
	groups := make(map[string][]types.Row)
	var order []string
	for i, r := range rows {
		if r.Contributor == "" {
			return nil, &Failure{Reason: fmt.Sprintf("row %d has no contributor", i)}
		}
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			return nil, &Failure{Contributor: r.Contributor, Reason: fmt.Sprintf("metric %s has non-finite value %v", r.Metric, r.Value)}
		}
		if _, seen := groups[r.Contributor]; !seen {
			order = append(order, r.Contributor)
		}
		groups[r.Contributor] = append(groups[r.Contributor], r)
	}

	scores := make(map[string]float64, len(groups))
	for _, c := range order {
		s, err := fn(groups[c])
		if err != nil {
			return nil, &Failure{Contributor: c, Reason: err.Error()}
		}
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, &Failure{Contributor: c, Reason: fmt.Sprintf("score is non-finite: %v", s)}
		}
		scores[c] = s
	}
	return scores, nil
}

// Rule transforms intermediate scores into final scores. A Rule may drop
// contributors but must not add any.
type Rule func(map[string]float64) (map[string]float64, error)

// Identity is the default Rule.
func Identity(scores map[string]float64) (map[string]float64, error) {
	return scores, nil
}

// Normalize returns a Rule that scales scores linearly so the highest one
// equals target. Sets whose highest score is not positive are left unchanged.
func Normalize(target float64) Rule {
	return func(scores map[string]float64) (map[string]float64, error) {
		var top float64
		for _, s := range scores {
			if s > top {
				top = s
			}
		}
		out := make(map[string]float64, len(scores))
		for c, s := range scores {
			if top > 0 {
				s = s / top * target
			}
			out[c] = s
		}
		return out, nil
	}
}

// Final applies rule, filters by opts.MinScore, sorts by descending score
// with ties broken by ascending contributor, truncates to opts.Limit, and
// assigns 1-based ranks.
func Final(intermediate map[string]float64, rule Rule, opts types.RankingConfig) (types.FinalTable, error) {
	if rule == nil {
		rule = Identity
	}
	final, err := rule(intermediate)
	if err != nil {
		return nil, &Failure{Reason: err.Error()}
	}

	entries := make([]types.ScoreEntry, 0, len(final))
	for c, s := range final {
		if _, ok := intermediate[c]; !ok {
			return nil, &Failure{Contributor: c, Reason: "final rule introduced a contributor with no activity"}
		}
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, &Failure{Contributor: c, Reason: fmt.Sprintf("final score is non-finite: %v", s)}
		}
		if s < opts.MinScore {
			continue
		}
		entries = append(entries, types.ScoreEntry{Contributor: c, Score: s})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Contributor < entries[j].Contributor
	})

	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}

	table := make(types.FinalTable, len(entries))
	for i, e := range entries {
		table[i] = types.RankedEntry{Rank: i + 1, ScoreEntry: e}
	}
	return table, nil
}

// RuleFor returns the Rule described by cfg.
func RuleFor(cfg types.ScoringConfig) Rule {
	if cfg.NormalizeTo > 0 {
		return Normalize(cfg.NormalizeTo)
	}
	return Identity
}

// FuncFor returns the weighted-sum Func described by cfg. Metric names
// match case-insensitively because config loaders lowercase map keys.
func FuncFor(cfg types.ScoringConfig) Func {
	weights := make(map[string]float64, len(cfg.Weights))
	for k, w := range cfg.Weights {
		weights[strings.ToLower(k)] = w
	}
	sum := WeightedSum(weights, cfg.DefaultWeight)
	return func(rows []types.Row) (float64, error) {
		folded := make([]types.Row, len(rows))
		for i, r := range rows {
			r.Metric = strings.ToLower(r.Metric)
			folded[i] = r
		}
		return sum(folded)
	}
}
