package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/pdiddy/leaderboard/pkg/types"
)

const userAgent = "leaderboard/0.1"

// clientConfig reads the GraphQL client settings. The token is resolved
// separately so it never passes through viper.
func clientConfig(v *viper.Viper, token string) types.ClientConfig {
	return types.ClientConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   v.GetDuration("timeout"),
			UserAgent: userAgent,
		},
		Endpoint: v.GetString("endpoint"),
		Token:    token,
		Retry: types.RetryPolicy{
			MaxAttempts:   v.GetInt("retry.max_attempts"),
			BackoffFactor: v.GetDuration("retry.backoff_factor"),
			Statuses:      v.GetIntSlice("retry.statuses"),
		},
	}
}

// pipelineConfig reads the snapshot, output, scoring and ranking settings.
func pipelineConfig(v *viper.Viper) (types.PipelineConfig, error) {
	var weights map[string]float64
	if err := v.UnmarshalKey("scoring.weights", &weights); err != nil {
		return types.PipelineConfig{}, fmt.Errorf("reading scoring.weights: %w", err)
	}

	cfg := types.PipelineConfig{
		SnapshotPath: v.GetString("snapshot"),
		OutputPath:   v.GetString("output"),
		Scoring: types.ScoringConfig{
			Weights:       weights,
			DefaultWeight: v.GetFloat64("scoring.default_weight"),
			NormalizeTo:   v.GetFloat64("scoring.normalize_to"),
		},
		Ranking: types.RankingConfig{
			Limit:    v.GetInt("ranking.limit"),
			MinScore: v.GetFloat64("ranking.min_score"),
		},
	}
	if cfg.Ranking.Limit < 0 {
		return cfg, fmt.Errorf("ranking.limit must not be negative, got %d", cfg.Ranking.Limit)
	}
	if cfg.Scoring.NormalizeTo < 0 {
		return cfg, fmt.Errorf("scoring.normalize_to must not be negative, got %v", cfg.Scoring.NormalizeTo)
	}
	return cfg, nil
}
