// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/leaderboard/internal/pipeline"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Rebuild the leaderboard from the last snapshot without querying the API",
	Long: `Render reads the raw JSON snapshot written by a previous fetch and runs
the parse, score, and render stages again. Use it to try new weights or
ranking limits without spending API quota.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := pipelineConfig(viper.GetViper())
	if err != nil {
		return err
	}

	res, err := pipeline.New(nil, cfg, log).RenderSnapshot(cmd.Context())
	if err != nil {
		return err
	}
	if cfg.OutputPath != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "%d contributors ranked, leaderboard written to %s\n", len(res.Table), cfg.OutputPath)
	}
	return nil
}
