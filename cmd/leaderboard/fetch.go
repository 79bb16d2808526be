// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/leaderboard/internal/graphql"
	"github.com/pdiddy/leaderboard/internal/pipeline"
	"github.com/pdiddy/leaderboard/internal/query"
	"github.com/pdiddy/leaderboard/internal/secrets"
	"github.com/pdiddy/leaderboard/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Query the API, snapshot the response, and write the leaderboard",
	Long: `Fetch sends one GraphQL query (the built-in pull request search, or the
query in --query-file), retries transient server errors, writes the raw
response to the snapshot file, and renders the ranked markdown table.

The token is read from GITHUB_TOKEN, or from .secrets/github-token, and is
sent verbatim as the Authorization header (e.g. "bearer ghp_...").`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("search", "", `GitHub search string, e.g. "repo:owner/name is:pr is:merged"`)
	fetchCmd.Flags().String("query-file", "", "YAML file with a GraphQL query and variables")
	fetchCmd.Flags().String("save-query", "", "write the effective query to this YAML file")
	fetchCmd.Flags().String("endpoint", "", "GraphQL endpoint (default https://api.github.com/graphql)")
	fetchCmd.Flags().Duration("timeout", 0, "per-attempt HTTP timeout (default 20s)")

	viper.BindPFlag("search", fetchCmd.Flags().Lookup("search"))
	viper.BindPFlag("query_file", fetchCmd.Flags().Lookup("query-file"))
	viper.BindPFlag("save_query", fetchCmd.Flags().Lookup("save-query"))
	viper.BindPFlag("endpoint", fetchCmd.Flags().Lookup("endpoint"))
	viper.BindPFlag("timeout", fetchCmd.Flags().Lookup("timeout"))

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()

	req, err := query.Build(v.GetString("query_file"), v.GetString("search"))
	if err != nil {
		return err
	}
	if err := saveQuery(v, req); err != nil {
		return err
	}

	token, source, err := secrets.Token(v.GetString("secrets_dir"))
	if err != nil {
		return err
	}
	log.Debug("loaded token", zap.String("source", source))

	client, err := graphql.New(clientConfig(v, token))
	if err != nil {
		return err
	}

	cfg, err := pipelineConfig(v)
	if err != nil {
		return err
	}

	res, err := pipeline.New(client, cfg, log).Run(cmd.Context(), req)
	if err != nil {
		return err
	}
	if cfg.OutputPath != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "%d contributors ranked, leaderboard written to %s\n", len(res.Table), cfg.OutputPath)
	}
	return nil
}

// saveQuery writes req to the save_query path when one is configured.
func saveQuery(v *viper.Viper, req types.QueryRequest) error {
	path := v.GetString("save_query")
	if path == "" {
		return nil
	}
	if err := query.WriteFile(path, req); err != nil {
		return err
	}
	log.Info("saved query", zap.String("path", path))
	return nil
}
