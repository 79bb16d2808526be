// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the leaderboard CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/leaderboard/internal/logging"
	"github.com/pdiddy/leaderboard/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// log is built in PersistentPreRunE once the log level is known.
var log = zap.NewNop()

// rootCmd is the base command for the leaderboard CLI.
var rootCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank contributors from GitHub activity and publish a markdown leaderboard",
	Long: `leaderboard queries the GitHub GraphQL API for pull request activity,
scores each contributor with configurable weights, and writes a ranked
markdown table. The raw API response is kept as a JSON snapshot so the
table can be re-rendered offline.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		l, err := logging.New(viper.GetString("log_level"))
		if err != nil {
			return err
		}
		log = l
		if used := viper.ConfigFileUsed(); used != "" {
			log.Debug("using config file", zap.String("path", used))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./leaderboard.yaml or ~/.config/leaderboard/leaderboard.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("snapshot", "data.json", "path of the raw JSON snapshot")
	rootCmd.PersistentFlags().String("output", "leaderboard.md", `markdown output path ("-" for stdout)`)
	rootCmd.PersistentFlags().Int("limit", 0, "keep only the top N contributors (0 = all)")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("snapshot", rootCmd.PersistentFlags().Lookup("snapshot"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("ranking.limit", rootCmd.PersistentFlags().Lookup("limit"))

	setDefaults(viper.GetViper())
}

// setDefaults registers the defaults for keys that have no flag.
func setDefaults(v *viper.Viper) {
	retry := types.DefaultRetryPolicy()
	v.SetDefault("endpoint", "https://api.github.com/graphql")
	v.SetDefault("timeout", "20s")
	v.SetDefault("retry.max_attempts", retry.MaxAttempts)
	v.SetDefault("retry.backoff_factor", retry.BackoffFactor.String())
	v.SetDefault("retry.statuses", retry.Statuses)
	v.SetDefault("scoring.weights", map[string]float64{types.MetricPullRequest: 1})
	v.SetDefault("scoring.default_weight", 0.0)
	v.SetDefault("scoring.normalize_to", 0.0)
	v.SetDefault("ranking.min_score", 0.0)
	v.SetDefault("secrets_dir", ".secrets")
}

// configErr is set by initConfig and returned from PersistentPreRunE, since
// cobra initializers cannot fail.
var configErr error

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")

	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "leaderboard"))
	}
	configErr = readConfig(viper.GetViper(), cfgFile, dirs...)
}

// readConfig loads cfgFile, or leaderboard.yaml from the first of dirs that
// has one, and enables LEADERBOARD_* environment overrides. A missing file is
// only an error when cfgFile names it.
func readConfig(v *viper.Viper, cfgFile string, dirs ...string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("leaderboard")
		v.SetConfigType("yaml")
		for _, d := range dirs {
			v.AddConfigPath(d)
		}
	}

	v.SetEnvPrefix("LEADERBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
