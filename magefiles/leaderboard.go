//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// Fetch builds the CLI and runs a full fetch with the local config.
func Fetch() error {
	mg.Deps(Build)
	return run(filepath.Join(binDir, binName), "fetch")
}

// Render builds the CLI and re-renders the leaderboard from data.json.
func Render() error {
	mg.Deps(Build)
	return run(filepath.Join(binDir, binName), "render")
}
