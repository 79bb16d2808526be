// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns the final score table into a markdown leaderboard
// and reads such a table back.
package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/leaderboard/pkg/types"
)

const (
	headerRow    = "| Rank | Contributor | Score |"
	alignmentRow = "| ---: | :--- | ---: |"
)

// Markdown renders table as a markdown table, one row per entry in table
// order. Scores use the shortest representation that parses back to the
// same float64.
func Markdown(table types.FinalTable) string {
	var b strings.Builder
	b.WriteString(headerRow + "\n")
	b.WriteString(alignmentRow + "\n")
	for _, e := range table {
		fmt.Fprintf(&b, "| %d | %s | %s |\n", e.Rank, escapeCell(e.Contributor), formatScore(e.Score))
	}
	return b.String()
}

// ParseMarkdown reads a table produced by Markdown back into entries.
func ParseMarkdown(md string) (types.FinalTable, error) {
	lines := strings.Split(strings.TrimRight(md, "\n"), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != headerRow {
		return nil, fmt.Errorf("missing leaderboard header")
	}
	if strings.TrimSpace(lines[1]) != alignmentRow {
		return nil, fmt.Errorf("missing alignment row")
	}

	table := types.FinalTable{}
	for i, line := range lines[2:] {
		cells, err := splitRow(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+3, err)
		}
		if len(cells) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 cells, got %d", i+3, len(cells))
		}
		rank, err := strconv.Atoi(cells[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid rank %q: %w", i+3, cells[0], err)
		}
		score, err := strconv.ParseFloat(cells[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid score %q: %w", i+3, cells[2], err)
		}
		table = append(table, types.RankedEntry{
			Rank:       rank,
			ScoreEntry: types.ScoreEntry{Contributor: cells[1], Score: score},
		})
	}
	return table, nil
}

// Write sends md to path, or to stdout when path is "-" or empty.
func Write(path, md string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(os.Stdout, md)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return fmt.Errorf("writing leaderboard: %w", err)
	}
	return nil
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "|", `\|`)
}

// splitRow splits "| a | b\|c | d |" into its trimmed, unescaped cells.
func splitRow(line string) ([]string, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") || len(line) < 2 {
		return nil, fmt.Errorf("not a table row: %q", line)
	}
	inner := line[1 : len(line)-1]

	var cells []string
	var cell strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case c == '\\' && i+1 < len(inner):
			i++
			cell.WriteByte(inner[i])
		case c == '|':
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		default:
			cell.WriteByte(c)
		}
	}
	cells = append(cells, strings.TrimSpace(cell.String()))
	return cells, nil
}
