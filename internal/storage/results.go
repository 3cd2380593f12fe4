package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"apiperf/internal/perf"
)

const fileTimestamp = "20060102_150405"

// SaveResult writes a run record as an indented JSON file named
// <test_name>_<timestamp>.json under dir, creating the directory if needed.
// The summary is computed first when absent so the persisted record always
// carries derived statistics. Returns the path written.
func SaveResult(res *perf.RunResult, dir string) (string, error) {
	if len(res.Summary) == 0 {
		res.ComputeSummary()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating results directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.json", res.TestName, time.Now().Format(fileTimestamp))
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing result: %w", err)
	}

	log.Info().Str("file", path).Msg("test results saved")
	return path, nil
}

// PruneResults deletes the oldest result files in dir beyond the newest
// keep, returning how many were removed. keep <= 0 disables pruning.
func PruneResults(dir string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("listing results: %w", err)
	}
	if len(matches) <= keep {
		return 0, nil
	}

	sort.Slice(matches, func(i, j int) bool {
		fi, errI := os.Stat(matches[i])
		fj, errJ := os.Stat(matches[j])
		if errI != nil || errJ != nil {
			return matches[i] < matches[j]
		}
		return fi.ModTime().After(fj.ModTime())
	})

	removed := 0
	for _, path := range matches[keep:] {
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("pruning result %s: %w", path, err)
		}
		removed++
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Str("dir", dir).Msg("pruned old results")
	}
	return removed, nil
}

// LoadResult reads a run record back. File and parse errors surface to the
// caller; this is the one layer where I/O failures are not absorbed.
func LoadResult(path string) (*perf.RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result: %w", err)
	}
	var res perf.RunResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parsing result %s: %w", path, err)
	}
	return &res, nil
}
