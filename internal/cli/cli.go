// Package cli drives a run in headless mode: a single-line progress bar on
// stdout fed by live snapshots, then a per-endpoint summary table.
package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"apiperf/internal/perf"
	"apiperf/internal/stats"
)

type runOutcome struct {
	res *perf.RunResult
	err error
}

// Run executes the configured test, rendering progress while it goes, and
// returns the finished result.
func Run(ctx context.Context, cfg perf.RunConfig) (*perf.RunResult, error) {
	printHeader(cfg)

	updates := make(stats.SnapshotChan, 100)
	t, err := perf.NewTester(cfg, updates)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	t.StartTickLoop(ctx, 200*time.Millisecond)

	done := make(chan runOutcome, 1)
	go func() {
		res, err := t.Run(ctx)
		done <- runOutcome{res, err}
	}()

	total := uint64(cfg.Iterations * len(cfg.Requests))
	start := time.Now()

	var last stats.Snapshot
	for {
		select {
		case snap := <-updates:
			last = snap
			printProgress(snap, total, time.Since(start))
		case out := <-done:
			cancel()
			if out.err != nil {
				fmt.Println()
				return nil, out.err
			}
			printProgress(last, total, time.Since(start))
			printSummary(out.res, last)
			return out.res, nil
		}
	}
}

func printHeader(cfg perf.RunConfig) {
	mode := "sequential"
	if cfg.Concurrent {
		mode = fmt.Sprintf("concurrent (%d workers)", cfg.MaxWorkers)
	}
	fmt.Printf("\nSTARTING API PERFORMANCE TEST\n")
	fmt.Printf("======================================================================\n")
	fmt.Printf("Test Name  : %s\n", cfg.Name)
	fmt.Printf("Base URL   : %s\n", cfg.BaseURL)
	fmt.Printf("Endpoints  : %d\n", len(cfg.Requests))
	fmt.Printf("Iterations : %d (%s)\n", cfg.Iterations, mode)
	if cfg.WarmupIterations > 0 {
		fmt.Printf("Warm-up    : %d\n", cfg.WarmupIterations)
	}
	fmt.Printf("======================================================================\n\n")
}

func printProgress(snap stats.Snapshot, total uint64, elapsed time.Duration) {
	pct := 0.0
	if total > 0 {
		pct = float64(snap.Requests) / float64(total)
		if pct > 1 {
			pct = 1
		}
	}
	rps := 0.0
	if elapsed.Seconds() > 0 {
		rps = float64(snap.Requests) / elapsed.Seconds()
	}
	fmt.Printf("\r%s %3.0f%% | %d/%d | RPS: %.1f | OK: %d | Err: %d | %s",
		progressBar(pct, 20), pct*100,
		snap.Requests, total,
		rps,
		snap.Success, snap.Fail,
		humanize.Bytes(snap.Bytes),
	)
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

func printSummary(res *perf.RunResult, snap stats.Snapshot) {
	fmt.Printf("\n\nTEST RESULTS\n")
	fmt.Printf("======================================================================\n")
	fmt.Printf("Total Duration : %.2fs\n", res.TotalDuration)
	fmt.Printf("Requests Sent  : %d\n", snap.Requests)
	fmt.Printf("Success        : %d\n", snap.Success)
	fmt.Printf("Failures       : %d\n", snap.Fail)
	fmt.Printf("Error Rate     : %.1f%%\n", snap.ErrorRate())

	var endpoints []string
	for ep := range res.Summary {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	if len(endpoints) > 0 {
		fmt.Printf("\nRESPONSE TIMES (ms) [Success Only]\n")
		fmt.Printf("%-40s %9s %9s %9s %9s %9s\n", "Endpoint", "Mean", "Median", "Min", "Max", "Rate")
		for _, ep := range endpoints {
			s := res.Summary[ep]
			fmt.Printf("%-40s %9.2f %9.2f %9.2f %9.2f %8.1f%%\n",
				trim(ep, 40),
				s.MeanTime*1000, s.MedianTime*1000, s.MinTime*1000, s.MaxTime*1000,
				s.SuccessRate*100)
		}
	}

	failed := failedEndpoints(res)
	if len(failed) > 0 {
		fmt.Printf("\nENDPOINTS WITH NO SUCCESSFUL REQUESTS\n")
		for _, ep := range failed {
			fmt.Printf("   %s\n", ep)
		}
	}
	fmt.Printf("======================================================================\n")
}

// failedEndpoints lists endpoints that produced outcomes but no summary row.
func failedEndpoints(res *perf.RunResult) []string {
	var failed []string
	for ep := range res.RequestResults {
		if _, ok := res.Summary[ep]; !ok {
			failed = append(failed, ep)
		}
	}
	sort.Strings(failed)
	return failed
}

func trim(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
