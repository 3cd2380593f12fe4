package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"apiperf/internal/cli"
	"apiperf/internal/perf"
	"apiperf/internal/report"
	"apiperf/internal/storage"
	"apiperf/internal/tui"
)

var (
	runURL        string
	runName       string
	runIterations int
	runConcurrent bool
	runWorkers    int
	runWarmup     int
	runToken      string
	runInclude    bool
	runOut        string
	runTUI        bool
	runReport     bool
	runEndpoints  []string
	runNoSave     bool
	runKeep       int
	runMethod     string
	runHeaders    []string
	runBody       string
)

var runCmd = &cobra.Command{
	Use:   "run [plan.yaml]",
	Short: "Execute a performance test plan",
	Long: `Execute a test plan against an API and record per-endpoint statistics.

With a YAML plan file the full request list is run. With --url a quick
single-endpoint plan is built from the method/header/body flags instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildRunConfig(cmd, args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var res *perf.RunResult
		if runTUI {
			res, err = tui.Run(ctx, *cfg)
		} else {
			res, err = cli.Run(ctx, *cfg)
		}
		if err != nil {
			return err
		}

		if runNoSave {
			return nil
		}

		file, err := storage.SaveResult(res, runOut)
		if err != nil {
			return err
		}
		fmt.Printf("\nResults saved to %s\n", file)

		recordInArchive(res, file)

		if runKeep > 0 {
			if _, err := storage.PruneResults(runOut, runKeep); err != nil {
				log.Warn().Err(err).Msg("pruning old results")
			}
		}

		if runReport {
			dir, err := report.Generate(res, runOut+"/"+res.TestName+"_report")
			if err != nil {
				return err
			}
			fmt.Printf("Report written to %s\n", dir)
		}
		return nil
	},
}

func buildRunConfig(cmd *cobra.Command, args []string) (*perf.RunConfig, error) {
	var cfg *perf.RunConfig
	var err error

	switch {
	case len(args) == 1:
		cfg, err = perf.LoadPlan(args[0])
		if err != nil {
			return nil, err
		}
	case runURL != "":
		spec := perf.RequestSpec{
			Method:         runMethod,
			FollowRedirect: true,
		}
		if len(runHeaders) > 0 {
			spec.Headers = make(map[string]string, len(runHeaders))
			for _, h := range runHeaders {
				parts := strings.SplitN(h, ":", 2)
				if len(parts) == 2 {
					spec.Headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
				}
			}
		}
		if runBody != "" {
			var body any
			if err := json.Unmarshal([]byte(runBody), &body); err != nil {
				return nil, fmt.Errorf("parsing --body as JSON: %w", err)
			}
			spec.JSONBody = body
		}
		cfg = &perf.RunConfig{
			Name:     fmt.Sprintf("api_test_%d", time.Now().Unix()),
			BaseURL:  runURL,
			Requests: []perf.RequestSpec{spec},
		}
	default:
		return nil, fmt.Errorf("either a plan file or --url is required")
	}

	// Flags override the plan only when set on the command line.
	if cmd.Flags().Changed("iterations") || cfg.Iterations == 0 {
		cfg.Iterations = runIterations
	}
	if cmd.Flags().Changed("concurrent") {
		cfg.Concurrent = runConcurrent
	}
	if cmd.Flags().Changed("workers") || cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = runWorkers
	}
	if cmd.Flags().Changed("warm-up") {
		cfg.WarmupIterations = runWarmup
	}
	if runName != "" {
		cfg.Name = runName
	}
	if runToken != "" {
		cfg.AuthToken = runToken
	}
	if runInclude {
		cfg.IncludeResponseData = true
	}
	if len(runEndpoints) > 0 {
		cfg.FilterRequests(runEndpoints)
		if len(cfg.Requests) == 0 {
			return nil, fmt.Errorf("no requests match the --endpoints filter")
		}
	}
	return cfg, nil
}

// recordInArchive indexes the saved run; archive trouble is logged, never
// fatal, since the JSON result on disk is the source of truth.
func recordInArchive(res *perf.RunResult, file string) {
	path, err := storage.DefaultArchivePath()
	if err != nil {
		log.Warn().Err(err).Msg("skipping run archive")
		return
	}
	a, err := storage.OpenArchive(path)
	if err != nil {
		log.Warn().Err(err).Msg("skipping run archive")
		return
	}
	defer a.Close()
	if _, err := a.Record(res, file); err != nil {
		log.Warn().Err(err).Msg("recording run in archive")
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runURL, "url", "u", "", "quick mode: single request against this URL")
	runCmd.Flags().StringVarP(&runMethod, "method", "X", "GET", "HTTP method for quick mode")
	runCmd.Flags().StringSliceVarP(&runHeaders, "header", "H", nil, `header for quick mode (e.g. "Key: Value")`)
	runCmd.Flags().StringVarP(&runBody, "body", "b", "", "JSON request body for quick mode")
	runCmd.Flags().StringVar(&runName, "name", "", "test name (overrides the plan)")
	runCmd.Flags().IntVarP(&runIterations, "iterations", "n", 10, "iterations per endpoint")
	runCmd.Flags().BoolVarP(&runConcurrent, "concurrent", "c", false, "run iterations through a worker pool")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 5, "worker pool size for --concurrent")
	runCmd.Flags().IntVar(&runWarmup, "warm-up", 0, "warm-up iterations excluded from results")
	runCmd.Flags().StringVar(&runToken, "token", "", "bearer token sent as Authorization header")
	runCmd.Flags().BoolVar(&runInclude, "include-response", false, "capture truncated response bodies")
	runCmd.Flags().StringVarP(&runOut, "out", "o", "performance_results", "directory for result files")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "show the live full-screen view")
	runCmd.Flags().BoolVar(&runReport, "report", false, "write an HTML report with charts")
	runCmd.Flags().StringSliceVar(&runEndpoints, "endpoints", nil, "only run requests whose endpoint matches")
	runCmd.Flags().BoolVar(&runNoSave, "no-save", false, "skip writing the result file")
	runCmd.Flags().IntVar(&runKeep, "keep", 0, "prune result files beyond the newest N (0 keeps all)")
}
