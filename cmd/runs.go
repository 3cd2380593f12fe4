package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"apiperf/internal/storage"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := storage.DefaultArchivePath()
		if err != nil {
			return err
		}
		a, err := storage.OpenArchive(path)
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.List(runsLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No recorded runs.")
			return nil
		}

		fmt.Printf("%-28s %-10s %6s %6s %6s %9s  %s\n",
			"Test", "When", "Eps", "Reqs", "Fail", "Duration", "File")
		for _, e := range entries {
			mode := ""
			if e.Concurrent {
				mode = " (conc)"
			}
			fmt.Printf("%-28s %-10s %6d %6d %6d %8.1fs  %s%s\n",
				trimName(e.TestName, 28),
				humanize.Time(e.SavedAt),
				e.Endpoints, e.TotalRequests, e.FailedCount, e.DurationSec,
				e.File, mode)
		}
		return nil
	},
}

func trimName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "l", 20, "maximum entries to show")
}
