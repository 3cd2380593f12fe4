package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"apiperf/internal/compare"
	"apiperf/internal/storage"
)

var (
	compareOutDir string
	compareLabel1 string
	compareLabel2 string
	compareXLSX   bool
)

var compareCmd = &cobra.Command{
	Use:   "compare <run1.json> <run2.json>",
	Short: "Compare two recorded runs",
	Long: `Compare two result files endpoint by endpoint and write an HTML report
with charts. Only endpoints present in both runs are compared.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r1, err := storage.LoadResult(args[0])
		if err != nil {
			return err
		}
		r2, err := storage.LoadResult(args[1])
		if err != nil {
			return err
		}

		c := compare.Compare(r1, r2, compareLabel1, compareLabel2)

		dir := compareOutDir
		if dir == "" {
			dir = "comparison_" + time.Now().Format("20060102_150405")
		}

		charts, err := compare.WriteCharts(c, dir)
		if err != nil {
			return err
		}
		path, err := compare.WriteReport(c, dir, charts)
		if err != nil {
			return err
		}
		fmt.Printf("Comparison report written to %s\n", path)

		if c.Empty() {
			fmt.Println("No common endpoints found to compare.")
		}

		if compareXLSX {
			wb, err := compare.WriteXLSX(c, dir)
			if err != nil {
				return err
			}
			fmt.Printf("Workbook written to %s\n", wb)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVarP(&compareOutDir, "output-dir", "o", "", "report directory (default comparison_<timestamp>)")
	compareCmd.Flags().StringVar(&compareLabel1, "run1-label", "", "display label for the first run")
	compareCmd.Flags().StringVar(&compareLabel2, "run2-label", "", "display label for the second run")
	compareCmd.Flags().BoolVar(&compareXLSX, "xlsx", false, "also write an xlsx workbook")
}
