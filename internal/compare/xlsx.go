package compare

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const xlsxFile = "comparison.xlsx"

var xlsxHeaders = []string{"Endpoint", "Metric", "Run 1", "Run 2", "Difference", "Change (%)"}

// WriteXLSX writes the comparison as an excelize workbook into dir: one
// row per endpoint x metric, favorable diffs on green fill, unfavorable
// on red. Returns the workbook path.
func WriteXLSX(c *Comparison, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Comparison"
	f.SetSheetName("Sheet1", sheet)
	f.SetColWidth(sheet, "A", "A", 36)
	f.SetColWidth(sheet, "B", "F", 16)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0F0"}},
	})
	if err != nil {
		return "", fmt.Errorf("creating header style: %w", err)
	}
	goodStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"C8E6C9"}},
	})
	badStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFCDD2"}},
	})

	for i, h := range xlsxHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	f.SetCellValue(sheet, "A2", fmt.Sprintf("%s vs %s", c.Run1Name, c.Run2Name))
	f.SetCellValue(sheet, "B2", c.GeneratedAt.Format("2006-01-02 15:04:05"))

	row := 3
	if c.Empty() {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "No common endpoints found to compare.")
	}
	for _, ed := range c.Endpoints {
		for _, m := range ed.Metrics {
			cells := []any{ed.Endpoint, m.Label, m.Run1, m.Run2, m.Diff, m.PctChange}
			for i, v := range cells {
				cell := fmt.Sprintf("%c%d", 'A'+i, row)
				f.SetCellValue(sheet, cell, v)
			}
			diffRange := fmt.Sprintf("E%d", row)
			pctRange := fmt.Sprintf("F%d", row)
			switch m.Sentiment {
			case Good:
				f.SetCellStyle(sheet, diffRange, pctRange, goodStyle)
			case Bad:
				f.SetCellStyle(sheet, diffRange, pctRange, badStyle)
			}
			row++
		}
	}

	path := filepath.Join(dir, xlsxFile)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("saving workbook: %w", err)
	}
	return path, nil
}
