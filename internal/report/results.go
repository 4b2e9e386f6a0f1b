package report

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"sheetcheck/internal/runner"
)

var resultsHeader = []interface{}{"Test Name", "Status", "Code", "Body Validation", "Header Validation", "Response Time (ms)", "Details"}

// WriteResults saves a results workbook: one sheet per input sheet mirroring
// the console table, plus a Summary sheet with the aggregate counts.
func WriteResults(path string, results []runner.SheetResult, summary runner.RunSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range results {
		name := sheet.Name
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("naming sheet %s: %w", name, err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return fmt.Errorf("creating sheet %s: %w", name, err)
			}
		}

		if err := f.SetSheetRow(name, "A1", &resultsHeader); err != nil {
			return fmt.Errorf("writing header of %s: %w", name, err)
		}
		for j, outcome := range sheet.Outcomes {
			cell := fmt.Sprintf("A%d", j+2)
			code := ""
			if outcome.HasCode {
				code = strconv.Itoa(outcome.Code)
			}
			elapsed := ""
			if outcome.Elapsed > 0 {
				elapsed = fmt.Sprintf("%.2f", float64(outcome.Elapsed.Microseconds())/1000)
			}
			row := []interface{}{
				outcome.Name,
				string(outcome.Status),
				code,
				string(outcome.BodyValidation),
				string(outcome.HeaderValidation),
				elapsed,
				outcome.Details,
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return fmt.Errorf("writing row %d of %s: %w", j+1, name, err)
			}
		}
	}

	if _, err := f.NewSheet("Summary"); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}
	summaryRows := [][]interface{}{
		{"Total", summary.Total()},
		{"Passed", summary.Passed},
		{"Failed", summary.Failed},
		{"Errors", summary.Errors},
		{"Skipped", summary.Skipped},
	}
	for i := range summaryRows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow("Summary", cell, &summaryRows[i]); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving results workbook %s: %w", path, err)
	}
	return nil
}
