// Package report renders run results: one console table per sheet plus an
// aggregate summary line, and optionally a results workbook.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"sheetcheck/internal/runner"
)

const detailsLimit = 80

var tableHeader = []string{"Test Name", "Time", "Status", "Code", "Body Val", "Header Val", "Details"}

// Console renders sheet tables and the run summary to a writer.
type Console struct {
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Render writes one table per sheet followed by the aggregate count line.
func (c *Console) Render(results []runner.SheetResult, summary runner.RunSummary) {
	for _, sheet := range results {
		fmt.Fprintf(c.out, "\nSheet: %s\n", sheet.Name)

		table := tablewriter.NewWriter(c.out)
		table.SetHeader(tableHeader)
		table.SetAutoWrapText(false)
		for _, outcome := range sheet.Outcomes {
			table.Append(outcomeRow(outcome))
		}
		table.Render()
	}

	fmt.Fprintf(c.out, "\nTotal: %d  Passed: %d  Failed: %d  Errors: %d  Skipped: %d\n",
		summary.Total(), summary.Passed, summary.Failed, summary.Errors, summary.Skipped)
}

func outcomeRow(outcome runner.Outcome) []string {
	elapsed := "N/A"
	if outcome.Elapsed > 0 {
		elapsed = fmt.Sprintf("%.2f ms", float64(outcome.Elapsed.Microseconds())/1000)
	}
	code := "N/A"
	if outcome.HasCode {
		code = strconv.Itoa(outcome.Code)
	}
	return []string{
		outcome.Name,
		elapsed,
		string(outcome.Status),
		code,
		string(outcome.BodyValidation),
		string(outcome.HeaderValidation),
		truncate(outcome.Details, detailsLimit),
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
