package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hoombar/linkpulse/internal/checker"
)

// Excel writes the report as a workbook with a Summary sheet and one row per
// checked link on a Links sheet.
func Excel(r *checker.Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	const linksSheet = "Links"

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(linksSheet); err != nil {
		return fmt.Errorf("create links sheet: %w", err)
	}

	summaryRows := [][]any{
		{"Run ID", r.RunID},
		{"Checked at", r.FinishedAt.Format(time.RFC3339)},
		{"Duration", r.Stats.Duration.Round(time.Millisecond).String()},
		{"Total links", r.Stats.Total},
		{"Working", r.Stats.Working},
		{"Broken", r.Stats.Broken},
		{"Interrupted", r.Interrupted},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	header := []any{"Source", "Source kind", "Link title", "URL", "Status", "Reason", "Detail", "Price", "Stock", "Attempts"}
	if err := f.SetSheetRow(linksSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, result := range r.Results {
		status := "broken"
		if result.Verdict.Working {
			status = "working"
		}
		row := []any{
			result.Task.SourceTitle,
			string(result.Task.SourceKind),
			result.Task.Title,
			result.Task.URL,
			status,
			string(result.Verdict.Reason),
			result.Verdict.Detail,
			result.Verdict.PriceDisplay,
			string(result.Verdict.StockState),
			result.Attempts,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(linksSheet, cell, &row); err != nil {
			return fmt.Errorf("write link row: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
