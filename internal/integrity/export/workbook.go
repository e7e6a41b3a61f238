// Package export renders an integrity run report as an xlsx workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"trustledger/internal/integrity"
)

// Sheet names, in workbook order.
const (
	SheetSummary     = "Summary"
	SheetOverruns    = "Budget Overruns"
	SheetSpending    = "Unusual Spending"
	SheetDelays      = "Delayed Projects"
	SheetTrustScores = "Trust Scores"
	SheetDiagnostics = "Diagnostics"
)

const dateLayout = "2006-01-02"

// WriteWorkbook writes the report as xlsx to w.
func WriteWorkbook(w io.Writer, report *integrity.Report) error {
	f, err := build(report)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// SaveWorkbook writes the report as xlsx to path.
func SaveWorkbook(path string, report *integrity.Report) error {
	f, err := build(report)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func build(report *integrity.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		_ = f.Close()
		return nil, err
	}

	summary := [][]any{
		{"Started", report.StartedAt.Format("2006-01-02 15:04:05")},
		{"Finished", report.FinishedAt.Format("2006-01-02 15:04:05")},
	}
	var overruns, spending, delays, diagnostics [][]any
	if d := report.Detections; d != nil {
		summary = append(summary, []any{"Total detected", d.TotalDetected}, []any{})
		summary = append(summary, []any{"Category", "Detected", "Skipped", "Error"})
		for _, c := range d.Summaries {
			summary = append(summary, []any{string(c.Category), c.Detected, c.Skipped, c.Error})
		}
		for _, o := range d.BudgetOverruns {
			pct := "n/a"
			if o.OverrunPercentage != nil {
				pct = o.OverrunPercentage.StringFixed(2)
			}
			overruns = append(overruns, []any{
				o.Project, o.Budget.InexactFloat64(), o.Spent.InexactFloat64(),
				o.OverrunAmount.InexactFloat64(), pct, string(o.Severity),
			})
		}
		for _, u := range d.UnusualSpending {
			spending = append(spending, []any{
				u.Project, u.FundFlowID.String(), u.Amount.InexactFloat64(),
				u.Date.Format(dateLayout), u.AverageDaily.InexactFloat64(), string(u.Severity),
			})
		}
		for _, p := range d.DelayedProjects {
			delays = append(delays, []any{
				p.Project, p.EndDate.Format(dateLayout), p.DaysOverdue, string(p.Severity),
			})
		}
		for _, diag := range d.Diagnostics {
			diagnostics = append(diagnostics, []any{string(diag.Category), diag.RecordID, diag.Reason})
		}
	}

	var scores [][]any
	for _, s := range report.TrustScores {
		scores = append(scores, []any{
			s.Department, s.TransparencyScore, s.CommunityOversightScore,
			s.ResponseTimeScore, s.DocumentCompletenessScore, s.OverallScore,
			s.CalculatedAt.Format(dateLayout),
		})
	}

	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{SheetOverruns, []any{"Project", "Budget", "Spent", "Overrun", "Overrun %", "Severity"}, overruns},
		{SheetSpending, []any{"Project", "Fund Flow", "Amount", "Date", "Daily Average", "Severity"}, spending},
		{SheetDelays, []any{"Project", "End Date", "Days Overdue", "Severity"}, delays},
		{SheetTrustScores, []any{"Department", "Transparency", "Community Oversight", "Response Time", "Document Completeness", "Overall", "Calculated"}, scores},
		{SheetDiagnostics, []any{"Category", "Record", "Reason"}, diagnostics},
	}

	if err := writeRows(f, SheetSummary, summary); err != nil {
		_ = f.Close()
		return nil, err
	}
	for _, sh := range sheets {
		if _, err := f.NewSheet(sh.name); err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := writeRows(f, sh.name, append([][]any{sh.header}, sh.rows...)); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
