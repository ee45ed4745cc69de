// Package report renders a session's grading statistics as a PDF handout
// for moderation meetings.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// Summary holds descriptive statistics for one mark series.
type Summary struct {
	Count  int
	Min    int
	Max    int
	Mean   float64
	Median float64
	Q25    float64
	Q75    float64
}

// UsageRow is one rubric deduction and the share of pages it appeared on.
type UsageRow struct {
	Marks       int
	Description string
	Proportion  float64
}

// QuestionSection aggregates one question's results.
type QuestionSection struct {
	Question     int
	MaxMarks     int
	Summary      *Summary
	Usage        []UsageRow
	FullyCorrect float64
}

// Data is everything the report needs.
type Data struct {
	SessionName   string
	GeneratedAt   time.Time
	TotalMarks    int
	ScriptCount   int
	TotalsSummary *Summary
	Questions     []QuestionSection
}

// Build renders the report and returns the PDF bytes.
func Build(data Data) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Grading report - %s", data.SessionName), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, fmt.Sprintf("Grading report: %s", data.SessionName), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s - %d scripts - total %d marks",
		data.GeneratedAt.Format("2 Jan 2006 15:04"), data.ScriptCount, data.TotalMarks), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	writeSummary(pdf, "Overall totals", data.TotalsSummary)

	for _, section := range data.Questions {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		header := fmt.Sprintf("Question %d", section.Question)
		if section.MaxMarks > 0 {
			header = fmt.Sprintf("%s (out of %d)", header, section.MaxMarks)
		}
		pdf.CellFormat(0, 8, header, "", 1, "L", false, 0, "")

		writeSummary(pdf, "Marks", section.Summary)
		writeUsage(pdf, section.Usage, section.FullyCorrect)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(pdf *fpdf.Fpdf, label string, summary *Summary) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, label, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	if summary == nil || summary.Count == 0 {
		pdf.CellFormat(0, 6, "No graded scripts yet.", "", 1, "L", false, 0, "")
		return
	}

	cells := []struct {
		name  string
		value string
	}{
		{"n", fmt.Sprintf("%d", summary.Count)},
		{"min", fmt.Sprintf("%d", summary.Min)},
		{"q25", fmt.Sprintf("%.2f", summary.Q25)},
		{"median", fmt.Sprintf("%.2f", summary.Median)},
		{"q75", fmt.Sprintf("%.2f", summary.Q75)},
		{"max", fmt.Sprintf("%d", summary.Max)},
		{"mean", fmt.Sprintf("%.2f", summary.Mean)},
	}
	for _, cell := range cells {
		pdf.CellFormat(27, 6, fmt.Sprintf("%s: %s", cell.name, cell.value), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
}

func writeUsage(pdf *fpdf.Fpdf, usage []UsageRow, fullyCorrect float64) {
	if len(usage) == 0 {
		return
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, "Rubric usage", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(20, 6, "Marks", "1", 0, "C", false, 0, "")
	pdf.CellFormat(130, 6, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, "Share", "1", 1, "C", false, 0, "")

	for _, row := range usage {
		pdf.CellFormat(20, 6, fmt.Sprintf("%+d", row.Marks), "1", 0, "C", false, 0, "")
		pdf.CellFormat(130, 6, truncate(row.Description, 80), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.0f%%", row.Proportion*100), "1", 1, "C", false, 0, "")
	}

	pdf.CellFormat(20, 6, "", "1", 0, "C", false, 0, "")
	pdf.CellFormat(130, 6, "Fully correct", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, fmt.Sprintf("%.0f%%", fullyCorrect*100), "1", 1, "C", false, 0, "")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
