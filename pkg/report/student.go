package report

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
)

// StudentQuestionRow is one question's final score on a single script.
type StudentQuestionRow struct {
	Question int
	MaxMarks int
	Score    int
}

// StudentDeduction is one rubric item applied to a page of the script.
type StudentDeduction struct {
	Page        string
	Marks       int
	Description string
}

// StudentData is everything the per-script grade report needs.
type StudentData struct {
	StudentNum  string
	SessionName string
	GeneratedAt time.Time
	TotalMarks  int
	Total       int
	Questions   []StudentQuestionRow
	Deductions  []StudentDeduction
}

// BuildStudent renders one script's grade report and returns the PDF bytes.
func BuildStudent(data StudentData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	title := data.StudentNum
	if title == "" {
		title = "ungraded script"
	}
	pdf.SetTitle(fmt.Sprintf("Grade report - %s", title), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, fmt.Sprintf("Grade report: %s", title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s - generated %s",
		data.SessionName, data.GeneratedAt.Format("2 Jan 2006 15:04")), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, fmt.Sprintf("Total: %d / %d", data.Total, data.TotalMarks), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(40, 6, "Question", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Score", "1", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range data.Questions {
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", row.Question), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d / %d", row.Score, row.MaxMarks), "1", 1, "C", false, 0, "")
	}

	if len(data.Deductions) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, "Rubric items", "", 1, "L", false, 0, "")

		// Page keys are decimal strings; "2" sorts before "10".
		sort.SliceStable(data.Deductions, func(i, j int) bool {
			return pageLess(data.Deductions[i].Page, data.Deductions[j].Page)
		})

		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(20, 6, "Page", "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, "Marks", "1", 0, "C", false, 0, "")
		pdf.CellFormat(140, 6, "Description", "1", 1, "L", false, 0, "")
		for _, row := range data.Deductions {
			pdf.CellFormat(20, 6, row.Page, "1", 0, "C", false, 0, "")
			pdf.CellFormat(20, 6, fmt.Sprintf("%+d", row.Marks), "1", 0, "C", false, 0, "")
			pdf.CellFormat(140, 6, truncate(row.Description, 86), "1", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render grade report: %w", err)
	}
	return buf.Bytes(), nil
}

func pageLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
