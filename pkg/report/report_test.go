package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildProducesPDF(t *testing.T) {
	data := Data{
		SessionName: "Midterm",
		GeneratedAt: time.Date(2026, 5, 12, 14, 30, 0, 0, time.UTC),
		TotalMarks:  40,
		ScriptCount: 3,
		TotalsSummary: &Summary{
			Count: 3, Min: 22, Max: 38, Mean: 30.0, Median: 30.0, Q25: 26.0, Q75: 34.0,
		},
		Questions: []QuestionSection{
			{
				Question: 1,
				MaxMarks: 20,
				Summary:  &Summary{Count: 3, Min: 10, Max: 20, Mean: 15.0, Median: 15.0, Q25: 12.5, Q75: 17.5},
				Usage: []UsageRow{
					{Marks: -2, Description: "missing base case", Proportion: 0.67},
					{Marks: -5, Description: "no induction step", Proportion: 0.33},
				},
				FullyCorrect: 0.33,
			},
			{Question: 2, MaxMarks: 20},
		},
	}

	pdf, err := Build(data)
	require.NoError(t, err)
	require.True(t, len(pdf) > 500)
	require.Equal(t, "%PDF", string(pdf[:4]))
}

func TestBuildEmptySections(t *testing.T) {
	pdf, err := Build(Data{SessionName: "Empty", GeneratedAt: time.Now()})
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(pdf[:4]))
}

func TestBuildStudentOrdersPagesNumerically(t *testing.T) {
	deductions := []StudentDeduction{
		{Page: "10", Marks: -1, Description: "late penalty"},
		{Page: "2", Marks: -2, Description: "missing base case"},
		{Page: "1", Marks: -3, Description: "no induction step"},
	}

	_, err := BuildStudent(StudentData{
		StudentNum:  "A1234567B",
		SessionName: "Midterm",
		GeneratedAt: time.Now(),
		TotalMarks:  40,
		Total:       34,
		Deductions:  deductions,
	})
	require.NoError(t, err)

	require.Equal(t, "1", deductions[0].Page)
	require.Equal(t, "2", deductions[1].Page)
	require.Equal(t, "10", deductions[2].Page)
}

func TestBuildStudentProducesPDF(t *testing.T) {
	pdf, err := BuildStudent(StudentData{
		StudentNum:  "A1234567B",
		SessionName: "Midterm",
		GeneratedAt: time.Now(),
		TotalMarks:  40,
		Total:       33,
		Questions: []StudentQuestionRow{
			{Question: 1, MaxMarks: 20, Score: 15},
			{Question: 2, MaxMarks: 20, Score: 18},
		},
		Deductions: []StudentDeduction{
			{Page: "2", Marks: -5, Description: "no induction step"},
			{Page: "4", Marks: -2, Description: "missing base case"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(pdf[:4]))
}
