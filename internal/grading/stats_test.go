package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildScheme(t *testing.T, total int, questions map[int]int) *Scheme {
	t.Helper()
	scheme, err := NewScheme(total)
	require.NoError(t, err)
	require.NoError(t, scheme.SetQuestionCount(len(questions)))
	for q, marks := range questions {
		require.NoError(t, scheme.SetQuestionMarks(q, marks))
	}
	return scheme
}

func TestMarksByQuestionSingleScript(t *testing.T) {
	scheme := buildScheme(t, 10, map[int]int{1: 5, 2: 5})

	index := NewIndex()
	_, err := index.AddItem(pageRef("0", "0"), -2, "sign error")
	require.NoError(t, err)
	index.SetQuestionNumber(pageRef("0", "0"), 1)
	index.SetQuestionNumber(pageRef("0", "1"), 2)

	marks := MarksByQuestion(index, scheme, "")
	require.Equal(t, map[int][]int{1: {3}, 2: {5}}, marks)

	totals := StudentTotalMarks(index, scheme, "")
	require.Equal(t, []int{8}, totals)
}

func TestMarksByQuestionFiltersByStudent(t *testing.T) {
	scheme := buildScheme(t, 10, map[int]int{1: 5, 2: 5})

	index := NewIndex()
	_, err := index.AddItem(pageRef("0", "0"), -2, "sign error")
	require.NoError(t, err)
	index.SetStudentNumber("0", "A0000000A")
	index.SetQuestionNumber(pageRef("0", "0"), 1)

	_, err = index.AddItem(pageRef("1", "0"), -4, "wrong method")
	require.NoError(t, err)
	index.SetStudentNumber("1", "B1111111B")
	index.SetQuestionNumber(pageRef("1", "0"), 1)

	marks := MarksByQuestion(index, scheme, "B1111111B")
	require.Equal(t, map[int][]int{1: {1}, 2: {5}}, marks)

	totals := StudentTotalMarks(index, scheme, "B1111111B")
	require.Equal(t, []int{6}, totals)
}

func TestMarksByQuestionIgnoresUnmappedPages(t *testing.T) {
	scheme := buildScheme(t, 10, map[int]int{1: 5, 2: 5})

	index := NewIndex()
	// No grading metadata for this page: its items contribute nothing.
	_, err := index.AddItem(pageRef("0", "3"), -2, "sign error")
	require.NoError(t, err)

	marks := MarksByQuestion(index, scheme, "")
	require.Equal(t, map[int][]int{1: {5}, 2: {5}}, marks)
}

func TestAggregationIsOrderIndependent(t *testing.T) {
	scheme := buildScheme(t, 10, map[int]int{1: 5, 2: 5})

	build := func(files []string) *Index {
		index := NewIndex()
		deductions := map[string]int{"0": -1, "1": -2, "2": -3}
		for _, file := range files {
			_, err := index.AddItem(pageRef(file, "0"), deductions[file], "error")
			require.NoError(t, err)
			index.SetQuestionNumber(pageRef(file, "0"), 1)
		}
		return index
	}

	forward := build([]string{"0", "1", "2"})
	backward := build([]string{"2", "0", "1"})

	require.Equal(t, MarksByQuestion(forward, scheme, ""), MarksByQuestion(backward, scheme, ""))
	require.Equal(t, StudentTotalMarks(forward, scheme, ""), StudentTotalMarks(backward, scheme, ""))
}

func TestDescribe(t *testing.T) {
	summary, ok := Describe([]int{8, 6, 10, 7})
	require.True(t, ok)
	require.Equal(t, 6, summary.Min)
	require.Equal(t, 10, summary.Max)
	require.InDelta(t, 7.75, summary.Mean, 1e-9)
	require.InDelta(t, 7.5, summary.Median, 1e-9)
	require.InDelta(t, 6.75, summary.Q25, 1e-9)
	require.InDelta(t, 8.5, summary.Q75, 1e-9)
	require.Equal(t, 4, summary.Count)
}

func TestDescribeSingleSampleDegenerates(t *testing.T) {
	summary, ok := Describe([]int{8})
	require.True(t, ok)
	require.Equal(t, 8, summary.Min)
	require.Equal(t, 8, summary.Max)
	require.InDelta(t, 8.0, summary.Median, 1e-9)
	require.InDelta(t, 8.0, summary.Q25, 1e-9)
	require.InDelta(t, 8.0, summary.Q75, 1e-9)

	_, ok = Describe(nil)
	require.False(t, ok)
}

func TestRubricUsageForQuestion(t *testing.T) {
	index := NewIndex()

	_, err := index.AddItem(pageRef("0", "0"), -2, "sign error")
	require.NoError(t, err)
	index.SetQuestionNumber(pageRef("0", "0"), 1)

	_, err = index.AddItem(pageRef("1", "0"), -2, "sign error")
	require.NoError(t, err)
	_, err = index.AddItem(pageRef("1", "0"), -1, "missing unit")
	require.NoError(t, err)
	index.SetQuestionNumber(pageRef("1", "0"), 1)

	// Third script has nothing recorded for question 1.
	index.EnsureFile("2")

	usages, fullyCorrect := RubricUsageForQuestion(index, 1)
	require.Len(t, usages, 2)
	require.Equal(t, Usage{Marks: -1, Description: "missing unit", Proportion: 1.0 / 3.0}, usages[0])
	require.Equal(t, Usage{Marks: -2, Description: "sign error", Proportion: 2.0 / 3.0}, usages[1])
	require.InDelta(t, 1.0/3.0, fullyCorrect, 1e-9)
}

func TestRubricUsageEmptyIndex(t *testing.T) {
	usages, fullyCorrect := RubricUsageForQuestion(NewIndex(), 1)
	require.Empty(t, usages)
	require.Zero(t, fullyCorrect)
}

func TestHistogramClampsOutOfRange(t *testing.T) {
	buckets := Histogram([]int{-3, 0, 4, 9, 10, 25}, 10, 10)
	require.Len(t, buckets, 10)
	require.Equal(t, Bucket{Low: 0, High: 1, Count: 2}, buckets[0])
	require.Equal(t, Bucket{Low: 4, High: 5, Count: 1}, buckets[4])
	require.Equal(t, Bucket{Low: 9, High: 10, Count: 3}, buckets[9])
}

func TestHistogramUnevenWidth(t *testing.T) {
	buckets := Histogram([]int{0, 12, 25}, 25, 10)
	require.Len(t, buckets, 10)
	require.Equal(t, 3, buckets[0].High)
	require.Equal(t, 1, buckets[0].Count)
	require.Equal(t, 1, buckets[4].Count)
	require.Equal(t, 1, buckets[8].Count)
}

func TestQuestionMarksForFile(t *testing.T) {
	scheme := buildScheme(t, 20, map[int]int{1: 12, 2: 8})
	index := NewIndex()

	_, err := index.AddItem(pageRef("0", "0"), -3, "sign error")
	require.NoError(t, err)
	index.SetQuestionNumber(pageRef("0", "0"), 1)

	marks := QuestionMarksForFile(index, scheme, "0")
	require.Equal(t, map[int]int{1: 9, 2: 8}, marks)
}
