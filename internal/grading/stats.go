package grading

import "sort"

// MarksByQuestion derives per-question final scores across all scripts,
// optionally filtered to one student. For each question declared in the
// scheme, a script's final score is the question's maximum plus the sum of
// rubric item marks on the pages mapped to that question; scripts with no
// items for a question contribute the full question marks. Items on pages
// with no grading metadata contribute nothing.
func MarksByQuestion(index *Index, scheme *Scheme, studentNum string) map[int][]int {
	result := make(map[int][]int, len(scheme.Questions))
	questions := scheme.QuestionNumbers()

	for _, file := range index.Files() {
		if studentNum != "" && index.StudentNumber(file) != studentNum {
			continue
		}
		deductions := deductionsByQuestion(index, file)
		for _, q := range questions {
			result[q] = append(result[q], scheme.Questions[q]+deductions[q])
		}
	}
	return result
}

func deductionsByQuestion(index *Index, file string) map[int]int {
	deductions := make(map[int]int)
	for page, items := range index.items[file] {
		q, ok := index.QuestionFor(PageRef{File: file, Page: page})
		if !ok {
			continue
		}
		for _, item := range items {
			deductions[q] += item.Marks
		}
	}
	return deductions
}

// QuestionMarksForFile derives one script's final score per scheme
// question: the question's maximum plus the sum of rubric item marks on
// the script's pages mapped to that question.
func QuestionMarksForFile(index *Index, scheme *Scheme, file string) map[int]int {
	deductions := deductionsByQuestion(index, file)
	result := make(map[int]int, len(scheme.Questions))
	for _, q := range scheme.QuestionNumbers() {
		result[q] = scheme.Questions[q] + deductions[q]
	}
	return result
}

// StudentTotalMarks derives one final total per script: the assignment
// total plus the sum of all rubric item marks across the script's pages.
func StudentTotalMarks(index *Index, scheme *Scheme, studentNum string) []int {
	var totals []int
	for _, file := range index.Files() {
		if studentNum != "" && index.StudentNumber(file) != studentNum {
			continue
		}
		sum := scheme.Total
		for _, items := range index.items[file] {
			for _, item := range items {
				sum += item.Marks
			}
		}
		totals = append(totals, sum)
	}
	return totals
}

// Summary holds descriptive statistics over a list of derived scores.
type Summary struct {
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
	Count  int     `json:"count"`
}

// Describe computes population statistics over the given scores. With a
// single sample the quantiles degenerate to that value; this is the
// documented convention, not an error. The second return is false for an
// empty input.
func Describe(values []int) (Summary, bool) {
	if len(values) == 0 {
		return Summary{}, false
	}

	sorted := make([]float64, len(values))
	sum := 0
	for i, v := range values {
		sorted[i] = float64(v)
		sum += v
	}
	sort.Float64s(sorted)

	summary := Summary{
		Min:    int(sorted[0]),
		Max:    int(sorted[len(sorted)-1]),
		Mean:   float64(sum) / float64(len(values)),
		Median: quantile(sorted, 0.5),
		Q25:    quantile(sorted, 0.25),
		Q75:    quantile(sorted, 0.75),
		Count:  len(values),
	}
	return summary, true
}

// quantile interpolates linearly between closest ranks over a sorted slice,
// matching inclusive population quantiles.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lower := int(pos)
	if lower >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}

// Bucket is one bar of a score histogram, counting values in [Low, High).
// The last bucket is closed on both ends.
type Bucket struct {
	Low   int `json:"low"`
	High  int `json:"high"`
	Count int `json:"count"`
}

// Histogram distributes values over equal-width buckets spanning [0, upper].
// Values outside the range are clamped into the edge buckets so a deduction
// pushing a total below zero still shows up.
func Histogram(values []int, upper, buckets int) []Bucket {
	if buckets <= 0 {
		buckets = 10
	}
	width := upper / buckets
	if upper%buckets != 0 {
		width++
	}
	if width < 1 {
		width = 1
	}

	out := make([]Bucket, buckets)
	for i := range out {
		out[i].Low = i * width
		out[i].High = (i + 1) * width
	}
	for _, v := range values {
		idx := v / width
		if idx < 0 {
			idx = 0
		}
		if idx >= buckets {
			idx = buckets - 1
		}
		out[idx].Count++
	}
	return out
}

// Usage describes how often one exact rubric deduction was applied for a
// question, as a proportion of all scripts in the session.
type Usage struct {
	Marks       int     `json:"marks"`
	Description string  `json:"description"`
	Proportion  float64 `json:"proportion"`
}

// RubricUsageForQuestion aggregates, per exact (marks, description) pair,
// the share of scripts carrying that item on a page mapped to the question.
// The second return is the share of scripts with no rubric items at all for
// the question: the implicit fully-correct bucket.
func RubricUsageForQuestion(index *Index, question int) ([]Usage, float64) {
	files := index.Files()
	if len(files) == 0 {
		return nil, 0
	}

	type usageKey struct {
		marks       int
		description string
	}
	counts := make(map[usageKey]int)
	fullyCorrect := 0

	for _, file := range files {
		seen := make(map[usageKey]bool)
		hasItems := false
		for page, items := range index.items[file] {
			q, ok := index.QuestionFor(PageRef{File: file, Page: page})
			if !ok || q != question {
				continue
			}
			for _, item := range items {
				hasItems = true
				seen[usageKey{marks: item.Marks, description: item.Description}] = true
			}
		}
		if !hasItems {
			fullyCorrect++
			continue
		}
		for key := range seen {
			counts[key]++
		}
	}

	total := float64(len(files))
	usages := make([]Usage, 0, len(counts))
	for key, count := range counts {
		usages = append(usages, Usage{
			Marks:       key.marks,
			Description: key.description,
			Proportion:  float64(count) / total,
		})
	}
	sort.Slice(usages, func(i, j int) bool {
		if usages[i].Description != usages[j].Description {
			return usages[i].Description < usages[j].Description
		}
		return usages[i].Marks < usages[j].Marks
	})
	return usages, float64(fullyCorrect) / total
}
