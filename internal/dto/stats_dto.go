package dto

import "github.com/markdesk/markdesk-api/internal/grading"

// SummaryResponse is the descriptive statistics block for a mark series.
type SummaryResponse struct {
	Count  int     `json:"count"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// NewSummaryResponse converts a summary into a DTO. Returns nil for an
// empty series so clients can tell "no data" from a zero summary.
func NewSummaryResponse(summary grading.Summary, ok bool) *SummaryResponse {
	if !ok {
		return nil
	}
	return &SummaryResponse{
		Count:  summary.Count,
		Min:    summary.Min,
		Max:    summary.Max,
		Mean:   summary.Mean,
		Median: summary.Median,
		Q25:    summary.Q25,
		Q75:    summary.Q75,
	}
}

// QuestionStatsResponse is the mark distribution for one question.
type QuestionStatsResponse struct {
	Question int              `json:"question"`
	Marks    []int            `json:"marks"`
	Summary  *SummaryResponse `json:"summary"`
}

// TotalStatsResponse is the whole-script total distribution.
type TotalStatsResponse struct {
	Totals  []int            `json:"totals"`
	Summary *SummaryResponse `json:"summary"`
}

// HistogramBucketResponse is one bar of the total-score histogram.
type HistogramBucketResponse struct {
	Low   int `json:"low"`
	High  int `json:"high"`
	Count int `json:"count"`
}

// HistogramResponse is the distribution of script totals over equal-width
// score buckets.
type HistogramResponse struct {
	Buckets []HistogramBucketResponse `json:"buckets"`
}

// NewHistogramResponse converts histogram buckets into a DTO.
func NewHistogramResponse(buckets []grading.Bucket) HistogramResponse {
	out := HistogramResponse{Buckets: make([]HistogramBucketResponse, 0, len(buckets))}
	for _, b := range buckets {
		out.Buckets = append(out.Buckets, HistogramBucketResponse{
			Low:   b.Low,
			High:  b.High,
			Count: b.Count,
		})
	}
	return out
}

// RubricUsageResponse is one rubric deduction and how often it was applied.
type RubricUsageResponse struct {
	Marks       int     `json:"marks"`
	Description string  `json:"description"`
	Proportion  float64 `json:"proportion"`
}

// QuestionUsageResponse aggregates rubric usage across a question's pages,
// including the implicit fully-correct bucket.
type QuestionUsageResponse struct {
	Question     int                   `json:"question"`
	Items        []RubricUsageResponse `json:"items"`
	FullyCorrect float64               `json:"fully_correct"`
}

// NewQuestionUsageResponse converts a usage aggregation into a DTO.
func NewQuestionUsageResponse(question int, usage []grading.Usage, fullyCorrect float64) QuestionUsageResponse {
	items := make([]RubricUsageResponse, 0, len(usage))
	for _, u := range usage {
		items = append(items, RubricUsageResponse{
			Marks:       u.Marks,
			Description: u.Description,
			Proportion:  u.Proportion,
		})
	}
	return QuestionUsageResponse{
		Question:     question,
		Items:        items,
		FullyCorrect: fullyCorrect,
	}
}
