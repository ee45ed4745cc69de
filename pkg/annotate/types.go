package annotate

import "context"

// SuggestionInput carries the grading context the model needs to phrase a
// rubric description: the deduction being recorded and the descriptions
// already used elsewhere in the session, so suggestions stay consistent.
type SuggestionInput struct {
	Marks                int
	Question             int
	ExistingDescriptions []string
	Notes                string
}

// SuggestionResult is a proposed rubric description.
type SuggestionResult struct {
	Description string
	Confidence  float64
	Raw         map[string]interface{}
}

// Suggester proposes rubric description phrasings.
type Suggester interface {
	Suggest(ctx context.Context, input SuggestionInput) (SuggestionResult, error)
}
