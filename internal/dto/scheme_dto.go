package dto

import (
	"strconv"

	"github.com/markdesk/markdesk-api/internal/grading"
)

// SchemeTotalRequest sets the assignment's total marks.
type SchemeTotalRequest struct {
	Total int `json:"total" validate:"required,min=1"`
}

// SchemeQuestionCountRequest resizes the declared question range.
type SchemeQuestionCountRequest struct {
	Count int `json:"count" validate:"required,min=1"`
}

// SchemeQuestionMarksRequest allocates marks to one question.
type SchemeQuestionMarksRequest struct {
	Question int `json:"question" validate:"required,min=1"`
	Marks    int `json:"marks" validate:"required,min=1"`
}

// SchemeResponse is the serialized marking scheme. Question numbers are
// string keys so the payload round-trips through JSON untouched.
type SchemeResponse struct {
	Total     int            `json:"total"`
	Questions map[string]int `json:"questions"`
	Allocated int            `json:"allocated"`
	Complete  bool           `json:"complete"`
}

// NewSchemeResponse converts a scheme into a DTO.
func NewSchemeResponse(scheme *grading.Scheme) SchemeResponse {
	questions := make(map[string]int, len(scheme.Questions))
	for q, marks := range scheme.Questions {
		questions[strconv.Itoa(q)] = marks
	}
	return SchemeResponse{
		Total:     scheme.Total,
		Questions: questions,
		Allocated: scheme.AllocatedMarks(),
		Complete:  scheme.Complete(),
	}
}
