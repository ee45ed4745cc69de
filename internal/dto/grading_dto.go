package dto

import "github.com/markdesk/markdesk-api/internal/grading"

// StudentNumberRequest records the student number for a script.
type StudentNumberRequest struct {
	StudentNum string `json:"student_num" validate:"required,max=32"`
}

// PageQuestionRequest maps a page to the question answered on it.
type PageQuestionRequest struct {
	Question int `json:"question_num" validate:"required,min=1"`
}

// PageScoreRequest records the maximum score obtainable on a page.
type PageScoreRequest struct {
	Score int `json:"total_score" validate:"min=0"`
}

// PageGradingResponse is the grading metadata for one page.
type PageGradingResponse struct {
	QuestionNum *int `json:"question_num"`
	TotalScore  *int `json:"total_score"`
}

// ScriptGradingResponse is the grading record for one script: the student
// number plus per-page metadata, keyed by page identifier.
type ScriptGradingResponse struct {
	File       string                         `json:"file_idx"`
	StudentNum string                         `json:"student_num"`
	Pages      map[string]PageGradingResponse `json:"pages"`
}

// NewScriptGradingResponse converts a grading record into a DTO.
func NewScriptGradingResponse(file string, record grading.Record) ScriptGradingResponse {
	pages := make(map[string]PageGradingResponse, len(record.Pages))
	for page, meta := range record.Pages {
		pages[page] = PageGradingResponse{
			QuestionNum: meta.QuestionNum,
			TotalScore:  meta.TotalScore,
		}
	}
	return ScriptGradingResponse{
		File:       file,
		StudentNum: record.StudentNum,
		Pages:      pages,
	}
}
