package dto

import "github.com/markdesk/markdesk-api/internal/grading"

// RubricItemCreateRequest adds a deduction (or bonus) to a page. Marks is
// the raw text the grader typed; the service parses and validates it.
type RubricItemCreateRequest struct {
	File        string `json:"file_idx" validate:"required,max=32"`
	Page        string `json:"page_idx" validate:"required,max=32"`
	Marks       string `json:"marks" validate:"required,max=16"`
	Description string `json:"description" validate:"required,max=1000"`
}

// RubricItemEditRequest rewrites an existing item in place.
type RubricItemEditRequest struct {
	Marks       string `json:"marks" validate:"required,max=16"`
	Description string `json:"description" validate:"required,max=1000"`
}

// RubricItemResponse is the serialized representation of one rubric item.
type RubricItemResponse struct {
	Marks       int    `json:"marks"`
	Description string `json:"description"`
	ItemIdx     int    `json:"item_idx"`
	File        string `json:"file_idx"`
	Page        string `json:"page_idx"`
}

// NewRubricItemResponse converts an item into a DTO.
func NewRubricItemResponse(item grading.Item) RubricItemResponse {
	return RubricItemResponse{
		Marks:       item.Marks,
		Description: item.Description,
		ItemIdx:     item.ItemIndex,
		File:        item.File,
		Page:        item.Page,
	}
}

// NewRubricItemResponseSlice converts a slice of items into DTOs.
func NewRubricItemResponseSlice(items []grading.Item) []RubricItemResponse {
	out := make([]RubricItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewRubricItemResponse(item))
	}
	return out
}

// MatchedItemResponse annotates a propagation candidate with the student
// and question it belongs to.
type MatchedItemResponse struct {
	Item        RubricItemResponse `json:"item"`
	StudentNum  string             `json:"student_num"`
	QuestionNum *int               `json:"question_num"`
}

// ProposalResponse describes a staged propagation decision: the edit has
// already landed on the grader's page; Matches lists the pages that would
// receive the same rewrite.
type ProposalResponse struct {
	Updated             RubricItemResponse    `json:"updated"`
	OriginalMarks       int                   `json:"original_marks"`
	OriginalDescription string                `json:"original_description"`
	StudentNum          string                `json:"student_num"`
	QuestionNum         *int                  `json:"question_num"`
	Matches             []MatchedItemResponse `json:"matches"`
}

// NewProposalResponse converts a proposal into a DTO. Returns nil when
// there is nothing to decide.
func NewProposalResponse(proposal *grading.Proposal) *ProposalResponse {
	if proposal == nil {
		return nil
	}
	matches := make([]MatchedItemResponse, 0, len(proposal.Matches))
	for _, match := range proposal.Matches {
		matches = append(matches, MatchedItemResponse{
			Item:        NewRubricItemResponse(match.Item),
			StudentNum:  match.StudentNum,
			QuestionNum: match.QuestionNum,
		})
	}
	return &ProposalResponse{
		Updated:             NewRubricItemResponse(proposal.Updated),
		OriginalMarks:       proposal.OriginalMarks,
		OriginalDescription: proposal.OriginalDescription,
		StudentNum:          proposal.StudentNum,
		QuestionNum:         proposal.QuestionNum,
		Matches:             matches,
	}
}

// RubricEditResponse pairs the committed local edit with the propagation
// proposal it staged, if any.
type RubricEditResponse struct {
	Updated  RubricItemResponse `json:"updated"`
	Proposal *ProposalResponse  `json:"proposal,omitempty"`
}

// ResolveRequest answers a staged proposal with a propagation scope.
type ResolveRequest struct {
	Scope string `json:"scope" validate:"required,oneof=all_questions same_question local_only"`
}

// ResolveResponse reports the items a resolution rewrote.
type ResolveResponse struct {
	Applied []RubricItemResponse `json:"applied"`
}
