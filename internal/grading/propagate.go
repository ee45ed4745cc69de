package grading

import "fmt"

// Scope selects how far a staged rubric edit propagates.
type Scope string

const (
	// ScopeAllQuestions applies the edit to every matched item regardless
	// of which question its page maps to.
	ScopeAllQuestions Scope = "all_questions"
	// ScopeSameQuestion applies the edit only to matched items whose page
	// resolves to the same question as the edited item's page.
	ScopeSameQuestion Scope = "same_question"
	// ScopeLocalOnly discards the propagation and keeps the single edit.
	ScopeLocalOnly Scope = "local_only"
)

// ParseScope validates a wire-level scope value.
func ParseScope(raw string) (Scope, error) {
	switch Scope(raw) {
	case ScopeAllQuestions, ScopeSameQuestion, ScopeLocalOnly:
		return Scope(raw), nil
	}
	return "", fmt.Errorf("unknown propagation scope %q", raw)
}

// MatchedItem is a propagation candidate annotated with its owning student
// and resolved question so graders can judge the blast radius.
type MatchedItem struct {
	Item        Item   `json:"item"`
	StudentNum  string `json:"student_num"`
	QuestionNum *int   `json:"question_num"`
}

// Proposal is the pending-decision object of the staged-commit flow: the
// local edit has already been applied; the matched targets have not. It is
// resolved by exactly one Apply call.
type Proposal struct {
	Updated             Item          `json:"updated"`
	OriginalMarks       int           `json:"original_marks"`
	OriginalDescription string        `json:"original_description"`
	StudentNum          string        `json:"student_num"`
	QuestionNum         *int          `json:"question_num"`
	Matches             []MatchedItem `json:"matches"`
}

// Engine stages and applies rubric-edit propagation against one index.
type Engine struct {
	index *Index
}

// NewEngine returns a propagation engine bound to the given index.
func NewEngine(index *Index) *Engine {
	return &Engine{index: index}
}

// Stage inspects a committed edit and returns a proposal when the same
// pre-edit deduction exists elsewhere. It returns nil when the edit changed
// nothing or when no other item matches; in both cases there is nothing to
// decide.
func (e *Engine) Stage(updated Item, originalMarks int, originalDescription string) *Proposal {
	if updated.Marks == originalMarks && updated.Description == originalDescription {
		return nil
	}

	matched := e.index.FindMatching(originalMarks, originalDescription, updated.Ref())
	if len(matched) == 0 {
		return nil
	}

	proposal := &Proposal{
		Updated:             updated,
		OriginalMarks:       originalMarks,
		OriginalDescription: originalDescription,
		StudentNum:          e.index.StudentNumber(updated.File),
		Matches:             make([]MatchedItem, 0, len(matched)),
	}
	if q, ok := e.index.QuestionFor(updated.Ref()); ok {
		proposal.QuestionNum = &q
	}
	for _, item := range matched {
		candidate := MatchedItem{
			Item:       item,
			StudentNum: e.index.StudentNumber(item.File),
		}
		if q, ok := e.index.QuestionFor(item.Ref()); ok {
			candidate.QuestionNum = &q
		}
		proposal.Matches = append(proposal.Matches, candidate)
	}
	return proposal
}

// Apply resolves a proposal with the chosen scope and returns the items it
// edited. Targets are addressed by (file, page, item index) identity, never
// by value, so a repeated invocation cannot re-match a just-edited item.
// Targets deleted since staging are skipped silently.
func (e *Engine) Apply(proposal *Proposal, scope Scope) ([]Item, error) {
	if proposal == nil || scope == ScopeLocalOnly {
		return nil, nil
	}

	var applied []Item
	for _, match := range proposal.Matches {
		if scope == ScopeSameQuestion && !sameQuestion(proposal.QuestionNum, match.QuestionNum) {
			continue
		}
		edited, err := e.index.EditItem(match.Item.Ref(), match.Item.ItemIndex, proposal.Updated.Marks, proposal.Updated.Description)
		if err != nil {
			if err == ErrItemNotFound {
				continue
			}
			return applied, err
		}
		applied = append(applied, edited)
	}
	return applied, nil
}

func sameQuestion(a, b *int) bool {
	return a != nil && b != nil && *a == *b
}
