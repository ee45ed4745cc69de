package grading

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidMarks indicates the marks input did not parse as a non-zero integer.
var ErrInvalidMarks = errors.New("marks must be a non-zero integer")

// ErrEmptyDescription indicates the rubric description is blank after trimming.
var ErrEmptyDescription = errors.New("rubric description cannot be empty")

// Item is the atomic grading record: a signed marks delta plus a description,
// attached to one page of one script. ItemIndex is unique within its page
// and never reused, keeping propagation matching and UI identity stable.
type Item struct {
	Marks       int    `json:"marks"`
	Description string `json:"description"`
	ItemIndex   int    `json:"item_idx"`
	File        string `json:"file_idx"`
	Page        string `json:"page_idx"`
}

// ParseMarks converts grader input into a marks delta. Fractional or
// non-numeric input is rejected, as is zero: a rubric item always moves
// the score.
func ParseMarks(input string) (int, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), "+"))
	marks, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, ErrInvalidMarks
	}
	if marks == 0 {
		return 0, ErrInvalidMarks
	}
	return marks, nil
}

func newItem(marks int, description string, itemIndex int, ref PageRef) (Item, error) {
	if marks == 0 {
		return Item{}, ErrInvalidMarks
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return Item{}, ErrEmptyDescription
	}
	return Item{
		Marks:       marks,
		Description: description,
		ItemIndex:   itemIndex,
		File:        ref.File,
		Page:        ref.Page,
	}, nil
}

// ApplyEdit returns a copy of the item carrying the new marks and
// description. The receiver is never mutated, so staged propagation always
// sees the pre-edit value it captured.
func (i Item) ApplyEdit(marks int, description string) (Item, error) {
	if marks == 0 {
		return Item{}, ErrInvalidMarks
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return Item{}, ErrEmptyDescription
	}
	edited := i
	edited.Marks = marks
	edited.Description = description
	return edited, nil
}

// Ref returns the page the item is attached to.
func (i Item) Ref() PageRef {
	return PageRef{File: i.File, Page: i.Page}
}

// Matches reports whether the item currently carries exactly the given
// marks and description. Comparison is case-sensitive with no whitespace
// normalization beyond what was applied at creation.
func (i Item) Matches(marks int, description string) bool {
	return i.Marks == marks && i.Description == description
}
