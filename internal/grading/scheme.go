package grading

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrInvalidTotal indicates the assignment total is below the minimum of 1.
var ErrInvalidTotal = errors.New("total score must be at least 1")

// ErrSchemeOverflow indicates a question allocation would push the sum of
// question scores above the assignment total.
var ErrSchemeOverflow = errors.New("sum of question scores exceeds total assignment score")

// ErrUnknownQuestion indicates the question number is outside the declared range.
var ErrUnknownQuestion = errors.New("question number not declared in scheme")

// Scheme declares the maximum marks per question and the overall assignment
// total. Question numbers are a contiguous range 1..n.
type Scheme struct {
	Total     int
	Questions map[int]int
}

// NewScheme returns a scheme with the given total and a single question
// worth one mark, matching the defaults graders start from.
func NewScheme(total int) (*Scheme, error) {
	if total < 1 {
		return nil, ErrInvalidTotal
	}
	return &Scheme{
		Total:     total,
		Questions: map[int]int{1: 1},
	}, nil
}

// SetTotal updates the assignment total. Existing question allocations are
// left untouched even if they now exceed the new total; the overflow check
// re-applies on the next per-question change.
func (s *Scheme) SetTotal(total int) error {
	if total < 1 {
		return ErrInvalidTotal
	}
	s.Total = total
	return nil
}

// SetQuestionCount resizes the declared questions to 1..n. Newly introduced
// questions default to one mark; questions above n are dropped. Calling it
// again with the same n is a no-op.
func (s *Scheme) SetQuestionCount(n int) error {
	if n < 1 {
		return fmt.Errorf("question count must be at least 1, got %d", n)
	}
	if s.Questions == nil {
		s.Questions = make(map[int]int, n)
	}
	for q := 1; q <= n; q++ {
		if _, ok := s.Questions[q]; !ok {
			s.Questions[q] = 1
		}
	}
	for q := range s.Questions {
		if q > n {
			delete(s.Questions, q)
		}
	}
	return nil
}

// SetQuestionMarks assigns the maximum marks for one question. The call is
// rejected without touching the scheme when the sum across all questions
// would exceed the total.
func (s *Scheme) SetQuestionMarks(question, marks int) error {
	if _, ok := s.Questions[question]; !ok {
		return ErrUnknownQuestion
	}
	if marks < 1 {
		return fmt.Errorf("question marks must be at least 1, got %d", marks)
	}

	sum := marks
	for q, m := range s.Questions {
		if q != question {
			sum += m
		}
	}
	if sum > s.Total {
		return ErrSchemeOverflow
	}

	s.Questions[question] = marks
	return nil
}

// AllocatedMarks returns the current sum across all declared questions.
func (s *Scheme) AllocatedMarks() int {
	sum := 0
	for _, m := range s.Questions {
		sum += m
	}
	return sum
}

// Complete reports whether every mark of the total has been allocated to a
// question. Grading is only allowed to start on a complete scheme.
func (s *Scheme) Complete() bool {
	return s.AllocatedMarks() == s.Total
}

// QuestionNumbers returns the declared question numbers in ascending order.
func (s *Scheme) QuestionNumbers() []int {
	numbers := make([]int, 0, len(s.Questions))
	for q := range s.Questions {
		numbers = append(numbers, q)
	}
	sort.Ints(numbers)
	return numbers
}

// Clone returns an independent copy of the scheme.
func (s *Scheme) Clone() *Scheme {
	questions := make(map[int]int, len(s.Questions))
	for q, m := range s.Questions {
		questions[q] = m
	}
	return &Scheme{Total: s.Total, Questions: questions}
}

type schemeJSON struct {
	Total     int            `json:"total"`
	Questions map[string]int `json:"questions"`
}

// MarshalJSON serializes the scheme with string question keys for session
// state stability.
func (s *Scheme) MarshalJSON() ([]byte, error) {
	questions := make(map[string]int, len(s.Questions))
	for q, m := range s.Questions {
		questions[strconv.Itoa(q)] = m
	}
	return json.Marshal(schemeJSON{Total: s.Total, Questions: questions})
}

// UnmarshalJSON restores a scheme from its string-keyed serialized form.
func (s *Scheme) UnmarshalJSON(data []byte) error {
	var raw schemeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	questions := make(map[int]int, len(raw.Questions))
	for key, m := range raw.Questions {
		q, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("invalid question key %q: %w", key, err)
		}
		questions[q] = m
	}
	s.Total = raw.Total
	s.Questions = questions
	return nil
}
