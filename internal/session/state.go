package session

import (
	"sort"
	"sync"

	"github.com/markdesk/markdesk-api/internal/grading"
)

// State owns the live grading data for one session: the rubric scheme, the
// grading index, and at most one pending propagation proposal. All command
// methods are serialized by an internal mutex; a single grader drives the
// session, but HTTP handlers may interleave reads with writes.
type State struct {
	mu        sync.RWMutex
	scheme    *grading.Scheme
	index     *grading.Index
	engine    *grading.Engine
	pending   *grading.Proposal
	completed map[string]bool
}

// NewState returns a fresh session with a default one-question scheme.
func NewState(total int) (*State, error) {
	scheme, err := grading.NewScheme(total)
	if err != nil {
		return nil, err
	}
	index := grading.NewIndex()
	return &State{
		scheme:    scheme,
		index:     index,
		engine:    grading.NewEngine(index),
		completed: make(map[string]bool),
	}, nil
}

// Scheme returns an independent copy of the current scheme.
func (s *State) Scheme() *grading.Scheme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scheme.Clone()
}

// SetTotal updates the assignment total.
func (s *State) SetTotal(total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheme.SetTotal(total)
}

// SetQuestionCount resizes the declared question range.
func (s *State) SetQuestionCount(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheme.SetQuestionCount(n)
}

// SetQuestionMarks allocates marks to one question, enforcing the scheme
// total invariant.
func (s *State) SetQuestionMarks(question, marks int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheme.SetQuestionMarks(question, marks)
}

// SchemeComplete reports whether all marks are allocated.
func (s *State) SchemeComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scheme.Complete()
}

// AddItem appends a rubric item to a page.
func (s *State) AddItem(ref grading.PageRef, marks int, description string) (grading.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.AddItem(ref, marks, description)
}

// DeleteItem removes a rubric item; missing items are a no-op.
func (s *State) DeleteItem(ref grading.PageRef, itemIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index.DeleteItem(ref, itemIndex)
}

// EditItem commits the edit locally, then stages a propagation proposal
// when the pre-edit deduction exists on other pages. The local edit always
// lands; only the fan-out is deferred. A newly staged proposal replaces any
// unresolved one, since the UI drives one edit flow at a time.
func (s *State) EditItem(ref grading.PageRef, itemIndex, marks int, description string) (grading.Item, *grading.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, found := s.findItem(ref, itemIndex)
	updated, err := s.index.EditItem(ref, itemIndex, marks, description)
	if err != nil {
		return grading.Item{}, nil, err
	}

	if !found {
		return updated, nil, nil
	}
	proposal := s.engine.Stage(updated, original.Marks, original.Description)
	s.pending = proposal
	return updated, cloneProposal(proposal), nil
}

func (s *State) findItem(ref grading.PageRef, itemIndex int) (grading.Item, bool) {
	for _, item := range s.index.ItemsOn(ref) {
		if item.ItemIndex == itemIndex {
			return item, true
		}
	}
	return grading.Item{}, false
}

// PendingProposal returns a copy of the unresolved proposal, if any.
func (s *State) PendingProposal() *grading.Proposal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProposal(s.pending)
}

// Resolve applies the pending proposal with the chosen scope and clears it.
// Resolving with no pending proposal is a benign no-op so duplicate
// decision events cannot double-apply.
func (s *State) Resolve(scope grading.Scope) ([]grading.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil, nil
	}
	applied, err := s.engine.Apply(s.pending, scope)
	if err != nil {
		return applied, err
	}
	s.pending = nil
	return applied, nil
}

// ItemsOn returns a copy of a page's rubric items.
func (s *State) ItemsOn(ref grading.PageRef) []grading.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.ItemsOn(ref)
}

// EnsureFile registers an uploaded script with the index.
func (s *State) EnsureFile(file string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index.EnsureFile(file)
}

// SetStudentNumber records the student number for a script.
func (s *State) SetStudentNumber(file, studentNum string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index.SetStudentNumber(file, studentNum)
}

// SetQuestionNumber maps a page to a question.
func (s *State) SetQuestionNumber(ref grading.PageRef, question int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index.SetQuestionNumber(ref, question)
}

// SetPageScore records the maximum score for a page.
func (s *State) SetPageScore(ref grading.PageRef, score int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index.SetPageScore(ref, score)
}

// StudentNumber returns the student number recorded for a script.
func (s *State) StudentNumber(file string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.StudentNumber(file)
}

// PageMeta returns the grading metadata for a page.
func (s *State) PageMeta(ref grading.PageRef) (grading.PageGrading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.PageMeta(ref)
}

// MarkCompleted flags a script as fully graded.
func (s *State) MarkCompleted(file string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[file] = true
}

// CompletedFiles returns the sorted identifiers of submitted scripts.
func (s *State) CompletedFiles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := make([]string, 0, len(s.completed))
	for file := range s.completed {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

// MarksByQuestion computes per-question final scores under a read lock.
func (s *State) MarksByQuestion(studentNum string) map[int][]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return grading.MarksByQuestion(s.index, s.scheme, studentNum)
}

// StudentTotalMarks computes per-script totals under a read lock.
func (s *State) StudentTotalMarks(studentNum string) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return grading.StudentTotalMarks(s.index, s.scheme, studentNum)
}

// FileQuestionMarks computes one script's per-question final scores under
// a read lock.
func (s *State) FileQuestionMarks(file string) map[int]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return grading.QuestionMarksForFile(s.index, s.scheme, file)
}

// RubricUsage aggregates rubric usage for one question under a read lock.
func (s *State) RubricUsage(question int) ([]grading.Usage, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return grading.RubricUsageForQuestion(s.index, question)
}

// ItemsSnapshot returns a deep copy of the rubric item mapping.
func (s *State) ItemsSnapshot() map[string]map[string][]grading.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.ItemsSnapshot()
}

// GradingSnapshot returns a deep copy of the grading metadata mapping.
func (s *State) GradingSnapshot() map[string]grading.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.GradingSnapshot()
}

func cloneProposal(p *grading.Proposal) *grading.Proposal {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Matches = make([]grading.MatchedItem, len(p.Matches))
	copy(clone.Matches, p.Matches)
	return &clone
}
