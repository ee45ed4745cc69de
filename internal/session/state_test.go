package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markdesk/markdesk-api/internal/grading"
)

func ref(file, page string) grading.PageRef {
	return grading.PageRef{File: file, Page: page}
}

func newTestState(t *testing.T) *State {
	t.Helper()
	state, err := NewState(10)
	require.NoError(t, err)
	require.NoError(t, state.SetQuestionCount(2))
	require.NoError(t, state.SetQuestionMarks(1, 5))
	require.NoError(t, state.SetQuestionMarks(2, 5))
	return state
}

func TestEditStagesPendingProposal(t *testing.T) {
	state := newTestState(t)

	edited, err := state.AddItem(ref("0", "0"), -2, "sign error")
	require.NoError(t, err)
	state.SetQuestionNumber(ref("0", "0"), 1)
	_, err = state.AddItem(ref("1", "0"), -2, "sign error")
	require.NoError(t, err)
	state.SetQuestionNumber(ref("1", "0"), 1)

	updated, proposal, err := state.EditItem(ref("0", "0"), edited.ItemIndex, -1, "sign error")
	require.NoError(t, err)
	require.Equal(t, -1, updated.Marks)
	require.NotNil(t, proposal)
	require.Len(t, proposal.Matches, 1)

	// The local edit is already committed; only the fan-out is pending.
	require.Equal(t, -1, state.ItemsOn(ref("0", "0"))[0].Marks)
	require.Equal(t, -2, state.ItemsOn(ref("1", "0"))[0].Marks)

	applied, err := state.Resolve(grading.ScopeAllQuestions)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	require.Equal(t, -1, state.ItemsOn(ref("1", "0"))[0].Marks)
	require.Nil(t, state.PendingProposal())

	// Duplicate decision events resolve against nothing.
	applied, err = state.Resolve(grading.ScopeAllQuestions)
	require.NoError(t, err)
	require.Empty(t, applied)
}

func TestEditWithoutMatchesLeavesNoPending(t *testing.T) {
	state := newTestState(t)

	item, err := state.AddItem(ref("0", "0"), -2, "sign error")
	require.NoError(t, err)

	_, proposal, err := state.EditItem(ref("0", "0"), item.ItemIndex, -1, "sign error")
	require.NoError(t, err)
	require.Nil(t, proposal)
	require.Nil(t, state.PendingProposal())
}

func TestSnapshotRoundTrip(t *testing.T) {
	state := newTestState(t)

	_, err := state.AddItem(ref("0", "0"), -2, "sign error")
	require.NoError(t, err)
	state.SetStudentNumber("0", "A1234567B")
	state.SetQuestionNumber(ref("0", "0"), 1)
	state.SetPageScore(ref("0", "0"), 5)
	state.MarkCompleted("0")

	raw, err := json.Marshal(state.Snapshot())
	require.NoError(t, err)

	parsed, err := ParseSnapshot(raw)
	require.NoError(t, err)

	restored, err := NewState(DefaultTotal)
	require.NoError(t, err)
	require.NoError(t, restored.Restore(parsed))

	require.Equal(t, state.Scheme(), restored.Scheme())
	require.Equal(t, state.ItemsOn(ref("0", "0")), restored.ItemsOn(ref("0", "0")))
	require.Equal(t, "A1234567B", restored.StudentNumber("0"))
	require.Equal(t, []string{"0"}, restored.CompletedFiles())

	meta, ok := restored.PageMeta(ref("0", "0"))
	require.True(t, ok)
	require.Equal(t, 1, *meta.QuestionNum)
	require.Equal(t, 5, *meta.TotalScore)
}

func TestParseSnapshotRejectsBadLayout(t *testing.T) {
	_, err := ParseSnapshot([]byte(`{"rubric_items":{},"grading":{}}`))
	require.Error(t, err)

	_, err = ParseSnapshot([]byte(`{"rubric_scheme":{"total":0,"questions":{}},"rubric_items":{},"grading":{}}`))
	require.Error(t, err)

	_, err = ParseSnapshot([]byte(`not json`))
	require.Error(t, err)

	snapshot, err := ParseSnapshot([]byte(`{"rubric_scheme":{"total":10,"questions":{"1":5,"2":5}},"rubric_items":{},"grading":{}}`))
	require.NoError(t, err)
	require.Equal(t, 10, snapshot.RubricScheme.Total)
}

func TestManagerOpenIsIdempotent(t *testing.T) {
	manager := NewManager()

	first, err := manager.Open("sess-1")
	require.NoError(t, err)
	_, err = first.AddItem(ref("0", "0"), -1, "late")
	require.NoError(t, err)

	again, err := manager.Open("sess-1")
	require.NoError(t, err)
	require.Len(t, again.ItemsOn(ref("0", "0")), 1)

	_, err = manager.Get("missing")
	require.ErrorIs(t, err, ErrSessionNotFound)

	manager.Close("sess-1")
	_, err = manager.Get("sess-1")
	require.ErrorIs(t, err, ErrSessionNotFound)
}
