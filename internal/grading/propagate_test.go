package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildTwoScriptSession sets up the canonical propagation fixture: the same
// deduction on script "0" page 0 (question 1) and script "1" page 0
// (question 1), plus an unrelated item on script "1" page 1 (question 2).
func buildTwoScriptSession(t *testing.T) (*Index, Item) {
	t.Helper()
	index := NewIndex()

	edited, err := index.AddItem(pageRef("0", "0"), -2, "sign error")
	require.NoError(t, err)
	index.SetStudentNumber("0", "A0000000A")
	index.SetQuestionNumber(pageRef("0", "0"), 1)

	_, err = index.AddItem(pageRef("1", "0"), -2, "sign error")
	require.NoError(t, err)
	index.SetStudentNumber("1", "B1111111B")
	index.SetQuestionNumber(pageRef("1", "0"), 1)

	_, err = index.AddItem(pageRef("1", "1"), -2, "sign error")
	require.NoError(t, err)
	index.SetQuestionNumber(pageRef("1", "1"), 2)

	return index, edited
}

func TestStageSkipsUnchangedEdit(t *testing.T) {
	index, edited := buildTwoScriptSession(t)
	engine := NewEngine(index)

	updated, err := index.EditItem(edited.Ref(), edited.ItemIndex, -2, "sign error")
	require.NoError(t, err)
	require.Nil(t, engine.Stage(updated, -2, "sign error"))
}

func TestStageSkipsWhenNothingMatches(t *testing.T) {
	index := NewIndex()
	engine := NewEngine(index)

	item, err := index.AddItem(pageRef("0", "0"), -2, "sign error")
	require.NoError(t, err)
	updated, err := index.EditItem(item.Ref(), item.ItemIndex, -1, "sign error")
	require.NoError(t, err)

	require.Nil(t, engine.Stage(updated, -2, "sign error"))
	// The local edit stays committed regardless.
	require.Equal(t, -1, index.ItemsOn(item.Ref())[0].Marks)
}

func TestStageAnnotatesMatches(t *testing.T) {
	index, edited := buildTwoScriptSession(t)
	engine := NewEngine(index)

	updated, err := index.EditItem(edited.Ref(), edited.ItemIndex, -1, "sign error")
	require.NoError(t, err)

	proposal := engine.Stage(updated, -2, "sign error")
	require.NotNil(t, proposal)
	require.Equal(t, -2, proposal.OriginalMarks)
	require.Equal(t, "sign error", proposal.OriginalDescription)
	require.Equal(t, "A0000000A", proposal.StudentNum)
	require.Equal(t, 1, *proposal.QuestionNum)

	require.Len(t, proposal.Matches, 2)
	for _, match := range proposal.Matches {
		require.Equal(t, "B1111111B", match.StudentNum)
		require.Equal(t, "1", match.Item.File)
	}
	require.Equal(t, 1, *proposal.Matches[0].QuestionNum)
	require.Equal(t, 2, *proposal.Matches[1].QuestionNum)
}

func TestApplyLocalOnlyLeavesMatchesUntouched(t *testing.T) {
	index, edited := buildTwoScriptSession(t)
	engine := NewEngine(index)

	updated, err := index.EditItem(edited.Ref(), edited.ItemIndex, -1, "sign error")
	require.NoError(t, err)
	proposal := engine.Stage(updated, -2, "sign error")
	require.NotNil(t, proposal)

	applied, err := engine.Apply(proposal, ScopeLocalOnly)
	require.NoError(t, err)
	require.Empty(t, applied)
	require.Equal(t, -2, index.ItemsOn(pageRef("1", "0"))[0].Marks)
	require.Equal(t, -2, index.ItemsOn(pageRef("1", "1"))[0].Marks)
}

func TestApplyAllQuestions(t *testing.T) {
	index, edited := buildTwoScriptSession(t)
	engine := NewEngine(index)

	updated, err := index.EditItem(edited.Ref(), edited.ItemIndex, -1, "sign error")
	require.NoError(t, err)
	proposal := engine.Stage(updated, -2, "sign error")

	applied, err := engine.Apply(proposal, ScopeAllQuestions)
	require.NoError(t, err)
	require.Len(t, applied, 2)
	require.Equal(t, -1, index.ItemsOn(pageRef("1", "0"))[0].Marks)
	require.Equal(t, -1, index.ItemsOn(pageRef("1", "1"))[0].Marks)
}

func TestApplySameQuestionFiltersByResolvedQuestion(t *testing.T) {
	index, edited := buildTwoScriptSession(t)
	engine := NewEngine(index)

	updated, err := index.EditItem(edited.Ref(), edited.ItemIndex, -1, "half marks")
	require.NoError(t, err)
	proposal := engine.Stage(updated, -2, "sign error")

	applied, err := engine.Apply(proposal, ScopeSameQuestion)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	require.Equal(t, pageRef("1", "0"), applied[0].Ref())
	require.Equal(t, -1, index.ItemsOn(pageRef("1", "0"))[0].Marks)
	require.Equal(t, "half marks", index.ItemsOn(pageRef("1", "0"))[0].Description)
	// Question 2's copy keeps the original deduction.
	require.Equal(t, -2, index.ItemsOn(pageRef("1", "1"))[0].Marks)
}

func TestApplySkipsTargetsDeletedSinceStaging(t *testing.T) {
	index, edited := buildTwoScriptSession(t)
	engine := NewEngine(index)

	updated, err := index.EditItem(edited.Ref(), edited.ItemIndex, -1, "sign error")
	require.NoError(t, err)
	proposal := engine.Stage(updated, -2, "sign error")
	require.Len(t, proposal.Matches, 2)

	index.DeleteItem(pageRef("1", "0"), proposal.Matches[0].Item.ItemIndex)

	applied, err := engine.Apply(proposal, ScopeAllQuestions)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	require.Equal(t, pageRef("1", "1"), applied[0].Ref())
}

func TestApplyIsIdempotentByIdentity(t *testing.T) {
	index, edited := buildTwoScriptSession(t)
	engine := NewEngine(index)

	updated, err := index.EditItem(edited.Ref(), edited.ItemIndex, -1, "sign error")
	require.NoError(t, err)
	proposal := engine.Stage(updated, -2, "sign error")

	_, err = engine.Apply(proposal, ScopeAllQuestions)
	require.NoError(t, err)
	// Re-applying targets by identity rewrites the same values instead of
	// fanning out to freshly edited items.
	applied, err := engine.Apply(proposal, ScopeAllQuestions)
	require.NoError(t, err)
	require.Len(t, applied, 2)
	require.Equal(t, -1, index.ItemsOn(pageRef("1", "0"))[0].Marks)
	require.Len(t, index.ItemsOn(pageRef("1", "0")), 1)
}
