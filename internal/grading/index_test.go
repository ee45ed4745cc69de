package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func pageRef(file, page string) PageRef {
	return PageRef{File: file, Page: page}
}

func TestAddItemAssignsIncreasingIndices(t *testing.T) {
	index := NewIndex()
	ref := pageRef("0", "0")

	first, err := index.AddItem(ref, -2, "sign error")
	require.NoError(t, err)
	second, err := index.AddItem(ref, -1, "missing unit")
	require.NoError(t, err)
	third, err := index.AddItem(ref, 1, "bonus")
	require.NoError(t, err)

	require.Equal(t, 1, first.ItemIndex)
	require.Equal(t, 2, second.ItemIndex)
	require.Equal(t, 3, third.ItemIndex)

	// Indices are never reused, even after a deletion in the middle.
	index.DeleteItem(ref, second.ItemIndex)
	fourth, err := index.AddItem(ref, -3, "wrong method")
	require.NoError(t, err)
	require.Equal(t, 4, fourth.ItemIndex)
}

func TestAddThenDeleteRestoresList(t *testing.T) {
	index := NewIndex()
	ref := pageRef("0", "1")

	_, err := index.AddItem(ref, -2, "sign error")
	require.NoError(t, err)
	before := index.ItemsOn(ref)

	added, err := index.AddItem(ref, -1, "arithmetic slip")
	require.NoError(t, err)
	index.DeleteItem(ref, added.ItemIndex)

	require.Equal(t, before, index.ItemsOn(ref))
}

func TestAddItemValidation(t *testing.T) {
	index := NewIndex()
	ref := pageRef("0", "0")

	_, err := index.AddItem(ref, 0, "zero marks")
	require.ErrorIs(t, err, ErrInvalidMarks)

	_, err = index.AddItem(ref, -1, "   ")
	require.ErrorIs(t, err, ErrEmptyDescription)

	// Rejected adds never consume indices.
	item, err := index.AddItem(ref, -1, "valid")
	require.NoError(t, err)
	require.Equal(t, 1, item.ItemIndex)
}

func TestDeleteItemMissingIsNoOp(t *testing.T) {
	index := NewIndex()
	ref := pageRef("0", "0")

	index.DeleteItem(ref, 99)

	item, err := index.AddItem(ref, -1, "late")
	require.NoError(t, err)
	// Duplicate delete events from a re-rendered control must be harmless.
	index.DeleteItem(ref, item.ItemIndex)
	index.DeleteItem(ref, item.ItemIndex)
	require.Empty(t, index.ItemsOn(ref))
}

func TestEditItemReplacesInPlace(t *testing.T) {
	index := NewIndex()
	ref := pageRef("0", "0")

	_, err := index.AddItem(ref, -2, "sign error")
	require.NoError(t, err)
	target, err := index.AddItem(ref, -1, "missing unit")
	require.NoError(t, err)
	_, err = index.AddItem(ref, -3, "wrong method")
	require.NoError(t, err)

	edited, err := index.EditItem(ref, target.ItemIndex, -2, "missing units")
	require.NoError(t, err)
	require.Equal(t, -2, edited.Marks)
	require.Equal(t, "missing units", edited.Description)
	require.Equal(t, target.ItemIndex, edited.ItemIndex)

	items := index.ItemsOn(ref)
	require.Len(t, items, 3)
	require.Equal(t, edited, items[1])

	_, err = index.EditItem(ref, 42, -1, "nope")
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestFindMatchingExcludesEditedPage(t *testing.T) {
	index := NewIndex()
	edited := pageRef("0", "0")

	_, err := index.AddItem(edited, -2, "sign error")
	require.NoError(t, err)
	_, err = index.AddItem(pageRef("0", "1"), -2, "sign error")
	require.NoError(t, err)
	other, err := index.AddItem(pageRef("1", "0"), -2, "sign error")
	require.NoError(t, err)
	_, err = index.AddItem(pageRef("1", "0"), -2, "Sign error")
	require.NoError(t, err)
	_, err = index.AddItem(pageRef("1", "1"), -1, "sign error")
	require.NoError(t, err)

	matched := index.FindMatching(-2, "sign error", edited)
	require.Len(t, matched, 2)
	// Same file, different page is fair game; exact match only.
	require.Equal(t, pageRef("0", "1"), matched[0].Ref())
	require.Equal(t, other.Ref(), matched[1].Ref())
	for _, item := range matched {
		require.Equal(t, -2, item.Marks)
		require.Equal(t, "sign error", item.Description)
	}
}

func TestGradingMetadataUpserts(t *testing.T) {
	index := NewIndex()
	ref := pageRef("0", "2")

	index.SetQuestionNumber(ref, 3)
	index.SetPageScore(ref, 5)

	meta, ok := index.PageMeta(ref)
	require.True(t, ok)
	require.Equal(t, 3, *meta.QuestionNum)
	require.Equal(t, 5, *meta.TotalScore)

	// File record was created lazily with an empty student number.
	record, ok := index.RecordFor("0")
	require.True(t, ok)
	require.Empty(t, record.StudentNum)

	index.SetStudentNumber("0", "A1234567B")
	require.Equal(t, "A1234567B", index.StudentNumber("0"))
}

func TestSnapshotsAreCopies(t *testing.T) {
	index := NewIndex()
	ref := pageRef("0", "0")
	_, err := index.AddItem(ref, -2, "sign error")
	require.NoError(t, err)
	index.SetQuestionNumber(ref, 1)

	items := index.ItemsSnapshot()
	items["0"]["0"][0].Marks = -99
	grading := index.GradingSnapshot()
	*grading["0"].Pages["0"].QuestionNum = 42

	require.Equal(t, -2, index.ItemsOn(ref)[0].Marks)
	q, ok := index.QuestionFor(ref)
	require.True(t, ok)
	require.Equal(t, 1, q)
}

func TestRestoreResumesCounters(t *testing.T) {
	index := NewIndex()
	ref := pageRef("0", "0")
	_, err := index.AddItem(ref, -2, "sign error")
	require.NoError(t, err)
	_, err = index.AddItem(ref, -1, "missing unit")
	require.NoError(t, err)
	index.SetStudentNumber("0", "A1234567B")
	index.SetQuestionNumber(ref, 1)

	restored := NewIndex()
	restored.Restore(index.ItemsSnapshot(), index.GradingSnapshot())

	require.Equal(t, index.ItemsOn(ref), restored.ItemsOn(ref))
	require.Equal(t, "A1234567B", restored.StudentNumber("0"))

	next, err := restored.AddItem(ref, -3, "wrong method")
	require.NoError(t, err)
	require.Equal(t, 3, next.ItemIndex)
}
