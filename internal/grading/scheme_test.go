package grading

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSchemeRejectsInvalidTotal(t *testing.T) {
	_, err := NewScheme(0)
	require.ErrorIs(t, err, ErrInvalidTotal)

	scheme, err := NewScheme(10)
	require.NoError(t, err)
	require.Equal(t, 10, scheme.Total)
	require.Equal(t, map[int]int{1: 1}, scheme.Questions)
}

func TestSetQuestionCountResizesContiguously(t *testing.T) {
	scheme, err := NewScheme(20)
	require.NoError(t, err)

	require.NoError(t, scheme.SetQuestionCount(4))
	require.Equal(t, map[int]int{1: 1, 2: 1, 3: 1, 4: 1}, scheme.Questions)

	require.NoError(t, scheme.SetQuestionMarks(3, 5))

	// Shrinking drops trailing questions, growing keeps existing allocations.
	require.NoError(t, scheme.SetQuestionCount(2))
	require.Equal(t, map[int]int{1: 1, 2: 1}, scheme.Questions)

	require.NoError(t, scheme.SetQuestionCount(3))
	require.Equal(t, map[int]int{1: 1, 2: 1, 3: 1}, scheme.Questions)
}

func TestSetQuestionCountIdempotent(t *testing.T) {
	scheme, err := NewScheme(10)
	require.NoError(t, err)
	require.NoError(t, scheme.SetQuestionCount(3))
	require.NoError(t, scheme.SetQuestionMarks(2, 4))

	before := scheme.Clone()
	require.NoError(t, scheme.SetQuestionCount(3))
	require.Equal(t, before, scheme.Clone())
}

func TestSetQuestionMarksEnforcesTotal(t *testing.T) {
	scheme, err := NewScheme(10)
	require.NoError(t, err)
	require.NoError(t, scheme.SetQuestionCount(2))
	require.NoError(t, scheme.SetQuestionMarks(1, 5))
	require.NoError(t, scheme.SetQuestionMarks(2, 5))
	require.True(t, scheme.Complete())

	// A rejected allocation leaves the scheme untouched.
	before := scheme.Clone()
	err = scheme.SetQuestionMarks(2, 6)
	require.ErrorIs(t, err, ErrSchemeOverflow)
	require.Equal(t, before, scheme.Clone())

	err = scheme.SetQuestionMarks(7, 1)
	require.ErrorIs(t, err, ErrUnknownQuestion)
	require.Equal(t, before, scheme.Clone())
}

func TestSetTotalDoesNotShrinkQuestions(t *testing.T) {
	scheme, err := NewScheme(10)
	require.NoError(t, err)
	require.NoError(t, scheme.SetQuestionCount(2))
	require.NoError(t, scheme.SetQuestionMarks(1, 6))

	require.NoError(t, scheme.SetTotal(5))
	require.Equal(t, 6, scheme.Questions[1])

	err = scheme.SetTotal(0)
	require.ErrorIs(t, err, ErrInvalidTotal)
	require.Equal(t, 5, scheme.Total)
}

func TestSchemeJSONRoundTripUsesStringKeys(t *testing.T) {
	scheme, err := NewScheme(10)
	require.NoError(t, err)
	require.NoError(t, scheme.SetQuestionCount(2))
	require.NoError(t, scheme.SetQuestionMarks(1, 5))
	require.NoError(t, scheme.SetQuestionMarks(2, 5))

	data, err := json.Marshal(scheme)
	require.NoError(t, err)
	require.JSONEq(t, `{"total":10,"questions":{"1":5,"2":5}}`, string(data))

	var restored Scheme
	require.NoError(t, json.Unmarshal(data, &restored))
	require.Equal(t, scheme.Total, restored.Total)
	require.Equal(t, scheme.Questions, restored.Questions)
}
