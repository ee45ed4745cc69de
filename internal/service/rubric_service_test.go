package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/markdesk/markdesk-api/internal/dto"
	"github.com/markdesk/markdesk-api/internal/grading"
	"github.com/markdesk/markdesk-api/internal/session"
)

func newRubricFixture(t *testing.T) (RubricService, *session.State) {
	t.Helper()

	logger := zerolog.Nop()
	sessions := session.NewManager()
	state, err := sessions.Open("rubric-session")
	require.NoError(t, err)

	stats := NewStatsService(sessions, nil, time.Minute, logger)
	activity := NewActivityService(nil, "", nil, logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	return NewRubricService(sessions, stats, activity, nil, validate, logger), state
}

func configurePage(t *testing.T, state *session.State, file, page string) {
	t.Helper()
	ref := grading.PageRef{File: file, Page: page}
	state.SetQuestionNumber(ref, 1)
	state.SetPageScore(ref, 5)
}

func TestAddSanitizesDescription(t *testing.T) {
	svc, state := newRubricFixture(t)
	configurePage(t, state, "1", "1")

	item, err := svc.Add(context.Background(), "rubric-session", dto.RubricItemCreateRequest{
		File:        "1",
		Page:        "1",
		Marks:       "-2",
		Description: "  <script>alert(1)</script>wrong units  ",
	})
	require.NoError(t, err)
	require.Equal(t, "wrong units", item.Description)
	require.Equal(t, -2, item.Marks)
	require.Equal(t, 1, item.ItemIdx)
}

func TestAddRejectsUnconfiguredPage(t *testing.T) {
	svc, _ := newRubricFixture(t)

	_, err := svc.Add(context.Background(), "rubric-session", dto.RubricItemCreateRequest{
		File:        "1",
		Page:        "1",
		Marks:       "-2",
		Description: "wrong units",
	})
	require.ErrorIs(t, err, ErrPageNotConfigured)
}

func TestAddRejectsZeroMarks(t *testing.T) {
	svc, state := newRubricFixture(t)
	configurePage(t, state, "1", "1")

	_, err := svc.Add(context.Background(), "rubric-session", dto.RubricItemCreateRequest{
		File:        "1",
		Page:        "1",
		Marks:       "0",
		Description: "wrong units",
	})
	require.ErrorIs(t, err, grading.ErrInvalidMarks)
}

func TestEditStagesAndResolveApplies(t *testing.T) {
	svc, state := newRubricFixture(t)
	configurePage(t, state, "1", "1")
	configurePage(t, state, "2", "1")
	ctx := context.Background()

	for _, file := range []string{"1", "2"} {
		_, err := svc.Add(ctx, "rubric-session", dto.RubricItemCreateRequest{
			File:        file,
			Page:        "1",
			Marks:       "-2",
			Description: "wrong units",
		})
		require.NoError(t, err)
	}

	edit, err := svc.Edit(ctx, "rubric-session", grading.PageRef{File: "1", Page: "1"}, 1, dto.RubricItemEditRequest{
		Marks:       "-3",
		Description: "wrong units",
	})
	require.NoError(t, err)
	require.NotNil(t, edit.Proposal)
	require.Len(t, edit.Proposal.Matches, 1)
	require.Equal(t, "2", edit.Proposal.Matches[0].Item.File)

	resolved, err := svc.Resolve(ctx, "rubric-session", dto.ResolveRequest{Scope: "all_questions"})
	require.NoError(t, err)
	require.Len(t, resolved.Applied, 1)

	items := state.ItemsOn(grading.PageRef{File: "2", Page: "1"})
	require.Len(t, items, 1)
	require.Equal(t, -3, items[0].Marks)

	// The proposal is consumed: resolving again applies nothing.
	resolved, err = svc.Resolve(ctx, "rubric-session", dto.ResolveRequest{Scope: "all_questions"})
	require.NoError(t, err)
	require.Empty(t, resolved.Applied)
}

func TestResolveRejectsUnknownScope(t *testing.T) {
	svc, _ := newRubricFixture(t)

	_, err := svc.Resolve(context.Background(), "rubric-session", dto.ResolveRequest{Scope: "everything"})
	require.Error(t, err)
}

func TestSuggestWithoutSuggesterFails(t *testing.T) {
	svc, _ := newRubricFixture(t)

	_, err := svc.Suggest(context.Background(), "rubric-session", -2, 1)
	require.Error(t, err)
}
