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

type recordingCheckpointer struct {
	sessions []string
}

func (r *recordingCheckpointer) Checkpoint(_ context.Context, sessionID string) error {
	r.sessions = append(r.sessions, sessionID)
	return nil
}

func newGradingFixture(t *testing.T, checkpoint Checkpointer) (GradingService, *session.State) {
	t.Helper()

	logger := zerolog.Nop()
	sessions := session.NewManager()
	state, err := sessions.Open("grading-session")
	require.NoError(t, err)

	stats := NewStatsService(sessions, nil, time.Minute, logger)
	activity := NewActivityService(nil, "", nil, logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	return NewGradingService(sessions, stats, activity, checkpoint, validate, logger), state
}

func TestExtractStudentNumber(t *testing.T) {
	cases := map[string]string{
		"scan_a1234567b.pdf":     "A1234567B",
		"A7654321Z":              "A7654321Z",
		"batch-2-x9999999y-done": "X9999999Y",
		"no-number-here.pdf":     "",
		"12345678":               "",
	}
	for input, want := range cases {
		require.Equal(t, want, ExtractStudentNumber(input), "input %q", input)
	}
}

func TestSetStudentNumberUppercases(t *testing.T) {
	svc, state := newGradingFixture(t, nil)

	err := svc.SetStudentNumber(context.Background(), "grading-session", "1", dto.StudentNumberRequest{
		StudentNum: " a1234567b ",
	})
	require.NoError(t, err)
	require.Equal(t, "A1234567B", state.StudentNumber("1"))
}

func TestSetPageQuestionRejectsUnknownQuestion(t *testing.T) {
	svc, _ := newGradingFixture(t, nil)

	err := svc.SetPageQuestion(context.Background(), "grading-session", grading.PageRef{File: "1", Page: "1"}, dto.PageQuestionRequest{
		Question: 7,
	})
	require.ErrorIs(t, err, grading.ErrUnknownQuestion)
}

func TestSubmitMarksCompletedAndCheckpoints(t *testing.T) {
	checkpoint := &recordingCheckpointer{}
	svc, state := newGradingFixture(t, checkpoint)
	state.SetStudentNumber("1", "A1234567B")

	require.NoError(t, svc.Submit(context.Background(), "grading-session", "1"))
	require.Equal(t, []string{"grading-session"}, checkpoint.sessions)
	require.Equal(t, []string{"1"}, state.CompletedFiles())
}

func TestSubmitRequiresStudentNumber(t *testing.T) {
	checkpoint := &recordingCheckpointer{}
	svc, state := newGradingFixture(t, checkpoint)

	err := svc.Submit(context.Background(), "grading-session", "1")
	require.ErrorIs(t, err, ErrStudentNumberRequired)
	require.Empty(t, state.CompletedFiles())
	require.Empty(t, checkpoint.sessions)
}
