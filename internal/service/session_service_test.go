package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/markdesk/markdesk-api/internal/database"
	"github.com/markdesk/markdesk-api/internal/dto"
	"github.com/markdesk/markdesk-api/internal/grading"
	"github.com/markdesk/markdesk-api/internal/models"
	"github.com/markdesk/markdesk-api/internal/repository"
	"github.com/markdesk/markdesk-api/internal/session"
)

func newSessionFixture(t *testing.T) (SessionService, *session.Manager) {
	t.Helper()

	db, err := database.ConnectSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.GradingSession{}, &models.Script{}, &models.SessionSnapshot{}))

	sessions := session.NewManager()
	svc := NewSessionService(
		sessions,
		repository.NewSessionRepository(db),
		repository.NewSnapshotRepository(db),
		validator.New(validator.WithRequiredStructEnabled()),
		zerolog.Nop(),
	)
	return svc, sessions
}

func TestCreateOpensLiveState(t *testing.T) {
	svc, sessions := newSessionFixture(t)

	created, err := svc.Create(context.Background(), "g1", dto.SessionCreateRequest{Name: "midterm", Total: 40})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "g1", created.GraderID)

	state, err := sessions.Get(created.ID)
	require.NoError(t, err)
	require.Equal(t, 40, state.Scheme().Total)
}

func TestCloseAndReopenRecoversState(t *testing.T) {
	svc, sessions := newSessionFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "g1", dto.SessionCreateRequest{Name: "midterm", Total: 10})
	require.NoError(t, err)

	state, err := sessions.Get(created.ID)
	require.NoError(t, err)

	ref := grading.PageRef{File: "1", Page: "1"}
	state.SetQuestionNumber(ref, 1)
	state.SetPageScore(ref, 10)
	_, err = state.AddItem(ref, -2, "wrong sign")
	require.NoError(t, err)
	state.MarkCompleted("1")

	require.NoError(t, svc.Close(ctx, created.ID))
	_, err = sessions.Get(created.ID)
	require.ErrorIs(t, err, session.ErrSessionNotFound)

	reopened, err := svc.Open(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, reopened.ID)

	recovered, err := sessions.Get(created.ID)
	require.NoError(t, err)
	require.Equal(t, 10, recovered.Scheme().Total)
	require.Equal(t, []string{"1"}, recovered.CompletedFiles())

	items := recovered.ItemsOn(ref)
	require.Len(t, items, 1)
	require.Equal(t, -2, items[0].Marks)
	require.Equal(t, "wrong sign", items[0].Description)
}

func TestOpenUnknownSession(t *testing.T) {
	svc, _ := newSessionFixture(t)

	_, err := svc.Open(context.Background(), "missing")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestImportRejectsMalformedState(t *testing.T) {
	svc, _ := newSessionFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "g1", dto.SessionCreateRequest{Name: "midterm"})
	require.NoError(t, err)

	err = svc.Import(ctx, created.ID, []byte(`{"rubric_items":{}}`))
	require.Error(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	svc, sessions := newSessionFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "g1", dto.SessionCreateRequest{Name: "midterm", Total: 20})
	require.NoError(t, err)

	state, err := sessions.Get(created.ID)
	require.NoError(t, err)
	ref := grading.PageRef{File: "1", Page: "1"}
	state.SetQuestionNumber(ref, 1)
	_, err = state.AddItem(ref, -4, "missing proof")
	require.NoError(t, err)

	exported, err := svc.Export(ctx, created.ID)
	require.NoError(t, err)

	other, err := svc.Create(ctx, "g1", dto.SessionCreateRequest{Name: "copy"})
	require.NoError(t, err)
	require.NoError(t, svc.Import(ctx, other.ID, exported))

	copied, err := sessions.Get(other.ID)
	require.NoError(t, err)
	require.Equal(t, 20, copied.Scheme().Total)
	items := copied.ItemsOn(ref)
	require.Len(t, items, 1)
	require.Equal(t, -4, items[0].Marks)
}
