package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/markdesk/markdesk-api/internal/database"
	"github.com/markdesk/markdesk-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.ConnectSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.GradingSession{}, &models.Script{}, &models.SessionSnapshot{}))
	return db
}

func seedSession(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	require.NoError(t, NewSessionRepository(db).Create(context.Background(), &models.GradingSession{
		ID:   id,
		Name: "midterm",
	}))
}

func TestSessionRepositoryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.GradingSession{ID: "s1", Name: "midterm", GraderID: "g1"}))

	found, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "midterm", found.Name)
	require.Equal(t, "g1", found.GraderID)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	sessions, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
}

func TestScriptRepositoryKeysAndCounts(t *testing.T) {
	db := newTestDB(t)
	seedSession(t, db, "s1")
	repo := NewScriptRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Script{
		SessionID: "s1",
		FileKey:   "1",
		Name:      "scan_a1234567b.pdf",
		PageCount: 4,
		Contents:  []byte("%PDF-1.4"),
	}))
	require.NoError(t, repo.Create(ctx, &models.Script{
		SessionID: "s1",
		FileKey:   "2",
		Name:      "scan_c7654321d.pdf",
		PageCount: 3,
		Contents:  []byte("%PDF-1.4"),
	}))

	count, err := repo.CountBySession(ctx, "s1")
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	script, err := repo.GetByKey(ctx, "s1", "2")
	require.NoError(t, err)
	require.Equal(t, "scan_c7654321d.pdf", script.Name)
	require.NotEmpty(t, script.Contents)

	// Listing omits the payload column.
	scripts, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, scripts, 2)
	require.Equal(t, "1", scripts[0].FileKey)
	require.Empty(t, scripts[0].Contents)

	// The same file key in another session does not collide.
	seedSession(t, db, "s2")
	require.NoError(t, repo.Create(ctx, &models.Script{SessionID: "s2", FileKey: "1", Name: "other.pdf", PageCount: 1}))
}

func TestSnapshotRepositoryLatestAndPrune(t *testing.T) {
	db := newTestDB(t)
	seedSession(t, db, "s1")
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &models.SessionSnapshot{
			SessionID: "s1",
			State:     datatypes.JSON([]byte(`{"rubric_scheme":{"total":10,"questions":{"1":10}},"rubric_items":{},"grading":{}}`)),
		}))
	}

	latest, err := repo.LatestBySession(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, repo.PruneOlderThan(ctx, "s1", 2))

	var remaining int64
	require.NoError(t, db.Model(&models.SessionSnapshot{}).Where("session_id = ?", "s1").Count(&remaining).Error)
	require.EqualValues(t, 2, remaining)

	// The newest snapshot survives pruning.
	kept, err := repo.LatestBySession(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, latest.ID, kept.ID)

	_, err = repo.LatestBySession(ctx, "s2")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
