package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/markdesk/markdesk-api/internal/models"
)

// SnapshotRepository defines data operations for session state checkpoints.
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *models.SessionSnapshot) error
	LatestBySession(ctx context.Context, sessionID string) (models.SessionSnapshot, error)
	PruneOlderThan(ctx context.Context, sessionID string, keep int) error
}

type snapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository instantiates the repository.
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) Create(ctx context.Context, snapshot *models.SessionSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

func (r *snapshotRepository) LatestBySession(ctx context.Context, sessionID string) (models.SessionSnapshot, error) {
	var snapshot models.SessionSnapshot
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		First(&snapshot).Error
	return snapshot, err
}

// PruneOlderThan keeps the most recent checkpoints and drops the rest, so
// autosaving after every action does not grow the table without bound.
func (r *snapshotRepository) PruneOlderThan(ctx context.Context, sessionID string, keep int) error {
	if keep < 1 {
		keep = 1
	}
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.SessionSnapshot{}).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Limit(keep).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("session_id = ? AND id NOT IN ?", sessionID, ids).
		Delete(&models.SessionSnapshot{}).Error
}
