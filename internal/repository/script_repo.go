package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/markdesk/markdesk-api/internal/models"
)

// ScriptRepository defines data operations for uploaded scripts.
type ScriptRepository interface {
	Create(ctx context.Context, script *models.Script) error
	ListBySession(ctx context.Context, sessionID string) ([]models.Script, error)
	GetByKey(ctx context.Context, sessionID, fileKey string) (models.Script, error)
	Update(ctx context.Context, script *models.Script) error
	CountBySession(ctx context.Context, sessionID string) (int64, error)
}

type scriptRepository struct {
	db *gorm.DB
}

// NewScriptRepository instantiates the repository.
func NewScriptRepository(db *gorm.DB) ScriptRepository {
	return &scriptRepository{db: db}
}

func (r *scriptRepository) Create(ctx context.Context, script *models.Script) error {
	return r.db.WithContext(ctx).Create(script).Error
}

func (r *scriptRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Script, error) {
	var scripts []models.Script
	err := r.db.WithContext(ctx).
		Select("id", "session_id", "file_key", "name", "student_num", "page_count", "storage_url", "completed", "created_at", "updated_at").
		Where("session_id = ?", sessionID).
		Order("file_key ASC").
		Find(&scripts).Error
	return scripts, err
}

func (r *scriptRepository) GetByKey(ctx context.Context, sessionID, fileKey string) (models.Script, error) {
	var script models.Script
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND file_key = ?", sessionID, fileKey).
		First(&script).Error
	return script, err
}

func (r *scriptRepository) Update(ctx context.Context, script *models.Script) error {
	return r.db.WithContext(ctx).Save(script).Error
}

func (r *scriptRepository) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Script{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}
