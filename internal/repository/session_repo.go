package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/markdesk/markdesk-api/internal/models"
)

// SessionRepository defines data operations for grading sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.GradingSession) error
	GetByID(ctx context.Context, id string) (models.GradingSession, error)
	List(ctx context.Context) ([]models.GradingSession, error)
	Update(ctx context.Context, session *models.GradingSession) error
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository instantiates the repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.GradingSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (models.GradingSession, error) {
	var session models.GradingSession
	err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	return session, err
}

func (r *sessionRepository) List(ctx context.Context) ([]models.GradingSession, error) {
	var sessions []models.GradingSession
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepository) Update(ctx context.Context, session *models.GradingSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}
