package service

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/markdesk/markdesk-api/internal/dto"
	"github.com/markdesk/markdesk-api/internal/models"
	"github.com/markdesk/markdesk-api/internal/repository"
	"github.com/markdesk/markdesk-api/internal/session"
)

// Number of checkpoints retained per session.
const snapshotKeep = 20

// SessionService manages grading session lifecycle: creation, opening with
// state recovery, checkpointing, and import/export of raw session state.
type SessionService interface {
	Create(ctx context.Context, graderID string, payload dto.SessionCreateRequest) (dto.SessionResponse, error)
	List(ctx context.Context) ([]dto.SessionResponse, error)
	Open(ctx context.Context, id string) (dto.SessionResponse, error)
	Checkpoint(ctx context.Context, id string) error
	Export(ctx context.Context, id string) ([]byte, error)
	Import(ctx context.Context, id string, raw []byte) error
	Close(ctx context.Context, id string) error
}

type sessionService struct {
	sessions  *session.Manager
	repo      repository.SessionRepository
	snapshots repository.SnapshotRepository
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewSessionService constructs the session lifecycle service.
func NewSessionService(sessions *session.Manager, repo repository.SessionRepository, snapshots repository.SnapshotRepository, validate *validator.Validate, logger zerolog.Logger) SessionService {
	return &sessionService{
		sessions:  sessions,
		repo:      repo,
		snapshots: snapshots,
		validator: validate,
		logger:    logger.With().Str("component", "session_service").Logger(),
		tracer:    otel.Tracer("github.com/markdesk/markdesk-api/internal/service/session"),
	}
}

func (s *sessionService) Create(ctx context.Context, graderID string, payload dto.SessionCreateRequest) (dto.SessionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SessionResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "session.create")
	defer span.End()

	model := models.GradingSession{
		ID:       uuid.NewString(),
		Name:     payload.Name,
		GraderID: graderID,
	}
	if err := s.repo.Create(ctx, &model); err != nil {
		span.RecordError(err)
		return dto.SessionResponse{}, err
	}

	state, err := s.sessions.Open(model.ID)
	if err != nil {
		span.RecordError(err)
		return dto.SessionResponse{}, err
	}
	if payload.Total > 0 {
		if err := state.SetTotal(payload.Total); err != nil {
			span.RecordError(err)
			return dto.SessionResponse{}, err
		}
	}

	span.SetAttributes(attribute.String("session.id", model.ID))
	s.logger.Info().Str("session_id", model.ID).Str("name", model.Name).Msg("grading session created")
	return dto.NewSessionResponse(model), nil
}

func (s *sessionService) List(ctx context.Context) ([]dto.SessionResponse, error) {
	sessions, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewSessionResponseSlice(sessions), nil
}

// Open loads a session into live state, recovering from the most recent
// checkpoint when one exists. Opening an already open session is a no-op
// beyond returning its metadata.
func (s *sessionService) Open(ctx context.Context, id string) (dto.SessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "session.open", trace.WithAttributes(
		attribute.String("session.id", id),
	))
	defer span.End()

	model, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		if err == gorm.ErrRecordNotFound {
			return dto.SessionResponse{}, session.ErrSessionNotFound
		}
		return dto.SessionResponse{}, err
	}

	if _, err := s.sessions.Get(id); err == nil {
		return dto.NewSessionResponse(model), nil
	}

	state, err := s.sessions.Open(id)
	if err != nil {
		span.RecordError(err)
		return dto.SessionResponse{}, err
	}

	checkpoint, err := s.snapshots.LatestBySession(ctx, id)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			span.RecordError(err)
			return dto.SessionResponse{}, err
		}
		return dto.NewSessionResponse(model), nil
	}

	snapshot, err := session.ParseSnapshot(checkpoint.State)
	if err != nil {
		span.RecordError(err)
		return dto.SessionResponse{}, err
	}
	if err := state.Restore(snapshot); err != nil {
		span.RecordError(err)
		return dto.SessionResponse{}, err
	}

	span.SetAttributes(attribute.Bool("session.recovered", true))
	s.logger.Info().Str("session_id", id).Uint("snapshot_id", checkpoint.ID).Msg("session state recovered from checkpoint")
	return dto.NewSessionResponse(model), nil
}

// Checkpoint persists the live state and prunes old checkpoints.
func (s *sessionService) Checkpoint(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "session.checkpoint", trace.WithAttributes(
		attribute.String("session.id", id),
	))
	defer span.End()

	state, err := s.sessions.Get(id)
	if err != nil {
		span.RecordError(err)
		return err
	}

	payload, err := json.Marshal(state.Snapshot())
	if err != nil {
		span.RecordError(err)
		return err
	}

	snapshot := models.SessionSnapshot{SessionID: id, State: payload}
	if err := s.snapshots.Create(ctx, &snapshot); err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.snapshots.PruneOlderThan(ctx, id, snapshotKeep); err != nil {
		s.logger.Warn().Err(err).Str("session_id", id).Msg("checkpoint pruning failed")
	}
	return nil
}

// Export returns the session's raw state JSON for download.
func (s *sessionService) Export(ctx context.Context, id string) ([]byte, error) {
	state, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(state.Snapshot(), "", "  ")
}

// Import replaces the session's state with previously exported JSON. The
// payload is schema-validated before any state is touched.
func (s *sessionService) Import(ctx context.Context, id string, raw []byte) error {
	ctx, span := s.tracer.Start(ctx, "session.import", trace.WithAttributes(
		attribute.String("session.id", id),
	))
	defer span.End()

	state, err := s.sessions.Get(id)
	if err != nil {
		span.RecordError(err)
		return err
	}

	snapshot, err := session.ParseSnapshot(raw)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := state.Restore(snapshot); err != nil {
		span.RecordError(err)
		return err
	}
	return s.Checkpoint(ctx, id)
}

// Close checkpoints and drops the live state.
func (s *sessionService) Close(ctx context.Context, id string) error {
	if err := s.Checkpoint(ctx, id); err != nil {
		return err
	}
	s.sessions.Close(id)
	return nil
}
