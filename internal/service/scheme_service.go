package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/markdesk/markdesk-api/internal/dto"
	"github.com/markdesk/markdesk-api/internal/session"
)

// SchemeService manages a session's marking scheme: the assignment total
// and the per-question mark allocation.
type SchemeService interface {
	Get(ctx context.Context, sessionID string) (dto.SchemeResponse, error)
	SetTotal(ctx context.Context, sessionID string, payload dto.SchemeTotalRequest) (dto.SchemeResponse, error)
	SetQuestionCount(ctx context.Context, sessionID string, payload dto.SchemeQuestionCountRequest) (dto.SchemeResponse, error)
	SetQuestionMarks(ctx context.Context, sessionID string, payload dto.SchemeQuestionMarksRequest) (dto.SchemeResponse, error)
}

type schemeService struct {
	sessions   *session.Manager
	stats      StatsService
	activity   ActivityService
	checkpoint Checkpointer
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewSchemeService constructs the scheme service. A nil checkpointer skips
// snapshot persistence after scheme mutations.
func NewSchemeService(sessions *session.Manager, stats StatsService, activity ActivityService, checkpoint Checkpointer, validate *validator.Validate, logger zerolog.Logger) SchemeService {
	return &schemeService{
		sessions:   sessions,
		stats:      stats,
		activity:   activity,
		checkpoint: checkpoint,
		validator:  validate,
		logger:     logger.With().Str("component", "scheme_service").Logger(),
		tracer:     otel.Tracer("github.com/markdesk/markdesk-api/internal/service/scheme"),
	}
}

func (s *schemeService) Get(ctx context.Context, sessionID string) (dto.SchemeResponse, error) {
	state, err := s.sessions.Get(sessionID)
	if err != nil {
		return dto.SchemeResponse{}, err
	}
	return dto.NewSchemeResponse(state.Scheme()), nil
}

func (s *schemeService) SetTotal(ctx context.Context, sessionID string, payload dto.SchemeTotalRequest) (dto.SchemeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SchemeResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "scheme.set_total", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("scheme.total", payload.Total),
	))
	defer span.End()

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		return dto.SchemeResponse{}, err
	}
	if err := state.SetTotal(payload.Total); err != nil {
		span.RecordError(err)
		return dto.SchemeResponse{}, err
	}

	s.afterChange(ctx, sessionID)
	return dto.NewSchemeResponse(state.Scheme()), nil
}

func (s *schemeService) SetQuestionCount(ctx context.Context, sessionID string, payload dto.SchemeQuestionCountRequest) (dto.SchemeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SchemeResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "scheme.set_question_count", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("scheme.question_count", payload.Count),
	))
	defer span.End()

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		return dto.SchemeResponse{}, err
	}
	if err := state.SetQuestionCount(payload.Count); err != nil {
		span.RecordError(err)
		return dto.SchemeResponse{}, err
	}

	s.afterChange(ctx, sessionID)
	return dto.NewSchemeResponse(state.Scheme()), nil
}

func (s *schemeService) SetQuestionMarks(ctx context.Context, sessionID string, payload dto.SchemeQuestionMarksRequest) (dto.SchemeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SchemeResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "scheme.set_question_marks", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("scheme.question", payload.Question),
		attribute.Int("scheme.marks", payload.Marks),
	))
	defer span.End()

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		return dto.SchemeResponse{}, err
	}
	if err := state.SetQuestionMarks(payload.Question, payload.Marks); err != nil {
		span.RecordError(err)
		return dto.SchemeResponse{}, err
	}

	s.afterChange(ctx, sessionID)
	return dto.NewSchemeResponse(state.Scheme()), nil
}

func (s *schemeService) afterChange(ctx context.Context, sessionID string) {
	s.stats.Invalidate(ctx, sessionID)
	if s.checkpoint != nil {
		if err := s.checkpoint.Checkpoint(ctx, sessionID); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("scheme checkpoint failed")
		}
	}
	s.activity.Publish(ctx, dto.ActivityEvent{
		Type:      dto.ActivitySchemeChanged,
		SessionID: sessionID,
	})
}
