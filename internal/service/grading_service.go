package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/markdesk/markdesk-api/internal/dto"
	"github.com/markdesk/markdesk-api/internal/grading"
	"github.com/markdesk/markdesk-api/internal/session"
)

// Student numbers look like a letter, seven digits, a letter, anywhere in
// the text they are pulled from.
var studentNumPattern = regexp.MustCompile(`[a-zA-Z][0-9]{7}[a-zA-Z]`)

// ExtractStudentNumber pulls an uppercased student number out of free text
// such as a script's file name. Returns "" when none is present.
func ExtractStudentNumber(text string) string {
	match := studentNumPattern.FindString(text)
	return strings.ToUpper(match)
}

// ErrStudentNumberRequired rejects submitting a script before a student
// number was recorded for it.
var ErrStudentNumberRequired = errors.New("student number required before submission")

// Checkpointer persists a session's live state. Implemented by the session
// service; grading submissions checkpoint so a crash cannot lose a script.
type Checkpointer interface {
	Checkpoint(ctx context.Context, sessionID string) error
}

// GradingService records grading metadata for scripts and pages: student
// numbers, page-to-question mapping, page scores, and submission.
type GradingService interface {
	SetStudentNumber(ctx context.Context, sessionID, file string, payload dto.StudentNumberRequest) error
	SetPageQuestion(ctx context.Context, sessionID string, ref grading.PageRef, payload dto.PageQuestionRequest) error
	SetPageScore(ctx context.Context, sessionID string, ref grading.PageRef, payload dto.PageScoreRequest) error
	Record(ctx context.Context, sessionID, file string) (dto.ScriptGradingResponse, error)
	Submit(ctx context.Context, sessionID, file string) error
}

type gradingService struct {
	sessions   *session.Manager
	stats      StatsService
	activity   ActivityService
	checkpoint Checkpointer
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewGradingService constructs the grading metadata service.
func NewGradingService(sessions *session.Manager, stats StatsService, activity ActivityService, checkpoint Checkpointer, validate *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		sessions:   sessions,
		stats:      stats,
		activity:   activity,
		checkpoint: checkpoint,
		validator:  validate,
		logger:     logger.With().Str("component", "grading_service").Logger(),
		tracer:     otel.Tracer("github.com/markdesk/markdesk-api/internal/service/grading"),
	}
}

func (s *gradingService) SetStudentNumber(ctx context.Context, sessionID, file string, payload dto.StudentNumberRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}

	studentNum := strings.ToUpper(strings.TrimSpace(payload.StudentNum))
	state.SetStudentNumber(file, studentNum)

	s.stats.Invalidate(ctx, sessionID)
	return nil
}

func (s *gradingService) SetPageQuestion(ctx context.Context, sessionID string, ref grading.PageRef, payload dto.PageQuestionRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}

	if _, ok := state.Scheme().Questions[payload.Question]; !ok {
		return grading.ErrUnknownQuestion
	}
	state.SetQuestionNumber(ref, payload.Question)

	s.stats.Invalidate(ctx, sessionID)
	return nil
}

func (s *gradingService) SetPageScore(ctx context.Context, sessionID string, ref grading.PageRef, payload dto.PageScoreRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}

	state.SetPageScore(ref, payload.Score)

	s.stats.Invalidate(ctx, sessionID)
	return nil
}

func (s *gradingService) Record(ctx context.Context, sessionID, file string) (dto.ScriptGradingResponse, error) {
	state, err := s.sessions.Get(sessionID)
	if err != nil {
		return dto.ScriptGradingResponse{}, err
	}

	record, ok := state.GradingSnapshot()[file]
	if !ok {
		return dto.ScriptGradingResponse{}, errors.New("no grading record for script")
	}
	return dto.NewScriptGradingResponse(file, record), nil
}

// Submit flags a script as fully graded and checkpoints the session.
func (s *gradingService) Submit(ctx context.Context, sessionID, file string) error {
	ctx, span := s.tracer.Start(ctx, "grading.submit", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("page.file", file),
	))
	defer span.End()

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if state.StudentNumber(file) == "" {
		span.RecordError(ErrStudentNumberRequired)
		return ErrStudentNumberRequired
	}

	state.MarkCompleted(file)
	s.stats.Invalidate(ctx, sessionID)

	if s.checkpoint != nil {
		if err := s.checkpoint.Checkpoint(ctx, sessionID); err != nil {
			s.logger.Error().Err(err).Str("session_id", sessionID).Msg("checkpoint after submit failed")
			span.RecordError(err)
			return err
		}
	}

	s.activity.Publish(ctx, dto.ActivityEvent{
		Type:      dto.ActivityScriptGraded,
		SessionID: sessionID,
		File:      file,
	})
	return nil
}
