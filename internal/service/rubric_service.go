package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/markdesk/markdesk-api/internal/dto"
	"github.com/markdesk/markdesk-api/internal/grading"
	"github.com/markdesk/markdesk-api/internal/observability"
	"github.com/markdesk/markdesk-api/internal/session"
	"github.com/markdesk/markdesk-api/pkg/annotate"
)

// ErrPageNotConfigured indicates rubric work on a page whose question and
// maximum score have not been recorded yet.
var ErrPageNotConfigured = errors.New("page question and total score must be set before adding rubric items")

// RubricService manages per-page rubric items and the edit propagation
// flow. Edits commit locally right away; the fan-out to matching pages is
// staged as a proposal the grader resolves with a scope.
type RubricService interface {
	List(ctx context.Context, sessionID string, ref grading.PageRef) ([]dto.RubricItemResponse, error)
	Add(ctx context.Context, sessionID string, payload dto.RubricItemCreateRequest) (dto.RubricItemResponse, error)
	Edit(ctx context.Context, sessionID string, ref grading.PageRef, itemIdx int, payload dto.RubricItemEditRequest) (dto.RubricEditResponse, error)
	Delete(ctx context.Context, sessionID string, ref grading.PageRef, itemIdx int) error
	Pending(ctx context.Context, sessionID string) (*dto.ProposalResponse, error)
	Resolve(ctx context.Context, sessionID string, payload dto.ResolveRequest) (dto.ResolveResponse, error)
	Suggest(ctx context.Context, sessionID string, marks int, question int) (string, error)
}

type rubricService struct {
	sessions  *session.Manager
	stats     StatsService
	activity  ActivityService
	suggester annotate.Suggester
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewRubricService constructs the rubric service. A nil suggester disables
// description suggestions.
func NewRubricService(sessions *session.Manager, stats StatsService, activity ActivityService, suggester annotate.Suggester, validate *validator.Validate, logger zerolog.Logger) RubricService {
	return &rubricService{
		sessions:  sessions,
		stats:     stats,
		activity:  activity,
		suggester: suggester,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "rubric_service").Logger(),
		tracer:    otel.Tracer("github.com/markdesk/markdesk-api/internal/service/rubric"),
	}
}

func (s *rubricService) List(ctx context.Context, sessionID string, ref grading.PageRef) ([]dto.RubricItemResponse, error) {
	state, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return dto.NewRubricItemResponseSlice(state.ItemsOn(ref)), nil
}

func (s *rubricService) Add(ctx context.Context, sessionID string, payload dto.RubricItemCreateRequest) (dto.RubricItemResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RubricItemResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "rubric.add", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("page.file", payload.File),
		attribute.String("page.page", payload.Page),
	))
	defer span.End()

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		return dto.RubricItemResponse{}, err
	}

	marks, err := grading.ParseMarks(payload.Marks)
	if err != nil {
		span.RecordError(err)
		return dto.RubricItemResponse{}, err
	}

	description, err := s.cleanDescription(payload.Description)
	if err != nil {
		span.RecordError(err)
		return dto.RubricItemResponse{}, err
	}

	ref := grading.PageRef{File: payload.File, Page: payload.Page}
	meta, ok := state.PageMeta(ref)
	if !ok || meta.QuestionNum == nil || meta.TotalScore == nil {
		span.RecordError(ErrPageNotConfigured)
		return dto.RubricItemResponse{}, ErrPageNotConfigured
	}

	item, err := state.AddItem(ref, marks, description)
	if err != nil {
		span.RecordError(err)
		return dto.RubricItemResponse{}, err
	}

	s.afterChange(ctx, sessionID, dto.ActivityEvent{
		Type:      dto.ActivityRubricAdded,
		SessionID: sessionID,
		File:      item.File,
		Page:      item.Page,
		Payload:   map[string]any{"item": dto.NewRubricItemResponse(item)},
	})
	return dto.NewRubricItemResponse(item), nil
}

func (s *rubricService) Edit(ctx context.Context, sessionID string, ref grading.PageRef, itemIdx int, payload dto.RubricItemEditRequest) (dto.RubricEditResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RubricEditResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "rubric.edit", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("page.file", ref.File),
		attribute.String("page.page", ref.Page),
		attribute.Int("item.idx", itemIdx),
	))
	defer span.End()

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		return dto.RubricEditResponse{}, err
	}

	marks, err := grading.ParseMarks(payload.Marks)
	if err != nil {
		span.RecordError(err)
		return dto.RubricEditResponse{}, err
	}

	description, err := s.cleanDescription(payload.Description)
	if err != nil {
		span.RecordError(err)
		return dto.RubricEditResponse{}, err
	}

	updated, proposal, err := state.EditItem(ref, itemIdx, marks, description)
	if err != nil {
		span.RecordError(err)
		return dto.RubricEditResponse{}, err
	}
	span.SetAttributes(attribute.Bool("rubric.proposal_staged", proposal != nil))

	s.afterChange(ctx, sessionID, dto.ActivityEvent{
		Type:      dto.ActivityRubricEdited,
		SessionID: sessionID,
		File:      updated.File,
		Page:      updated.Page,
		Payload:   map[string]any{"item": dto.NewRubricItemResponse(updated)},
	})
	return dto.RubricEditResponse{
		Updated:  dto.NewRubricItemResponse(updated),
		Proposal: dto.NewProposalResponse(proposal),
	}, nil
}

func (s *rubricService) Delete(ctx context.Context, sessionID string, ref grading.PageRef, itemIdx int) error {
	ctx, span := s.tracer.Start(ctx, "rubric.delete", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("page.file", ref.File),
		attribute.String("page.page", ref.Page),
		attribute.Int("item.idx", itemIdx),
	))
	defer span.End()

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		return err
	}

	state.DeleteItem(ref, itemIdx)

	s.afterChange(ctx, sessionID, dto.ActivityEvent{
		Type:      dto.ActivityRubricDeleted,
		SessionID: sessionID,
		File:      ref.File,
		Page:      ref.Page,
		Payload:   map[string]any{"item_idx": itemIdx},
	})
	return nil
}

func (s *rubricService) Pending(ctx context.Context, sessionID string) (*dto.ProposalResponse, error) {
	state, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return dto.NewProposalResponse(state.PendingProposal()), nil
}

func (s *rubricService) Resolve(ctx context.Context, sessionID string, payload dto.ResolveRequest) (dto.ResolveResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ResolveResponse{}, err
	}

	scope, err := grading.ParseScope(payload.Scope)
	if err != nil {
		return dto.ResolveResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "rubric.resolve", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("rubric.scope", payload.Scope),
	))
	defer span.End()

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		return dto.ResolveResponse{}, err
	}

	applied, err := state.Resolve(scope)
	if err != nil {
		span.RecordError(err)
		return dto.ResolveResponse{}, err
	}
	span.SetAttributes(attribute.Int("rubric.applied", len(applied)))
	observability.Propagations().WithLabelValues(payload.Scope).Inc()

	response := dto.ResolveResponse{Applied: dto.NewRubricItemResponseSlice(applied)}
	if response.Applied == nil {
		response.Applied = []dto.RubricItemResponse{}
	}

	s.afterChange(ctx, sessionID, dto.ActivityEvent{
		Type:      dto.ActivityRubricResolved,
		SessionID: sessionID,
		Payload:   map[string]any{"scope": payload.Scope, "applied": len(applied)},
	})
	return response, nil
}

// Suggest asks the annotation model for a description phrasing consistent
// with the deductions already recorded for the question.
func (s *rubricService) Suggest(ctx context.Context, sessionID string, marks int, question int) (string, error) {
	if s.suggester == nil {
		return "", errors.New("rubric suggestions are not configured")
	}

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}

	usage, _ := state.RubricUsage(question)
	existing := make([]string, 0, len(usage))
	for _, u := range usage {
		existing = append(existing, u.Description)
	}

	result, err := s.suggester.Suggest(ctx, annotate.SuggestionInput{
		Marks:                marks,
		Question:             question,
		ExistingDescriptions: existing,
	})
	if err != nil {
		return "", err
	}
	return result.Description, nil
}

func (s *rubricService) cleanDescription(raw string) (string, error) {
	clean := strings.TrimSpace(s.sanitizer.Sanitize(raw))
	if clean == "" {
		return "", grading.ErrEmptyDescription
	}
	return clean, nil
}

func (s *rubricService) afterChange(ctx context.Context, sessionID string, event dto.ActivityEvent) {
	s.stats.Invalidate(ctx, sessionID)
	s.activity.Publish(ctx, event)
}
