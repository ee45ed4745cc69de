package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/markdesk/markdesk-api/internal/grading"
	"github.com/markdesk/markdesk-api/internal/repository"
	"github.com/markdesk/markdesk-api/internal/session"
	"github.com/markdesk/markdesk-api/pkg/pdfpage"
)

// Render modes for the grading view.
const (
	// RenderOriginal serves the untouched page as a single-page PDF.
	RenderOriginal = 0
	// RenderOverlay serves the rubric annotations as a PNG panel.
	RenderOverlay = 1
	// RenderMarked is the overlay prefixed with the page's running score.
	RenderMarked = 2
)

// ErrUnknownRenderMode indicates a mode outside 0..2.
var ErrUnknownRenderMode = errors.New("unknown render mode")

const (
	overlayWidth  = 1240
	overlayHeight = 1754
)

// RenderService produces the page views graders look at: the raw scanned
// page and its annotation overlays.
type RenderService interface {
	Page(ctx context.Context, sessionID, fileKey string, page, mode int) ([]byte, string, error)
}

type renderService struct {
	sessions *session.Manager
	scripts  repository.ScriptRepository
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewRenderService constructs the page render service.
func NewRenderService(sessions *session.Manager, scripts repository.ScriptRepository, logger zerolog.Logger) RenderService {
	return &renderService{
		sessions: sessions,
		scripts:  scripts,
		logger:   logger.With().Str("component", "render_service").Logger(),
		tracer:   otel.Tracer("github.com/markdesk/markdesk-api/internal/service/render"),
	}
}

func (s *renderService) Page(ctx context.Context, sessionID, fileKey string, page, mode int) ([]byte, string, error) {
	ctx, span := s.tracer.Start(ctx, "render.page", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("page.file", fileKey),
		attribute.Int("page.page", page),
		attribute.Int("render.mode", mode),
	))
	defer span.End()

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		return nil, "", err
	}

	script, err := s.scripts.GetByKey(ctx, sessionID, fileKey)
	if err != nil {
		span.RecordError(err)
		return nil, "", err
	}

	switch mode {
	case RenderOriginal:
		data, err := pdfpage.ExtractPage(script.Contents, page)
		if err != nil {
			span.RecordError(err)
			return nil, "", err
		}
		return data, "application/pdf", nil

	case RenderOverlay, RenderMarked:
		if page < 1 || page > script.PageCount {
			err := fmt.Errorf("%w: page %d of %d", pdfpage.ErrPageOutOfRange, page, script.PageCount)
			span.RecordError(err)
			return nil, "", err
		}

		ref := grading.PageRef{File: fileKey, Page: strconv.Itoa(page)}
		annotations := s.annotationsFor(state, ref, mode == RenderMarked)
		data, err := pdfpage.RenderOverlay(overlayWidth, overlayHeight, annotations)
		if err != nil {
			span.RecordError(err)
			return nil, "", err
		}
		return data, "image/png", nil

	default:
		span.RecordError(ErrUnknownRenderMode)
		return nil, "", ErrUnknownRenderMode
	}
}

// annotationsFor converts a page's rubric items into overlay lines. When
// withScore is set, the running score (page total plus deductions) leads
// the panel the way a marked-up paper script would show it.
func (s *renderService) annotationsFor(state *session.State, ref grading.PageRef, withScore bool) []pdfpage.Annotation {
	items := state.ItemsOn(ref)
	annotations := make([]pdfpage.Annotation, 0, len(items)+1)

	if withScore {
		if meta, ok := state.PageMeta(ref); ok && meta.TotalScore != nil {
			score := *meta.TotalScore
			for _, item := range items {
				score += item.Marks
			}
			annotations = append(annotations, pdfpage.Annotation{
				Marks:       score,
				Description: fmt.Sprintf("of %d", *meta.TotalScore),
			})
		}
	}

	for _, item := range items {
		annotations = append(annotations, pdfpage.Annotation{
			Marks:       item.Marks,
			Description: item.Description,
		})
	}
	return annotations
}
