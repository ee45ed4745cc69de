package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/markdesk/markdesk-api/internal/grading"
	"github.com/markdesk/markdesk-api/internal/observability"
	"github.com/markdesk/markdesk-api/internal/repository"
	"github.com/markdesk/markdesk-api/internal/session"
	"github.com/markdesk/markdesk-api/pkg/report"
)

// ErrExportEmpty indicates a report was requested before any script was graded.
var ErrExportEmpty = errors.New("no graded scripts to report on")

// ExportService builds the moderation report PDF for a session and the
// grade report PDF for a single script.
type ExportService interface {
	Report(ctx context.Context, sessionID string) ([]byte, error)
	StudentReport(ctx context.Context, sessionID, fileKey string) ([]byte, string, error)
}

type exportService struct {
	sessions *session.Manager
	repo     repository.SessionRepository
	scripts  repository.ScriptRepository
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewExportService constructs the report export service.
func NewExportService(sessions *session.Manager, repo repository.SessionRepository, scripts repository.ScriptRepository, logger zerolog.Logger) ExportService {
	return &exportService{
		sessions: sessions,
		repo:     repo,
		scripts:  scripts,
		logger:   logger.With().Str("component", "export_service").Logger(),
		tracer:   otel.Tracer("github.com/markdesk/markdesk-api/internal/service/export"),
	}
}

func (s *exportService) Report(ctx context.Context, sessionID string) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "export.report", trace.WithAttributes(
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	totals := state.StudentTotalMarks("")
	if len(totals) == 0 {
		span.RecordError(ErrExportEmpty)
		return nil, ErrExportEmpty
	}

	name := sessionID
	if model, err := s.repo.GetByID(ctx, sessionID); err == nil {
		name = model.Name
	} else if err != gorm.ErrRecordNotFound {
		span.RecordError(err)
		return nil, err
	}

	scriptCount, err := s.scripts.CountBySession(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	scheme := state.Scheme()
	byQuestion := state.MarksByQuestion("")

	data := report.Data{
		SessionName:   name,
		GeneratedAt:   time.Now(),
		TotalMarks:    scheme.Total,
		ScriptCount:   int(scriptCount),
		TotalsSummary: toReportSummary(grading.Describe(totals)),
	}

	for _, question := range scheme.QuestionNumbers() {
		usage, fullyCorrect := state.RubricUsage(question)
		rows := make([]report.UsageRow, 0, len(usage))
		for _, u := range usage {
			rows = append(rows, report.UsageRow{
				Marks:       u.Marks,
				Description: u.Description,
				Proportion:  u.Proportion,
			})
		}
		data.Questions = append(data.Questions, report.QuestionSection{
			Question:     question,
			MaxMarks:     scheme.Questions[question],
			Summary:      toReportSummary(grading.Describe(byQuestion[question])),
			Usage:        rows,
			FullyCorrect: fullyCorrect,
		})
	}

	pdf, err := report.Build(data)
	if err != nil {
		observability.ExportFailures().Inc()
		span.RecordError(err)
		return nil, err
	}
	return pdf, nil
}

// StudentReport renders one script's grade report. The filename is derived
// from the student number when one was recorded.
func (s *exportService) StudentReport(ctx context.Context, sessionID, fileKey string) ([]byte, string, error) {
	ctx, span := s.tracer.Start(ctx, "export.student_report", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("script.file_key", fileKey),
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

	questionMarks := state.FileQuestionMarks(fileKey)
	if len(questionMarks) == 0 {
		span.RecordError(ErrExportEmpty)
		return nil, "", ErrExportEmpty
	}

	name := sessionID
	if model, err := s.repo.GetByID(ctx, sessionID); err == nil {
		name = model.Name
	}

	scheme := state.Scheme()
	data := report.StudentData{
		StudentNum:  state.StudentNumber(fileKey),
		SessionName: name,
		GeneratedAt: time.Now(),
		TotalMarks:  scheme.Total,
		Total:       scheme.Total,
	}
	for _, question := range scheme.QuestionNumbers() {
		data.Questions = append(data.Questions, report.StudentQuestionRow{
			Question: question,
			MaxMarks: scheme.Questions[question],
			Score:    questionMarks[question],
		})
	}
	for page, items := range state.ItemsSnapshot()[fileKey] {
		for _, item := range items {
			data.Total += item.Marks
			data.Deductions = append(data.Deductions, report.StudentDeduction{
				Page:        page,
				Marks:       item.Marks,
				Description: item.Description,
			})
		}
	}

	pdf, err := report.BuildStudent(data)
	if err != nil {
		observability.ExportFailures().Inc()
		span.RecordError(err)
		return nil, "", err
	}

	filename := "grade.pdf"
	if data.StudentNum != "" {
		filename = data.StudentNum + ".pdf"
	}
	s.logger.Info().Str("session_id", sessionID).Str("file_key", script.FileKey).Str("filename", filename).Msg("grade report built")
	return pdf, filename, nil
}

func toReportSummary(summary grading.Summary, ok bool) *report.Summary {
	if !ok {
		return nil
	}
	return &report.Summary{
		Count:  summary.Count,
		Min:    summary.Min,
		Max:    summary.Max,
		Mean:   summary.Mean,
		Median: summary.Median,
		Q25:    summary.Q25,
		Q75:    summary.Q75,
	}
}
