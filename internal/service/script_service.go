package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/markdesk/markdesk-api/internal/dto"
	"github.com/markdesk/markdesk-api/internal/models"
	"github.com/markdesk/markdesk-api/internal/observability"
	"github.com/markdesk/markdesk-api/internal/repository"
	"github.com/markdesk/markdesk-api/internal/session"
	"github.com/markdesk/markdesk-api/pkg/pdfpage"
)

var (
	// ErrUploadTooLarge indicates the script exceeded the configured limit.
	ErrUploadTooLarge = errors.New("script exceeds maximum allowed size")
	// ErrUploadNotPDF indicates the payload is not a PDF document.
	ErrUploadNotPDF = errors.New("script must be a PDF document")
)

// ScriptStorage abstracts the CDN destination for uploaded scripts.
type ScriptStorage interface {
	UploadScript(ctx context.Context, sessionID, fileKey, name string, reader io.Reader) (string, error)
}

// ScriptService handles exam script uploads and listing.
type ScriptService interface {
	Upload(ctx context.Context, sessionID string, file *multipart.FileHeader) (dto.ScriptResponse, error)
	List(ctx context.Context, sessionID string) ([]dto.ScriptResponse, error)
}

type scriptService struct {
	sessions *session.Manager
	repo     repository.ScriptRepository
	storage  ScriptStorage
	activity ActivityService
	logger   zerolog.Logger
	maxSize  int64
	tracer   trace.Tracer
}

// NewScriptService constructs the script service. Storage may be nil, in
// which case scripts are served from the database only.
func NewScriptService(sessions *session.Manager, repo repository.ScriptRepository, storage ScriptStorage, activity ActivityService, maxSizeMB int, logger zerolog.Logger) ScriptService {
	if maxSizeMB <= 0 {
		maxSizeMB = 25
	}
	return &scriptService{
		sessions: sessions,
		repo:     repo,
		storage:  storage,
		activity: activity,
		logger:   logger.With().Str("component", "script_service").Logger(),
		maxSize:  int64(maxSizeMB) * 1024 * 1024,
		tracer:   otel.Tracer("github.com/markdesk/markdesk-api/internal/service/script"),
	}
}

// Upload validates and stores one script PDF, registers it with the live
// grading index, and pre-fills the student number when the file name
// carries one.
func (s *scriptService) Upload(ctx context.Context, sessionID string, file *multipart.FileHeader) (dto.ScriptResponse, error) {
	ctx, span := s.tracer.Start(ctx, "script.upload", trace.WithAttributes(
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		return dto.ScriptResponse{}, err
	}

	if file == nil {
		err := errors.New("script file is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.ScriptResponse{}, err
	}
	span.SetAttributes(
		attribute.String("upload.original_name", file.Filename),
		attribute.Int64("upload.request_size", file.Size),
	)

	if file.Size > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.ScriptResponse{}, ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.ScriptResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.ScriptResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.ScriptResponse{}, ErrUploadTooLarge
	}

	if !mimetype.Detect(buf.Bytes()).Is("application/pdf") {
		observability.UploadRejected().WithLabelValues("type").Inc()
		span.RecordError(ErrUploadNotPDF)
		span.SetStatus(codes.Error, "type not allowed")
		return dto.ScriptResponse{}, ErrUploadNotPDF
	}

	pageCount, err := pdfpage.Count(buf.Bytes())
	if err != nil {
		observability.UploadRejected().WithLabelValues("parse").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return dto.ScriptResponse{}, err
	}
	span.SetAttributes(attribute.Int("upload.page_count", pageCount))

	existing, err := s.repo.CountBySession(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return dto.ScriptResponse{}, err
	}
	fileKey := strconv.FormatInt(existing+1, 10)

	storageURL := ""
	if s.storage != nil {
		storageURL, err = s.storage.UploadScript(ctx, sessionID, fileKey, file.Filename, bytes.NewReader(buf.Bytes()))
		if err != nil {
			observability.UploadRejected().WithLabelValues("storage").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "storage failed")
			return dto.ScriptResponse{}, err
		}
	}

	script := models.Script{
		SessionID:  sessionID,
		FileKey:    fileKey,
		Name:       file.Filename,
		StudentNum: ExtractStudentNumber(file.Filename),
		PageCount:  pageCount,
		StorageURL: storageURL,
		Contents:   buf.Bytes(),
	}
	if err := s.repo.Create(ctx, &script); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.ScriptResponse{}, err
	}

	state.EnsureFile(fileKey)
	if script.StudentNum != "" {
		state.SetStudentNumber(fileKey, script.StudentNum)
	}

	s.activity.Publish(ctx, dto.ActivityEvent{
		Type:      dto.ActivityScriptUploaded,
		SessionID: sessionID,
		File:      fileKey,
		Payload:   map[string]any{"name": script.Name, "page_count": pageCount},
	})

	span.SetStatus(codes.Ok, "stored")
	return dto.NewScriptResponse(script), nil
}

func (s *scriptService) List(ctx context.Context, sessionID string) ([]dto.ScriptResponse, error) {
	scripts, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return dto.NewScriptResponseSlice(scripts), nil
}
