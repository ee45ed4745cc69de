package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/markdesk/markdesk-api/internal/dto"
	"github.com/markdesk/markdesk-api/internal/grading"
	"github.com/markdesk/markdesk-api/internal/observability"
	"github.com/markdesk/markdesk-api/internal/session"
)

// StatsService computes mark distributions and rubric usage for a session.
// Results are cached in Redis; every grading mutation invalidates the
// session's cache keys.
type StatsService interface {
	QuestionStats(ctx context.Context, sessionID string, question int) (dto.QuestionStatsResponse, error)
	AllQuestionStats(ctx context.Context, sessionID string) ([]dto.QuestionStatsResponse, error)
	Totals(ctx context.Context, sessionID string) (dto.TotalStatsResponse, error)
	Histogram(ctx context.Context, sessionID string) (dto.HistogramResponse, error)
	Usage(ctx context.Context, sessionID string, question int) (dto.QuestionUsageResponse, error)
	Invalidate(ctx context.Context, sessionID string)
}

type statsService struct {
	sessions *session.Manager
	redis    *redis.Client
	ttl      time.Duration
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewStatsService constructs the statistics service. A nil Redis client
// disables caching.
func NewStatsService(sessions *session.Manager, redisClient *redis.Client, ttl time.Duration, logger zerolog.Logger) StatsService {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &statsService{
		sessions: sessions,
		redis:    redisClient,
		ttl:      ttl,
		logger:   logger.With().Str("component", "stats_service").Logger(),
		tracer:   otel.Tracer("github.com/markdesk/markdesk-api/internal/service/stats"),
	}
}

func (s *statsService) QuestionStats(ctx context.Context, sessionID string, question int) (dto.QuestionStatsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "stats.question", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("question", question),
	))
	defer span.End()

	var cached dto.QuestionStatsResponse
	key := s.cacheKey(sessionID, fmt.Sprintf("question:%d", question))
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		return dto.QuestionStatsResponse{}, err
	}

	marks := state.MarksByQuestion("")[question]
	summary, ok := grading.Describe(marks)
	response := dto.QuestionStatsResponse{
		Question: question,
		Marks:    marks,
		Summary:  dto.NewSummaryResponse(summary, ok),
	}
	if response.Marks == nil {
		response.Marks = []int{}
	}

	s.writeCache(ctx, key, response)
	return response, nil
}

func (s *statsService) AllQuestionStats(ctx context.Context, sessionID string) ([]dto.QuestionStatsResponse, error) {
	state, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.QuestionStatsResponse, 0, len(state.Scheme().Questions))
	for _, question := range state.Scheme().QuestionNumbers() {
		stats, err := s.QuestionStats(ctx, sessionID, question)
		if err != nil {
			return nil, err
		}
		out = append(out, stats)
	}
	return out, nil
}

func (s *statsService) Totals(ctx context.Context, sessionID string) (dto.TotalStatsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "stats.totals", trace.WithAttributes(
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	var cached dto.TotalStatsResponse
	key := s.cacheKey(sessionID, "totals")
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		return dto.TotalStatsResponse{}, err
	}

	totals := state.StudentTotalMarks("")
	summary, ok := grading.Describe(totals)
	response := dto.TotalStatsResponse{
		Totals:  totals,
		Summary: dto.NewSummaryResponse(summary, ok),
	}
	if response.Totals == nil {
		response.Totals = []int{}
	}

	s.writeCache(ctx, key, response)
	return response, nil
}

const histogramBuckets = 10

func (s *statsService) Histogram(ctx context.Context, sessionID string) (dto.HistogramResponse, error) {
	ctx, span := s.tracer.Start(ctx, "stats.histogram", trace.WithAttributes(
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	var cached dto.HistogramResponse
	key := s.cacheKey(sessionID, "histogram")
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		return dto.HistogramResponse{}, err
	}

	totals := state.StudentTotalMarks("")
	buckets := grading.Histogram(totals, state.Scheme().Total, histogramBuckets)
	response := dto.NewHistogramResponse(buckets)

	s.writeCache(ctx, key, response)
	return response, nil
}

func (s *statsService) Usage(ctx context.Context, sessionID string, question int) (dto.QuestionUsageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "stats.usage", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("question", question),
	))
	defer span.End()

	var cached dto.QuestionUsageResponse
	key := s.cacheKey(sessionID, fmt.Sprintf("usage:%d", question))
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	state, err := s.sessions.Get(sessionID)
	if err != nil {
		span.RecordError(err)
		return dto.QuestionUsageResponse{}, err
	}

	usage, fullyCorrect := state.RubricUsage(question)
	response := dto.NewQuestionUsageResponse(question, usage, fullyCorrect)

	s.writeCache(ctx, key, response)
	return response, nil
}

// Invalidate drops every cached statistic for the session. Called after
// any mutation that can change a distribution.
func (s *statsService) Invalidate(ctx context.Context, sessionID string) {
	if s.redis == nil {
		return
	}

	pattern := s.cacheKey(sessionID, "*")
	iter := s.redis.Scan(ctx, 0, pattern, 64).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("stats cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("stats cache invalidation failed")
		return
	}
	observability.StatsCacheEvents().WithLabelValues("invalidate").Inc()
}

func (s *statsService) cacheKey(sessionID, suffix string) string {
	return fmt.Sprintf("markdesk:stats:%s:%s", sessionID, suffix)
}

func (s *statsService) readCache(ctx context.Context, key string, out interface{}) bool {
	if s.redis == nil {
		return false
	}
	payload, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("stats cache read failed")
		}
		observability.StatsCacheEvents().WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("stats cache entry corrupt")
		return false
	}
	observability.StatsCacheEvents().WithLabelValues("hit").Inc()
	return true
}

func (s *statsService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("stats cache write failed")
	}
}
