package annotate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	suggestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "markdesk",
		Subsystem: "annotate",
		Name:      "suggestion_duration_seconds",
		Help:      "Duration of rubric suggestion requests",
	}, []string{"model"})

	suggestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "markdesk",
		Subsystem: "annotate",
		Name:      "suggestion_failures_total",
		Help:      "Number of rubric suggestion failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI suggester.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAISuggester implements Suggester against the OpenAI chat completion API.
type OpenAISuggester struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAISuggester builds a suggester using the provided configuration.
func NewOpenAISuggester(cfg OpenAIConfig) (*OpenAISuggester, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 256
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &OpenAISuggester{
		client: openai.NewClientWithConfig(openai.DefaultConfig(cfg.APIKey)),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/markdesk/markdesk-api/pkg/annotate/openai"),
		logger: logger,
	}, nil
}

// Suggest asks the model for a rubric description and parses the response.
func (s *OpenAISuggester) Suggest(parent context.Context, input SuggestionInput) (SuggestionResult, error) {
	ctx, span := s.tracer.Start(parent, "annotate.suggest", trace.WithAttributes(
		attribute.String("model", s.cfg.Model),
		attribute.Int("marks", input.Marks),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: suggesterSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildUserPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := s.client.CreateChatCompletion(ctx, request)
	suggestDuration.WithLabelValues(s.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		suggestFailures.WithLabelValues(s.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return SuggestionResult{}, fmt.Errorf("openai suggest: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		suggestFailures.WithLabelValues(s.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return SuggestionResult{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := parseSuggestionResponse(content)
	if err != nil {
		suggestFailures.WithLabelValues(s.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return SuggestionResult{}, err
	}

	result.Raw = map[string]interface{}{
		"usage": resp.Usage,
	}

	return result, nil
}

func suggesterSystemPrompt() string {
	return "You help an examiner phrase rubric annotations. Respond with a JSON object containing " +
		"description (a short imperative phrase naming the error or credit) and confidence (0-1). " +
		"Reuse the phrasing of existing descriptions when the deduction is the same kind of error."
}

func buildUserPrompt(input SuggestionInput) string {
	builder := strings.Builder{}
	fmt.Fprintf(&builder, "# Deduction\n%+d marks", input.Marks)
	if input.Question > 0 {
		fmt.Fprintf(&builder, " on question %d", input.Question)
	}
	if len(input.ExistingDescriptions) > 0 {
		builder.WriteString("\n\n## Descriptions already in use\n")
		for _, desc := range input.ExistingDescriptions {
			builder.WriteString("- ")
			builder.WriteString(desc)
			builder.WriteString("\n")
		}
	}
	if input.Notes != "" {
		builder.WriteString("\n## Notes\n")
		builder.WriteString(input.Notes)
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseSuggestionResponse(content string) (SuggestionResult, error) {
	var payload struct {
		Description string  `json:"description"`
		Confidence  float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return SuggestionResult{}, fmt.Errorf("parse suggestion response: %w", err)
	}
	if strings.TrimSpace(payload.Description) == "" {
		return SuggestionResult{}, fmt.Errorf("suggestion response missing description")
	}
	return SuggestionResult{
		Description: strings.TrimSpace(payload.Description),
		Confidence:  payload.Confidence,
	}, nil
}
