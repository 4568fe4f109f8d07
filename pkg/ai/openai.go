package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	assessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "grader",
		Subsystem: "assessor",
		Name:      "request_duration_seconds",
		Help:      "Duration of assessor requests",
	}, []string{"model"})

	assessFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grader",
		Subsystem: "assessor",
		Name:      "request_failures_total",
		Help:      "Number of failed assessor requests",
	}, []string{"model", "kind"})
)

// judgmentSchema validates the raw assessor JSON before it is trusted. Anything the
// model returns outside this shape is rejected as a ValidationError.
const judgmentSchema = `{
    "type": "object",
    "required": ["criteria"],
    "properties": {
        "criteria": {
            "type": "array",
            "items": {
                "type": "object",
                "required": ["criterion_id"],
                "properties": {
                    "criterion_id": {"type": "string", "minLength": 1},
                    "selected_level": {"type": "string"},
                    "major_count": {"type": "integer", "minimum": 0},
                    "minor_count": {"type": "integer", "minimum": 0},
                    "points": {"type": "number"},
                    "feedback": {"type": "string"}
                }
            }
        }
    }
}`

var compiledJudgmentSchema = jsonschema.MustCompileString("judgment.json", judgmentSchema)

// OpenAIConfig defines configuration options for the OpenAI assessor.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIAssessor implements Assessor against the OpenAI chat completion API.
type OpenAIAssessor struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIAssessor builds a new assessor using the provided configuration.
func NewOpenAIAssessor(cfg OpenAIConfig) (*OpenAIAssessor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	tracer := otel.Tracer("github.com/noah-isme/gema-batch-grader/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIAssessor{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Assess sends the submission and rubric context to OpenAI and returns the validated
// qualitative judgment set.
func (a *OpenAIAssessor) Assess(parent context.Context, input AssessmentInput) (QualitativeResult, error) {
	ctx, span := a.tracer.Start(parent, "openai.assess", trace.WithAttributes(
		attribute.String("model", a.cfg.Model),
		attribute.String("student_id", input.StudentID),
		attribute.Int("criteria_count", len(input.Criteria)),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: assessorSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildAssessmentPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, request)
	assessDuration.WithLabelValues(a.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return QualitativeResult{}, a.fail(span, "transport", &TransportError{Err: err})
	}

	if len(resp.Choices) == 0 {
		return QualitativeResult{}, a.fail(span, "transport", &TransportError{Err: fmt.Errorf("no choices returned from openai")})
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := ParseJudgments(content)
	if err != nil {
		return QualitativeResult{}, a.fail(span, "validation", err)
	}

	result.Raw = map[string]interface{}{
		"usage": resp.Usage,
	}

	return result, nil
}

func (a *OpenAIAssessor) fail(span trace.Span, kind string, err error) error {
	assessFailures.WithLabelValues(a.cfg.Model, kind).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	a.logger.Warn().Err(err).Str("kind", kind).Msg("assessor request failed")
	return err
}

// ParseJudgments validates the raw model JSON against the judgment schema and decodes
// it. Schema violations and malformed JSON surface as ValidationError.
func ParseJudgments(content string) (QualitativeResult, error) {
	var raw interface{}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return QualitativeResult{}, &ValidationError{Err: fmt.Errorf("parse judgment json: %w", err)}
	}

	if err := compiledJudgmentSchema.Validate(raw); err != nil {
		return QualitativeResult{}, &ValidationError{Err: err}
	}

	var payload struct {
		Criteria []CriterionJudgment `json:"criteria"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return QualitativeResult{}, &ValidationError{Err: fmt.Errorf("decode judgment json: %w", err)}
	}

	return QualitativeResult{Judgments: payload.Criteria}, nil
}

func assessorSystemPrompt() string {
	return "You are an impartial grader for student submissions. For each rubric criterion you are given, " +
		"return a qualitative judgment only: for level_band criteria pick exactly one of the listed level labels " +
		"as selected_level; for error_count criteria report major_count and minor_count as non-negative integers; " +
		"for manual criteria suggest points between 0 and the stated maximum. Always include short constructive " +
		"feedback per criterion. Never compute totals or percentages. " +
		`Respond with a JSON object of the form {"criteria": [{"criterion_id": ..., ...}]}.`
}

func buildAssessmentPrompt(input AssessmentInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Rubric Criteria\n")
	for _, criterion := range input.Criteria {
		builder.WriteString("\n## ")
		builder.WriteString(criterion.ID)
		builder.WriteString(": ")
		builder.WriteString(criterion.Name)
		builder.WriteString("\nMode: ")
		builder.WriteString(criterion.ScoringMode)
		if criterion.Description != "" {
			builder.WriteString("\n")
			builder.WriteString(criterion.Description)
		}
		if len(criterion.LevelLabels) > 0 {
			builder.WriteString("\nLevels: ")
			builder.WriteString(strings.Join(criterion.LevelLabels, ", "))
		}
		if len(criterion.ErrorVocabulary) > 0 {
			builder.WriteString("\nError types to count: ")
			builder.WriteString(strings.Join(criterion.ErrorVocabulary, ", "))
		}
		if criterion.ScoringMode == "manual" {
			builder.WriteString("\nMaximum points: ")
			builder.WriteString(strconv.FormatFloat(criterion.MaxPoints, 'f', -1, 64))
		}
		builder.WriteString("\n")
	}

	builder.WriteString("\n# Submission\n")
	builder.WriteString(input.SubmissionText)
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}
