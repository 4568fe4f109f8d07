package grading

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-batch-grader/internal/budget"
	"github.com/noah-isme/gema-batch-grader/internal/models"
	"github.com/noah-isme/gema-batch-grader/internal/observability"
	"github.com/noah-isme/gema-batch-grader/internal/scoring"
	"github.com/noah-isme/gema-batch-grader/pkg/ai"
)

// AssessmentCache stores validated assessor judgments keyed by submission content so
// re-running an unchanged batch does not re-invoke the assessor. A nil cache disables
// caching; cache errors are never fatal.
type AssessmentCache interface {
	Get(ctx context.Context, key string) (ai.QualitativeResult, bool)
	Set(ctx context.Context, key string, result ai.QualitativeResult)
}

// ProgressEvent describes one task reaching a terminal state.
type ProgressEvent struct {
	BatchID       string     `json:"batch_id"`
	StudentID     string     `json:"student_id"`
	Status        TaskStatus `json:"status"`
	Position      int        `json:"position"`
	Total         int        `json:"total"`
	FailureReason string     `json:"failure_reason,omitempty"`
}

// ProgressNotifier receives task completion events for live dashboards. A nil
// notifier disables publishing; notifier errors are never fatal.
type ProgressNotifier interface {
	TaskCompleted(ctx context.Context, event ProgressEvent)
}

// Config carries the orchestration tunables.
type Config struct {
	// MaxConcurrency bounds how many grading tasks are in flight at once.
	MaxConcurrency int
	// TaskTimeout is the per-task deadline; one slow student never delays another.
	TaskTimeout time.Duration
	// TransportRetries is how many times a transport failure is retried per task.
	TransportRetries int
}

// DefaultConfig returns the orchestration defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency:   5,
		TaskTimeout:      2 * time.Minute,
		TransportRetries: 1,
	}
}

// Orchestrator fans out one grading task per student with bounded concurrency and
// isolated failures. Each task works on its own immutable unit and writes only its
// own result slot, so no locking is needed beyond the semaphore.
type Orchestrator struct {
	assessor ai.Assessor
	cache    AssessmentCache
	notifier ProgressNotifier
	cfg      Config
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewOrchestrator constructs an orchestrator. cache and notifier may be nil.
func NewOrchestrator(assessor ai.Assessor, cache AssessmentCache, notifier ProgressNotifier, cfg Config, logger zerolog.Logger) *Orchestrator {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultConfig().MaxConcurrency
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = DefaultConfig().TaskTimeout
	}
	if cfg.TransportRetries < 0 {
		cfg.TransportRetries = 0
	}

	return &Orchestrator{
		assessor: assessor,
		cache:    cache,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.With().Str("component", "grading_orchestrator").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/gema-batch-grader/internal/grading"),
	}
}

// Run grades every unit and returns outcomes in the original extraction order,
// regardless of completion order. Cancellation of ctx stops pending work; tasks that
// already completed keep their results.
func (o *Orchestrator) Run(ctx context.Context, batchID string, units []models.StudentSubmissionUnit, rubric models.Rubric) ([]TaskOutcome, BatchStats) {
	ctx, span := o.tracer.Start(ctx, "grading.run_batch", trace.WithAttributes(
		attribute.String("batch_id", batchID),
		attribute.Int("students", len(units)),
	))
	defer span.End()

	start := time.Now()
	outcomes := make([]TaskOutcome, len(units))
	semaphore := make(chan struct{}, o.cfg.MaxConcurrency)
	var wg sync.WaitGroup

	criteria := assessorCriteria(rubric)

	for i, unit := range units {
		wg.Add(1)
		go func(slot int, unit models.StudentSubmissionUnit) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				outcomes[slot] = o.failed(ctx, batchID, slot, len(units), unit.StudentID, ctx.Err())
				return
			}

			outcomes[slot] = o.runTask(ctx, batchID, slot, len(units), unit, rubric, criteria)
		}(i, unit)
	}

	wg.Wait()

	stats := BatchStats{Total: len(units), Cancelled: ctx.Err() != nil}
	for _, outcome := range outcomes {
		if outcome.Status == TaskStatusSucceeded {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
	}

	observability.BatchDuration().Observe(time.Since(start).Seconds())
	o.logger.Info().
		Str("batch_id", batchID).
		Int("total", stats.Total).
		Int("succeeded", stats.Succeeded).
		Int("failed", stats.Failed).
		Bool("cancelled", stats.Cancelled).
		Msg("batch grading finished")

	return outcomes, stats
}

func (o *Orchestrator) runTask(ctx context.Context, batchID string, slot, total int, unit models.StudentSubmissionUnit, rubric models.Rubric, criteria []ai.CriterionSpec) TaskOutcome {
	if len(unit.IncludedFiles) == 0 {
		return o.failed(ctx, batchID, slot, total, unit.StudentID, ErrNoGradableContent)
	}

	text := budget.AssembleText(unit)
	cacheKey := assessmentKey(rubric, text)

	qualitative, cached := o.cachedJudgments(ctx, cacheKey)
	if !cached {
		var err error
		qualitative, err = o.assess(ctx, ai.AssessmentInput{
			StudentID:      unit.StudentID,
			SubmissionText: text,
			Criteria:       criteria,
		})
		if err != nil {
			return o.failed(ctx, batchID, slot, total, unit.StudentID, err)
		}

		if o.cache != nil {
			o.cache.Set(ctx, cacheKey, qualitative)
		}
	}

	results := make([]models.CriterionResult, 0, len(rubric.Criteria))
	for _, criterion := range rubric.Criteria {
		judgment, ok := qualitative.JudgmentFor(criterion.ID)
		if !ok {
			err := &scoring.ConfigError{CriterionID: criterion.ID, Reason: "assessor returned no judgment"}
			return o.failed(ctx, batchID, slot, total, unit.StudentID, err)
		}

		result, err := scoring.ScoreCriterion(criterion, judgment)
		if err != nil {
			return o.failed(ctx, batchID, slot, total, unit.StudentID, err)
		}
		results = append(results, result)
	}

	assessment := scoring.Aggregate(unit.StudentID, rubric, results, o.logger)
	observability.TaskOutcomes().WithLabelValues(string(TaskStatusSucceeded)).Inc()
	o.notify(ctx, ProgressEvent{
		BatchID:   batchID,
		StudentID: unit.StudentID,
		Status:    TaskStatusSucceeded,
		Position:  slot + 1,
		Total:     total,
	})

	return TaskOutcome{
		StudentID: unit.StudentID,
		Status:    TaskStatusSucceeded,
		Result:    &assessment,
	}
}

// assess invokes the external assessor under the per-task deadline, retrying
// transport failures within the configured budget. Validation failures are never
// retried; the assessor already answered.
func (o *Orchestrator) assess(ctx context.Context, input ai.AssessmentInput) (ai.QualitativeResult, error) {
	taskCtx, cancel := context.WithTimeout(ctx, o.cfg.TaskTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= o.cfg.TransportRetries; attempt++ {
		result, err := o.assessor.Assess(taskCtx, input)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var transport *ai.TransportError
		if !errors.As(err, &transport) || taskCtx.Err() != nil || attempt >= o.cfg.TransportRetries {
			break
		}

		o.logger.Warn().Err(err).
			Str("student_id", input.StudentID).
			Int("attempt", attempt+1).
			Msg("assessor transport failure, retrying")
	}

	if taskCtx.Err() != nil && ctx.Err() == nil {
		return ai.QualitativeResult{}, context.DeadlineExceeded
	}

	return ai.QualitativeResult{}, lastErr
}

func (o *Orchestrator) cachedJudgments(ctx context.Context, key string) (ai.QualitativeResult, bool) {
	if o.cache == nil {
		return ai.QualitativeResult{}, false
	}
	return o.cache.Get(ctx, key)
}

func (o *Orchestrator) failed(ctx context.Context, batchID string, slot, total int, studentID string, err error) TaskOutcome {
	reason := failureReason(err)
	observability.TaskOutcomes().WithLabelValues(string(TaskStatusFailed)).Inc()
	o.logger.Warn().Err(err).
		Str("batch_id", batchID).
		Str("student_id", studentID).
		Msg("grading task failed")

	o.notify(ctx, ProgressEvent{
		BatchID:       batchID,
		StudentID:     studentID,
		Status:        TaskStatusFailed,
		Position:      slot + 1,
		Total:         total,
		FailureReason: reason,
	})

	return TaskOutcome{
		StudentID:     studentID,
		Status:        TaskStatusFailed,
		Err:           err,
		FailureReason: reason,
	}
}

func (o *Orchestrator) notify(ctx context.Context, event ProgressEvent) {
	if o.notifier == nil {
		return
	}
	o.notifier.TaskCompleted(ctx, event)
}

// assessmentKey derives a stable cache key from the rubric identity and the exact
// assembled submission text.
func assessmentKey(rubric models.Rubric, text string) string {
	hash := sha256.New()
	hash.Write([]byte(rubric.ID))
	hash.Write([]byte{0})
	hash.Write([]byte(rubric.Version))
	hash.Write([]byte{0})
	hash.Write([]byte(text))
	return "assessment:" + hex.EncodeToString(hash.Sum(nil))
}

// assessorCriteria projects rubric criteria into the narrow view the assessor sees.
func assessorCriteria(rubric models.Rubric) []ai.CriterionSpec {
	specs := make([]ai.CriterionSpec, 0, len(rubric.Criteria))
	for _, criterion := range rubric.Criteria {
		spec := ai.CriterionSpec{
			ID:          criterion.ID,
			Name:        criterion.Name,
			ScoringMode: string(criterion.ScoringMode),
			MaxPoints:   criterion.MaxPoints,
		}
		for _, level := range criterion.Levels {
			spec.LevelLabels = append(spec.LevelLabels, level.Label)
			if level.Description != "" {
				spec.Description += level.Label + ": " + level.Description + "\n"
			}
		}
		specs = append(specs, spec)
	}
	return specs
}
