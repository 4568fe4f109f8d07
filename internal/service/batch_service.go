package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-batch-grader/internal/archive"
	"github.com/noah-isme/gema-batch-grader/internal/budget"
	"github.com/noah-isme/gema-batch-grader/internal/dto"
	"github.com/noah-isme/gema-batch-grader/internal/grading"
	"github.com/noah-isme/gema-batch-grader/internal/models"
	"github.com/noah-isme/gema-batch-grader/internal/observability"
	"github.com/noah-isme/gema-batch-grader/internal/repository"
)

// ErrBatchRunNotFound indicates the requested batch run does not exist.
var ErrBatchRunNotFound = errors.New("batch run not found")

// BatchOrchestrator is the slice of the grading orchestrator the service depends on.
type BatchOrchestrator interface {
	Run(ctx context.Context, batchID string, units []models.StudentSubmissionUnit, rubric models.Rubric) ([]grading.TaskOutcome, grading.BatchStats)
}

// BatchGradingService drives the batch pipeline end to end: archive extraction, token
// budgeting, orchestration, and persistence of the final report.
type BatchGradingService interface {
	RunBatch(ctx context.Context, rubric dto.RubricRequest, archiveName string, archiveData []byte) (dto.BatchRunResponse, error)
	GetBatch(ctx context.Context, id string) (dto.BatchRunResponse, error)
	ListBatches(ctx context.Context, limit, offset int) ([]dto.BatchRunResponse, int64, error)
}

type batchGradingService struct {
	repo         repository.BatchRunRepository
	orchestrator BatchOrchestrator
	budgetCfg    budget.Config
	extractOpts  archive.ExtractOptions
	validator    *validator.Validate
	sanitizer    *bluemonday.Policy
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewBatchGradingService constructs the batch grading service.
func NewBatchGradingService(repo repository.BatchRunRepository, orchestrator BatchOrchestrator, budgetCfg budget.Config, validate *validator.Validate, logger zerolog.Logger) BatchGradingService {
	return &batchGradingService{
		repo:         repo,
		orchestrator: orchestrator,
		budgetCfg:    budgetCfg,
		extractOpts:  archive.DefaultExtractOptions(),
		validator:    validate,
		sanitizer:    bluemonday.StrictPolicy(),
		logger:       logger.With().Str("component", "batch_grading_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/gema-batch-grader/internal/service/batch_grading"),
		now:          time.Now,
	}
}

func (s *batchGradingService) RunBatch(ctx context.Context, rubricReq dto.RubricRequest, archiveName string, archiveData []byte) (dto.BatchRunResponse, error) {
	ctx, span := s.tracer.Start(ctx, "batch.run", trace.WithAttributes(
		attribute.String("rubric_id", rubricReq.ID),
	))
	defer span.End()

	if err := s.validator.Struct(rubricReq); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rubric_validation_failed")
		return dto.BatchRunResponse{}, err
	}

	if err := s.budgetCfg.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "budget_too_small")
		return dto.BatchRunResponse{}, err
	}

	if err := archive.EnsureZip(archiveName, archiveData); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unsupported_archive")
		return dto.BatchRunResponse{}, err
	}

	students, err := archive.Extract(archiveData, s.extractOpts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "archive_extraction_failed")
		return dto.BatchRunResponse{}, err
	}

	units := make([]models.StudentSubmissionUnit, 0, len(students))
	for _, student := range students {
		units = append(units, budget.Plan(student, s.budgetCfg))
	}

	rubric := rubricReq.ToModel()
	batchID := uuid.NewString()
	startedAt := s.now()

	s.logger.Info().
		Str("batch_id", batchID).
		Str("rubric_id", rubric.ID).
		Int("students", len(units)).
		Msg("starting batch grading")
	observability.BatchStudents().Observe(float64(len(units)))

	outcomes, stats := s.orchestrator.Run(ctx, batchID, units, rubric)

	run, err := s.buildRun(batchID, rubric, outcomes, stats, startedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run_assembly_failed")
		return dto.BatchRunResponse{}, err
	}

	if err := s.repo.Create(ctx, &run); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run_persist_failed")
		return dto.BatchRunResponse{}, err
	}

	span.SetAttributes(
		attribute.Int("succeeded", stats.Succeeded),
		attribute.Int("failed", stats.Failed),
	)

	return dto.NewBatchRunResponse(run), nil
}

// buildRun folds the orchestrator's ordered outcomes into the persisted report.
// Assessor feedback is stripped of HTML before it is stored or returned.
func (s *batchGradingService) buildRun(batchID string, rubric models.Rubric, outcomes []grading.TaskOutcome, stats grading.BatchStats, startedAt time.Time) (models.BatchRun, error) {
	status := models.BatchRunStatusCompleted
	if stats.Cancelled {
		status = models.BatchRunStatusCancelled
	}

	run := models.BatchRun{
		ID:            batchID,
		RubricID:      rubric.ID,
		RubricVersion: rubric.Version,
		Status:        status,
		TotalStudents: stats.Total,
		Succeeded:     stats.Succeeded,
		Failed:        stats.Failed,
		CreatedAt:     startedAt,
	}

	completedAt := s.now()
	run.CompletedAt = &completedAt

	var percentageSum float64
	for position, outcome := range outcomes {
		stored := models.StudentOutcome{
			BatchRunID: batchID,
			StudentID:  outcome.StudentID,
			Position:   position,
		}

		if outcome.Status == grading.TaskStatusSucceeded && outcome.Result != nil {
			result := *outcome.Result

			// Copy before sanitizing: the assessment result is immutable once built.
			criteria := append([]models.CriterionResult(nil), result.CriteriaResults...)
			for i := range criteria {
				criteria[i].Feedback = s.sanitizer.Sanitize(criteria[i].Feedback)
			}

			payload, err := json.Marshal(criteria)
			if err != nil {
				return models.BatchRun{}, err
			}

			stored.Status = models.StudentOutcomeStatusSucceeded
			stored.PointsEarned = result.TotalPointsEarned
			stored.PointsPossible = result.TotalPointsPossible
			stored.Percentage = result.Percentage
			stored.OverallBandLabel = result.OverallBandLabel
			stored.CriteriaResults = datatypes.JSON(payload)
			percentageSum += result.Percentage
		} else {
			stored.Status = models.StudentOutcomeStatusFailed
			stored.FailureReason = outcome.FailureReason
		}

		run.Outcomes = append(run.Outcomes, stored)
	}

	if stats.Succeeded > 0 {
		run.AveragePercentage = percentageSum / float64(stats.Succeeded)
	}

	return run, nil
}

func (s *batchGradingService) GetBatch(ctx context.Context, id string) (dto.BatchRunResponse, error) {
	run, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BatchRunResponse{}, ErrBatchRunNotFound
		}
		return dto.BatchRunResponse{}, err
	}

	return dto.NewBatchRunResponse(run), nil
}

func (s *batchGradingService) ListBatches(ctx context.Context, limit, offset int) ([]dto.BatchRunResponse, int64, error) {
	runs, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return dto.NewBatchRunResponseSlice(runs), total, nil
}
