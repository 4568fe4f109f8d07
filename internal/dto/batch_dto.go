package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/gema-batch-grader/internal/models"
)

// RubricRequest is the externally supplied rubric, validated before the pipeline runs.
type RubricRequest struct {
	ID           string             `json:"id" validate:"required"`
	Version      string             `json:"version"`
	Title        string             `json:"title" validate:"required"`
	Criteria     []CriterionRequest `json:"criteria" validate:"required,min=1,dive"`
	OverallBands []BandRequest      `json:"overall_bands" validate:"omitempty,dive"`
}

// CriterionRequest describes one gradable dimension of the rubric payload.
type CriterionRequest struct {
	ID              string                  `json:"id" validate:"required"`
	Name            string                  `json:"name" validate:"required"`
	MaxPoints       float64                 `json:"max_points" validate:"required,gt=0"`
	ScoringMode     string                  `json:"scoring_mode" validate:"required,oneof=manual level_band error_count"`
	Levels          []LevelRequest          `json:"levels" validate:"required_if=ScoringMode level_band,dive"`
	ErrorConversion *ErrorConversionRequest `json:"error_conversion" validate:"required_if=ScoringMode error_count"`
	PointsStrategy  string                  `json:"points_strategy" validate:"omitempty,oneof=min mid max"`
}

// LevelRequest describes one performance level of a level_band criterion.
type LevelRequest struct {
	Label       string  `json:"label" validate:"required"`
	ScoreMin    float64 `json:"score_min" validate:"gte=0"`
	ScoreMax    float64 `json:"score_max" validate:"gtefield=ScoreMin"`
	Description string  `json:"description"`
}

// ErrorConversionRequest configures minor-to-major error folding.
type ErrorConversionRequest struct {
	MinorToMajorRatio int     `json:"minor_to_major_ratio" validate:"required,gt=0"`
	MajorWeight       float64 `json:"major_weight" validate:"gte=0"`
	MinorWeight       float64 `json:"minor_weight" validate:"gte=0"`
}

// BandRequest names an overall performance tier over the aggregate percentage.
type BandRequest struct {
	Label    string  `json:"label" validate:"required"`
	ScoreMin float64 `json:"score_min" validate:"gte=0"`
	ScoreMax float64 `json:"score_max" validate:"gtefield=ScoreMin"`
}

// ToModel converts the validated request into the pipeline's rubric structure.
func (r RubricRequest) ToModel() models.Rubric {
	rubric := models.Rubric{
		ID:      r.ID,
		Version: r.Version,
		Title:   r.Title,
	}

	for _, criterion := range r.Criteria {
		converted := models.Criterion{
			ID:             criterion.ID,
			Name:           criterion.Name,
			MaxPoints:      criterion.MaxPoints,
			ScoringMode:    models.ScoringMode(criterion.ScoringMode),
			PointsStrategy: models.PointsStrategy(criterion.PointsStrategy),
		}
		for _, level := range criterion.Levels {
			converted.Levels = append(converted.Levels, models.Level{
				Label:       level.Label,
				ScoreMin:    level.ScoreMin,
				ScoreMax:    level.ScoreMax,
				Description: level.Description,
			})
		}
		if criterion.ErrorConversion != nil {
			converted.ErrorConversion = &models.ErrorConversion{
				MinorToMajorRatio: criterion.ErrorConversion.MinorToMajorRatio,
				MajorWeight:       criterion.ErrorConversion.MajorWeight,
				MinorWeight:       criterion.ErrorConversion.MinorWeight,
			}
		}
		rubric.Criteria = append(rubric.Criteria, converted)
	}

	for _, band := range r.OverallBands {
		rubric.OverallBands = append(rubric.OverallBands, models.Band{
			Label:    band.Label,
			ScoreMin: band.ScoreMin,
			ScoreMax: band.ScoreMax,
		})
	}

	return rubric
}

// StudentOutcomeResponse serializes one student's slot in a batch run.
type StudentOutcomeResponse struct {
	StudentID        string          `json:"student_id"`
	Position         int             `json:"position"`
	Status           string          `json:"status"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	PointsEarned     float64         `json:"points_earned"`
	PointsPossible   float64         `json:"points_possible"`
	Percentage       float64         `json:"percentage"`
	OverallBandLabel string          `json:"overall_band_label"`
	CriteriaResults  json.RawMessage `json:"criteria_results,omitempty"`
}

// BatchRunResponse is returned to API clients when viewing batch runs.
type BatchRunResponse struct {
	ID                string                   `json:"id"`
	RubricID          string                   `json:"rubric_id"`
	RubricVersion     string                   `json:"rubric_version"`
	Status            string                   `json:"status"`
	TotalStudents     int                      `json:"total_students"`
	Succeeded         int                      `json:"succeeded"`
	Failed            int                      `json:"failed"`
	AveragePercentage float64                  `json:"average_percentage"`
	CreatedAt         time.Time                `json:"created_at"`
	CompletedAt       *time.Time               `json:"completed_at"`
	Outcomes          []StudentOutcomeResponse `json:"outcomes,omitempty"`
}

// NewBatchRunResponse maps a persisted run to its API representation.
func NewBatchRunResponse(run models.BatchRun) BatchRunResponse {
	response := BatchRunResponse{
		ID:                run.ID,
		RubricID:          run.RubricID,
		RubricVersion:     run.RubricVersion,
		Status:            run.Status,
		TotalStudents:     run.TotalStudents,
		Succeeded:         run.Succeeded,
		Failed:            run.Failed,
		AveragePercentage: run.AveragePercentage,
		CreatedAt:         run.CreatedAt,
		CompletedAt:       run.CompletedAt,
	}

	for _, outcome := range run.Outcomes {
		response.Outcomes = append(response.Outcomes, StudentOutcomeResponse{
			StudentID:        outcome.StudentID,
			Position:         outcome.Position,
			Status:           outcome.Status,
			FailureReason:    outcome.FailureReason,
			PointsEarned:     outcome.PointsEarned,
			PointsPossible:   outcome.PointsPossible,
			Percentage:       outcome.Percentage,
			OverallBandLabel: outcome.OverallBandLabel,
			CriteriaResults:  json.RawMessage(outcome.CriteriaResults),
		})
	}

	return response
}

// NewBatchRunResponseSlice maps a list of runs without their outcome details.
func NewBatchRunResponseSlice(runs []models.BatchRun) []BatchRunResponse {
	responses := make([]BatchRunResponse, 0, len(runs))
	for _, run := range runs {
		run.Outcomes = nil
		responses = append(responses, NewBatchRunResponse(run))
	}
	return responses
}
