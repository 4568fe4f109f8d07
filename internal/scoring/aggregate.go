package scoring

import (
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-batch-grader/internal/models"
)

// Aggregate sums the per-criterion results into the final assessment for one student.
// TotalPointsPossible always comes from the rubric, never from assessor output. A
// percentage outside every configured band leaves the label empty and logs a warning;
// the numeric score stays valid.
func Aggregate(studentID string, rubric models.Rubric, results []models.CriterionResult, logger zerolog.Logger) models.AssessmentResult {
	assessment := models.AssessmentResult{
		StudentID:           studentID,
		CriteriaResults:     results,
		TotalPointsPossible: rubric.TotalPossible(),
	}

	for _, result := range results {
		assessment.TotalPointsEarned += result.PointsEarned
	}

	if assessment.TotalPointsPossible > 0 {
		assessment.Percentage = assessment.TotalPointsEarned / assessment.TotalPointsPossible * 100
	}

	assessment.OverallBandLabel = selectBand(rubric.OverallBands, assessment.Percentage)
	if assessment.OverallBandLabel == "" && len(rubric.OverallBands) > 0 {
		logger.Warn().
			Str("student_id", studentID).
			Float64("percentage", assessment.Percentage).
			Msg("no overall band covers the percentage; rubric bands are likely misconfigured")
	}

	return assessment
}

// selectBand returns the first-defined band containing the percentage; overlapping
// ranges resolve in declaration order.
func selectBand(bands []models.Band, percentage float64) string {
	for _, band := range bands {
		if band.Contains(percentage) {
			return band.Label
		}
	}
	return ""
}
