package scoring

import (
	"fmt"
	"math"

	"github.com/noah-isme/gema-batch-grader/internal/models"
	"github.com/noah-isme/gema-batch-grader/pkg/ai"
)

// ConfigError indicates a mismatch between the assessor's judgment and the rubric
// configuration: an unknown level label, a manual point value out of range, or a
// criterion whose configuration is incomplete for its mode. Not retryable; it also
// flags a rubric/assessor drift worth investigating.
type ConfigError struct {
	CriterionID string
	Reason      string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("scoring mismatch for criterion %q: %s", e.CriterionID, e.Reason)
}

// ScoreCriterion deterministically converts the assessor's qualitative judgment into
// exact points for one criterion. PointsEarned is always computed here; the assessor's
// values are inputs only.
func ScoreCriterion(criterion models.Criterion, judgment ai.CriterionJudgment) (models.CriterionResult, error) {
	result := models.CriterionResult{
		CriterionID:        criterion.ID,
		SelectedLevelLabel: judgment.SelectedLevelLabel,
		DetectedMajorCount: judgment.DetectedMajorCount,
		DetectedMinorCount: judgment.DetectedMinorCount,
		ManualPoints:       judgment.ManualPoints,
		PointsPossible:     criterion.MaxPoints,
		Feedback:           judgment.Feedback,
	}

	switch criterion.ScoringMode {
	case models.ScoringModeManual:
		points, err := scoreManual(criterion, judgment)
		if err != nil {
			return models.CriterionResult{}, err
		}
		result.PointsEarned = points

	case models.ScoringModeLevelBand:
		points, err := scoreLevelBand(criterion, judgment)
		if err != nil {
			return models.CriterionResult{}, err
		}
		result.PointsEarned = points

	case models.ScoringModeErrorCount:
		points, err := scoreErrorCount(criterion, judgment)
		if err != nil {
			return models.CriterionResult{}, err
		}
		result.PointsEarned = points

	default:
		return models.CriterionResult{}, &ConfigError{
			CriterionID: criterion.ID,
			Reason:      fmt.Sprintf("unknown scoring mode %q", criterion.ScoringMode),
		}
	}

	return result, nil
}

// scoreManual takes the assessor's suggested points, rejecting values outside
// [0, max_points]. Rejection rather than clamping keeps out-of-range suggestions
// auditable instead of silently rewriting them.
func scoreManual(criterion models.Criterion, judgment ai.CriterionJudgment) (float64, error) {
	if judgment.ManualPoints == nil {
		return 0, &ConfigError{CriterionID: criterion.ID, Reason: "manual mode requires a point value"}
	}

	points := *judgment.ManualPoints
	if points < 0 || points > criterion.MaxPoints {
		return 0, &ConfigError{
			CriterionID: criterion.ID,
			Reason:      fmt.Sprintf("manual points %.2f outside [0, %.2f]", points, criterion.MaxPoints),
		}
	}

	return points, nil
}

func scoreLevelBand(criterion models.Criterion, judgment ai.CriterionJudgment) (float64, error) {
	if judgment.SelectedLevelLabel == nil {
		return 0, &ConfigError{CriterionID: criterion.ID, Reason: "level_band mode requires a selected level"}
	}

	level, ok := criterion.LevelByLabel(*judgment.SelectedLevelLabel)
	if !ok {
		return 0, &ConfigError{
			CriterionID: criterion.ID,
			Reason:      fmt.Sprintf("level %q not configured", *judgment.SelectedLevelLabel),
		}
	}

	switch criterion.PointsStrategy {
	case models.PointsStrategyMin:
		return level.ScoreMin, nil
	case models.PointsStrategyMax:
		return level.ScoreMax, nil
	case models.PointsStrategyMid, "":
		return math.Round((level.ScoreMin + level.ScoreMax) / 2), nil
	default:
		return 0, &ConfigError{
			CriterionID: criterion.ID,
			Reason:      fmt.Sprintf("unknown points strategy %q", criterion.PointsStrategy),
		}
	}
}

func scoreErrorCount(criterion models.Criterion, judgment ai.CriterionJudgment) (float64, error) {
	if judgment.DetectedMajorCount == nil || judgment.DetectedMinorCount == nil {
		return 0, &ConfigError{CriterionID: criterion.ID, Reason: "error_count mode requires major and minor counts"}
	}

	conversion := criterion.ErrorConversion
	if conversion == nil {
		return 0, &ConfigError{CriterionID: criterion.ID, Reason: "error_count mode requires an error conversion rule"}
	}
	if conversion.MinorToMajorRatio <= 0 {
		return 0, &ConfigError{CriterionID: criterion.ID, Reason: "minor_to_major_ratio must be positive"}
	}

	majors := *judgment.DetectedMajorCount
	minors := *judgment.DetectedMinorCount
	if majors < 0 || minors < 0 {
		return 0, &ConfigError{CriterionID: criterion.ID, Reason: "error counts must be non-negative"}
	}

	convertedMajors := minors / conversion.MinorToMajorRatio
	remainingMinors := minors % conversion.MinorToMajorRatio

	deduction := float64(majors+convertedMajors)*conversion.MajorWeight +
		float64(remainingMinors)*conversion.MinorWeight

	// Excess deduction is absorbed, never carried to other criteria.
	return math.Max(0, criterion.MaxPoints-deduction), nil
}
