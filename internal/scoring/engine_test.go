package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-batch-grader/internal/models"
	"github.com/noah-isme/gema-batch-grader/pkg/ai"
)

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }
func ptrString(v string) *string  { return &v }

func levelBandCriterion(strategy models.PointsStrategy) models.Criterion {
	return models.Criterion{
		ID:          "code-quality",
		Name:        "Code Quality",
		MaxPoints:   25,
		ScoringMode: models.ScoringModeLevelBand,
		Levels: []models.Level{
			{Label: "Excellent", ScoreMin: 23, ScoreMax: 25},
			{Label: "Good", ScoreMin: 18, ScoreMax: 22},
			{Label: "Poor", ScoreMin: 0, ScoreMax: 17},
		},
		PointsStrategy: strategy,
	}
}

func TestScoreManualWithinRange(t *testing.T) {
	criterion := models.Criterion{ID: "effort", MaxPoints: 10, ScoringMode: models.ScoringModeManual}

	result, err := ScoreCriterion(criterion, ai.CriterionJudgment{
		CriterionID:  "effort",
		ManualPoints: ptrFloat(7.5),
		Feedback:     "solid effort",
	})
	require.NoError(t, err)
	require.Equal(t, 7.5, result.PointsEarned)
	require.Equal(t, 10.0, result.PointsPossible)
	require.Equal(t, "solid effort", result.Feedback)
}

func TestScoreManualOutOfRangeRejected(t *testing.T) {
	criterion := models.Criterion{ID: "effort", MaxPoints: 10, ScoringMode: models.ScoringModeManual}

	var configErr *ConfigError

	_, err := ScoreCriterion(criterion, ai.CriterionJudgment{ManualPoints: ptrFloat(11)})
	require.ErrorAs(t, err, &configErr)

	_, err = ScoreCriterion(criterion, ai.CriterionJudgment{ManualPoints: ptrFloat(-1)})
	require.ErrorAs(t, err, &configErr)

	_, err = ScoreCriterion(criterion, ai.CriterionJudgment{})
	require.ErrorAs(t, err, &configErr)
}

func TestScoreLevelBandStrategies(t *testing.T) {
	judgment := ai.CriterionJudgment{SelectedLevelLabel: ptrString("Good")}

	cases := []struct {
		strategy models.PointsStrategy
		expected float64
	}{
		{models.PointsStrategyMin, 18},
		{models.PointsStrategyMax, 22},
		{models.PointsStrategyMid, 20},
	}

	for _, tc := range cases {
		result, err := ScoreCriterion(levelBandCriterion(tc.strategy), judgment)
		require.NoError(t, err)
		require.Equal(t, tc.expected, result.PointsEarned)
	}
}

func TestScoreLevelBandMidRounds(t *testing.T) {
	criterion := models.Criterion{
		ID:             "style",
		MaxPoints:      10,
		ScoringMode:    models.ScoringModeLevelBand,
		Levels:         []models.Level{{Label: "OK", ScoreMin: 3, ScoreMax: 6}},
		PointsStrategy: models.PointsStrategyMid,
	}

	result, err := ScoreCriterion(criterion, ai.CriterionJudgment{SelectedLevelLabel: ptrString("OK")})
	require.NoError(t, err)
	// round((3+6)/2) = round(4.5) = 5 under round-half-away-from-zero.
	require.Equal(t, 5.0, result.PointsEarned)
}

func TestScoreLevelBandAlwaysWithinLevelRange(t *testing.T) {
	for _, strategy := range []models.PointsStrategy{models.PointsStrategyMin, models.PointsStrategyMid, models.PointsStrategyMax} {
		criterion := levelBandCriterion(strategy)
		for _, level := range criterion.Levels {
			result, err := ScoreCriterion(criterion, ai.CriterionJudgment{SelectedLevelLabel: ptrString(level.Label)})
			require.NoError(t, err)
			require.GreaterOrEqual(t, result.PointsEarned, level.ScoreMin)
			require.LessOrEqual(t, result.PointsEarned, level.ScoreMax)
		}
	}
}

func TestScoreLevelBandUnknownLabel(t *testing.T) {
	var configErr *ConfigError
	_, err := ScoreCriterion(levelBandCriterion(models.PointsStrategyMin), ai.CriterionJudgment{
		SelectedLevelLabel: ptrString("Stellar"),
	})
	require.ErrorAs(t, err, &configErr)
	require.Equal(t, "code-quality", configErr.CriterionID)
}

func TestScoreErrorCountWorkedExample(t *testing.T) {
	criterion := models.Criterion{
		ID:          "grammar",
		MaxPoints:   100,
		ScoringMode: models.ScoringModeErrorCount,
		ErrorConversion: &models.ErrorConversion{
			MinorToMajorRatio: 4,
			MajorWeight:       10,
			MinorWeight:       5,
		},
	}

	// 5 minors fold into 1 extra major plus 1 remaining minor:
	// deduction = (2+1)*10 + 1*5 = 35.
	result, err := ScoreCriterion(criterion, ai.CriterionJudgment{
		DetectedMajorCount: ptrInt(2),
		DetectedMinorCount: ptrInt(5),
	})
	require.NoError(t, err)
	require.Equal(t, 65.0, result.PointsEarned)
}

func TestScoreErrorCountFloorsAtZero(t *testing.T) {
	criterion := models.Criterion{
		ID:          "grammar",
		MaxPoints:   20,
		ScoringMode: models.ScoringModeErrorCount,
		ErrorConversion: &models.ErrorConversion{
			MinorToMajorRatio: 2,
			MajorWeight:       15,
			MinorWeight:       5,
		},
	}

	result, err := ScoreCriterion(criterion, ai.CriterionJudgment{
		DetectedMajorCount: ptrInt(10),
		DetectedMinorCount: ptrInt(0),
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, result.PointsEarned)
}

func TestScoreErrorCountMissingConfiguration(t *testing.T) {
	var configErr *ConfigError

	criterion := models.Criterion{ID: "grammar", MaxPoints: 20, ScoringMode: models.ScoringModeErrorCount}
	_, err := ScoreCriterion(criterion, ai.CriterionJudgment{
		DetectedMajorCount: ptrInt(1),
		DetectedMinorCount: ptrInt(1),
	})
	require.ErrorAs(t, err, &configErr)

	criterion.ErrorConversion = &models.ErrorConversion{MinorToMajorRatio: 3, MajorWeight: 5, MinorWeight: 1}
	_, err = ScoreCriterion(criterion, ai.CriterionJudgment{})
	require.ErrorAs(t, err, &configErr)
}

func TestScoreDeterministic(t *testing.T) {
	criterion := levelBandCriterion(models.PointsStrategyMid)
	judgment := ai.CriterionJudgment{SelectedLevelLabel: ptrString("Excellent"), Feedback: "great"}

	first, err := ScoreCriterion(criterion, judgment)
	require.NoError(t, err)
	second, err := ScoreCriterion(criterion, judgment)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestScoreUnknownMode(t *testing.T) {
	var configErr *ConfigError
	_, err := ScoreCriterion(models.Criterion{ID: "x", ScoringMode: "vibes"}, ai.CriterionJudgment{})
	require.ErrorAs(t, err, &configErr)
}
