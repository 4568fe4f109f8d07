package scoring

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-batch-grader/internal/models"
)

func bandedRubric() models.Rubric {
	return models.Rubric{
		ID:      "essay-v1",
		Version: "1",
		Criteria: []models.Criterion{
			{ID: "content", MaxPoints: 25},
			{ID: "structure", MaxPoints: 25},
		},
		OverallBands: []models.Band{
			{Label: "Excellent", ScoreMin: 90, ScoreMax: 100},
			{Label: "Good", ScoreMin: 75, ScoreMax: 89.99},
			{Label: "Pass", ScoreMin: 50, ScoreMax: 74.99},
			{Label: "Fail", ScoreMin: 0, ScoreMax: 49.99},
		},
	}
}

func TestAggregateTotalsAndBand(t *testing.T) {
	results := []models.CriterionResult{
		{CriterionID: "content", PointsEarned: 23, PointsPossible: 25},
		{CriterionID: "structure", PointsEarned: 18, PointsPossible: 25},
	}

	assessment := Aggregate("alice", bandedRubric(), results, zerolog.Nop())

	require.Equal(t, "alice", assessment.StudentID)
	require.Equal(t, 41.0, assessment.TotalPointsEarned)
	require.Equal(t, 50.0, assessment.TotalPointsPossible)
	require.Equal(t, 82.0, assessment.Percentage)
	require.Equal(t, "Good", assessment.OverallBandLabel)
	require.Len(t, assessment.CriteriaResults, 2)
}

func TestAggregatePossibleFromRubricNotResults(t *testing.T) {
	// A missing criterion result must not shrink the denominator.
	results := []models.CriterionResult{
		{CriterionID: "content", PointsEarned: 25, PointsPossible: 25},
	}

	assessment := Aggregate("bob", bandedRubric(), results, zerolog.Nop())

	require.Equal(t, 50.0, assessment.TotalPointsPossible)
	require.Equal(t, 50.0, assessment.Percentage)
	require.Equal(t, "Pass", assessment.OverallBandLabel)
}

func TestAggregateZeroPossible(t *testing.T) {
	rubric := models.Rubric{OverallBands: bandedRubric().OverallBands}

	assessment := Aggregate("carol", rubric, nil, zerolog.Nop())

	require.Equal(t, 0.0, assessment.TotalPointsPossible)
	require.Equal(t, 0.0, assessment.Percentage)
	require.Equal(t, "Fail", assessment.OverallBandLabel)
}

func TestAggregateOverlappingBandsFirstDefinedWins(t *testing.T) {
	rubric := bandedRubric()
	rubric.OverallBands = []models.Band{
		{Label: "High", ScoreMin: 80, ScoreMax: 100},
		{Label: "AlsoHigh", ScoreMin: 80, ScoreMax: 100},
	}

	results := []models.CriterionResult{
		{CriterionID: "content", PointsEarned: 25, PointsPossible: 25},
		{CriterionID: "structure", PointsEarned: 25, PointsPossible: 25},
	}

	assessment := Aggregate("dana", rubric, results, zerolog.Nop())
	require.Equal(t, "High", assessment.OverallBandLabel)
}

func TestAggregateUncoveredPercentageLeavesLabelEmpty(t *testing.T) {
	rubric := bandedRubric()
	rubric.OverallBands = []models.Band{{Label: "Excellent", ScoreMin: 90, ScoreMax: 100}}

	results := []models.CriterionResult{
		{CriterionID: "content", PointsEarned: 10, PointsPossible: 25},
	}

	assessment := Aggregate("erin", rubric, results, zerolog.Nop())
	require.Empty(t, assessment.OverallBandLabel)
	require.Equal(t, 20.0, assessment.Percentage)
}

func TestAggregateNoBandsConfigured(t *testing.T) {
	rubric := bandedRubric()
	rubric.OverallBands = nil

	assessment := Aggregate("finn", rubric, nil, zerolog.Nop())
	require.Empty(t, assessment.OverallBandLabel)
}
