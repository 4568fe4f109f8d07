package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJudgmentsValid(t *testing.T) {
	content := `{
		"criteria": [
			{"criterion_id": "content", "selected_level": "Good", "feedback": "clear argument"},
			{"criterion_id": "grammar", "major_count": 1, "minor_count": 3, "feedback": "a few slips"},
			{"criterion_id": "effort", "points": 7.5, "feedback": "solid"}
		]
	}`

	result, err := ParseJudgments(content)
	require.NoError(t, err)
	require.Len(t, result.Judgments, 3)

	first, ok := result.JudgmentFor("content")
	require.True(t, ok)
	require.NotNil(t, first.SelectedLevelLabel)
	require.Equal(t, "Good", *first.SelectedLevelLabel)
	require.Equal(t, "clear argument", first.Feedback)

	second, ok := result.JudgmentFor("grammar")
	require.True(t, ok)
	require.Equal(t, 1, *second.DetectedMajorCount)
	require.Equal(t, 3, *second.DetectedMinorCount)

	third, ok := result.JudgmentFor("effort")
	require.True(t, ok)
	require.Equal(t, 7.5, *third.ManualPoints)
}

func TestParseJudgmentsMalformedJSON(t *testing.T) {
	var validation *ValidationError
	_, err := ParseJudgments(`{"criteria": [`)
	require.ErrorAs(t, err, &validation)
}

func TestParseJudgmentsSchemaViolations(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing criteria key", `{"results": []}`},
		{"criteria not an array", `{"criteria": {"criterion_id": "x"}}`},
		{"missing criterion_id", `{"criteria": [{"feedback": "nice"}]}`},
		{"empty criterion_id", `{"criteria": [{"criterion_id": ""}]}`},
		{"negative major_count", `{"criteria": [{"criterion_id": "g", "major_count": -1}]}`},
		{"fractional minor_count", `{"criteria": [{"criterion_id": "g", "minor_count": 1.5}]}`},
		{"non-numeric points", `{"criteria": [{"criterion_id": "e", "points": "seven"}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var validation *ValidationError
			_, err := ParseJudgments(tc.content)
			require.ErrorAs(t, err, &validation)
		})
	}
}

func TestParseJudgmentsEmptyCriteriaAllowed(t *testing.T) {
	result, err := ParseJudgments(`{"criteria": []}`)
	require.NoError(t, err)
	require.Empty(t, result.Judgments)
}

func TestJudgmentForMissing(t *testing.T) {
	result := QualitativeResult{}
	_, ok := result.JudgmentFor("anything")
	require.False(t, ok)
}

func TestBuildAssessmentPromptContents(t *testing.T) {
	prompt := buildAssessmentPrompt(AssessmentInput{
		StudentID:      "alice",
		SubmissionText: "## File: main.go\npackage main\n",
		Criteria: []CriterionSpec{
			{ID: "quality", Name: "Code Quality", ScoringMode: "level_band", LevelLabels: []string{"Excellent", "Good", "Poor"}},
			{ID: "effort", Name: "Effort", ScoringMode: "manual", MaxPoints: 10},
		},
	})

	require.Contains(t, prompt, "quality: Code Quality")
	require.Contains(t, prompt, "Levels: Excellent, Good, Poor")
	require.Contains(t, prompt, "Maximum points: 10")
	require.Contains(t, prompt, "## File: main.go")
}

func TestNewOpenAIAssessorRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIAssessor(OpenAIConfig{})
	require.Error(t, err)
}
