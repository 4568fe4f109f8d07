package ai

import "context"

// CriterionSpec describes one rubric criterion to the assessor. It carries enough for
// the model to judge quality but never asks it to compute totals.
type CriterionSpec struct {
	ID          string
	Name        string
	Description string
	ScoringMode string
	// LevelLabels lists the selectable performance levels for level_band criteria.
	LevelLabels []string
	// MaxPoints bounds the value a manual-mode judgment may suggest.
	MaxPoints float64
	// ErrorVocabulary names the error types counted for error_count criteria.
	ErrorVocabulary []string
}

// AssessmentInput is the assembled submission plus the rubric context for one student.
type AssessmentInput struct {
	StudentID      string
	SubmissionText string
	Criteria       []CriterionSpec
}

// CriterionJudgment is the assessor's qualitative output for a single criterion.
// Exactly one of the optional fields is expected, matching the criterion's mode.
type CriterionJudgment struct {
	CriterionID        string   `json:"criterion_id"`
	SelectedLevelLabel *string  `json:"selected_level,omitempty"`
	DetectedMajorCount *int     `json:"major_count,omitempty"`
	DetectedMinorCount *int     `json:"minor_count,omitempty"`
	ManualPoints       *float64 `json:"points,omitempty"`
	Feedback           string   `json:"feedback"`
}

// QualitativeResult is the schema-validated judgment set for one submission. It never
// carries authoritative point totals; arithmetic stays with the scoring engine.
type QualitativeResult struct {
	Judgments []CriterionJudgment
	Raw       map[string]interface{}
}

// JudgmentFor returns the judgment matching the criterion id, if present.
func (r QualitativeResult) JudgmentFor(criterionID string) (CriterionJudgment, bool) {
	for _, judgment := range r.Judgments {
		if judgment.CriterionID == criterionID {
			return judgment, true
		}
	}
	return CriterionJudgment{}, false
}

// Assessor describes an external capability that judges submission quality.
// Implementations are presumed non-deterministic; callers must treat the result as
// qualitative input only.
type Assessor interface {
	Assess(ctx context.Context, input AssessmentInput) (QualitativeResult, error)
}
