package models

// CriterionResult records the engine-computed outcome for a single criterion. The
// qualitative fields mirror what the assessor reported; PointsEarned is always
// computed locally, never copied from the assessor.
type CriterionResult struct {
	CriterionID        string   `json:"criterion_id"`
	SelectedLevelLabel *string  `json:"selected_level_label,omitempty"`
	DetectedMajorCount *int     `json:"detected_major_count,omitempty"`
	DetectedMinorCount *int     `json:"detected_minor_count,omitempty"`
	ManualPoints       *float64 `json:"manual_points,omitempty"`
	PointsEarned       float64  `json:"points_earned"`
	PointsPossible     float64  `json:"points_possible"`
	Feedback           string   `json:"feedback"`
}

// AssessmentResult is the final graded outcome for one student. Immutable after
// aggregation.
type AssessmentResult struct {
	StudentID           string            `json:"student_id"`
	CriteriaResults     []CriterionResult `json:"criteria_results"`
	TotalPointsEarned   float64           `json:"total_points_earned"`
	TotalPointsPossible float64           `json:"total_points_possible"`
	Percentage          float64           `json:"percentage"`
	OverallBandLabel    string            `json:"overall_band_label"`
}

// BatchSummary aggregates counts across a completed batch run.
type BatchSummary struct {
	TotalStudents     int     `json:"total_students"`
	Succeeded         int     `json:"succeeded"`
	Failed            int     `json:"failed"`
	AveragePercentage float64 `json:"average_percentage"`
}
