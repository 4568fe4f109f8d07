package models

// ScoringMode determines how a criterion's points are derived from the assessor's judgment.
type ScoringMode string

const (
	// ScoringModeManual takes a point value directly from the assessor, bounds-checked.
	ScoringModeManual ScoringMode = "manual"
	// ScoringModeLevelBand maps a selected performance level to a point sub-range.
	ScoringModeLevelBand ScoringMode = "level_band"
	// ScoringModeErrorCount deducts points based on detected major/minor error tallies.
	ScoringModeErrorCount ScoringMode = "error_count"
)

// PointsStrategy selects which point of a matched level's range is awarded.
type PointsStrategy string

const (
	// PointsStrategyMin awards the lower bound of the matched level.
	PointsStrategyMin PointsStrategy = "min"
	// PointsStrategyMid awards the rounded midpoint of the matched level.
	PointsStrategyMid PointsStrategy = "mid"
	// PointsStrategyMax awards the upper bound of the matched level.
	PointsStrategyMax PointsStrategy = "max"
)

// Level describes one named performance tier of a level_band criterion.
type Level struct {
	Label       string  `json:"label"`
	ScoreMin    float64 `json:"score_min"`
	ScoreMax    float64 `json:"score_max"`
	Description string  `json:"description"`
}

// ErrorConversion configures how minor errors fold into major ones for error_count scoring.
type ErrorConversion struct {
	MinorToMajorRatio int     `json:"minor_to_major_ratio"`
	MajorWeight       float64 `json:"major_weight"`
	MinorWeight       float64 `json:"minor_weight"`
}

// Criterion is one gradable dimension of a rubric.
type Criterion struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	MaxPoints       float64          `json:"max_points"`
	ScoringMode     ScoringMode      `json:"scoring_mode"`
	Levels          []Level          `json:"levels,omitempty"`
	ErrorConversion *ErrorConversion `json:"error_conversion,omitempty"`
	PointsStrategy  PointsStrategy   `json:"points_strategy,omitempty"`
}

// LevelByLabel returns the level with the exact label, if any.
func (c Criterion) LevelByLabel(label string) (Level, bool) {
	for _, level := range c.Levels {
		if level.Label == label {
			return level, true
		}
	}
	return Level{}, false
}

// Band names a tier of overall performance over the aggregate percentage.
type Band struct {
	Label    string  `json:"label"`
	ScoreMin float64 `json:"score_min"`
	ScoreMax float64 `json:"score_max"`
}

// Contains reports whether the percentage falls inside the band's inclusive range.
func (b Band) Contains(percentage float64) bool {
	return percentage >= b.ScoreMin && percentage <= b.ScoreMax
}

// Rubric is the validated grading configuration consumed by the pipeline.
type Rubric struct {
	ID           string      `json:"id"`
	Version      string      `json:"version"`
	Title        string      `json:"title"`
	Criteria     []Criterion `json:"criteria"`
	OverallBands []Band      `json:"overall_bands"`
}

// TotalPossible sums the maximum points across all criteria.
func (r Rubric) TotalPossible() float64 {
	var total float64
	for _, criterion := range r.Criteria {
		total += criterion.MaxPoints
	}
	return total
}

// CriterionByID returns the criterion with the given id, if present.
func (r Rubric) CriterionByID(id string) (Criterion, bool) {
	for _, criterion := range r.Criteria {
		if criterion.ID == id {
			return criterion, true
		}
	}
	return Criterion{}, false
}
