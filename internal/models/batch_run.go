package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// BatchRunStatusCompleted indicates every student task reached a terminal state.
	BatchRunStatusCompleted = "completed"
	// BatchRunStatusCancelled indicates the run was cancelled before all tasks finished.
	BatchRunStatusCancelled = "cancelled"
)

// BatchRun persists one grading batch so the reporting layer can fetch it later.
type BatchRun struct {
	ID                string           `gorm:"primaryKey;size:36" json:"id"`
	RubricID          string           `gorm:"size:64;not null" json:"rubric_id"`
	RubricVersion     string           `gorm:"size:32" json:"rubric_version"`
	Status            string           `gorm:"size:32;not null" json:"status"`
	TotalStudents     int              `gorm:"not null" json:"total_students"`
	Succeeded         int              `gorm:"not null" json:"succeeded"`
	Failed            int              `gorm:"not null" json:"failed"`
	AveragePercentage float64          `json:"average_percentage"`
	CreatedAt         time.Time        `json:"created_at"`
	CompletedAt       *time.Time       `json:"completed_at"`
	Outcomes          []StudentOutcome `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"outcomes"`
}

const (
	// StudentOutcomeStatusSucceeded marks a fully graded student.
	StudentOutcomeStatusSucceeded = "succeeded"
	// StudentOutcomeStatusFailed marks a student whose grading task failed.
	StudentOutcomeStatusFailed = "failed"
)

// StudentOutcome persists one student's slot in a batch run, graded or failed.
type StudentOutcome struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	BatchRunID       string         `gorm:"size:36;not null;index" json:"batch_run_id"`
	StudentID        string         `gorm:"size:128;not null" json:"student_id"`
	Position         int            `gorm:"not null" json:"position"`
	Status           string         `gorm:"size:32;not null" json:"status"`
	FailureReason    string         `gorm:"type:text" json:"failure_reason,omitempty"`
	PointsEarned     float64        `json:"points_earned"`
	PointsPossible   float64        `json:"points_possible"`
	Percentage       float64        `json:"percentage"`
	OverallBandLabel string         `gorm:"size:64" json:"overall_band_label"`
	CriteriaResults  datatypes.JSON `json:"criteria_results"`
	CreatedAt        time.Time      `json:"created_at"`
}
