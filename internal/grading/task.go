package grading

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/gema-batch-grader/internal/models"
	"github.com/noah-isme/gema-batch-grader/internal/scoring"
	"github.com/noah-isme/gema-batch-grader/pkg/ai"
)

// TaskStatus is the terminal state of a grading task. Outcomes only surface once a
// task finishes; terminal states never change.
type TaskStatus string

const (
	// TaskStatusSucceeded means the task produced an assessment result.
	TaskStatusSucceeded TaskStatus = "succeeded"
	// TaskStatusFailed means the task terminated with a captured error.
	TaskStatusFailed TaskStatus = "failed"
)

// TaskOutcome is the tagged per-student result: either an assessment or a captured
// failure, never a propagated panic or exception.
type TaskOutcome struct {
	StudentID     string
	Status        TaskStatus
	Result        *models.AssessmentResult
	Err           error
	FailureReason string
}

// BatchStats summarizes task terminal states for the batch report.
type BatchStats struct {
	Total     int
	Succeeded int
	Failed    int
	Cancelled bool
}

// ErrNoGradableContent marks a student whose budgeted unit held no included files.
var ErrNoGradableContent = errors.New("no gradable content within the token budget")

// failureReason renders a captured task error as a human-readable reason for the
// batch report.
func failureReason(err error) string {
	var transport *ai.TransportError
	var validation *ai.ValidationError
	var config *scoring.ConfigError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "grading task timed out"
	case errors.Is(err, context.Canceled):
		return "batch was cancelled before the task completed"
	case errors.Is(err, ErrNoGradableContent):
		return ErrNoGradableContent.Error()
	case errors.As(err, &transport):
		return fmt.Sprintf("assessor unreachable: %v", transport.Err)
	case errors.As(err, &validation):
		return fmt.Sprintf("assessor returned an invalid judgment: %v", validation.Err)
	case errors.As(err, &config):
		return fmt.Sprintf("rubric/assessor mismatch: %v", config)
	default:
		return err.Error()
	}
}
