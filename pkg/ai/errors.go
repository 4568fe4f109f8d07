package ai

import "fmt"

// TransportError wraps a network, timeout or rate-limit failure while calling the
// assessor. Transport failures are retryable at the caller's discretion.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("assessor transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError wraps an assessor response that failed schema validation. The
// assessor already answered, so retrying is pointless.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("assessor returned invalid result: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
