package pipeline

import "fmt"

// ValidationError is returned when an order fails shape validation.
// No network call has been made when it is raised.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order: %s: %s", e.Field, e.Message)
}

// StepError wraps a failure with the pipeline state it occurred in, so
// batch summaries can report where each order broke down.
type StepError struct {
	State State
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
