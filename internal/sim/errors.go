package sim

import "fmt"

// ConfigError reports a PipelineConfig the simulator refuses to evaluate.
//
// Config errors are detected before any stage runs - a rejected config
// produces no partial result.
type ConfigError struct {
	// Field is the offending config field (snake_case, matching the
	// scenario file key).
	Field string

	// Value echoes the rejected value.
	Value float64

	// Message describes the accepted domain.
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s = %g: %s", e.Field, e.Value, e.Message)
}

// StageError wraps a psychrometric failure with the stage it occurred in.
//
// When a stage fails, downstream stages are not evaluated and the tick is
// reported as a single failure. Unwrap exposes the underlying
// psychro.SingularityError for errors.As.
type StageError struct {
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying engine error.
func (e *StageError) Unwrap() error {
	return e.Err
}
