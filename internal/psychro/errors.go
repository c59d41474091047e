package psychro

import "fmt"

// SingularityCode categorizes engine singularities.
type SingularityCode string

const (
	// ErrCodeTempSingularity indicates T = -243.5, the removable
	// singularity of the Magnus exponent.
	ErrCodeTempSingularity SingularityCode = "TEMP_SINGULARITY"

	// ErrCodeVaporPressure indicates Pw >= P_atm, where the humidity
	// ratio denominator goes non-positive.
	ErrCodeVaporPressure SingularityCode = "VAPOR_PRESSURE_LIMIT"
)

// SingularityError reports an out-of-envelope input that makes the
// psychrometric relations undefined.
//
// Singularities are never retried and never coerced to zero or NaN - the
// caller decides whether to fault the tick or fix the input.
type SingularityError struct {
	// Code identifies which relation broke down.
	Code SingularityCode

	// Message is a human-readable description.
	Message string

	// TempC and RHPct echo the offending inputs for diagnostics.
	TempC float64
	RHPct float64
}

// Error implements the error interface.
func (e *SingularityError) Error() string {
	return fmt.Sprintf("%s: %s (T=%g C, RH=%g%%)", e.Code, e.Message, e.TempC, e.RHPct)
}

// RangeError reports an input outside the engine's accepted domain.
// Distinct from SingularityError: a RangeError means the caller skipped
// its clamp or passed a non-finite value, not that the math broke down.
type RangeError struct {
	Field   string
	Value   float64
	Min     float64
	Max     float64
	Message string
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	return fmt.Sprintf("%s = %g: %s", e.Field, e.Value, e.Message)
}
