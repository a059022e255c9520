/*
errors.go - Error taxonomy of the funding engine

PURPOSE:
  All error types in one place. The engine is a pure computation, so every
  failure is a caller input problem: nothing is retried.

ERROR CATEGORIES:
  1. ConfigError - malformed or semantically invalid input (negative amounts,
     zero durations, unknown frequency, bad weights, dates before today,
     zero-effect recurring probe)
  2. NumericDegeneracy - a growth or inflation factor that is not finite
  3. Store errors - run lookups

USAGE:
  if errors.Is(err, engine.ErrConfig) {
      var cfg *engine.ConfigError
      errors.As(err, &cfg)
      fmt.Println(cfg.Goal, cfg.Field)
  }

SEE ALSO:
  - schedule.go: raises most ConfigErrors
  - solver.go: zero-effect probe, degenerate lump-sum probe
*/
package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfig is the category of every *ConfigError.
	ErrConfig = errors.New("config error")

	// ErrNumericDegeneracy is the category of every *NumericDegeneracyError.
	ErrNumericDegeneracy = errors.New("numeric degeneracy")

	// ErrRunNotFound is returned by RunStore implementations for unknown IDs.
	ErrRunNotFound = errors.New("run not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry enough context to fix the input
// =============================================================================

// ConfigError reports invalid input. Goal is filled in by the evaluator once the
// failing goal is known.
type ConfigError struct {
	Goal   string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	msg := e.Reason
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Goal != "" {
		msg = fmt.Sprintf("goal %q: %s", e.Goal, msg)
	}
	return "config error: " + msg
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// NumericDegeneracyError reports a non-finite intermediate result.
type NumericDegeneracyError struct {
	Goal      string
	Operation string
	Value     float64
}

func (e *NumericDegeneracyError) Error() string {
	prefix := ""
	if e.Goal != "" {
		prefix = fmt.Sprintf("goal %q: ", e.Goal)
	}
	return fmt.Sprintf("numeric degeneracy: %s%s produced %v", prefix, e.Operation, e.Value)
}

func (e *NumericDegeneracyError) Unwrap() error { return ErrNumericDegeneracy }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// WithGoal stamps the goal name on a ConfigError or NumericDegeneracyError
// found in err's chain. Other errors are returned unchanged.
func WithGoal(err error, goal string) error {
	var cfg *ConfigError
	if errors.As(err, &cfg) && cfg.Goal == "" {
		cfg.Goal = goal
		return err
	}
	var num *NumericDegeneracyError
	if errors.As(err, &num) && num.Goal == "" {
		num.Goal = goal
	}
	return err
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrConfig) || errors.Is(err, ErrNumericDegeneracy)
}

// IsNotFound returns true if the error indicates a missing run.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func checkFinite(operation string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &NumericDegeneracyError{Operation: operation, Value: v}
	}
	return nil
}

func quote(s string) string { return strconv.Quote(s) }
