package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for configuration and run validation.
var (
	// ErrInvalidConfig indicates a configuration value outside its valid range.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrUnknownShape indicates a shape kind name that is not registered.
	ErrUnknownShape = errors.New("dynamo: unknown shape kind")

	// ErrInvalidRun indicates run settings that cannot drive a simulation.
	ErrInvalidRun = errors.New("dynamo: invalid run settings")

	// ErrClosed indicates use of a jar after Close.
	ErrClosed = errors.New("dynamo: jar closed")

	// ErrRunNotFound indicates a stored run id with no run directory.
	ErrRunNotFound = errors.New("dynamo: run not found")
)

// ConfigError names the offending field of an invalid configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// SimError wraps an error with the frame it happened on.
type SimError struct {
	Frame   int
	Time    float64
	Wrapped error
}

func (e *SimError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4f): %v", e.Frame, e.Time, e.Wrapped)
}

func (e *SimError) Unwrap() error {
	return e.Wrapped
}
