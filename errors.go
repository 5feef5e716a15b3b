package xtoon

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks parameter sets rejected at activation or refresh.
	// The caller may fix the values and retry.
	ErrConfiguration = errors.New("xtoon: invalid configuration")

	// ErrResource marks a missing or unusable tone texture or GPU program.
	ErrResource = errors.New("xtoon: resource unavailable")

	// ErrStateMismatch marks a call that does not fit the active backend.
	ErrStateMismatch = errors.New("xtoon: state mismatch")
)

// ConfigError reports a parameter outside the domain of its coordinate formula.
type ConfigError struct {
	Mode   Mode
	Field  string
	Value  float64
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("xtoon: %s: %s = %g: %s", e.Mode, e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// ResourceError reports a failure to load the tone texture or a mode's program.
// Mode is ModeNone for texture loading.
type ResourceError struct {
	Mode Mode
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Mode == ModeNone {
		return fmt.Sprintf("xtoon: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("xtoon: %s: %s: %v", e.Mode, e.Path, e.Err)
}

func (e *ResourceError) Unwrap() []error { return []error{ErrResource, e.Err} }

// StateMismatchError reports an operation that the active state cannot serve,
// such as CPU evaluation while a GPU program is bound.
type StateMismatchError struct {
	Op    string
	State State
}

func (e *StateMismatchError) Error() string {
	return fmt.Sprintf("xtoon: %s not available in state %s", e.Op, e.State)
}

func (e *StateMismatchError) Unwrap() error { return ErrStateMismatch }
