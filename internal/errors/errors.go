package errors

import (
	"errors"
	"fmt"
)

// CordonError is the base interface for all filter errors.
type CordonError interface {
	error
	IsCordonError() bool
}

// Compile-time verification that all error types implement CordonError.
var (
	_ CordonError = (*UpstreamNotFoundError)(nil)
	_ CordonError = (*ConnectionError)(nil)
	_ CordonError = (*ProcessError)(nil)
	_ CordonError = (*PolicyError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrAlreadyRun indicates the relay was started twice.
	ErrAlreadyRun = errors.New("relay already run: relays are single-use, create a new one with New()")

	// ErrNoUpstream indicates no upstream command was configured.
	ErrNoUpstream = errors.New("no upstream command configured")
)

// UpstreamNotFoundError indicates the upstream server binary was not found.
type UpstreamNotFoundError struct {
	Command string
	Err     error
}

func (e *UpstreamNotFoundError) Error() string {
	return fmt.Sprintf("upstream command %q not found: %v", e.Command, e.Err)
}

func (e *UpstreamNotFoundError) Unwrap() error {
	return e.Err
}

// IsCordonError implements CordonError.
func (e *UpstreamNotFoundError) IsCordonError() bool { return true }

// ConnectionError indicates failure to spawn or pipe to the upstream.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to upstream: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsCordonError implements CordonError.
func (e *ConnectionError) IsCordonError() bool { return true }

// ProcessError indicates the upstream process terminated abnormally in a
// way that cannot be reported as a plain exit code.
type ProcessError struct {
	ExitCode int
	Err      error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("upstream process failed (exit %d): %v", e.ExitCode, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsCordonError implements CordonError.
func (e *ProcessError) IsCordonError() bool { return true }

// PolicyError indicates the access policy configuration is invalid.
type PolicyError struct {
	Field string
	Err   error
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("invalid policy %s: %v", e.Field, e.Err)
}

func (e *PolicyError) Unwrap() error {
	return e.Err
}

// IsCordonError implements CordonError.
func (e *PolicyError) IsCordonError() bool { return true }
