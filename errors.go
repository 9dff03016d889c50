package cordon

import "github.com/cordonhq/cordon/internal/errors"

// Re-export error types from internal package

// UpstreamNotFoundError indicates the upstream server binary was not found.
type UpstreamNotFoundError = errors.UpstreamNotFoundError

// ConnectionError indicates failure to connect to the upstream process.
type ConnectionError = errors.ConnectionError

// ProcessError indicates the upstream process failed.
type ProcessError = errors.ProcessError

// PolicyError indicates the access policy configuration is invalid.
type PolicyError = errors.PolicyError

// CordonError is the base interface for all cordon errors.
type CordonError = errors.CordonError

// Re-export sentinel errors from internal package.
var (
	// ErrAlreadyRun indicates a relay was run more than once.
	ErrAlreadyRun = errors.ErrAlreadyRun

	// ErrNoUpstream indicates no upstream command was configured.
	ErrNoUpstream = errors.ErrNoUpstream
)
