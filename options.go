package cordon

import (
	"io"
	"log/slog"
)

// Options configures a filter run. Most callers use the functional options
// below rather than building this struct directly.
type Options struct {
	// Logger receives debug output. Nil disables logging.
	Logger *slog.Logger

	// Policy is the access policy to enforce. If nil, PolicyFile and then
	// the environment are consulted.
	Policy *Policy

	// PolicyFile is a path to a YAML policy file. Ignored when Policy is set.
	PolicyFile string

	// Upstream is the argv of the upstream server. Empty selects the
	// default "github-mcp-server stdio".
	Upstream []string

	// Stdin and Stdout are the client-facing streams. Nil selects the
	// process's own stdin and stdout.
	Stdin  io.Reader
	Stdout io.Writer

	// UpstreamStderr receives the upstream's stderr. Nil selects the
	// process's own stderr.
	UpstreamStderr io.Writer

	// Env holds additional environment variables for the upstream process,
	// layered over the current environment.
	Env map[string]string
}

// Option configures Options using the functional options pattern.
// This is the primary option type for configuring Run.
type Option func(*Options)

// applyOptions applies functional options to an Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithPolicy sets an explicitly constructed access policy.
// If set, this takes precedence over WithPolicyFile and the environment.
func WithPolicy(pol *Policy) Option {
	return func(o *Options) {
		o.Policy = pol
	}
}

// WithPolicyFile sets a path to a YAML policy file. A policy file replaces
// the environment variables entirely; the file is loaded when Run starts.
func WithPolicyFile(path string) Option {
	return func(o *Options) {
		o.PolicyFile = path
	}
}

// WithUpstream sets the upstream server command.
// If not set, "github-mcp-server stdio" is launched from PATH.
func WithUpstream(name string, args ...string) Option {
	return func(o *Options) {
		o.Upstream = append([]string{name}, args...)
	}
}

// WithStdio sets the client-facing input and output streams.
// If not set, the process's own stdin and stdout are used.
func WithStdio(in io.Reader, out io.Writer) Option {
	return func(o *Options) {
		o.Stdin = in
		o.Stdout = out
	}
}

// WithUpstreamStderr redirects the upstream's stderr.
// If not set, it is passed through to the process's own stderr.
func WithUpstreamStderr(w io.Writer) Option {
	return func(o *Options) {
		o.UpstreamStderr = w
	}
}

// WithEnv provides additional environment variables for the upstream process.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		o.Env = env
	}
}
