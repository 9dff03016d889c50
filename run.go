package cordon

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/cordonhq/cordon/internal/intercept"
	"github.com/cordonhq/cordon/internal/policy"
	"github.com/cordonhq/cordon/internal/relay"
)

// Version is the cordon release version.
const Version = "0.1.0"

// DefaultUpstream returns the upstream command launched when none is
// configured: the GitHub MCP server in stdio mode, found on PATH.
func DefaultUpstream() []string {
	return []string{"github-mcp-server", "stdio"}
}

// resolvePolicy picks the policy source in precedence order:
// explicit policy, policy file, environment variables.
func resolvePolicy(options *Options) (*policy.Policy, error) {
	if options.Policy != nil {
		return options.Policy, nil
	}

	if options.PolicyFile != "" {
		return policy.LoadFile(options.PolicyFile)
	}

	return policy.FromEnv()
}

// Run launches the upstream server and relays filtered MCP traffic between
// it and the client until the client disconnects or the upstream exits.
//
// Run blocks for the life of the session and returns the upstream's exit
// code. An error is returned only for failures that precede relaying: an
// invalid policy, an upstream binary that cannot be found, or a subprocess
// that fails to start. Once traffic is flowing, upstream failures surface
// through the exit code, the way a shell would report them.
//
// By default, logging is disabled. Use WithLogger to enable logging:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
//	code, err := cordon.Run(ctx,
//	    cordon.WithLogger(logger),
//	    cordon.WithUpstream("github-mcp-server", "stdio"),
//	)
//
// Each call is tagged with a fresh run_id so that concurrent filters
// sharing a log sink stay distinguishable.
func Run(ctx context.Context, opts ...Option) (int, error) {
	options := applyOptions(opts)

	pol, err := resolvePolicy(options)
	if err != nil {
		return 0, fmt.Errorf("resolve policy: %w", err)
	}

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	log = log.With("run_id", ulid.Make().String())

	mode := intercept.ModePassthrough
	if pol.Restricted() {
		mode = intercept.ModeRestricted
	}

	log.Debug("Resolved access policy",
		"allowed_tools", len(pol.AllowedTools()),
		"blocked_tools", len(pol.BlockedTools()),
		"mode", mode,
	)

	ic, err := intercept.New(log, pol)
	if err != nil {
		return 0, fmt.Errorf("build interceptor: %w", err)
	}

	command := options.Upstream
	if len(command) == 0 {
		command = DefaultUpstream()
	}

	r := relay.New(log, ic, relay.Options{
		Command: command,
		Stdin:   options.Stdin,
		Stdout:  options.Stdout,
		Stderr:  options.UpstreamStderr,
		Env:     options.Env,
	})

	log.Info("Starting filtered relay", "upstream", command[0])

	return r.Run(ctx)
}
