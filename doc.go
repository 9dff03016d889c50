// Package cordon provides an MCP access-control filter that sits between an
// MCP client and an upstream tool server.
//
// Cordon launches the upstream server as a subprocess and relays
// newline-delimited JSON-RPC 2.0 traffic between the client on its own
// stdin/stdout and the upstream's stdin/stdout. Every tools/call request is
// checked against a policy before it is forwarded: calls to blocked or
// unlisted tools, and calls targeting repositories outside the configured
// allowlists, are answered with a JSON-RPC error without ever reaching the
// upstream. Everything else passes through unchanged.
//
// # Basic Usage
//
// The simplest way to run the filter is the Run function, which blocks until
// the client disconnects or the upstream exits and returns the upstream's
// exit code:
//
//	ctx := context.Background()
//	code, err := cordon.Run(ctx,
//	    cordon.WithUpstream("github-mcp-server", "stdio"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Exit(code)
//
// With no options, Run reads its policy from the GITHUB_TOOLS, ALLOWED_ORGS
// and ALLOWED_REPOS environment variables and launches "github-mcp-server
// stdio" found on PATH.
//
// # Policy
//
// A policy can also be built explicitly and passed in, which is useful when
// embedding the filter in a larger program:
//
//	pol, err := cordon.NewPolicy(cordon.PolicyConfig{
//	    Orgs:  []string{"myorg"},
//	    Repos: []string{"partner/shared-*"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	code, err := cordon.Run(ctx, cordon.WithPolicy(pol))
//
// Org and repo entries are shell-style glob patterns matched against the
// owner and "owner/repo" arguments of tool calls. When both lists are empty
// the policy is in passthrough mode and no target restrictions apply.
//
// Clients can inspect the active policy at runtime by calling the
// get_access_policy tool, which cordon injects into the upstream's tools/list
// response and answers locally.
//
// # Logging
//
// By default, logging is disabled. Use WithLogger to enable it. Logs must go
// to stderr or a file, never stdout, because stdout carries the protocol
// stream:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	code, err := cordon.Run(ctx, cordon.WithLogger(logger))
//
// # Error Handling
//
// Run returns typed errors for the failure cases that precede relaying:
//
//	code, err := cordon.Run(ctx)
//	if err != nil {
//	    var notFound *cordon.UpstreamNotFoundError
//	    if errors.As(err, &notFound) {
//	        log.Fatalf("upstream %q not installed", notFound.Command)
//	    }
//	    log.Fatal(err)
//	}
//
// Once relaying has started, upstream failures are reported through the exit
// code rather than an error, mirroring how a shell would surface them.
package cordon
