// Cordon is an MCP access-control filter for stdio tool servers.
//
// It launches the upstream server as a subprocess, relays newline-delimited
// JSON-RPC between the client on stdin/stdout and the upstream, and enforces
// a tool and repository policy on every tools/call passing through. The
// policy comes from the GITHUB_TOOLS, ALLOWED_ORGS and ALLOWED_REPOS
// environment variables, or from a YAML file given with --policy-file.
//
// Usage:
//
//	cordon [flags] [-- upstream-command [args...]]
//
// Without an upstream command, "github-mcp-server stdio" is launched from
// PATH. Cordon exits with the upstream's exit code.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/cordonhq/cordon"
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	os.Exit(code)
}

func run() (int, error) {
	var policyFile string
	var logLevel string
	var logFormat string
	var showVersion bool

	flagSet := pflag.NewFlagSet("cordon", pflag.ContinueOnError)
	flagSet.SetOutput(os.Stderr)

	// Everything after the first positional belongs to the upstream
	// command, including its own flags.
	flagSet.SetInterspersed(false)

	flagSet.StringVar(&policyFile, "policy-file", "", "YAML policy file; replaces the policy environment variables entirely")
	flagSet.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flagSet.StringVar(&logFormat, "log-format", "text", "log format: text or json")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)

			return 0, nil
		}

		return 0, err
	}

	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)

		return 0, nil
	}

	if showVersion {
		fmt.Printf("cordon %s\n", cordon.Version)

		return 0, nil
	}

	// Logs go to stderr: stdout is the protocol stream.
	opts := []cordon.Option{
		cordon.WithLogger(cordon.NewLogger(os.Stderr, logLevel, logFormat)),
	}

	if policyFile != "" {
		opts = append(opts, cordon.WithPolicyFile(policyFile))
	}

	if args := flagSet.Args(); len(args) > 0 {
		opts = append(opts, cordon.WithUpstream(args[0], args[1:]...))
	}

	return cordon.Run(context.Background(), opts...)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Cordon is an MCP access-control filter for stdio tool servers.

Cordon sits between an MCP client and an upstream tool server, forwarding
JSON-RPC traffic and rejecting tool calls the policy does not permit.
Blocked and unlisted tools, and calls targeting repositories outside
ALLOWED_ORGS / ALLOWED_REPOS, are answered with a JSON-RPC error without
reaching the upstream. Clients can inspect the active policy by calling
the injected get_access_policy tool.

Usage:
  cordon [flags] [-- upstream-command [args...]]

Examples:
  # Filter the GitHub MCP server with policy from the environment
  ALLOWED_ORGS=myorg cordon

  # Restrict tools and repos from a policy file
  cordon --policy-file policy.yaml

  # Explicit upstream command with its own flags
  cordon --log-level debug -- github-mcp-server stdio --read-only

Flags:
`)
	flagSet.PrintDefaults()
}
