package relay

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/cordonhq/cordon/internal/errors"
	"github.com/cordonhq/cordon/internal/intercept"
	"github.com/cordonhq/cordon/internal/jsonrpc"
)

// maxScanTokenSize is the maximum buffer size for a single relayed line.
const maxScanTokenSize = 1024 * 1024 // 1MB

// Options configures a Relay. Zero values select the process's own
// stdio and an unmodified environment.
type Options struct {
	// Command is the upstream server argv, e.g. ["github-mcp-server", "stdio"].
	Command []string

	// Stdin is the client-facing input stream. Defaults to os.Stdin.
	Stdin io.Reader

	// Stdout is the client-facing output stream. Defaults to os.Stdout.
	Stdout io.Writer

	// Stderr receives the upstream's stderr unfiltered. Defaults to os.Stderr.
	Stderr io.Writer

	// Env holds extra environment variables for the upstream process,
	// appended to the inherited environment.
	Env map[string]string
}

// Relay owns the upstream subprocess and the two pump loops. A Relay
// is single-use: create one per upstream run.
type Relay struct {
	log *slog.Logger
	ic  *intercept.Interceptor

	command []string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	env     map[string]string

	// writeMu serializes client writes: synthetic responses from the
	// outbound loop interleave with relayed lines from the inbound loop.
	writeMu sync.Mutex

	runMu sync.Mutex
	ran   bool
}

// New builds a Relay. The logger and interceptor must be non-nil.
func New(log *slog.Logger, ic *intercept.Interceptor, opts Options) *Relay {
	r := &Relay{
		log:     log.With("component", "relay"),
		ic:      ic,
		command: opts.Command,
		stdin:   opts.Stdin,
		stdout:  opts.Stdout,
		stderr:  opts.Stderr,
		env:     opts.Env,
	}

	if r.stdin == nil {
		r.stdin = os.Stdin
	}
	if r.stdout == nil {
		r.stdout = os.Stdout
	}
	if r.stderr == nil {
		r.stderr = os.Stderr
	}

	return r
}

// Run spawns the upstream and relays until the client stream ends, then
// reports the upstream's exit code. It blocks on the caller's goroutine
// for the lifetime of the session.
//
// Returns UpstreamNotFoundError when the command cannot be resolved and
// ConnectionError when the process cannot be piped or started.
func (r *Relay) Run(ctx context.Context) (int, error) {
	r.runMu.Lock()
	if r.ran {
		r.runMu.Unlock()

		return 0, errors.ErrAlreadyRun
	}
	r.ran = true
	r.runMu.Unlock()

	if len(r.command) == 0 {
		return 0, errors.ErrNoUpstream
	}

	path, err := findUpstream(r.command[0])
	if err != nil {
		return 0, err
	}

	//nolint:gosec // G204: spawning the configured upstream server is the whole point
	cmd := exec.CommandContext(ctx, path, r.command[1:]...)
	cmd.Env = buildEnvironment(r.env)
	cmd.Stderr = r.stderr

	upstreamIn, err := cmd.StdinPipe()
	if err != nil {
		return 0, &errors.ConnectionError{Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	upstreamOut, err := cmd.StdoutPipe()
	if err != nil {
		return 0, &errors.ConnectionError{Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		return 0, &errors.ConnectionError{Err: fmt.Errorf("start process: %w", err)}
	}

	r.log.Info("Upstream server started", "path", path, "pid", cmd.Process.Pid)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.inboundLoop(gctx, upstreamOut)
	})

	outErr := r.outboundLoop(gctx, upstreamIn)

	// Client stream is done: EOF the upstream so it can exit.
	if err := upstreamIn.Close(); err != nil {
		r.log.Debug("Failed to close upstream stdin", "error", err)
	}

	inErr := g.Wait()

	exitCode := 0
	if err := cmd.Wait(); err != nil {
		exitErr, ok := stderrors.AsType[*exec.ExitError](err)
		if !ok {
			return 0, &errors.ProcessError{ExitCode: -1, Err: err}
		}

		exitCode = exitErr.ExitCode()
		r.log.Info("Upstream server exited", "exit_code", exitCode)
	} else {
		r.log.Debug("Upstream server exited cleanly")
	}

	if outErr != nil {
		return exitCode, outErr
	}
	if inErr != nil {
		return exitCode, inErr
	}

	return exitCode, nil
}

// outboundLoop reads the client stream and routes each line: blank
// lines are dropped, undecodable lines forward verbatim, and decoded
// messages follow the interceptor's verdict.
func (r *Relay) outboundLoop(ctx context.Context, upstream io.Writer) error {
	scanner := bufio.NewScanner(r.stdin)
	buf := make([]byte, maxScanTokenSize)
	scanner.Buffer(buf, maxScanTokenSize)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			r.log.Debug("Context cancelled during outbound scan")

			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		msg, err := jsonrpc.Decode(line)
		if err != nil {
			// The upstream owns protocol error reporting for junk input.
			r.log.Debug("Forwarding undecodable line", "error", err)

			if werr := writeLine(upstream, line); werr != nil {
				r.log.Warn("Upstream write failed, stopping outbound relay", "error", werr)

				return nil
			}

			continue
		}

		decision := r.ic.Check(msg)
		if decision.Action == intercept.Forward {
			if werr := writeLine(upstream, line); werr != nil {
				r.log.Warn("Upstream write failed, stopping outbound relay", "error", werr)

				return nil
			}

			continue
		}

		data, err := jsonrpc.Encode(decision.Response)
		if err != nil {
			return fmt.Errorf("failed to encode synthetic response: %w", err)
		}

		r.log.Debug("Answered client locally", "action", decision.Action)

		if werr := r.writeClient(data); werr != nil {
			if isClosedPipe(werr) {
				r.log.Debug("Client stream closed, stopping outbound relay", "error", werr)

				return nil
			}

			return fmt.Errorf("failed to write synthetic response: %w", werr)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("client read: %w", err)
	}

	r.log.Debug("Client stream ended")

	return nil
}

// inboundLoop reads the upstream's stdout, offers every line to the
// response rewriter, and hands the result to the client.
func (r *Relay) inboundLoop(ctx context.Context, upstream io.Reader) error {
	scanner := bufio.NewScanner(upstream)
	buf := make([]byte, maxScanTokenSize)
	scanner.Buffer(buf, maxScanTokenSize)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			r.log.Debug("Context cancelled during inbound scan")

			return ctx.Err()
		default:
		}

		line := r.ic.RewriteResponse(scanner.Bytes())

		if err := r.writeClient(line); err != nil {
			if isClosedPipe(err) {
				r.log.Debug("Client stream closed, stopping inbound relay", "error", err)

				return nil
			}

			return fmt.Errorf("failed to write to client: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("upstream read: %w", err)
	}

	r.log.Debug("Upstream stream ended")

	return nil
}

// writeClient writes one framed line to the client under the write lock.
func (r *Relay) writeClient(line []byte) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	return writeLine(r.stdout, line)
}

// writeLine frames and writes a line in a single Write call. The copy
// keeps the scanner's backing array out of the written slice.
func writeLine(w io.Writer, line []byte) error {
	framed := make([]byte, len(line)+1)
	copy(framed, line)
	framed[len(line)] = '\n'

	_, err := w.Write(framed)

	return err
}

// findUpstream resolves the upstream command so a missing server fails
// fast with a typed error instead of a bare exec failure.
func findUpstream(command string) (string, error) {
	path, err := exec.LookPath(command)
	if stderrors.Is(err, exec.ErrDot) {
		err = nil
	}
	if err != nil {
		return "", &errors.UpstreamNotFoundError{Command: command, Err: err}
	}

	return path, nil
}

// buildEnvironment passes the inherited environment through, appending
// any configured extras. The credential token rides along unexamined.
func buildEnvironment(extra map[string]string) []string {
	if len(extra) == 0 {
		return nil // inherit as-is
	}

	env := os.Environ()
	for key, value := range extra {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}

	return env
}

// isClosedPipe reports whether a client write failed because the far
// end went away, which is a clean shutdown rather than an error.
func isClosedPipe(err error) bool {
	return stderrors.Is(err, syscall.EPIPE) ||
		stderrors.Is(err, io.ErrClosedPipe) ||
		stderrors.Is(err, os.ErrClosed)
}
