package relay

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cordonhq/cordon/internal/errors"
	"github.com/cordonhq/cordon/internal/intercept"
	"github.com/cordonhq/cordon/internal/policy"
)

func requireUnix(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("relay tests need sh and cat")
	}
}

func newTestInterceptor(t *testing.T, cfg policy.Config) *intercept.Interceptor {
	t.Helper()

	pol, err := policy.New(cfg)
	require.NoError(t, err)

	ic, err := intercept.New(slog.Default(), pol)
	require.NoError(t, err)

	return ic
}

type runResult struct {
	code int
	err  error
}

// harness runs a relay against a real subprocess with piped client streams.
type harness struct {
	in   *io.PipeWriter
	out  *bufio.Scanner
	done chan runResult
}

func startRelay(t *testing.T, cfg policy.Config, command ...string) *harness {
	t.Helper()
	requireUnix(t)

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	r := New(slog.Default(), newTestInterceptor(t, cfg), Options{
		Command: command,
		Stdin:   inR,
		Stdout:  outW,
		Stderr:  io.Discard,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	t.Cleanup(cancel)

	done := make(chan runResult, 1)
	go func() {
		code, err := r.Run(ctx)
		_ = outW.Close()
		done <- runResult{code, err}
	}()

	return &harness{in: inW, out: bufio.NewScanner(outR), done: done}
}

func (h *harness) send(t *testing.T, line string) {
	t.Helper()

	_, err := io.WriteString(h.in, line+"\n")
	require.NoError(t, err)
}

func (h *harness) recv(t *testing.T) string {
	t.Helper()

	require.True(t, h.out.Scan(), "expected a line from the relay, scanner err: %v", h.out.Err())

	return h.out.Text()
}

// wait closes the client stream and returns the relay result.
func (h *harness) wait(t *testing.T) (int, error) {
	t.Helper()

	require.NoError(t, h.in.Close())

	select {
	case res := <-h.done:
		return res.code, res.err
	case <-time.After(15 * time.Second):
		t.Fatal("relay did not finish after client EOF")

		return 0, nil
	}
}

// TestRelay_ForwardsAllowedTraffic tests end-to-end forwarding through cat.
func TestRelay_ForwardsAllowedTraffic(t *testing.T) {
	h := startRelay(t, policy.Config{}, "cat")

	init := `{"jsonrpc":"2.0","method":"initialize","params":{"clientInfo":{"name":"test"}},"id":1}`
	h.send(t, init)
	require.JSONEq(t, init, h.recv(t))

	call := `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"get_me"},"id":2}`
	h.send(t, call)
	require.JSONEq(t, call, h.recv(t))

	code, err := h.wait(t)
	require.NoError(t, err)
	require.Equal(t, 0, code)
}

// TestRelay_SyntheticErrorShortCircuits tests that denied calls never reach the upstream.
func TestRelay_SyntheticErrorShortCircuits(t *testing.T) {
	h := startRelay(t, policy.Config{}, "cat")

	h.send(t, `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"merge_pull_request"},"id":3}`)
	require.JSONEq(t,
		`{"jsonrpc":"2.0","id":3,"error":{"code":-32600,"message":"Tool 'merge_pull_request' is permanently disabled"}}`,
		h.recv(t))

	// cat echoes everything it receives, so the next echo proves the
	// denied call was never forwarded.
	marker := `{"jsonrpc":"2.0","method":"ping","id":4}`
	h.send(t, marker)
	require.JSONEq(t, marker, h.recv(t))

	code, err := h.wait(t)
	require.NoError(t, err)
	require.Equal(t, 0, code)
}

// TestRelay_PolicyToolAnsweredLocally tests the synthetic tool result path.
func TestRelay_PolicyToolAnsweredLocally(t *testing.T) {
	h := startRelay(t, policy.Config{Orgs: []string{"myorg"}}, "cat")

	h.send(t, `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"get_access_policy"},"id":5}`)

	var resp struct {
		ID     int `json:"id"`
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(h.recv(t)), &resp))
	require.Equal(t, 5, resp.ID)
	require.Len(t, resp.Result.Content, 1)
	require.Contains(t, resp.Result.Content[0].Text, `"mode": "restricted"`)

	marker := `{"jsonrpc":"2.0","method":"ping","id":6}`
	h.send(t, marker)
	require.JSONEq(t, marker, h.recv(t))

	code, err := h.wait(t)
	require.NoError(t, err)
	require.Equal(t, 0, code)
}

// TestRelay_InjectsIntoToolsListResponse tests descriptor injection against a canned server.
func TestRelay_InjectsIntoToolsListResponse(t *testing.T) {
	script := `read -r line; echo '{"jsonrpc":"2.0","id":1,"result":{"tools":[{"name":"get_me"}]}}'`
	h := startRelay(t, policy.Config{}, "sh", "-c", script)

	h.send(t, `{"jsonrpc":"2.0","method":"tools/list","id":1}`)

	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(h.recv(t)), &resp))
	require.Len(t, resp.Result.Tools, 2)
	require.Equal(t, "get_me", resp.Result.Tools[0].Name)
	require.Equal(t, intercept.PolicyToolName, resp.Result.Tools[1].Name)

	code, err := h.wait(t)
	require.NoError(t, err)
	require.Equal(t, 0, code)
}

// TestRelay_BlankAndMalformedLines tests blank skipping and verbatim junk forwarding.
func TestRelay_BlankAndMalformedLines(t *testing.T) {
	h := startRelay(t, policy.Config{}, "cat")

	h.send(t, "")
	h.send(t, "   ")
	h.send(t, `not json{`)
	require.Equal(t, `not json{`, h.recv(t))

	marker := `{"jsonrpc":"2.0","method":"ping","id":1}`
	h.send(t, marker)
	require.JSONEq(t, marker, h.recv(t))

	code, err := h.wait(t)
	require.NoError(t, err)
	require.Equal(t, 0, code)
}

// TestRelay_ExitCodePropagation tests that the upstream's exit code becomes the result.
func TestRelay_ExitCodePropagation(t *testing.T) {
	h := startRelay(t, policy.Config{}, "sh", "-c", "exit 7")

	code, err := h.wait(t)
	require.NoError(t, err)
	require.Equal(t, 7, code)
}

// TestRelay_UpstreamNotFound tests the typed error for a missing upstream binary.
func TestRelay_UpstreamNotFound(t *testing.T) {
	requireUnix(t)

	r := New(slog.Default(), newTestInterceptor(t, policy.Config{}), Options{
		Command: []string{"cordon-test-no-such-binary"},
	})

	_, err := r.Run(context.Background())
	require.Error(t, err)

	var nf *errors.UpstreamNotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "cordon-test-no-such-binary", nf.Command)
}

// TestRelay_NoCommand tests the sentinel for an empty upstream argv.
func TestRelay_NoCommand(t *testing.T) {
	r := New(slog.Default(), newTestInterceptor(t, policy.Config{}), Options{})

	_, err := r.Run(context.Background())
	require.ErrorIs(t, err, errors.ErrNoUpstream)
}

// TestRelay_SingleUse tests that a relay cannot be run twice.
func TestRelay_SingleUse(t *testing.T) {
	r := New(slog.Default(), newTestInterceptor(t, policy.Config{}), Options{})

	_, err := r.Run(context.Background())
	require.ErrorIs(t, err, errors.ErrNoUpstream)

	_, err = r.Run(context.Background())
	require.ErrorIs(t, err, errors.ErrAlreadyRun)
}
