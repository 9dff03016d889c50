// Package intercept decides the fate of each message crossing the
// filter. Outbound client messages are classified as forward, answer
// locally with a result, or answer locally with an error; inbound
// server responses to tracked tools/list requests get the policy tool
// descriptor appended. Everything else passes through untouched.
package intercept

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cordonhq/cordon/internal/jsonrpc"
	"github.com/cordonhq/cordon/internal/policy"
)

const (
	methodToolsList = "tools/list"
	methodToolsCall = "tools/call"
)

// Action says what the relay should do with an outbound message.
type Action int

const (
	// Forward sends the original line to the upstream server.
	Forward Action = iota
	// RespondResult answers the client locally with a success response.
	RespondResult
	// RespondError answers the client locally with an error response.
	RespondError
)

// String returns the action name for log output.
func (a Action) String() string {
	switch a {
	case Forward:
		return "forward"
	case RespondResult:
		return "respond_result"
	case RespondError:
		return "respond_error"
	default:
		return "unknown"
	}
}

// Decision carries the verdict for one outbound message. Response is
// set for both respond actions and nil for Forward.
type Decision struct {
	Action   Action
	Response *jsonrpc.Message
}

// Interceptor applies one immutable policy to a message stream. Safe
// for use by the two relay loops concurrently.
type Interceptor struct {
	log     *slog.Logger
	policy  *policy.Policy
	tracker *Tracker

	// Prebuilt at construction: the policy never changes.
	result json.RawMessage
	entry  map[string]any
}

// New builds an Interceptor for the given policy. The logger must be
// non-nil.
func New(log *slog.Logger, pol *policy.Policy) (*Interceptor, error) {
	result, err := policyResult(pol)
	if err != nil {
		return nil, err
	}

	entry, err := toolEntry()
	if err != nil {
		return nil, err
	}

	return &Interceptor{
		log:     log.With("component", "intercept"),
		policy:  pol,
		tracker: NewTracker(),
		result:  result,
		entry:   entry,
	}, nil
}

// callParams is the slice of tools/call params the filter inspects.
type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Check classifies one outbound client message.
//
// Order matters: tools/list tracking first, then the tools/call gate,
// then the policy tool bypass, then blocked before allowlist, then the
// org/repo check only when an owner or repo argument is present.
func (i *Interceptor) Check(msg *jsonrpc.Message) Decision {
	if msg.Method == methodToolsList {
		if msg.HasID() {
			i.tracker.Track(msg.ID)
			i.log.Debug("Tracking tools/list request", "id", string(msg.ID))
		}

		return Decision{Action: Forward}
	}

	if msg.Method != methodToolsCall {
		return Decision{Action: Forward}
	}

	var params callParams
	if len(msg.Params) > 0 {
		// Undecodable params leave the zero value. An empty tool name
		// is never allowlisted, so such calls are denied, not crashed.
		_ = json.Unmarshal(msg.Params, &params)
	}

	if params.Name == PolicyToolName {
		i.log.Debug("Answering policy introspection call", "id", string(msg.ID))

		return Decision{
			Action: RespondResult,
			Response: &jsonrpc.Message{
				JSONRPC: jsonrpc.Version,
				ID:      jsonrpc.IDOrNull(msg.ID),
				Result:  i.result,
			},
		}
	}

	if i.policy.ToolBlocked(params.Name) {
		i.log.Info("Rejected blocked tool call", "tool", params.Name)

		return i.deny(msg.ID, fmt.Sprintf("Tool '%s' is permanently disabled", params.Name))
	}

	if !i.policy.ToolAllowed(params.Name) {
		i.log.Info("Rejected unlisted tool call", "tool", params.Name)

		return i.deny(msg.ID, fmt.Sprintf("Tool '%s' is not permitted", params.Name))
	}

	owner, ownerPresent := stringArg(params.Arguments, "owner")
	repo, repoPresent := stringArg(params.Arguments, "repo")
	if !ownerPresent && !repoPresent {
		return Decision{Action: Forward}
	}

	if !i.policy.Allows(owner, repo) {
		target := owner
		if repo != "" {
			target = owner + "/" + repo
		}
		i.log.Info("Rejected call outside allowed orgs/repos",
			"tool", params.Name, "owner", owner, "repo", repo)

		return i.deny(msg.ID, fmt.Sprintf("Access denied: '%s' is not in %s or %s",
			target, policy.EnvAllowedOrgs, policy.EnvAllowedRepos))
	}

	return Decision{Action: Forward}
}

func (i *Interceptor) deny(id json.RawMessage, message string) Decision {
	return Decision{
		Action:   RespondError,
		Response: jsonrpc.NewError(id, jsonrpc.InvalidRequest, message),
	}
}

// stringArg extracts an argument that should be a string. JSON null
// counts as absent; any other non-string value counts as present but
// unmatchable, so restricted policies deny it instead of crashing.
func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", false
	}

	s, _ := v.(string)

	return s, true
}
