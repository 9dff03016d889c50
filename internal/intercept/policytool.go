package intercept

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cordonhq/cordon/internal/policy"
)

// PolicyToolName is the synthetic tool the filter answers itself. The
// upstream server never sees calls to it, and its descriptor is
// appended to every tracked tools/list response.
const PolicyToolName = "get_access_policy"

const policyToolDescription = "Returns the active MCP access-control policy: " +
	"tool allowlist, permanently blocked tools, and org/repo restrictions."

// Mode names reported in the policy snapshot.
const (
	ModeRestricted  = "restricted"
	ModePassthrough = "passthrough"
)

// policySnapshot is the introspection payload rendered into the tool's
// text content.
type policySnapshot struct {
	AllowedTools []string `json:"allowed_tools"`
	BlockedTools []string `json:"blocked_tools"`
	AllowedOrgs  []string `json:"allowed_orgs"`
	AllowedRepos []string `json:"allowed_repos"`
	Mode         string   `json:"mode"`
}

// policyTool builds the descriptor clients discover via tools/list. An
// empty object schema: the tool takes no arguments.
func policyTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        PolicyToolName,
		Description: policyToolDescription,
		InputSchema: &jsonschema.Schema{Type: "object"},
	}
}

// toolEntry renders the descriptor as a decoded JSON object ready to
// append to a tools array.
func toolEntry() (map[string]any, error) {
	data, err := json.Marshal(policyTool())
	if err != nil {
		return nil, fmt.Errorf("failed to encode policy tool descriptor: %w", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode policy tool descriptor: %w", err)
	}

	return entry, nil
}

// policyResult renders the full tools/call result for the policy tool:
// one text content block holding the indented policy JSON. The policy
// is immutable, so this is computed once at construction.
func policyResult(p *policy.Policy) (json.RawMessage, error) {
	snapshot := policySnapshot{
		AllowedTools: p.AllowedTools(),
		BlockedTools: p.BlockedTools(),
		AllowedOrgs:  orEmpty(p.AllowedOrgs()),
		AllowedRepos: orEmpty(p.AllowedRepos()),
		Mode:         ModePassthrough,
	}
	if p.Restricted() {
		snapshot.Mode = ModeRestricted
	}

	text, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode policy snapshot: %w", err)
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(text)},
		},
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode policy result: %w", err)
	}

	return data, nil
}

// orEmpty keeps empty pattern lists rendering as [] rather than null.
func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}

	return values
}
