package intercept

import "encoding/json"

// RewriteResponse passes one upstream line toward the client, appending
// the policy tool descriptor when the line is the response to a tracked
// tools/list request. Everything else comes back byte-for-byte
// unchanged, malformed lines included.
//
// A tracked id is consumed even when the response turns out to carry an
// error or an unexpected result shape, so a later duplicate cannot
// claim the injection.
func (i *Interceptor) RewriteResponse(line []byte) []byte {
	var m map[string]any
	if err := json.Unmarshal(line, &m); err != nil || m == nil {
		return line
	}

	id, present := m["id"]
	if !present || !i.tracker.Consume(id) {
		return line
	}

	result, ok := m["result"].(map[string]any)
	if !ok {
		return line
	}

	tools, ok := result["tools"].([]any)
	if !ok {
		return line
	}

	result["tools"] = append(tools, i.entry)

	rewritten, err := json.Marshal(m)
	if err != nil {
		i.log.Warn("Failed to re-encode tools/list response, passing original", "error", err)

		return line
	}

	i.log.Debug("Injected policy tool into tools/list response", "id", id)

	return rewritten
}
