package intercept

import (
	"encoding/json"
	"sync"
)

// Tracker remembers which request ids belong to in-flight tools/list
// requests so the matching responses can be rewritten on the way back.
//
// IDs are keyed by their decoded JSON value rather than raw bytes, so
// the client's and the server's encodings of the same id always meet
// regardless of formatting. The outbound loop tracks ids, the inbound
// loop consumes them; a mutex covers the set and is never held across
// I/O.
type Tracker struct {
	mu      sync.Mutex
	pending map[any]struct{}
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{pending: make(map[any]struct{})}
}

// Track records a pending tools/list id from its raw encoding. IDs
// that cannot serve as keys (null, objects, arrays, invalid JSON) are
// ignored; their responses simply pass through unrewritten.
func (t *Tracker) Track(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return
	}

	key, ok := keyable(v)
	if !ok {
		return
	}

	t.mu.Lock()
	t.pending[key] = struct{}{}
	t.mu.Unlock()
}

// Consume removes a pending id given its decoded value and reports
// whether it was present. Each id is consumed at most once: the first
// matching response claims it and any duplicate does not.
func (t *Tracker) Consume(v any) bool {
	key, ok := keyable(v)
	if !ok {
		return false
	}

	t.mu.Lock()
	_, exists := t.pending[key]
	if exists {
		delete(t.pending, key)
	}
	t.mu.Unlock()

	return exists
}

// keyable reports whether a decoded id value can key the pending set.
// Numbers decode as float64 so equal ids compare equal. A null id marks
// id-less traffic and is never pending, and composites (objects,
// arrays) cannot key a map.
func keyable(v any) (any, bool) {
	switch v.(type) {
	case string, float64, bool:
		return v, true
	default:
		return nil, false
	}
}
