package intercept

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTracker_ConsumedExactlyOnce tests that an id is claimed by the first consumer only.
func TestTracker_ConsumedExactlyOnce(t *testing.T) {
	tr := NewTracker()
	tr.Track(json.RawMessage(`42`))

	require.True(t, tr.Consume(float64(42)))
	require.False(t, tr.Consume(float64(42)))
}

// TestTracker_NumericIDMeetsAcrossEncodings tests that raw and decoded numeric ids compare equal.
func TestTracker_NumericIDMeetsAcrossEncodings(t *testing.T) {
	tr := NewTracker()
	tr.Track(json.RawMessage(`7`))

	// A response encodes the same id differently; the decoded values meet.
	var v any
	require.NoError(t, json.Unmarshal([]byte(`7.0`), &v))
	require.True(t, tr.Consume(v))
}

// TestTracker_StringAndNumberAreDistinct tests that "7" and 7 are different ids.
func TestTracker_StringAndNumberAreDistinct(t *testing.T) {
	tr := NewTracker()
	tr.Track(json.RawMessage(`"7"`))

	require.False(t, tr.Consume(float64(7)))
	require.True(t, tr.Consume("7"))
}

// TestTracker_UnknownNeverConsumed tests that untracked ids report false.
func TestTracker_UnknownNeverConsumed(t *testing.T) {
	tr := NewTracker()

	require.False(t, tr.Consume("nope"))
	require.False(t, tr.Consume(nil))
}

// TestTracker_NullID tests that an explicit null id is never tracked.
func TestTracker_NullID(t *testing.T) {
	tr := NewTracker()
	tr.Track(json.RawMessage(`null`))

	require.False(t, tr.Consume(nil))
}

// TestTracker_CompositeIDsIgnored tests that object and array ids are not tracked.
func TestTracker_CompositeIDsIgnored(t *testing.T) {
	tr := NewTracker()
	tr.Track(json.RawMessage(`{"weird":1}`))
	tr.Track(json.RawMessage(`[1,2]`))
	tr.Track(json.RawMessage(``))
	tr.Track(json.RawMessage(`not json`))

	require.False(t, tr.Consume(map[string]any{"weird": float64(1)}))
	require.False(t, tr.Consume([]any{float64(1), float64(2)}))
}
