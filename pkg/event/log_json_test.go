package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLogJSON_RoundTrips drives the full MarshalJSON -> UnmarshalJSON
// cycle spec.md §8 describes for an NDJSON archive batch: "Encode-then-
// decode of an NDJSON archive batch yields the original normalized
// schema." Values are restricted to the types decodeValue actually
// produces (string, float64, bool, nested Log, []Value) so the
// comparison is exact - int64 and time.Time fields normalize to
// float64/string on the way through JSON, which is expected, not a bug.
func TestLogJSON_RoundTrips(t *testing.T) {
	nested := NewLog()
	nested.Insert("code", float64(503))
	nested.Insert("retryable", true)

	original := NewLog()
	original.Insert("message", "connection refused")
	original.Insert("host", "ip-10-0-1-4")
	original.Insert("severity", float64(3))
	original.Insert("tags", []Value{"env:prod", "service:api"})
	original.Insert("error", nested)

	encoded, err := original.MarshalJSON()
	require.NoError(t, err)

	var decoded Log
	require.NoError(t, decoded.UnmarshalJSON(encoded))

	assert.Equal(t, original.Keys(), decoded.Keys())

	for _, key := range original.Keys() {
		want, _ := original.Get(key)
		got, ok := decoded.Get(key)
		require.True(t, ok, "missing key %q after round trip", key)
		assert.Equal(t, want, got, "key %q", key)
	}

	reencoded, err := decoded.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(encoded), string(reencoded))
}

func TestLogJSON_UnmarshalRejectsNonObject(t *testing.T) {
	var l Log
	err := l.UnmarshalJSON([]byte(`[1,2,3]`))
	assert.Error(t, err)
}

func TestLogJSON_PreservesInsertionOrder(t *testing.T) {
	var l Log
	require.NoError(t, l.UnmarshalJSON([]byte(`{"c":1,"a":2,"b":3}`)))
	assert.Equal(t, []string{"c", "a", "b"}, l.Keys())
}
