package ws

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnum string

func TestSanitizeScalars(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, id.String(), Sanitize(id))

	ts := time.Date(2026, 3, 14, 15, 9, 26, 0, time.FixedZone("UTC+3", 3*3600))
	assert.Equal(t, "2026-03-14T12:09:26Z", Sanitize(ts))

	assert.Equal(t, "text", Sanitize(fakeEnum("text")))
	assert.Equal(t, "plain", Sanitize("plain"))
	assert.Equal(t, 42, Sanitize(42))
	assert.Equal(t, true, Sanitize(true))
	assert.Nil(t, Sanitize(nil))
}

func TestSanitizePointers(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "2026-01-02T03:04:05Z", Sanitize(&ts))

	var nilTime *time.Time
	assert.Nil(t, Sanitize(nilTime))

	s := "hello"
	assert.Equal(t, "hello", Sanitize(&s))
}

func TestSanitizeRecursesIntoMapsAndSlices(t *testing.T) {
	id := uuid.New()
	ts := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	out := Sanitize(map[string]any{
		"id":    id,
		"ts":    ts,
		"items": []any{id, "x", 7},
		"nested": map[string]any{
			"enum": fakeEnum("ringing"),
		},
	})

	m, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, id.String(), m["id"])
	assert.Equal(t, "2026-05-01T10:00:00Z", m["ts"])
	assert.Equal(t, []any{id.String(), "x", 7}, m["items"])
	assert.Equal(t, map[string]any{"enum": "ringing"}, m["nested"])
}

func TestSanitizeTypedKeyMap(t *testing.T) {
	// map key'i typed string ise plain string'e normalize edilir.
	out := Sanitize(map[fakeEnum]int{"a": 1, "b": 2})
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, out)
}

func TestSanitizeIdempotent(t *testing.T) {
	in := map[string]any{
		"id": uuid.New(),
		"ts": time.Now(),
	}
	once := Sanitize(in)
	twice := Sanitize(once)
	assert.Equal(t, once, twice)
}

func TestSafePayloadDoesNotMutateInput(t *testing.T) {
	id := uuid.New()
	in := map[string]any{"id": id}

	out := SafePayload(in)

	assert.Equal(t, id.String(), out["id"])
	assert.Equal(t, id, in["id"], "girdi map'i değişmemeli")
}
