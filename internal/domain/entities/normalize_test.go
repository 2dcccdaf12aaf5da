package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_FillsMissingFields(t *testing.T) {
	rec := Normalize(RawRecord{})

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, UnknownUser, rec.UserID)
	assert.Equal(t, UnknownAction, rec.Action)
	assert.Equal(t, UnknownResource, rec.Resource)
	assert.False(t, rec.Timestamp.IsZero())
	assert.NotNil(t, rec.Metadata)
}

func TestNormalize_KeepsWellFormedRecord(t *testing.T) {
	raw := RawRecord{
		ID:          "rec-1",
		UserID:      "alice",
		Action:      "LOGIN",
		Resource:    "/login",
		Timestamp:   "2024-03-01T10:00:00Z",
		Description: "logged in",
		Metadata:    `{"ip":"10.0.0.1"}`,
	}

	rec := Normalize(raw)

	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "alice", rec.UserID)
	assert.Equal(t, "LOGIN", rec.Action)
	assert.Equal(t, "/login", rec.Resource)
	assert.Equal(t, "logged in", rec.Description)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), rec.Timestamp.UTC())
	assert.Equal(t, map[string]any{"ip": "10.0.0.1"}, rec.Metadata)
}

func TestNormalize_BadTimestampDefaultsToNow(t *testing.T) {
	before := time.Now().Add(-time.Minute)

	rec := Normalize(RawRecord{ID: "rec-1", Timestamp: "not-a-time"})

	assert.True(t, rec.Timestamp.After(before))
}

func TestNormalizeMetadata(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want map[string]any
	}{
		{
			name: "object kept as-is",
			in:   map[string]any{"k": "v"},
			want: map[string]any{"k": "v"},
		},
		{
			name: "json object string parsed",
			in:   `{"browser":"firefox","tabs":3}`,
			want: map[string]any{"browser": "firefox", "tabs": float64(3)},
		},
		{
			name: "json scalar string wrapped",
			in:   `42`,
			want: map[string]any{"value": float64(42)},
		},
		{
			name: "json array string wrapped",
			in:   `[1,2]`,
			want: map[string]any{"value": []any{float64(1), float64(2)}},
		},
		{
			name: "json null string becomes empty object",
			in:   `null`,
			want: map[string]any{},
		},
		{
			name: "http request line decomposed",
			in:   "GET /api/users?page=2 HTTP/1.1",
			want: map[string]any{
				"requestType": "GET",
				"requestPath": "/api/users?page=2",
				"rawRequest":  "GET /api/users?page=2 HTTP/1.1",
			},
		},
		{
			name: "post request line decomposed",
			in:   "POST /api/orders",
			want: map[string]any{
				"requestType": "POST",
				"requestPath": "/api/orders",
				"rawRequest":  "POST /api/orders",
			},
		},
		{
			name: "plain text wrapped as raw",
			in:   "something odd happened",
			want: map[string]any{"raw": "something odd happened"},
		},
		{
			name: "verb without path is not a request line",
			in:   "DELETE ",
			want: map[string]any{"raw": "DELETE "},
		},
		{
			name: "absent becomes empty object",
			in:   nil,
			want: map[string]any{},
		},
		{
			name: "empty string becomes empty object",
			in:   "",
			want: map[string]any{},
		},
		{
			name: "number wrapped as stringified value",
			in:   42,
			want: map[string]any{"value": "42"},
		},
		{
			name: "bool wrapped as stringified value",
			in:   true,
			want: map[string]any{"value": "true"},
		},
		{
			name: "slice wrapped as stringified value",
			in:   []int{1, 2},
			want: map[string]any{"value": "[1,2]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMetadata(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raws := []RawRecord{
		{},
		{ID: "a", UserID: "bob", Action: "ERROR", Resource: "/x", Timestamp: "2024-01-01T00:00:00Z"},
		{ID: "b", Metadata: "GET /home"},
		{ID: "c", Metadata: `{"n":1}`},
		{ID: "d", Metadata: 7},
		{ID: "e", Metadata: "free text"},
	}

	for _, raw := range raws {
		once := Normalize(raw)
		twice := Normalize(once.Raw())
		require.Equal(t, once, twice, "normalize must be idempotent for %+v", raw)
	}
}

func TestRawRoundTrip(t *testing.T) {
	rec := Normalize(RawRecord{
		ID:        "rec-1",
		UserID:    "alice",
		Action:    "VISIT",
		Resource:  "/home",
		Timestamp: "2024-03-01T10:00:00Z",
		Metadata:  `{"k":"v"}`,
	})

	raw := rec.Raw()

	assert.Equal(t, "2024-03-01T10:00:00Z", raw.Timestamp)
	assert.Equal(t, map[string]any{"k": "v"}, raw.Metadata)
}
