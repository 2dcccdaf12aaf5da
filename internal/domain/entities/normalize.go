package entities

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Placeholders used when a stored record is missing required fields.
// Malformed input degrades a record, it never drops it.
const (
	UnknownUser     = "unknown-user"
	UnknownResource = "unknown-resource"
	UnknownAction   = "UNKNOWN"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// httpVerbs are the request methods recognized when decomposing a
// verb-prefixed metadata string like "GET /api/users?page=2".
var httpVerbs = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "HEAD": true, "OPTIONS": true,
}

// Normalize converts a raw stored record into its canonical form. It is
// pure apart from the current-time default and never fails: missing
// fields are filled with placeholders and metadata is coerced to an
// object whatever shape it arrived in.
func Normalize(raw RawRecord) LogRecord {
	rec := LogRecord{
		ID:          raw.ID,
		UserID:      raw.UserID,
		Action:      raw.Action,
		Resource:    raw.Resource,
		Description: raw.Description,
		Metadata:    NormalizeMetadata(raw.Metadata),
	}

	if rec.ID == "" {
		rec.ID = newID()
	}
	if rec.UserID == "" {
		rec.UserID = UnknownUser
	}
	if rec.Action == "" {
		rec.Action = UnknownAction
	}
	if rec.Resource == "" {
		rec.Resource = UnknownResource
	}

	ts, err := time.Parse(time.RFC3339, raw.Timestamp)
	if err != nil {
		ts = timeNow().UTC().Truncate(time.Second)
	}
	rec.Timestamp = ts

	return rec
}

// NormalizeMetadata coerces any stored metadata value into an object.
// The coercion is exhaustive over the shapes observed in the wild:
//
//   - an object is kept as-is
//   - a string is JSON-parsed; a parsed object is used directly, any
//     other parsed value is wrapped under "value"
//   - an unparseable string matching "<VERB> <path>..." is decomposed
//     into requestType/requestPath/rawRequest
//   - any other unparseable string is wrapped under "raw"
//   - nil and absent values become an empty object
//   - anything else is stringified and wrapped under "value"
func NormalizeMetadata(meta any) map[string]any {
	switch v := meta.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		if v == nil {
			return map[string]any{}
		}
		return v
	case string:
		return normalizeMetadataString(v)
	default:
		return map[string]any{"value": stringify(v)}
	}
}

func normalizeMetadataString(s string) map[string]any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return map[string]any{}
	}

	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
		if obj, ok := parsed.(map[string]any); ok {
			if obj == nil {
				return map[string]any{}
			}
			return obj
		}
		if parsed == nil {
			return map[string]any{}
		}
		return map[string]any{"value": parsed}
	}

	if verb, path, ok := splitRequestLine(trimmed); ok {
		return map[string]any{
			"requestType": verb,
			"requestPath": path,
			"rawRequest":  trimmed,
		}
	}

	return map[string]any{"raw": s}
}

// splitRequestLine detects an HTTP-verb-prefixed free-text string and
// returns its verb and path.
func splitRequestLine(s string) (verb, path string, ok bool) {
	verb, rest, found := strings.Cut(s, " ")
	if !found || !httpVerbs[verb] {
		return "", "", false
	}
	path, _, _ = strings.Cut(strings.TrimSpace(rest), " ")
	if path == "" {
		return "", "", false
	}
	return verb, path, true
}

// stringify renders a non-object, non-string metadata value as text.
// JSON is preferred so numbers and arrays stay readable; anything the
// encoder rejects falls back to fmt.
func stringify(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
