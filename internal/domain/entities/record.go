// Package entities contains core domain data structures.
package entities

import "time"

// Record sources, set on read paths only and never persisted.
const (
	SourceLedger = "ledger"
	SourceIndex  = "index"
)

// LogRecord represents a single user/application event in its canonical
// form: every field populated and Metadata always an object.
type LogRecord struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	Action      string         `json:"action"`
	Resource    string         `json:"resource"`
	Timestamp   time.Time      `json:"timestamp"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata"`
	Source      string         `json:"source,omitempty"`
}

// RawRecord is the shape records take coming off either store, before
// normalization. Timestamp is the stored RFC3339 text and Metadata may be
// a string, an object, or absent entirely.
type RawRecord struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Action      string `json:"action"`
	Resource    string `json:"resource"`
	Timestamp   string `json:"timestamp"`
	Description string `json:"description,omitempty"`
	Metadata    any    `json:"metadata,omitempty"`
}

// Raw converts a canonical record back to its stored shape. The metadata
// object round-trips unchanged, so Normalize(rec.Raw()) == rec.
func (r LogRecord) Raw() RawRecord {
	return RawRecord{
		ID:          r.ID,
		UserID:      r.UserID,
		Action:      r.Action,
		Resource:    r.Resource,
		Timestamp:   r.Timestamp.UTC().Format(time.RFC3339),
		Description: r.Description,
		Metadata:    r.Metadata,
	}
}
