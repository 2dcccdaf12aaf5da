package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/auditra/ledgerlog/internal/domain/entities"
	"github.com/auditra/ledgerlog/internal/domain/ports"
)

// maxPutAttempts bounds collision retries. A collision on a fresh UUID
// means the generator is broken; regenerating forever would hide that.
const maxPutAttempts = 3

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Ingest validates and submits new records to the ledger. It is the
// single writer: the secondary index is fed by an external projection
// and is never written here.
type Ingest struct {
	ledger ports.LedgerStore
}

// NewIngest creates an ingest service over the ledger.
func NewIngest(ledger ports.LedgerStore) *Ingest {
	return &Ingest{ledger: ledger}
}

// Create validates the input, serializes metadata to text (the ledger
// stores metadata as a string; it is re-normalized on every read),
// assigns a fresh id and timestamp, and persists the record. Returns
// the generated id.
func (s *Ingest) Create(ctx context.Context, userID, action, resource, description string, metadata any) (string, error) {
	if userID == "" {
		return "", entities.NewValidationError("userId", "must not be empty")
	}
	if action == "" {
		return "", entities.NewValidationError("action", "must not be empty")
	}
	if resource == "" {
		return "", entities.NewValidationError("resource", "must not be empty")
	}

	metaText, err := serializeMetadata(metadata)
	if err != nil {
		return "", err
	}

	rec := entities.RawRecord{
		UserID:      userID,
		Action:      action,
		Resource:    resource,
		Timestamp:   timeNow().UTC().Format(time.RFC3339),
		Description: description,
		Metadata:    metaText,
	}

	var lastErr error
	for attempt := 0; attempt < maxPutAttempts; attempt++ {
		rec.ID = entities.NewRecordID()

		err := s.ledger.Put(ctx, rec)
		if err == nil {
			return rec.ID, nil
		}
		if errors.Is(err, ports.ErrAlreadyExists) {
			// Id generator collision, regenerate and retry.
			lastErr = err
			continue
		}
		return "", ledgerErr("creating record", err)
	}

	return "", fmt.Errorf("creating record: id collisions on %d attempts: %w", maxPutAttempts, lastErr)
}

// serializeMetadata renders caller metadata as the text form stored in
// the ledger. Strings pass through untouched (they may already be JSON
// or a raw request line); nil means no metadata at all.
func serializeMetadata(metadata any) (any, error) {
	switch v := metadata.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, entities.NewValidationError("metadata", fmt.Sprintf("not serializable: %v", err))
		}
		return string(data), nil
	}
}
