// Package handlers exposes the logical request contract consumed by
// external callers (the CLI today; any transport later).
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/auditra/ledgerlog/internal/domain/entities"
	"github.com/auditra/ledgerlog/internal/domain/ports"
)

// RecordHandler implements the read/write surface over the reconciler
// and aggregator.
//
// Propagation policy: point operations (CreateRecord, GetRecord)
// surface NotFound/ValidationError/AlreadyExists/LedgerUnavailable
// directly. Bulk queries (ListBy*, ListAll) never surface store-level
// errors — a miss or failure downgrades to an empty or partial result,
// because "no data" beats a hard failure on a logging read surface.
type RecordHandler struct {
	reconciler Reconciler
	aggregator Aggregator
}

// Reconciler is the read arbitration surface the handler depends on.
type Reconciler interface {
	GetByID(ctx context.Context, id string) (entities.LogRecord, error)
	ListByField(ctx context.Context, field, value string) ([]entities.LogRecord, error)
	ListByTimeRange(ctx context.Context, start, end time.Time) ([]entities.LogRecord, error)
}

// Aggregator is the resilient write/enumeration surface the handler
// depends on.
type Aggregator interface {
	ListAll(ctx context.Context, userHints ...string) []entities.LogRecord
	Record(ctx context.Context, userID, action, resource, description string, metadata any) (id string, suppressed bool, err error)
	RecordForced(ctx context.Context, userID, action, resource, description string, metadata any) (string, error)
}

// NewRecordHandler creates a record handler.
func NewRecordHandler(reconciler Reconciler, aggregator Aggregator) *RecordHandler {
	return &RecordHandler{
		reconciler: reconciler,
		aggregator: aggregator,
	}
}

// CreateResult reports the outcome of CreateRecord.
type CreateResult struct {
	ID         string
	Suppressed bool
}

// CreateRecord validates and writes a new record. Suppressed results
// carry no id: the same action/resource pair was emitted too recently
// and the write was debounced at the origin.
func (h *RecordHandler) CreateRecord(ctx context.Context, userID, action, resource, description string, metadata any) (*CreateResult, error) {
	id, suppressed, err := h.aggregator.Record(ctx, userID, action, resource, description, metadata)
	if err != nil {
		return nil, err
	}
	return &CreateResult{ID: id, Suppressed: suppressed}, nil
}

// CreateRecordForced writes a new record even when the debounce window
// would suppress it.
func (h *RecordHandler) CreateRecordForced(ctx context.Context, userID, action, resource, description string, metadata any) (*CreateResult, error) {
	id, err := h.aggregator.RecordForced(ctx, userID, action, resource, description, metadata)
	if err != nil {
		return nil, err
	}
	return &CreateResult{ID: id}, nil
}

// GetRecord returns a single record by id. ports.ErrNotFound and
// ports.ErrLedgerUnavailable pass through to the caller.
func (h *RecordHandler) GetRecord(ctx context.Context, id string) (entities.LogRecord, error) {
	if id == "" {
		return entities.LogRecord{}, entities.NewValidationError("id", "must not be empty")
	}
	return h.reconciler.GetByID(ctx, id)
}

// ListByUser returns all records for a user, empty on any store failure.
func (h *RecordHandler) ListByUser(ctx context.Context, userID string) []entities.LogRecord {
	return h.listByField(ctx, ports.FieldUserID, userID)
}

// ListByAction returns all records for an action, empty on any store
// failure. An unused action yields an empty list, not an error.
func (h *RecordHandler) ListByAction(ctx context.Context, action string) []entities.LogRecord {
	return h.listByField(ctx, ports.FieldAction, action)
}

// ListByResource returns all records for a resource, empty on any store
// failure.
func (h *RecordHandler) ListByResource(ctx context.Context, resource string) []entities.LogRecord {
	return h.listByField(ctx, ports.FieldResource, resource)
}

// ListByTimeRange returns all records with a timestamp in [start, end]
// inclusive. Both bounds are required RFC3339 instants; a missing or
// unparseable bound is a ValidationError. Store failures downgrade to
// an empty result.
func (h *RecordHandler) ListByTimeRange(ctx context.Context, start, end string) ([]entities.LogRecord, error) {
	startTime, err := parseBound("start", start)
	if err != nil {
		return nil, err
	}
	endTime, err := parseBound("end", end)
	if err != nil {
		return nil, err
	}

	recs, err := h.reconciler.ListByTimeRange(ctx, startTime, endTime)
	if err != nil {
		return []entities.LogRecord{}, nil
	}
	return recs, nil
}

// ListAll enumerates every visible record, newest first. It always
// attempts the full fallback chain before returning empty and never
// fails.
func (h *RecordHandler) ListAll(ctx context.Context, userHints ...string) []entities.LogRecord {
	return h.aggregator.ListAll(ctx, userHints...)
}

func (h *RecordHandler) listByField(ctx context.Context, field, value string) []entities.LogRecord {
	recs, err := h.reconciler.ListByField(ctx, field, value)
	if err != nil {
		return []entities.LogRecord{}
	}
	return recs
}

func parseBound(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, entities.NewValidationError(name, "must not be empty")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, entities.NewValidationError(name, fmt.Sprintf("not an RFC3339 timestamp: %q", value))
	}
	return t, nil
}
