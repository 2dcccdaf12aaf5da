// Package ports defines interfaces for external store communication.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/auditra/ledgerlog/internal/domain/entities"
)

// Store contract errors. Adapters return these sentinels (wrapped) so
// callers can branch with errors.Is.
var (
	// ErrNotFound is returned by Get when no record has the given id.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned by Put on an id collision. Records are
	// immutable, so a colliding write is rejected, never overwritten.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrLedgerUnavailable marks the authoritative store as unreachable
	// or erroring. Services wrap non-sentinel adapter failures with it.
	ErrLedgerUnavailable = errors.New("ledger unavailable")
)

// Queryable fields for exact-match store queries.
const (
	FieldUserID   = "userId"
	FieldAction   = "action"
	FieldResource = "resource"
)

// LedgerStore is the authoritative keyed record store. It wraps the
// external ledger's state machine: point writes/reads plus predicate
// queries. Records are append-only; no operation mutates or deletes.
type LedgerStore interface {
	// Put persists a record verbatim. Fails with ErrAlreadyExists if the
	// id is already present. Metadata is stored as provided; any
	// normalization happens on read.
	Put(ctx context.Context, rec entities.RawRecord) error

	// Get returns the raw stored record, or ErrNotFound.
	Get(ctx context.Context, id string) (entities.RawRecord, error)

	// ScanAll returns every record. Correctness-only path, may be
	// expensive.
	ScanAll(ctx context.Context) ([]entities.RawRecord, error)

	// QueryBy returns all records whose field equals value. Supported
	// fields: FieldUserID, FieldAction, FieldResource.
	QueryBy(ctx context.Context, field, value string) ([]entities.RawRecord, error)

	// QueryByTimeRange returns all records with a timestamp in
	// [start, end], inclusive on both ends.
	QueryByTimeRange(ctx context.Context, start, end time.Time) ([]entities.RawRecord, error)

	// Close closes the store connection.
	Close() error
}
