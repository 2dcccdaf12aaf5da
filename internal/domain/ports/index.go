package ports

import (
	"context"
	"time"

	"github.com/auditra/ledgerlog/internal/domain/entities"
)

// SecondaryIndex is an eventually-consistent, independently queryable
// replica of ledger contents, populated by an external projection
// process. It is advisory only: a query may come back empty because no
// matching records exist, because the projection lags the ledger, or
// because the index is unreachable — and implementations must not let
// callers tell those cases apart. That uniform-miss contract is encoded
// in the signatures: no method returns an error, a miss is an empty
// slice.
type SecondaryIndex interface {
	// QueryAll enumerates every indexed record.
	QueryAll(ctx context.Context) []entities.RawRecord

	// QueryByID returns at most one record with the given id.
	QueryByID(ctx context.Context, id string) []entities.RawRecord

	// QueryBy returns indexed records whose field equals value.
	// Supported fields mirror LedgerStore.QueryBy.
	QueryBy(ctx context.Context, field, value string) []entities.RawRecord

	// QueryByTimeRange returns indexed records with a timestamp in
	// [start, end] inclusive.
	QueryByTimeRange(ctx context.Context, start, end time.Time) []entities.RawRecord

	// Close closes the index connection.
	Close() error
}
