// Package services contains the domain logic arbitrating between the
// authoritative ledger and the secondary index.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/auditra/ledgerlog/internal/domain/entities"
	"github.com/auditra/ledgerlog/internal/domain/ports"
)

// SweepConfig lists the action and resource values probed by the
// sweep-and-merge fallback. It is configuration, not a closed enum:
// values outside these lists stay invisible to the sweep unless the
// ledger's own full enumeration succeeds.
type SweepConfig struct {
	Actions   []string
	Resources []string
}

// DefaultSweep returns the stock sweep lists.
func DefaultSweep() SweepConfig {
	return SweepConfig{
		Actions:   []string{"VISIT", "LOGIN", "LOGOUT", "CREATE", "UPDATE", "DELETE", "ERROR"},
		Resources: []string{"/home", "/login", "/dashboard", "/profile", "/settings"},
	}
}

// Reconciler arbitrates reads between the secondary index (fast path)
// and the ledger (source of truth). The index is advisory: any miss,
// lag, or failure there falls through to the ledger.
type Reconciler struct {
	ledger ports.LedgerStore
	index  ports.SecondaryIndex
	sweep  SweepConfig
}

// NewReconciler creates a reconciler over both stores.
func NewReconciler(ledger ports.LedgerStore, index ports.SecondaryIndex, sweep SweepConfig) *Reconciler {
	return &Reconciler{
		ledger: ledger,
		index:  index,
		sweep:  sweep,
	}
}

// GetByID returns the record with the given id, preferring the index.
// A ledger miss surfaces ports.ErrNotFound; any other ledger failure
// surfaces ports.ErrLedgerUnavailable.
func (r *Reconciler) GetByID(ctx context.Context, id string) (entities.LogRecord, error) {
	if hits := r.index.QueryByID(ctx, id); len(hits) > 0 {
		return tagged(entities.Normalize(hits[0]), entities.SourceIndex), nil
	}

	raw, err := r.ledger.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return entities.LogRecord{}, err
		}
		return entities.LogRecord{}, ledgerErr("getting record", err)
	}
	return tagged(entities.Normalize(raw), entities.SourceLedger), nil
}

// ListByField returns all records whose field equals value, preferring
// the index. Ledger failures surface ports.ErrLedgerUnavailable; the
// propagation policy for bulk reads (downgrade to empty) belongs to the
// request surface, not here.
func (r *Reconciler) ListByField(ctx context.Context, field, value string) ([]entities.LogRecord, error) {
	if hits := r.index.QueryBy(ctx, field, value); len(hits) > 0 {
		return r.normalizeAll(hits, entities.SourceIndex), nil
	}

	raws, err := r.ledger.QueryBy(ctx, field, value)
	if err != nil {
		return nil, ledgerErr("querying records", err)
	}
	return r.normalizeAll(raws, entities.SourceLedger), nil
}

// ListByTimeRange returns all records with a timestamp in [start, end]
// inclusive, preferring the index.
func (r *Reconciler) ListByTimeRange(ctx context.Context, start, end time.Time) ([]entities.LogRecord, error) {
	if hits := r.index.QueryByTimeRange(ctx, start, end); len(hits) > 0 {
		return r.normalizeAll(hits, entities.SourceIndex), nil
	}

	raws, err := r.ledger.QueryByTimeRange(ctx, start, end)
	if err != nil {
		return nil, ledgerErr("querying records by time range", err)
	}
	return r.normalizeAll(raws, entities.SourceLedger), nil
}

// ListAll enumerates every record it can see. Strategy order: index
// enumeration, ledger full scan, then the sweep-and-merge fallback.
// userHints are caller-known user ids probed as a last sweep pass when
// everything else came back empty. ListAll never fails: a deployment
// where every strategy errors yields an empty result.
func (r *Reconciler) ListAll(ctx context.Context, userHints ...string) []entities.LogRecord {
	if hits := r.index.QueryAll(ctx); len(hits) > 0 {
		recs := dedupeByID(r.normalizeAll(hits, entities.SourceIndex))
		sortNewestFirst(recs)
		return recs
	}

	if raws, err := r.ledger.ScanAll(ctx); err == nil && len(raws) > 0 {
		recs := dedupeByID(r.normalizeAll(raws, entities.SourceLedger))
		sortNewestFirst(recs)
		return recs
	}

	return r.sweepAndMerge(ctx, userHints)
}

// sweepAndMerge approximates a full enumeration by unioning narrower
// ledger queries: a wide time window, each known action, each known
// resource, and finally any caller-supplied user ids. Individual
// strategy failures are skipped so the sweep can still return partial
// results. Merging is keyed by id; records are immutable, so the first
// instance seen is kept.
func (r *Reconciler) sweepAndMerge(ctx context.Context, userHints []string) []entities.LogRecord {
	seen := make(map[string]entities.LogRecord)

	merge := func(raws []entities.RawRecord, err error) {
		if err != nil {
			return
		}
		for _, raw := range raws {
			rec := tagged(entities.Normalize(raw), entities.SourceLedger)
			if _, ok := seen[rec.ID]; !ok {
				seen[rec.ID] = rec
			}
		}
	}

	merge(r.ledger.QueryByTimeRange(ctx, time.Unix(0, 0).UTC(), time.Now().UTC()))

	for _, action := range r.sweep.Actions {
		merge(r.ledger.QueryBy(ctx, ports.FieldAction, action))
	}
	for _, resource := range r.sweep.Resources {
		merge(r.ledger.QueryBy(ctx, ports.FieldResource, resource))
	}

	if len(seen) == 0 {
		for _, user := range userHints {
			merge(r.ledger.QueryBy(ctx, ports.FieldUserID, user))
		}
	}

	recs := make([]entities.LogRecord, 0, len(seen))
	for _, rec := range seen {
		recs = append(recs, rec)
	}
	sortNewestFirst(recs)
	return recs
}

func (r *Reconciler) normalizeAll(raws []entities.RawRecord, source string) []entities.LogRecord {
	recs := make([]entities.LogRecord, 0, len(raws))
	for _, raw := range raws {
		recs = append(recs, tagged(entities.Normalize(raw), source))
	}
	return recs
}

// dedupeByID retains exactly one record per id, keeping the first
// instance seen. Records are immutable, so any instance is value-equal.
func dedupeByID(recs []entities.LogRecord) []entities.LogRecord {
	seen := make(map[string]bool, len(recs))
	out := recs[:0]
	for _, rec := range recs {
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		out = append(out, rec)
	}
	return out
}

func tagged(rec entities.LogRecord, source string) entities.LogRecord {
	rec.Source = source
	return rec
}

// sortNewestFirst is the default read ordering: timestamp descending,
// id ascending as the tie break so ordering is stable across sources.
func sortNewestFirst(recs []entities.LogRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Timestamp.Equal(recs[j].Timestamp) {
			return recs[i].Timestamp.After(recs[j].Timestamp)
		}
		return recs[i].ID < recs[j].ID
	})
}

// ledgerErr wraps a non-sentinel ledger failure so callers can branch on
// ports.ErrLedgerUnavailable without losing the underlying detail.
func ledgerErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ports.ErrLedgerUnavailable, err)
}
