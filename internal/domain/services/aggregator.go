package services

import (
	"context"
	"sync"
	"time"

	"github.com/auditra/ledgerlog/internal/domain/entities"
	"github.com/auditra/ledgerlog/internal/domain/ports"
)

// Aggregator defaults.
const (
	DefaultDebounceWindow = 2 * time.Second
	DefaultRecencySize    = 32
)

// AggregatorConfig tunes the aggregator's client-side state.
type AggregatorConfig struct {
	// DebounceWindow suppresses a write when the same action/resource
	// pair was emitted less than this long ago.
	DebounceWindow time.Duration

	// RecencySize bounds the cache of recently created record ids.
	RecencySize int
}

// Aggregator is a resilience shell around the reconciler and ingest
// services for read-heavy consumers. It remembers this process's own
// recent creates (a recency cache, not a source of truth) so at least
// those stay visible when both stores come up empty, and it debounces
// rapid duplicate emissions at the point of origin.
type Aggregator struct {
	reconciler *Reconciler
	ingest     *Ingest
	cfg        AggregatorConfig

	mu        sync.Mutex
	recentIDs []string
	lastEmit  map[string]time.Time // keyed by action|resource
}

// NewAggregator creates an aggregator. Zero config fields fall back to
// the defaults.
func NewAggregator(reconciler *Reconciler, ingest *Ingest, cfg AggregatorConfig) *Aggregator {
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = DefaultDebounceWindow
	}
	if cfg.RecencySize <= 0 {
		cfg.RecencySize = DefaultRecencySize
	}
	return &Aggregator{
		reconciler: reconciler,
		ingest:     ingest,
		cfg:        cfg,
		lastEmit:   make(map[string]time.Time),
	}
}

// ListAll combines every fallback the read surface has. Strategy order:
// one comprehensive reconciler call; a union of the known-action
// category queries; finally a replay of direct lookups for this
// process's own recent creates. Results are merged by id and sorted
// newest first. ListAll never fails.
func (a *Aggregator) ListAll(ctx context.Context, userHints ...string) []entities.LogRecord {
	recs := a.reconciler.ListAll(ctx, userHints...)
	if len(recs) > 0 {
		return recs
	}

	recs = a.listByKnownActions(ctx)
	if len(recs) > 0 {
		return recs
	}

	return a.replayRecent(ctx)
}

// Record submits a new event through the debounce policy. A same
// action/resource pair emitted within the debounce window is suppressed
// rather than written; suppressed reports that case. Successful creates
// feed the recency cache.
func (a *Aggregator) Record(ctx context.Context, userID, action, resource, description string, metadata any) (id string, suppressed bool, err error) {
	if !a.admit(action, resource) {
		return "", true, nil
	}

	id, err = a.ingest.Create(ctx, userID, action, resource, description, metadata)
	if err != nil {
		return "", false, err
	}

	a.remember(id)
	return id, false, nil
}

// RecordForced submits a new event bypassing the debounce window. The
// emission still counts against later unforced writes of the same pair.
func (a *Aggregator) RecordForced(ctx context.Context, userID, action, resource, description string, metadata any) (string, error) {
	a.stamp(action, resource)

	id, err := a.ingest.Create(ctx, userID, action, resource, description, metadata)
	if err != nil {
		return "", err
	}

	a.remember(id)
	return id, nil
}

// RememberID seeds the recency cache with an id created elsewhere.
func (a *Aggregator) RememberID(id string) {
	a.remember(id)
}

// listByKnownActions unions the per-action category queries, merging by
// id the same way the reconciler's sweep does. Individual category
// failures are skipped.
func (a *Aggregator) listByKnownActions(ctx context.Context) []entities.LogRecord {
	seen := make(map[string]bool)
	var merged []entities.LogRecord

	for _, action := range a.reconciler.sweep.Actions {
		recs, err := a.reconciler.ListByField(ctx, ports.FieldAction, action)
		if err != nil {
			continue
		}
		for _, rec := range recs {
			if seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true
			merged = append(merged, rec)
		}
	}

	sortNewestFirst(merged)
	return merged
}

// replayRecent looks up the cached recent creates directly so the
// caller's own writes stay visible even when every list path is blind.
func (a *Aggregator) replayRecent(ctx context.Context) []entities.LogRecord {
	a.mu.Lock()
	ids := append([]string(nil), a.recentIDs...)
	a.mu.Unlock()

	var recs []entities.LogRecord
	for _, id := range ids {
		rec, err := a.reconciler.GetByID(ctx, id)
		if err != nil {
			continue
		}
		recs = append(recs, rec)
	}

	sortNewestFirst(recs)
	return recs
}

// admit applies the debounce window for an action/resource pair and
// records the emission time when admitted.
func (a *Aggregator) admit(action, resource string) bool {
	key := action + "|" + resource
	now := timeNow()

	a.mu.Lock()
	defer a.mu.Unlock()

	if last, ok := a.lastEmit[key]; ok && now.Sub(last) < a.cfg.DebounceWindow {
		return false
	}
	a.lastEmit[key] = now
	return true
}

func (a *Aggregator) stamp(action, resource string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastEmit[action+"|"+resource] = timeNow()
}

func (a *Aggregator) remember(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.recentIDs = append(a.recentIDs, id)
	if len(a.recentIDs) > a.cfg.RecencySize {
		a.recentIDs = a.recentIDs[len(a.recentIDs)-a.cfg.RecencySize:]
	}
}
