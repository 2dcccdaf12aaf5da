package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditra/ledgerlog/internal/domain/entities"
	"github.com/auditra/ledgerlog/internal/domain/mocks"
	"github.com/auditra/ledgerlog/internal/domain/ports"
	"github.com/auditra/ledgerlog/internal/domain/services"
)

func newTestHandler(ledger *mocks.LedgerStore, index *mocks.SecondaryIndex) *RecordHandler {
	reconciler := services.NewReconciler(ledger, index, services.DefaultSweep())
	aggregator := services.NewAggregator(reconciler, services.NewIngest(ledger), services.AggregatorConfig{
		// Tests create records back to back; debounce is exercised in the
		// aggregator's own tests.
		DebounceWindow: time.Nanosecond,
	})
	return NewRecordHandler(reconciler, aggregator)
}

func TestRecordHandler_CreateAndGetRoundTrip(t *testing.T) {
	ledger := &mocks.LedgerStore{}
	h := newTestHandler(ledger, &mocks.SecondaryIndex{})
	ctx := context.Background()

	meta := map[string]any{"ip": "10.0.0.1"}
	result, err := h.CreateRecord(ctx, "alice", "LOGIN", "/login", "logged in", meta)
	require.NoError(t, err)
	require.False(t, result.Suppressed)

	rec, err := h.GetRecord(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", rec.UserID)
	assert.Equal(t, "LOGIN", rec.Action)
	assert.Equal(t, "/login", rec.Resource)
	assert.Equal(t, "logged in", rec.Description)
	assert.Equal(t, meta, rec.Metadata)
}

func TestRecordHandler_CreateRecord_Validation(t *testing.T) {
	h := newTestHandler(&mocks.LedgerStore{}, &mocks.SecondaryIndex{})

	_, err := h.CreateRecord(context.Background(), "", "LOGIN", "/login", "", nil)
	assert.True(t, entities.IsValidationError(err))
}

func TestRecordHandler_CreateRecordForced_BypassesDebounce(t *testing.T) {
	ledger := &mocks.LedgerStore{}
	reconciler := services.NewReconciler(ledger, &mocks.SecondaryIndex{}, services.DefaultSweep())
	aggregator := services.NewAggregator(reconciler, services.NewIngest(ledger), services.AggregatorConfig{
		DebounceWindow: time.Hour,
	})
	h := NewRecordHandler(reconciler, aggregator)
	ctx := context.Background()

	_, err := h.CreateRecord(ctx, "alice", "VISIT", "/home", "", nil)
	require.NoError(t, err)

	suppressed, err := h.CreateRecord(ctx, "bob", "VISIT", "/home", "", nil)
	require.NoError(t, err)
	require.True(t, suppressed.Suppressed)

	forced, err := h.CreateRecordForced(ctx, "bob", "VISIT", "/home", "", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, forced.ID)
	assert.False(t, forced.Suppressed)
	assert.Len(t, ledger.Records, 2)
}

func TestRecordHandler_GetRecord_NotFound(t *testing.T) {
	h := newTestHandler(&mocks.LedgerStore{}, &mocks.SecondaryIndex{})

	_, err := h.GetRecord(context.Background(), "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRecordHandler_GetRecord_LedgerUnavailable(t *testing.T) {
	ledger := &mocks.LedgerStore{Err: errors.New("down")}
	h := newTestHandler(ledger, &mocks.SecondaryIndex{})

	_, err := h.GetRecord(context.Background(), "1")
	assert.ErrorIs(t, err, ports.ErrLedgerUnavailable)
}

func TestRecordHandler_BulkReadsDowngradeFailures(t *testing.T) {
	ledger := &mocks.LedgerStore{Err: errors.New("down")}
	h := newTestHandler(ledger, &mocks.SecondaryIndex{Unavailable: true})
	ctx := context.Background()

	assert.Empty(t, h.ListByUser(ctx, "alice"))
	assert.Empty(t, h.ListByAction(ctx, "LOGIN"))
	assert.Empty(t, h.ListByResource(ctx, "/home"))

	recs, err := h.ListByTimeRange(ctx, "2024-01-01T00:00:00Z", "2024-12-31T00:00:00Z")
	require.NoError(t, err)
	assert.Empty(t, recs)

	assert.Empty(t, h.ListAll(ctx))
}

func TestRecordHandler_ListByAction_UnusedActionIsEmptyNotError(t *testing.T) {
	ledger := &mocks.LedgerStore{Records: []entities.RawRecord{
		{ID: "1", UserID: "a", Action: "LOGIN", Resource: "/login", Timestamp: "2024-03-01T10:00:00Z"},
	}}
	h := newTestHandler(ledger, &mocks.SecondaryIndex{})

	recs := h.ListByAction(context.Background(), "NO_SUCH_ACTION")
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestRecordHandler_ListByTimeRange_Validation(t *testing.T) {
	h := newTestHandler(&mocks.LedgerStore{}, &mocks.SecondaryIndex{})
	ctx := context.Background()

	_, err := h.ListByTimeRange(ctx, "", "2024-12-31T00:00:00Z")
	assert.True(t, entities.IsValidationError(err))

	_, err = h.ListByTimeRange(ctx, "2024-01-01T00:00:00Z", "")
	assert.True(t, entities.IsValidationError(err))

	_, err = h.ListByTimeRange(ctx, "yesterday", "2024-12-31T00:00:00Z")
	assert.True(t, entities.IsValidationError(err))
}

func TestRecordHandler_ListByTimeRange_InclusiveBounds(t *testing.T) {
	at := "2024-03-01T10:00:00Z"
	ledger := &mocks.LedgerStore{Records: []entities.RawRecord{
		{ID: "1", UserID: "a", Action: "VISIT", Resource: "/home", Timestamp: at},
	}}
	h := newTestHandler(ledger, &mocks.SecondaryIndex{})

	recs, err := h.ListByTimeRange(context.Background(), at, at)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestRecordHandler_Scenario_LoginLoginError(t *testing.T) {
	ledger := &mocks.LedgerStore{}
	h := newTestHandler(ledger, &mocks.SecondaryIndex{Unavailable: true})
	ctx := context.Background()

	for _, ev := range []struct{ user, action, resource string }{
		{"alice", "LOGIN", "/login"},
		{"bob", "LOGIN", "/login"},
		{"alice", "ERROR", "/api"},
	} {
		// Distinct pairs plus a nanosecond window keep debounce out of
		// the way; three records land in the ledger.
		_, err := h.CreateRecord(ctx, ev.user, ev.action, ev.resource, "", nil)
		require.NoError(t, err)
	}
	require.Len(t, ledger.Records, 3)

	logins := h.ListByAction(ctx, "LOGIN")
	assert.Len(t, logins, 2)

	all := h.ListAll(ctx)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i-1].Timestamp.Before(all[i].Timestamp), "newest first")
	}
}

func TestRecordHandler_Dedup_SameIDInBothStores(t *testing.T) {
	shared := entities.RawRecord{ID: "X", UserID: "a", Action: "LOGIN", Resource: "/login", Timestamp: "2024-03-01T10:00:00Z"}
	ledger := &mocks.LedgerStore{Records: []entities.RawRecord{shared}}
	index := &mocks.SecondaryIndex{Records: []entities.RawRecord{shared, shared}}
	h := newTestHandler(ledger, index)

	all := h.ListAll(context.Background())
	count := 0
	for _, rec := range all {
		if rec.ID == "X" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestRecordHandler_FallbackServesLedgerRecords(t *testing.T) {
	ledger := &mocks.LedgerStore{Records: []entities.RawRecord{
		{ID: "1", UserID: "alice", Action: "LOGIN", Resource: "/login", Timestamp: "2024-03-01T10:00:00Z"},
		{ID: "2", UserID: "alice", Action: "VISIT", Resource: "/home", Timestamp: "2024-03-01T11:00:00Z"},
	}}
	h := newTestHandler(ledger, &mocks.SecondaryIndex{Unavailable: true})
	ctx := context.Background()

	assert.Len(t, h.ListByUser(ctx, "alice"), 2)
	assert.Len(t, h.ListByAction(ctx, "VISIT"), 1)

	recs, err := h.ListByTimeRange(ctx, "2024-03-01T00:00:00Z", "2024-03-02T00:00:00Z")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}
