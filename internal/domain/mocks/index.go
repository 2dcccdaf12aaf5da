package mocks

import (
	"context"
	"time"

	"github.com/auditra/ledgerlog/internal/domain/entities"
)

// SecondaryIndex is a mock implementation of ports.SecondaryIndex.
// Setting Unavailable makes every query miss, mimicking an unreachable
// or lagging index (the port contract hides the difference).
type SecondaryIndex struct {
	Records     []entities.RawRecord
	Unavailable bool

	// Call tracking
	QueryAllCallCount int
	QueryByIDCalls    []string
	QueryByCalls      []string // "field=value" per call
}

// QueryAll enumerates every indexed record.
func (m *SecondaryIndex) QueryAll(ctx context.Context) []entities.RawRecord {
	m.QueryAllCallCount++
	if m.Unavailable {
		return nil
	}
	return append([]entities.RawRecord(nil), m.Records...)
}

// QueryByID returns at most one record with the given id.
func (m *SecondaryIndex) QueryByID(ctx context.Context, id string) []entities.RawRecord {
	m.QueryByIDCalls = append(m.QueryByIDCalls, id)
	if m.Unavailable {
		return nil
	}
	for i := range m.Records {
		if m.Records[i].ID == id {
			return []entities.RawRecord{m.Records[i]}
		}
	}
	return nil
}

// QueryBy returns indexed records whose field equals value.
func (m *SecondaryIndex) QueryBy(ctx context.Context, field, value string) []entities.RawRecord {
	m.QueryByCalls = append(m.QueryByCalls, field+"="+value)
	if m.Unavailable {
		return nil
	}
	var out []entities.RawRecord
	for i := range m.Records {
		if fieldValue(m.Records[i], field) == value {
			out = append(out, m.Records[i])
		}
	}
	return out
}

// QueryByTimeRange returns indexed records with a timestamp in [start, end].
func (m *SecondaryIndex) QueryByTimeRange(ctx context.Context, start, end time.Time) []entities.RawRecord {
	if m.Unavailable {
		return nil
	}
	var out []entities.RawRecord
	for i := range m.Records {
		ts, err := time.Parse(time.RFC3339, m.Records[i].Timestamp)
		if err != nil {
			continue
		}
		if !ts.Before(start) && !ts.After(end) {
			out = append(out, m.Records[i])
		}
	}
	return out
}

// Close is a no-op.
func (m *SecondaryIndex) Close() error {
	return nil
}
