// Package mocks provides hand-written mock implementations of the
// domain ports for use in tests.
package mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/auditra/ledgerlog/internal/domain/entities"
	"github.com/auditra/ledgerlog/internal/domain/ports"
)

// LedgerStore is a mock implementation of ports.LedgerStore backed by an
// in-memory slice.
type LedgerStore struct {
	Records []entities.RawRecord
	Err     error

	// Per-operation errors (separate from Err for fine-grained control)
	PutErr     error
	ScanAllErr error
	QueryByErr map[string]error // keyed by field, applies to every value

	// Call tracking
	PutCallCount     int
	GetCallCount     int
	ScanAllCallCount int
	QueryByCalls     []string // "field=value" per call
}

// Put appends the record, rejecting id collisions.
func (m *LedgerStore) Put(ctx context.Context, rec entities.RawRecord) error {
	m.PutCallCount++
	if m.Err != nil {
		return m.Err
	}
	if m.PutErr != nil {
		return m.PutErr
	}
	for i := range m.Records {
		if m.Records[i].ID == rec.ID {
			return fmt.Errorf("%w: %s", ports.ErrAlreadyExists, rec.ID)
		}
	}
	m.Records = append(m.Records, rec)
	return nil
}

// Get returns the record with the given id.
func (m *LedgerStore) Get(ctx context.Context, id string) (entities.RawRecord, error) {
	m.GetCallCount++
	if m.Err != nil {
		return entities.RawRecord{}, m.Err
	}
	for i := range m.Records {
		if m.Records[i].ID == id {
			return m.Records[i], nil
		}
	}
	return entities.RawRecord{}, fmt.Errorf("%w: %s", ports.ErrNotFound, id)
}

// ScanAll returns every record.
func (m *LedgerStore) ScanAll(ctx context.Context) ([]entities.RawRecord, error) {
	m.ScanAllCallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.ScanAllErr != nil {
		return nil, m.ScanAllErr
	}
	return append([]entities.RawRecord(nil), m.Records...), nil
}

// QueryBy returns records whose field equals value.
func (m *LedgerStore) QueryBy(ctx context.Context, field, value string) ([]entities.RawRecord, error) {
	m.QueryByCalls = append(m.QueryByCalls, field+"="+value)
	if m.Err != nil {
		return nil, m.Err
	}
	if err := m.QueryByErr[field]; err != nil {
		return nil, err
	}
	var out []entities.RawRecord
	for i := range m.Records {
		if fieldValue(m.Records[i], field) == value {
			out = append(out, m.Records[i])
		}
	}
	return out, nil
}

// QueryByTimeRange returns records with a timestamp in [start, end].
func (m *LedgerStore) QueryByTimeRange(ctx context.Context, start, end time.Time) ([]entities.RawRecord, error) {
	if m.Err != nil {
		return nil, m.Err
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
	return out, nil
}

// Close is a no-op.
func (m *LedgerStore) Close() error {
	return nil
}

func fieldValue(rec entities.RawRecord, field string) string {
	switch field {
	case ports.FieldUserID:
		return rec.UserID
	case ports.FieldAction:
		return rec.Action
	case ports.FieldResource:
		return rec.Resource
	}
	return ""
}
