// Package sqlite provides a SQLite implementation of the LedgerStore
// interface: the authoritative, append-only record store for
// deployments where the external consensus ledger is reduced to its
// state-machine contract on a single node.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/auditra/ledgerlog/internal/domain/entities"
	"github.com/auditra/ledgerlog/internal/domain/ports"
	"github.com/auditra/ledgerlog/internal/infrastructure/config"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// columns maps queryable fields to schema columns. Anything outside
// this map is rejected before touching SQL.
var columns = map[string]string{
	ports.FieldUserID:   "user_id",
	ports.FieldAction:   "action",
	ports.FieldResource: "resource",
}

// Repository implements ports.LedgerStore using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite ledger repository.
func NewRepository(cfg config.LedgerConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("ledger path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Append-only event records, keyed by writer-assigned id.
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		action TEXT NOT NULL,
		resource TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		description TEXT,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_records_user ON records(user_id);
	CREATE INDEX IF NOT EXISTS idx_records_action ON records(action);
	CREATE INDEX IF NOT EXISTS idx_records_resource ON records(resource);
	CREATE INDEX IF NOT EXISTS idx_records_timestamp ON records(timestamp);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Put persists a record verbatim. A colliding id is rejected with
// ports.ErrAlreadyExists, never overwritten.
func (r *Repository) Put(ctx context.Context, rec entities.RawRecord) error {
	exists, err := r.exists(ctx, rec.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ports.ErrAlreadyExists, rec.ID)
	}

	query := `
		INSERT INTO records (id, user_id, action, resource, timestamp, description, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Action,
		rec.Resource,
		rec.Timestamp,
		nullable(rec.Description),
		metadataText(rec.Metadata),
	)
	if err != nil {
		// A concurrent writer can slip between the exists check and the
		// insert; the primary key still rejects it.
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("%w: %s", ports.ErrAlreadyExists, rec.ID)
		}
		return fmt.Errorf("putting record: %w", err)
	}
	return nil
}

// Get returns the raw stored record, or ports.ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (entities.RawRecord, error) {
	query := `
		SELECT id, user_id, action, resource, timestamp, description, metadata
		FROM records
		WHERE id = ?
	`
	row := r.db.QueryRowContext(ctx, query, id)

	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return entities.RawRecord{}, fmt.Errorf("%w: %s", ports.ErrNotFound, id)
	}
	if err != nil {
		return entities.RawRecord{}, fmt.Errorf("scanning record: %w", err)
	}
	return rec, nil
}

// ScanAll returns every record, oldest first by insertion order of
// timestamp. Correctness-only path.
func (r *Repository) ScanAll(ctx context.Context) ([]entities.RawRecord, error) {
	query := `
		SELECT id, user_id, action, resource, timestamp, description, metadata
		FROM records
		ORDER BY timestamp ASC
	`
	return r.queryRecords(ctx, query)
}

// QueryBy returns all records whose field equals value.
func (r *Repository) QueryBy(ctx context.Context, field, value string) ([]entities.RawRecord, error) {
	column, ok := columns[field]
	if !ok {
		return nil, fmt.Errorf("unsupported query field: %s", field)
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, action, resource, timestamp, description, metadata
		FROM records
		WHERE %s = ?
		ORDER BY timestamp DESC
	`, column)
	return r.queryRecords(ctx, query, value)
}

// QueryByTimeRange returns all records with a timestamp in [start, end]
// inclusive. Timestamps are RFC3339 UTC text, so lexicographic BETWEEN
// matches chronological order.
func (r *Repository) QueryByTimeRange(ctx context.Context, start, end time.Time) ([]entities.RawRecord, error) {
	query := `
		SELECT id, user_id, action, resource, timestamp, description, metadata
		FROM records
		WHERE timestamp BETWEEN ? AND ?
		ORDER BY timestamp DESC
	`
	return r.queryRecords(ctx, query,
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
	)
}

// exists reports whether a record with the given id is present.
func (r *Repository) exists(ctx context.Context, id string) (bool, error) {
	var found int
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM records WHERE id = ?)`, id).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("checking record existence: %w", err)
	}
	return found == 1, nil
}

// queryRecords is a helper to execute record queries.
func (r *Repository) queryRecords(ctx context.Context, query string, args ...any) ([]entities.RawRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	records := make([]entities.RawRecord, 0, 16)
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// scanRecord scans one record row via the given scan function.
func scanRecord(scan func(dest ...any) error) (entities.RawRecord, error) {
	var rec entities.RawRecord
	var description, metadata sql.NullString

	err := scan(
		&rec.ID,
		&rec.UserID,
		&rec.Action,
		&rec.Resource,
		&rec.Timestamp,
		&description,
		&metadata,
	)
	if err != nil {
		return entities.RawRecord{}, err
	}

	rec.Description = description.String
	if metadata.Valid {
		rec.Metadata = metadata.String
	}
	return rec, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// metadataText renders the stored metadata column. Ingest hands the
// ledger a string (or nil); anything else would be a programming error
// upstream, stored as-is via fmt for inspection rather than dropped.
func metadataText(meta any) sql.NullString {
	switch v := meta.(type) {
	case nil:
		return sql.NullString{}
	case string:
		return sql.NullString{String: v, Valid: true}
	default:
		return sql.NullString{String: fmt.Sprintf("%v", v), Valid: true}
	}
}
