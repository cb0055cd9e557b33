package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/phatnguoi/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "phatnguoi.db"

// checkedAtFormat is fixed-width so that text ordering matches time ordering.
const checkedAtFormat = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryDB stores finished lookups.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file. The pragma applies to every
	// pooled connection.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}
	dsn += "&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close() //nolint:errcheck
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS lookups (
		id TEXT PRIMARY KEY,
		plate TEXT NOT NULL COLLATE NOCASE,
		vehicle_type TEXT NOT NULL,
		label TEXT,
		checked_at TEXT NOT NULL,
		duration_ms INTEGER DEFAULT 0,
		error INTEGER NOT NULL,
		message TEXT NOT NULL,
		violation_count INTEGER NOT NULL,
		envelope_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_lookups_plate ON lookups(plate);
	CREATE INDEX IF NOT EXISTS idx_lookups_checked_at ON lookups(checked_at);

	-- One row per violation record, for queries across lookups
	CREATE TABLE IF NOT EXISTS violations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		lookup_id TEXT NOT NULL REFERENCES lookups(id) ON DELETE CASCADE,
		plate TEXT NOT NULL COLLATE NOCASE,
		fingerprint TEXT NOT NULL,
		violation_time TEXT,
		status TEXT,
		record_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_violations_lookup ON violations(lookup_id);
	CREATE INDEX IF NOT EXISTS idx_violations_fingerprint ON violations(fingerprint);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// SaveLookup stores a finished lookup and its violation records.
func (h *HistoryDB) SaveLookup(ctx context.Context, lookup *model.Lookup) error {
	if lookup == nil {
		return errors.New("nil lookup")
	}

	envelopeJSON, err := json.Marshal(lookup.Envelope)
	if err != nil {
		return fmt.Errorf("failed to serialize envelope: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
	INSERT INTO lookups (id, plate, vehicle_type, label, checked_at, duration_ms, error, message, violation_count, envelope_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		lookup.ID,
		lookup.Plate,
		string(lookup.VehicleType),
		lookup.Label,
		lookup.StartedAt.UTC().Format(checkedAtFormat),
		lookup.Duration().Milliseconds(),
		lookup.Envelope.Error,
		lookup.Envelope.Message,
		len(lookup.Envelope.Data),
		string(envelopeJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save lookup: %w", err)
	}

	for _, record := range lookup.Envelope.Data {
		recordJSON, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to serialize violation: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO violations (lookup_id, plate, fingerprint, violation_time, status, record_json)
		VALUES (?, ?, ?, ?, ?, ?)
		`,
			lookup.ID,
			lookup.Plate,
			record.Fingerprint(),
			record.ViolationTime,
			record.Status,
			string(recordJSON),
		)
		if err != nil {
			return fmt.Errorf("failed to save violation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit lookup: %w", err)
	}
	return nil
}

const lookupColumns = `id, plate, vehicle_type, label, checked_at, duration_ms, envelope_json`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLookup(s scanner) (*model.Lookup, error) {
	var (
		lookup       model.Lookup
		vehicleType  string
		label        sql.NullString
		checkedAt    string
		durationMS   int64
		envelopeJSON string
	)
	if err := s.Scan(&lookup.ID, &lookup.Plate, &vehicleType, &label, &checkedAt, &durationMS, &envelopeJSON); err != nil {
		return nil, err
	}

	lookup.VehicleType = model.VehicleType(vehicleType)
	lookup.Label = label.String
	lookup.StartedAt = parseTimestamp(checkedAt)
	lookup.FinishedAt = lookup.StartedAt.Add(time.Duration(durationMS) * time.Millisecond)
	if err := json.Unmarshal([]byte(envelopeJSON), &lookup.Envelope); err != nil {
		return nil, fmt.Errorf("failed to parse envelope: %w", err)
	}
	if lookup.Envelope.Data == nil {
		lookup.Envelope.Data = []model.ViolationRecord{}
	}
	return &lookup, nil
}

// GetLookupByID returns the lookup with the given ID, or nil if none exists.
func (h *HistoryDB) GetLookupByID(ctx context.Context, id string) (*model.Lookup, error) {
	row := h.db.QueryRowContext(ctx, `SELECT `+lookupColumns+` FROM lookups WHERE id = ?`, id)
	lookup, err := scanLookup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lookup: %w", err)
	}
	return lookup, nil
}

// GetLatestLookups returns up to limit lookups of plate, newest first.
// When successfulOnly is set, lookups that ended with an error envelope are
// skipped.
func (h *HistoryDB) GetLatestLookups(ctx context.Context, plate string, limit int, successfulOnly bool) ([]*model.Lookup, error) {
	if limit <= 0 {
		return []*model.Lookup{}, nil
	}

	query := `SELECT ` + lookupColumns + ` FROM lookups WHERE plate = ?`
	if successfulOnly {
		query += ` AND error = 0`
	}
	query += ` ORDER BY checked_at DESC, rowid DESC LIMIT ?`

	rows, err := h.db.QueryContext(ctx, query, model.NormalizePlate(plate), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get lookups: %w", err)
	}
	defer rows.Close()

	lookups := make([]*model.Lookup, 0, limit)
	for rows.Next() {
		lookup, err := scanLookup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lookup: %w", err)
		}
		lookups = append(lookups, lookup)
	}
	return lookups, rows.Err()
}

// LookupMetadata summarizes a stored lookup without its records.
type LookupMetadata struct {
	ID             string            `json:"id"`
	Plate          string            `json:"plate"`
	VehicleType    model.VehicleType `json:"vehicleType"`
	Label          string            `json:"label,omitempty"`
	CheckedAt      time.Time         `json:"checkedAt"`
	Duration       time.Duration     `json:"-"`
	Error          bool              `json:"error"`
	Message        string            `json:"message"`
	ViolationCount int               `json:"violationCount"`
}

// GetLookupHistory returns the metadata of every lookup of plate, newest first.
func (h *HistoryDB) GetLookupHistory(ctx context.Context, plate string) ([]LookupMetadata, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT id, plate, vehicle_type, label, checked_at, duration_ms, error, message, violation_count
	FROM lookups
	WHERE plate = ?
	ORDER BY checked_at DESC, rowid DESC
	`, model.NormalizePlate(plate))
	if err != nil {
		return nil, fmt.Errorf("failed to get lookup history: %w", err)
	}
	defer rows.Close()

	var results []LookupMetadata
	for rows.Next() {
		var (
			meta        LookupMetadata
			vehicleType string
			label       sql.NullString
			checkedAt   string
			durationMS  int64
		)
		if err := rows.Scan(&meta.ID, &meta.Plate, &vehicleType, &label, &checkedAt,
			&durationMS, &meta.Error, &meta.Message, &meta.ViolationCount); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta.VehicleType = model.VehicleType(vehicleType)
		meta.Label = label.String
		meta.CheckedAt = parseTimestamp(checkedAt)
		meta.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, meta)
	}

	return results, rows.Err()
}

// ListPlates returns every plate with at least one stored lookup.
func (h *HistoryDB) ListPlates(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT DISTINCT plate FROM lookups ORDER BY plate`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plates: %w", err)
	}
	defer rows.Close()

	var plates []string
	for rows.Next() {
		var plate string
		if err := rows.Scan(&plate); err != nil {
			return nil, fmt.Errorf("failed to scan plate: %w", err)
		}
		plates = append(plates, plate)
	}

	return plates, rows.Err()
}

// DeleteLookupsBefore removes lookups checked before t along with their
// violations and returns how many lookups were removed.
func (h *HistoryDB) DeleteLookupsBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := h.db.ExecContext(ctx,
		`DELETE FROM lookups WHERE checked_at < ?`, t.UTC().Format(checkedAtFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete lookups: %w", err)
	}
	return res.RowsAffected()
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	checkedAtFormat,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses s with the known formats, returning zero time if none match.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
