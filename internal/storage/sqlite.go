package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"deform-watch/internal/analysis"
)

const createTimeSeriesSQL = `CREATE TABLE IF NOT EXISTS time_series (
    station TEXT,
    date TEXT,
    reference_frame TEXT,
    x REAL,
    y REAL,
    z REAL,
    n REAL,
    e REAL,
    u REAL,
    PRIMARY KEY (station, date, reference_frame)
);`

const upsertEpochSQLite = `INSERT OR REPLACE INTO time_series
    (station, date, reference_frame, x, y, z, n, e, u)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`

const firstEpochSQLite = `SELECT station, date, reference_frame, x, y, z, n, e, u
FROM time_series
WHERE station = ? AND reference_frame = ?
ORDER BY date
LIMIT 1;`

const countEpochsSQL = `SELECT COUNT(*) FROM time_series;`

// SQLiteStore keeps the user-level epoch DB in a sqlite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the epoch database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set synchronous mode: %w", err)
	}

	if _, err := db.Exec(createTimeSeriesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create time_series table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}
	return s.db, nil
}

// ListEpochs returns the epochs matching filter, ordered by station, frame,
// date. NEU values are millimetres.
func (s *SQLiteStore) ListEpochs(ctx context.Context, filter QueryFilter) ([]analysis.Epoch, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	query, args := buildListQuery(filter, func(int) string { return "?" })
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list epochs: %w", err)
	}
	defer rows.Close()

	epochs := make([]analysis.Epoch, 0)
	for rows.Next() {
		epoch, err := scanEpochRow(rows)
		if err != nil {
			return nil, err
		}
		epochs = append(epochs, epoch)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return epochs, nil
}

// UpsertEpoch inserts or replaces one epoch. NEU millimetres are stored as
// metres.
func (s *SQLiteStore) UpsertEpoch(ctx context.Context, epoch analysis.Epoch) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, upsertEpochSQLite,
		epoch.Station,
		analysis.Day(epoch.Date).Format(isoDate),
		epoch.Frame,
		epoch.X, epoch.Y, epoch.Z,
		epoch.N/1000, epoch.E/1000, epoch.U/1000,
	)
	if err != nil {
		return fmt.Errorf("upsert epoch: %w", err)
	}
	return nil
}

// FirstEpoch returns the earliest epoch of a (station, frame) group, or nil
// when the group has none.
func (s *SQLiteStore) FirstEpoch(ctx context.Context, station, frame string) (*analysis.Epoch, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, firstEpochSQLite, station, frame)
	if err != nil {
		return nil, fmt.Errorf("first epoch: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	epoch, err := scanEpochRow(rows)
	if err != nil {
		return nil, err
	}
	return &epoch, nil
}

// CountEpochs counts stored epochs.
func (s *SQLiteStore) CountEpochs(ctx context.Context) (int64, error) {
	db, err := s.getDB()
	if err != nil {
		return 0, err
	}
	var count int64
	if err := db.QueryRowContext(ctx, countEpochsSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("count epochs: %w", err)
	}
	return count, nil
}

func scanEpochRow(rows *sql.Rows) (analysis.Epoch, error) {
	var (
		station, dateStr, frame string
		x, y, z                 float64
		n, e, u                 sql.NullFloat64
	)
	if err := rows.Scan(&station, &dateStr, &frame, &x, &y, &z, &n, &e, &u); err != nil {
		return analysis.Epoch{}, fmt.Errorf("scan epoch: %w", err)
	}
	return scanValuesToEpoch(station, dateStr, frame, x, y, z, n.Float64, e.Float64, u.Float64)
}
