package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"deform-watch/internal/analysis"
	"deform-watch/internal/config"
)

const createTimeSeriesPG = `CREATE TABLE IF NOT EXISTS time_series (
    station TEXT,
    date DATE,
    reference_frame TEXT,
    x DOUBLE PRECISION,
    y DOUBLE PRECISION,
    z DOUBLE PRECISION,
    n DOUBLE PRECISION,
    e DOUBLE PRECISION,
    u DOUBLE PRECISION,
    PRIMARY KEY (station, date, reference_frame)
);`

const upsertEpochPG = `INSERT INTO time_series
    (station, date, reference_frame, x, y, z, n, e, u)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (station, date, reference_frame) DO UPDATE
SET x = EXCLUDED.x,
    y = EXCLUDED.y,
    z = EXCLUDED.z,
    n = EXCLUDED.n,
    e = EXCLUDED.e,
    u = EXCLUDED.u;`

const firstEpochPG = `SELECT station, date::text, reference_frame, x, y, z, n, e, u
FROM time_series
WHERE station = $1 AND reference_frame = $2
ORDER BY date
LIMIT 1;`

// PostgresStore serves epochs from a shared archive database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pgx pool to the archive.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if _, err := pool.Exec(ctx, createTimeSeriesPG); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create time_series table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

func (s *PostgresStore) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// ListEpochs returns the epochs matching filter, ordered by station, frame,
// date. NEU values are millimetres.
func (s *PostgresStore) ListEpochs(ctx context.Context, filter QueryFilter) ([]analysis.Epoch, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	query, args := buildListQuery(filter, func(i int) string { return fmt.Sprintf("$%d", i+1) })
	// DATE column compares against text bounds after casting.
	query = strings.Replace(query, "SELECT station, date,", "SELECT station, date::text,", 1)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list epochs: %w", err)
	}
	defer rows.Close()

	epochs := make([]analysis.Epoch, 0)
	for rows.Next() {
		epoch, err := scanEpochPG(rows)
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

// UpsertEpoch inserts or updates one epoch. NEU millimetres are stored as
// metres.
func (s *PostgresStore) UpsertEpoch(ctx context.Context, epoch analysis.Epoch) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, upsertEpochPG,
		epoch.Station,
		analysis.Day(epoch.Date),
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
func (s *PostgresStore) FirstEpoch(ctx context.Context, station, frame string) (*analysis.Epoch, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, firstEpochPG, station, frame)
	if err != nil {
		return nil, fmt.Errorf("first epoch: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	epoch, err := scanEpochPG(rows)
	if err != nil {
		return nil, err
	}
	return &epoch, nil
}

// CountEpochs counts stored epochs.
func (s *PostgresStore) CountEpochs(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if err := pool.QueryRow(ctx, countEpochsSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("count epochs: %w", err)
	}
	return count, nil
}

func scanEpochPG(rows pgx.Rows) (analysis.Epoch, error) {
	var (
		station, dateStr, frame string
		x, y, z                 float64
		n, e, u                 *float64
	)
	if err := rows.Scan(&station, &dateStr, &frame, &x, &y, &z, &n, &e, &u); err != nil {
		return analysis.Epoch{}, fmt.Errorf("scan epoch: %w", err)
	}
	deref := func(p *float64) float64 {
		if p == nil {
			return 0
		}
		return *p
	}
	return scanValuesToEpoch(station, dateStr, frame, x, y, z, deref(n), deref(e), deref(u))
}

var _ EpochStore = (*SQLiteStore)(nil)
var _ EpochStore = (*PostgresStore)(nil)
