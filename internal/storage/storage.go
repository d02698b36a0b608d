// Package storage provides the epoch source: SQL-backed access to the
// time_series table of per-station position epochs. Two backends exist, a
// sqlite file for the user workpool and postgres for a shared archive. The
// table stores NEU in metres; the store scales to millimetres on scan so
// every consumer operates in mm.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"deform-watch/internal/analysis"
)

// ErrNotConfigured indicates the store was not initialised.
var ErrNotConfigured = errors.New("storage: store not configured")

// QueryFilter narrows an epoch query. Nil/empty fields match everything;
// date bounds are inclusive.
type QueryFilter struct {
	Frames   []string
	Stations []string
	From     *time.Time
	To       *time.Time
}

// EpochStore is the epoch source contract: filtered reads ordered by
// (station, frame, date) plus the upsert used by ingestion tooling.
type EpochStore interface {
	ListEpochs(ctx context.Context, filter QueryFilter) ([]analysis.Epoch, error)
	UpsertEpoch(ctx context.Context, epoch analysis.Epoch) error
	FirstEpoch(ctx context.Context, station, frame string) (*analysis.Epoch, error)
	CountEpochs(ctx context.Context) (int64, error)
	Close() error
}

const isoDate = "2006-01-02"

// buildListQuery renders the filtered select. placeholder formats the marker
// for the zero-based parameter index ("?" for sqlite, "$n+1" for postgres).
func buildListQuery(filter QueryFilter, placeholder func(i int) string) (string, []any) {
	sql := []string{
		"SELECT station, date, reference_frame, x, y, z, n, e, u",
		"FROM time_series",
		"WHERE 1=1",
	}
	var args []any

	if len(filter.Frames) > 0 {
		marks := make([]string, len(filter.Frames))
		for i, f := range filter.Frames {
			marks[i] = placeholder(len(args))
			args = append(args, f)
		}
		sql = append(sql, fmt.Sprintf("AND reference_frame IN (%s)", strings.Join(marks, ",")))
	}
	if len(filter.Stations) > 0 {
		marks := make([]string, len(filter.Stations))
		for i, s := range filter.Stations {
			marks[i] = placeholder(len(args))
			args = append(args, strings.ToUpper(s))
		}
		sql = append(sql, fmt.Sprintf("AND station IN (%s)", strings.Join(marks, ",")))
	}
	if filter.From != nil {
		sql = append(sql, "AND date >= "+placeholder(len(args)))
		args = append(args, analysis.Day(*filter.From).Format(isoDate))
	}
	if filter.To != nil {
		sql = append(sql, "AND date <= "+placeholder(len(args)))
		args = append(args, analysis.Day(*filter.To).Format(isoDate))
	}

	sql = append(sql, "ORDER BY station, reference_frame, date")
	return strings.Join(sql, " "), args
}

func scanValuesToEpoch(station, dateStr, frame string, x, y, z, n, e, u float64) (analysis.Epoch, error) {
	date, err := time.ParseInLocation(isoDate, dateStr, time.UTC)
	if err != nil {
		return analysis.Epoch{}, fmt.Errorf("parse epoch date %q: %w", dateStr, err)
	}
	return analysis.Epoch{
		Station: station,
		Date:    date,
		Frame:   frame,
		X:       x, Y: y, Z: z,
		// metres → millimetres
		N: n * 1000, E: e * 1000, U: u * 1000,
	}, nil
}
