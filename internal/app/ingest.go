package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"deform-watch/internal/analysis"
	"deform-watch/internal/catalog"
	"deform-watch/internal/geodesy"
	"deform-watch/internal/storage"
)

// Ingest loads position epochs from a CSV of upstream solver output
// (station,date,x,y,z with optional reference_frame column) and derives the
// local NEU displacements relative to each group's origin epoch: the earliest
// epoch already stored for the group, else the earliest in the batch.
func (a *App) Ingest(ctx context.Context, opts IngestOptions) error {
	if opts.CSVPath == "" {
		return errors.New("--csv must be provided")
	}

	positions, err := readPositionsCSV(opts.CSVPath, opts.Frame)
	if err != nil {
		return err
	}
	// Date order makes the first position seen per group the batch-earliest,
	// which is what resolveOrigin falls back to for unseen groups.
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].Station != positions[j].Station {
			return positions[i].Station < positions[j].Station
		}
		if positions[i].Frame != positions[j].Frame {
			return positions[i].Frame < positions[j].Frame
		}
		return positions[i].Date.Before(positions[j].Date)
	})
	if len(positions) == 0 {
		a.Logger.Warn().Str("path", opts.CSVPath).Msg("no positions in input")
		return nil
	}

	if opts.DryRun {
		a.Logger.Info().Int("positions", len(positions)).Msg("dry run; nothing written")
		fmt.Fprintf(os.Stdout, "Parsed %d position(s); dry run, nothing written.\n", len(positions))
		return nil
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	origins := make(map[analysis.GroupKey]geodesy.ECEF)
	imported := 0
	failed := 0

	for _, pos := range positions {
		key := analysis.GroupKey{Station: pos.Station, Frame: pos.Frame}
		origin, ok := origins[key]
		if !ok {
			origin, err = a.resolveOrigin(ctx, store, key, pos)
			if err != nil {
				a.Logger.Error().Err(err).Str("group", key.String()).Msg("cannot resolve origin epoch")
				failed++
				continue
			}
			origins[key] = origin
		}

		n, e, u := geodesy.NEUOffset(origin, geodesy.ECEF{X: pos.X, Y: pos.Y, Z: pos.Z})
		epoch := analysis.Epoch{
			Station: pos.Station,
			Date:    pos.Date,
			Frame:   pos.Frame,
			X:       pos.X, Y: pos.Y, Z: pos.Z,
			// metres → millimetres
			N: n * 1000, E: e * 1000, U: u * 1000,
		}
		if err := store.UpsertEpoch(ctx, epoch); err != nil {
			a.Logger.Error().Err(err).Str("group", key.String()).Msg("failed to upsert epoch")
			failed++
			continue
		}
		imported++
	}

	a.Logger.Info().Int("imported", imported).Int("failed", failed).Msg("ingest complete")
	fmt.Fprintf(os.Stdout, "Imported: %d\nFailed  : %d\n", imported, failed)
	if failed > 0 && imported == 0 {
		return errors.New("every position failed to import")
	}
	return nil
}

// resolveOrigin picks the NEU origin for a group: the earliest stored epoch
// when one exists, else the earliest position in this batch (pos arrives in
// file order, so scan is handled by the caller passing the first seen; the
// stored origin wins to keep increments consistent across runs).
func (a *App) resolveOrigin(ctx context.Context, store storage.EpochStore, key analysis.GroupKey, pos position) (geodesy.ECEF, error) {
	first, err := store.FirstEpoch(ctx, key.Station, key.Frame)
	if err != nil {
		return geodesy.ECEF{}, err
	}
	if first != nil {
		return geodesy.ECEF{X: first.X, Y: first.Y, Z: first.Z}, nil
	}
	return geodesy.ECEF{X: pos.X, Y: pos.Y, Z: pos.Z}, nil
}

type position struct {
	Station string
	Date    time.Time
	Frame   string
	X, Y, Z float64
}

func readPositionsCSV(path, defaultFrame string) ([]position, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open positions csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read positions header: %w", err)
	}

	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"station", "date", "x", "y", "z"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("positions csv missing column %q", required)
		}
	}

	var out []position
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read positions row %d: %w", line, err)
		}

		date, err := catalog.ParseDate(strings.TrimSpace(row[col["date"]]))
		if err != nil {
			return nil, fmt.Errorf("positions row %d: %w", line, err)
		}
		x, err := parseCoord(row[col["x"]])
		if err != nil {
			return nil, fmt.Errorf("positions row %d x: %w", line, err)
		}
		y, err := parseCoord(row[col["y"]])
		if err != nil {
			return nil, fmt.Errorf("positions row %d y: %w", line, err)
		}
		z, err := parseCoord(row[col["z"]])
		if err != nil {
			return nil, fmt.Errorf("positions row %d z: %w", line, err)
		}

		frame := defaultFrame
		if i, ok := col["reference_frame"]; ok && strings.TrimSpace(row[i]) != "" {
			frame = strings.TrimSpace(row[i])
		}
		if frame == "" {
			return nil, fmt.Errorf("positions row %d: no reference frame (set --frame or a reference_frame column)", line)
		}

		out = append(out, position{
			Station: strings.ToUpper(strings.TrimSpace(row[col["station"]])),
			Date:    date,
			Frame:   frame,
			X:       x, Y: y, Z: z,
		})
	}
	return out, nil
}

func parseCoord(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
