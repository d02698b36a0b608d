package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"deform-watch/internal/analysis"
	"deform-watch/internal/geodesy"
	"deform-watch/internal/service"
	"deform-watch/internal/storage"
)

// Export writes epoch CSV, latest-position geodetic snapshot, and/or a PNG
// displacement chart for one station.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.EpochCSV == "" && opts.GeoCSV == "" && opts.ChartPNG == "" {
		return errors.New("at least one of --csv, --geo-csv, or --png must be provided")
	}
	if opts.ChartPNG != "" && (opts.ChartStation == "" || opts.ChartFrame == "") {
		return errors.New("--png requires --chart-station and --chart-frame")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	filter := storage.QueryFilter{
		Stations: opts.Stations,
		Frames:   opts.Frames,
		From:     opts.From,
		To:       opts.To,
	}

	epochs, err := store.ListEpochs(ctx, filter)
	if err != nil {
		return err
	}
	if len(epochs) == 0 {
		a.Logger.Info().Msg("no epochs found for export window")
		fmt.Fprintln(os.Stdout, "No epochs found for the given filters.")
		return nil
	}

	if opts.EpochCSV != "" {
		if err := writeEpochsCSV(opts.EpochCSV, epochs); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.EpochCSV).Int("rows", len(epochs)).Msg("epoch CSV written")
	}

	if opts.GeoCSV != "" {
		if err := writeGeoSnapshotCSV(opts.GeoCSV, epochs); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.GeoCSV).Msg("geodetic snapshot written")
	}

	if opts.ChartPNG != "" {
		if err := a.writeDisplacementChart(ctx, store, opts); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.ChartPNG).Msg("displacement chart written")
	}

	return nil
}

func writeEpochsCSV(path string, epochs []analysis.Epoch) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"station", "date", "reference_frame", "x", "y", "z", "n", "e", "u"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, ep := range epochs {
		row := []string{
			ep.Station,
			ep.Date.Format("2006-01-02"),
			ep.Frame,
			formatFloat(ep.X), formatFloat(ep.Y), formatFloat(ep.Z),
			formatFloat(ep.N), formatFloat(ep.E), formatFloat(ep.U),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return writer.Error()
}

// writeGeoSnapshotCSV emits the newest epoch of every (station, frame) group
// converted to geodetic coordinates, for mapping sinks.
func writeGeoSnapshotCSV(path string, epochs []analysis.Epoch) error {
	latest := make(map[analysis.GroupKey]analysis.Epoch)
	for _, ep := range epochs {
		key := analysis.GroupKey{Station: ep.Station, Frame: ep.Frame}
		if cur, ok := latest[key]; !ok || ep.Date.After(cur.Date) {
			latest[key] = ep
		}
	}

	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"station", "reference_frame", "date", "lon", "lat", "h", "n_mm", "e_mm", "u_mm"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, ep := range latest {
		g := geodesy.ToGeodetic(geodesy.ECEF{X: ep.X, Y: ep.Y, Z: ep.Z})
		row := []string{
			ep.Station,
			ep.Frame,
			ep.Date.Format("2006-01-02"),
			formatFloat(g.Lon), formatFloat(g.Lat), formatFloat(g.Height),
			formatFloat(ep.N), formatFloat(ep.E), formatFloat(ep.U),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return writer.Error()
}

// writeDisplacementChart renders raw and detrended NEU series for one
// (station, frame) group.
func (a *App) writeDisplacementChart(ctx context.Context, store storage.EpochStore, opts ExportOptions) error {
	svc := service.New(a.Config, store, nil, a.Logger)
	summary, err := svc.Run(ctx, service.RunOptions{
		Filter: storage.QueryFilter{
			Stations: []string{opts.ChartStation},
			Frames:   []string{opts.ChartFrame},
			From:     opts.From,
			To:       opts.To,
		},
		DoOffsets:  true,
		DoDetrend:  true,
		DoOutliers: true,
	})
	if err != nil {
		return err
	}
	if len(summary.Result.Groups) == 0 {
		return fmt.Errorf("no analysed group for %s/%s", opts.ChartStation, opts.ChartFrame)
	}

	records := downsampleRecords(
		summary.Result.Groups[0].Records,
		a.Config.ResolveMaxChartPoints(opts.MaxPoints),
	)

	x := make([]time.Time, len(records))
	raw := map[analysis.Component][]float64{}
	detr := map[analysis.Component][]float64{}
	hasDetrend := true
	for i, rec := range records {
		x[i] = rec.Date
		raw[analysis.North] = append(raw[analysis.North], rec.N)
		raw[analysis.East] = append(raw[analysis.East], rec.E)
		raw[analysis.Up] = append(raw[analysis.Up], rec.U)
		if rec.DN == nil || rec.DE == nil || rec.DU == nil {
			hasDetrend = false
			continue
		}
		detr[analysis.North] = append(detr[analysis.North], *rec.DN)
		detr[analysis.East] = append(detr[analysis.East], *rec.DE)
		detr[analysis.Up] = append(detr[analysis.Up], *rec.DU)
	}

	series := []chart.Series{}
	for _, c := range analysis.Components {
		series = append(series, chart.TimeSeries{
			Name:    fmt.Sprintf("%s raw", c),
			XValues: x,
			YValues: raw[c],
		})
	}
	if hasDetrend {
		for _, c := range analysis.Components {
			series = append(series, chart.TimeSeries{
				Name:    fmt.Sprintf("%s detrended", c),
				XValues: x,
				YValues: detr[c],
			})
		}
	}

	mmFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.1f")
	}
	graph := chart.Chart{
		Title:  fmt.Sprintf("%s / %s displacement", opts.ChartStation, opts.ChartFrame),
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Displacement (mm)",
			ValueFormatter: mmFormatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := ensureDir(opts.ChartPNG); err != nil {
		return err
	}
	file, err := os.Create(opts.ChartPNG)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func downsampleRecords(records []analysis.Record, max int) []analysis.Record {
	if max <= 0 || len(records) <= max {
		return records
	}
	result := make([]analysis.Record, 0, max)
	step := float64(len(records)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(records) {
			idx = len(records) - 1
		}
		result = append(result, records[idx])
	}
	return result
}
