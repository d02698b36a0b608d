package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"deform-watch/internal/analysis"
	"deform-watch/internal/service"
	"deform-watch/internal/storage"
)

// Analyze runs one closed-batch analysis and writes the wide/long views.
func (a *App) Analyze(ctx context.Context, opts AnalyzeOptions) error {
	doOffsets, doDetrend, doOutliers, err := resolveAnalyses(opts.Analyses)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := service.New(a.Config, store, a.newNotifier(), a.Logger)

	summary, err := svc.Run(ctx, service.RunOptions{
		Filter: storage.QueryFilter{
			Stations: opts.Stations,
			Frames:   opts.Frames,
			From:     opts.From,
			To:       opts.To,
		},
		DoOffsets:        doOffsets,
		DoDetrend:        doDetrend,
		DoOutliers:       doOutliers,
		ApplyDeformation: opts.ApplyDeformation,
	})
	if err != nil {
		if errors.Is(err, analysis.ErrNoData) {
			a.Logger.Warn().Msg("no epochs matched the run filters")
			fmt.Fprintln(os.Stdout, "No epochs found for the given filters.")
			return nil
		}
		return err
	}

	widePath := opts.WideCSV
	if widePath == "" {
		widePath = filepath.Join(a.Config.Export.OutputDir, "time_series_analysis.csv")
	}
	longPath := opts.LongCSV
	if longPath == "" {
		longPath = filepath.Join(a.Config.Export.OutputDir, "time_series_long.csv")
	}

	wide := summary.Result.WideRecords()
	if err := writeWideCSV(widePath, wide); err != nil {
		return err
	}
	if err := writeLongCSV(longPath, summary.Result.LongRows()); err != nil {
		return err
	}

	a.Logger.Info().
		Str("wide", widePath).
		Str("long", longPath).
		Int("records", len(wide)).
		Msg("analysis products written")

	fmt.Fprintf(os.Stdout, "Epochs analysed : %d\n", summary.Epochs)
	fmt.Fprintf(os.Stdout, "Groups          : %d (%d failed)\n",
		len(summary.Result.Groups), len(summary.Result.Errors))
	fmt.Fprintf(os.Stdout, "Records (wide)  : %d\n", len(wide))
	fmt.Fprintf(os.Stdout, "Alerts          : %d\n", len(summary.Alerts))
	fmt.Fprintf(os.Stdout, "Outputs         : %s, %s\n", widePath, longPath)
	return nil
}

func resolveAnalyses(selected []string) (offsets, detrend, outliers bool, err error) {
	if len(selected) == 0 {
		return true, true, true, nil
	}
	for _, name := range selected {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "all":
			offsets, detrend, outliers = true, true, true
		case "offsets":
			offsets = true
		case "detrend":
			detrend = true
		case "outliers":
			outliers = true
		case "":
		default:
			return false, false, false, fmt.Errorf("unknown analysis %q (want offsets, detrend, outliers, or all)", name)
		}
	}
	return offsets, detrend, outliers, nil
}

func writeWideCSV(path string, records []analysis.Record) error {
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

	header := []string{
		"station", "date", "reference_frame",
		"x", "y", "z", "n", "e", "u",
		"cn", "ce", "cu", "dn", "de", "du", "on", "oe", "ou",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := []string{
			rec.Station,
			rec.Date.Format("2006-01-02"),
			rec.Frame,
			formatFloat(rec.X), formatFloat(rec.Y), formatFloat(rec.Z),
			formatFloat(rec.N), formatFloat(rec.E), formatFloat(rec.U),
			formatNullFloat(rec.CN), formatNullFloat(rec.CE), formatNullFloat(rec.CU),
			formatNullFloat(rec.DN), formatNullFloat(rec.DE), formatNullFloat(rec.DU),
			formatNullInt(rec.ON), formatNullInt(rec.OE), formatNullInt(rec.OU),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return writer.Error()
}

func writeLongCSV(path string, rows []analysis.LongRow) error {
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

	header := []string{"station", "date", "reference_frame", "set", "component", "value_mm"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.Station,
			row.Date.Format("2006-01-02"),
			row.Frame,
			string(row.Set),
			string(row.Component),
			formatFloat(row.Value),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatNullFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatNullInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
