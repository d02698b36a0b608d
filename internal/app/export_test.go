package app

import (
	"path/filepath"
	"testing"
	"time"

	"deform-watch/internal/analysis"
)

func TestDownsampleRecords(t *testing.T) {
	records := make([]analysis.Record, 100)
	for i := range records {
		records[i].Date = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
	}

	out := downsampleRecords(records, 10)
	if len(out) != 10 {
		t.Fatalf("downsampled length = %d, want 10", len(out))
	}
	if !out[0].Date.Equal(records[0].Date) || !out[9].Date.Equal(records[99].Date) {
		t.Fatal("endpoints must survive downsampling")
	}
	for i := 1; i < len(out); i++ {
		if !out[i-1].Date.Before(out[i].Date) {
			t.Fatalf("order lost at %d", i)
		}
	}

	if got := downsampleRecords(records, 200); len(got) != 100 {
		t.Fatalf("small series should pass through, got %d", len(got))
	}
	if got := downsampleRecords(records, 0); len(got) != 100 {
		t.Fatalf("zero max should pass through, got %d", len(got))
	}
}

func TestWriteGeoSnapshotCSVLatestPerGroup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geo.csv")

	epochs := []analysis.Epoch{
		{Station: "PDEL", Frame: "ITRF2014", Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), X: 6378137.0, N: 1},
		{Station: "PDEL", Frame: "ITRF2014", Date: time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC), X: 6378137.0, N: 2},
		{Station: "ANWP", Frame: "ITRF2014", Date: time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), Y: 6378137.0, N: 3},
	}

	if err := writeGeoSnapshotCSV(path, epochs); err != nil {
		t.Fatalf("write: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2 groups", len(rows))
	}
	for _, row := range rows[1:] {
		if row[0] == "PDEL" && row[2] != "2023-01-09" {
			t.Fatalf("PDEL snapshot should be the newest epoch: %v", row)
		}
	}
}
