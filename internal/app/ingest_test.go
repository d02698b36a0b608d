package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePositions(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "positions.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write positions: %v", err)
	}
	return path
}

func TestReadPositionsCSV(t *testing.T) {
	path := writePositions(t, `station,date,x,y,z
pdel,2023-05-01,4433469.9,-2268735.1,3971622.2
anwp,2023121,4433470.0,-2268735.0,3971622.0
`)

	positions, err := readPositionsCSV(path, "ITRF2014")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("positions = %d, want 2", len(positions))
	}

	first := positions[0]
	if first.Station != "PDEL" {
		t.Fatalf("station should be upper-cased, got %q", first.Station)
	}
	if first.Frame != "ITRF2014" {
		t.Fatalf("default frame not applied: %q", first.Frame)
	}
	if !first.Date.Equal(time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("ISO date wrong: %v", first.Date)
	}
	if !positions[1].Date.Equal(time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("DOY date wrong: %v", positions[1].Date)
	}
}

func TestReadPositionsCSVFrameColumnWins(t *testing.T) {
	path := writePositions(t, `station,date,x,y,z,reference_frame
PDEL,2023-05-01,1,2,3,ETRF2000
`)

	positions, err := readPositionsCSV(path, "ITRF2014")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if positions[0].Frame != "ETRF2000" {
		t.Fatalf("frame column should win over the default, got %q", positions[0].Frame)
	}
}

func TestReadPositionsCSVMissingColumns(t *testing.T) {
	path := writePositions(t, `station,date,x,y
PDEL,2023-05-01,1,2
`)

	if _, err := readPositionsCSV(path, "ITRF2014"); err == nil {
		t.Fatal("missing z column should error")
	}
}

func TestReadPositionsCSVNoFrame(t *testing.T) {
	path := writePositions(t, `station,date,x,y,z
PDEL,2023-05-01,1,2,3
`)

	if _, err := readPositionsCSV(path, ""); err == nil {
		t.Fatal("row without any frame should error")
	}
}
