package storage

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestBuildListQueryNoFilter(t *testing.T) {
	query, args := buildListQuery(QueryFilter{}, func(int) string { return "?" })
	if len(args) != 0 {
		t.Fatalf("args = %v, want none", args)
	}
	if !strings.Contains(query, "ORDER BY station, reference_frame, date") {
		t.Fatalf("ordering clause missing: %s", query)
	}
}

func TestBuildListQueryPostgresPlaceholders(t *testing.T) {
	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	filter := QueryFilter{
		Frames:   []string{"ITRF2014", "ETRF2000"},
		Stations: []string{"pdel"},
		From:     &from,
	}

	query, args := buildListQuery(filter, func(i int) string { return fmt.Sprintf("$%d", i+1) })

	if len(args) != 4 {
		t.Fatalf("args = %v, want 4", args)
	}
	for i := range args {
		mark := fmt.Sprintf("$%d", i+1)
		if !strings.Contains(query, mark) {
			t.Fatalf("placeholder %s missing: %s", mark, query)
		}
	}
	if args[2] != "PDEL" {
		t.Fatalf("station should be upper-cased, got %v", args[2])
	}
	if args[3] != "2023-01-01" {
		t.Fatalf("from bound = %v, want 2023-01-01", args[3])
	}
	if !strings.Contains(query, "date >= $4") {
		t.Fatalf("inclusive lower bound missing: %s", query)
	}
}
