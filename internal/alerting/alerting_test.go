package alerting

import (
	"testing"
	"time"

	"deform-watch/internal/analysis"
)

func pf(v float64) *float64 { return &v }
func pi(v int) *int         { return &v }

func record(date time.Time, n, e, u float64) analysis.Record {
	return analysis.Record{Station: "PDEL", Frame: "ITRF2014", Date: date, N: n, E: e, U: u}
}

func group(records ...analysis.Record) analysis.GroupResult {
	return analysis.GroupResult{
		Key:     analysis.GroupKey{Station: "PDEL", Frame: "ITRF2014"},
		Records: records,
	}
}

func TestBreachesNewestRecordOnly(t *testing.T) {
	old := record(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 100, 0, 0)
	newest := record(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), 1, 1, 1)

	notes := Breaches([]analysis.GroupResult{group(old, newest)}, 20)
	if len(notes) != 0 {
		t.Fatalf("only the newest record counts, got %+v", notes)
	}
}

func TestBreachesMagnitudeAboveThreshold(t *testing.T) {
	rec := record(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), -25, 5, 30)

	notes := Breaches([]analysis.GroupResult{group(rec)}, 20)
	if len(notes) != 2 {
		t.Fatalf("notes = %+v, want N and U breaches", notes)
	}
	if notes[0].Component != analysis.North || notes[0].ValueMM != -25 {
		t.Fatalf("first note = %+v (signed value expected)", notes[0])
	}
	if notes[1].Component != analysis.Up || notes[1].ValueMM != 30 {
		t.Fatalf("second note = %+v", notes[1])
	}
}

func TestBreachesPrefersDetrended(t *testing.T) {
	rec := record(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), 100, 0, 0)
	rec.DN = pf(3) // model explains the raw excursion

	notes := Breaches([]analysis.GroupResult{group(rec)}, 20)
	if len(notes) != 0 {
		t.Fatalf("detrended value below threshold should not alert: %+v", notes)
	}
}

func TestBreachesOffsetCorrectedFallback(t *testing.T) {
	// A 50 mm step already catalogued as an event must not alert.
	rec := record(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), 50, 0, 0)
	rec.CN = pf(50)

	notes := Breaches([]analysis.GroupResult{group(rec)}, 20)
	if len(notes) != 0 {
		t.Fatalf("catalogued step should not alert: %+v", notes)
	}
}

func TestBreachesCarriesOutlierFlag(t *testing.T) {
	rec := record(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), 0, 40, 0)
	rec.OE = pi(1)

	notes := Breaches([]analysis.GroupResult{group(rec)}, 20)
	if len(notes) != 1 || !notes[0].Outlier {
		t.Fatalf("outlier flag lost: %+v", notes)
	}
}

func TestBreachesDisabledThreshold(t *testing.T) {
	rec := record(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), 1000, 1000, 1000)

	if notes := Breaches([]analysis.GroupResult{group(rec)}, 0); notes != nil {
		t.Fatalf("zero threshold disables alerting, got %+v", notes)
	}
}
