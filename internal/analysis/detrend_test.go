package analysis

import (
	"math"
	"testing"
	"time"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDetrendVelocityZeroRateAppliesConstant(t *testing.T) {
	dates := dateRange(day(2020, 1, 1), 3)
	values := []float64{1, 2, 3}

	out := DetrendVelocity(dates, values, 0, 5)

	for i, v := range out {
		if !almostEqual(v, values[i]+5) {
			t.Fatalf("sample %d: got %v, want %v", i, v, values[i]+5)
		}
	}
}

func TestDetrendVelocityRemovesSecularRate(t *testing.T) {
	t0 := day(2020, 1, 1)
	dates := []time.Time{t0, t0.AddDate(0, 0, 365), t0.AddDate(0, 0, 731)}
	values := []float64{0, 10 * 365.0 / 365.25, 10 * 731.0 / 365.25}

	out := DetrendVelocity(dates, values, 10, 0)

	for i, v := range out {
		if math.Abs(v) > 1e-6 {
			t.Fatalf("sample %d: residual %v, want ~0", i, v)
		}
	}
}

func TestDetrendVelocityFirstSampleIsReference(t *testing.T) {
	dates := dateRange(day(2021, 7, 1), 4)
	values := []float64{13, 14, 15, 16}

	out := DetrendVelocity(dates, values, 3.5, 2)

	if !almostEqual(out[0], values[0]+2) {
		t.Fatalf("detrended first sample = %v, want raw+constant = %v", out[0], values[0]+2)
	}
}

func TestDetrendWindowSlopeRemovesTrendAndRecenters(t *testing.T) {
	dates := dateRange(day(2020, 1, 1), 20)
	values := make([]float64, len(dates))
	for i := range values {
		values[i] = 100 + 0.5*float64(i) // linear trend, offset 100
	}

	start, end := dates[0], dates[9]
	out, applied := DetrendWindowSlope(dates, values, start, end)
	if !applied {
		t.Fatal("window with 10 samples should apply")
	}

	// Window residual mean must be zero after recentring.
	var sum float64
	for i := 0; i < 10; i++ {
		sum += out[i]
	}
	if math.Abs(sum/10) > 1e-9 {
		t.Fatalf("window mean after recentring = %v, want 0", sum/10)
	}

	// The trend is removed from the whole series, window included or not.
	for i, v := range out {
		if math.Abs(v) > 1e-9 {
			t.Fatalf("sample %d: residual %v, want ~0", i, v)
		}
	}
}

func TestDetrendWindowSlopeSparseWindowPassThrough(t *testing.T) {
	dates := dateRange(day(2020, 1, 1), 5)
	values := []float64{1, 2, 3, 4, 5}

	// Window covers only one sample.
	out, applied := DetrendWindowSlope(dates, values, dates[2], dates[2])
	if applied {
		t.Fatal("single-sample window must not apply")
	}
	for i, v := range out {
		if v != values[i] {
			t.Fatalf("pass-through altered sample %d: %v != %v", i, v, values[i])
		}
	}

	// Window entirely outside the series behaves the same.
	out, applied = DetrendWindowSlope(dates, values, day(1990, 1, 1), day(1990, 1, 2))
	if applied {
		t.Fatal("empty window must not apply")
	}
	for i, v := range out {
		if v != values[i] {
			t.Fatalf("pass-through altered sample %d: %v != %v", i, v, values[i])
		}
	}
}

func TestOLSLineDegenerate(t *testing.T) {
	// Identical x-values give a zero denominator; expect zero slope and the
	// mean as intercept.
	slope, intercept := olsLine([]float64{2, 2, 2}, []float64{1, 2, 3})
	if slope != 0 {
		t.Fatalf("slope = %v, want 0", slope)
	}
	if !almostEqual(intercept, 2) {
		t.Fatalf("intercept = %v, want 2", intercept)
	}
}

func TestDetrendSeriesUnknownKind(t *testing.T) {
	dates := dateRange(day(2020, 1, 1), 3)
	model := ReferenceModel{Kind: ModelKind(99)}

	if _, err := DetrendSeries(dates, []float64{1, 2, 3}, model, North); err == nil {
		t.Fatal("unknown model kind must return an error")
	}
}

func TestDetrendSeriesVelocityVariantPerComponent(t *testing.T) {
	dates := dateRange(day(2020, 1, 1), 2)
	model := ReferenceModel{Kind: ModelVelocity, VN: 0, VE: 0, VU: 0, CN: 1, CE: 2, CU: 3}

	for i, tc := range []struct {
		comp Component
		want float64
	}{{North, 1}, {East, 2}, {Up, 3}} {
		out, err := DetrendSeries(dates, []float64{0, 0}, model, tc.comp)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if !almostEqual(out[0], tc.want) {
			t.Fatalf("component %s: got %v, want %v", tc.comp, out[0], tc.want)
		}
	}
}
