package analysis

import (
	"testing"
	"time"
)

func ptrs(vals ...float64) []*float64 {
	out := make([]*float64, len(vals))
	for i := range vals {
		out[i] = &vals[i]
	}
	return out
}

func TestFlagOutliersSpike(t *testing.T) {
	values := ptrs(0, 1, 2, 3, 4, 100, 5, 6, 7, 8)

	flags := FlagOutliers(values, 3.5, 5)

	for i, f := range flags {
		want := 0
		if i == 5 {
			want = 1
		}
		if f != want {
			t.Fatalf("sample %d: flag %d, want %d", i, f, want)
		}
	}
}

func TestFlagOutliersConstantSeries(t *testing.T) {
	values := ptrs(7, 7, 7, 7, 7, 7)

	flags := FlagOutliers(values, 3.5, 5)
	for i, f := range flags {
		if f != 0 {
			t.Fatalf("constant series flagged at %d", i)
		}
	}
}

func TestFlagOutliersTooFewSamples(t *testing.T) {
	values := ptrs(0, 0, 0, 1000)

	flags := FlagOutliers(values, 3.5, 5)
	for i, f := range flags {
		if f != 0 {
			t.Fatalf("series below the sample minimum flagged at %d", i)
		}
	}
}

func TestFlagOutliersNilSamples(t *testing.T) {
	values := ptrs(0, 1, 2, 3, 4, 100, 5, 6, 7, 8)
	values[3] = nil

	flags := FlagOutliers(values, 3.5, 5)

	if flags[3] != 0 {
		t.Fatal("nil sample must never flag")
	}
	if flags[5] != 1 {
		t.Fatal("spike should still flag with a nil sample present")
	}
}

func TestFlagOutliersDeterministic(t *testing.T) {
	values := ptrs(3, -2, 8, 1, 0, 55, 2, -1)

	first := FlagOutliers(values, 3.5, 5)
	second := FlagOutliers(values, 3.5, 5)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("flags differ between runs at %d", i)
		}
	}
}

func TestFlagOutliersThresholdTightens(t *testing.T) {
	values := ptrs(0, 1, 2, 3, 4, 20, 5, 6, 7, 8)

	loose := FlagOutliers(values, 4.0, 5)
	tight := FlagOutliers(values, 3.0, 5)

	for i := range loose {
		if loose[i] == 1 && tight[i] == 0 {
			t.Fatalf("sample %d flagged at 4.0 but not at 3.0", i)
		}
	}
}

func TestUpperMedian(t *testing.T) {
	if got := upperMedian([]float64{3, 1, 2}); got != 2 {
		t.Fatalf("odd-length median = %v, want 2", got)
	}
	if got := upperMedian([]float64{4, 1, 3, 2}); got != 3 {
		t.Fatalf("even-length upper median = %v, want 3", got)
	}
}

func TestDetectionInputPrefersDetrended(t *testing.T) {
	dates := dateRange(day(2020, 1, 1), 3)
	raw := []float64{1, 2, 3}
	detrended := map[time.Time]float64{
		dates[0]: 10,
		dates[2]: 30,
	}

	values := DetectionInput(dates, raw, detrended)

	want := []float64{10, 2, 30} // detrended where present, raw elsewhere
	for i, v := range values {
		if v == nil {
			t.Fatalf("sample %d: unexpected nil", i)
		}
		if *v != want[i] {
			t.Fatalf("sample %d: got %v, want %v", i, *v, want[i])
		}
	}
}

func TestDetectionInputRawFallback(t *testing.T) {
	dates := dateRange(day(2020, 1, 1), 2)
	raw := []float64{5, 6}

	values := DetectionInput(dates, raw, nil)
	for i, v := range values {
		if v == nil || *v != raw[i] {
			t.Fatalf("sample %d: got %v, want raw %v", i, v, raw[i])
		}
	}
}
