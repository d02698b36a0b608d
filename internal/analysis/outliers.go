package analysis

import (
	"sort"
	"time"
)

// madScale maps MAD onto the standard deviation of a normal distribution.
const madScale = 0.6745

// FlagOutliers scores one component series with a robust z (MAD) statistic
// and returns a 0/1 flag per sample. Nil samples always flag 0. When fewer
// than minSamples values are present, or the series is degenerate (MAD zero),
// no meaningful score exists and every flag is 0. Deterministic for a given
// input and threshold.
func FlagOutliers(values []*float64, threshold float64, minSamples int) []int {
	flags := make([]int, len(values))

	present := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			present = append(present, *v)
		}
	}
	if len(present) < minSamples {
		return flags
	}

	med := upperMedian(present)
	dev := make([]float64, len(present))
	for i, v := range present {
		dev[i] = abs(v - med)
	}
	mad := upperMedian(dev)
	if mad == 0 {
		return flags
	}

	for i, v := range values {
		if v == nil {
			continue
		}
		if madScale*abs(*v-med)/mad > threshold {
			flags[i] = 1
		}
	}
	return flags
}

// upperMedian is the sorted middle element (upper of the two for even n),
// matching the estimator used throughout the displacement products.
func upperMedian(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2]
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// DetectionInput chooses the per-date series outliers are scored on:
// detrended values take precedence where present, raw values fill the rest.
// A nil detrended map designates the raw series outright.
func DetectionInput(dates []time.Time, raw []float64, detrended map[time.Time]float64) []*float64 {
	out := make([]*float64, len(dates))
	for i := range dates {
		if detrended != nil {
			if v, ok := detrended[Day(dates[i])]; ok {
				out[i] = ptrFloat(v)
				continue
			}
		}
		out[i] = ptrFloat(raw[i])
	}
	return out
}
