package analysis

import (
	"fmt"
	"time"
)

const daysPerYear = 365.25

func yearsBetween(t0, t time.Time) float64 {
	return t.Sub(t0).Hours() / 24 / daysPerYear
}

func daysSince(t0, t time.Time) float64 {
	return t.Sub(t0).Hours() / 24
}

// DetrendVelocity removes a secular rate (mm/yr) and applies a constant
// correction (mm). The reference epoch t0 is the first sample date, so the
// first detrended value equals raw + constant.
func DetrendVelocity(dates []time.Time, values []float64, rateMMYr, constMM float64) []float64 {
	if len(dates) == 0 {
		return nil
	}
	t0 := Day(dates[0])
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v - rateMMYr*yearsBetween(t0, Day(dates[i])) + constMM
	}
	return out
}

// DetrendWindowSlope stabilises the series against a reference window: the
// OLS slope over samples inside [start, end] is removed from the entire
// series, which is then shifted so the window's own mean is zero.
//
// applied is false when the window holds fewer than two samples; the returned
// series is then a value-identical copy of the input (pass-through), which is
// distinguishable from a detrend applied with zero slope.
func DetrendWindowSlope(dates []time.Time, values []float64, start, end time.Time) (out []float64, applied bool) {
	out = make([]float64, len(values))
	copy(out, values)
	if len(dates) == 0 {
		return out, false
	}

	start, end = Day(start), Day(end)
	var xw, yw []float64
	for i, d := range dates {
		day := Day(d)
		if !day.Before(start) && !day.After(end) {
			xw = append(xw, daysSince(start, day))
			yw = append(yw, values[i])
		}
	}
	if len(xw) < 2 {
		return out, false
	}

	slope, _ := olsLine(xw, yw)
	for i, d := range dates {
		out[i] = values[i] - slope*daysSince(start, Day(d))
	}

	// Recenter on the adjusted window mean.
	var sum float64
	var n int
	for i, d := range dates {
		day := Day(d)
		if !day.Before(start) && !day.After(end) {
			sum += out[i]
			n++
		}
	}
	mean := sum / float64(n)
	for i := range out {
		out[i] -= mean
	}
	return out, true
}

// olsLine fits y = slope*x + intercept by ordinary least squares using the
// closed-form sums. A zero denominator yields slope 0.
func olsLine(x, y []float64) (slope, intercept float64) {
	n := float64(len(x))
	if len(x) < 2 {
		return 0, 0
	}
	var sx, sy, sxx, sxy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
		sxx += x[i] * x[i]
		sxy += x[i] * y[i]
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0, sy / n
	}
	slope = (n*sxy - sx*sy) / den
	intercept = (sy - slope*sx) / n
	return slope, intercept
}

// DetrendSeries applies the model's strategy to one component series. The
// switch over ModelKind is exhaustive; an unrecognised kind is a per-group
// error, never a silent zero-trend.
func DetrendSeries(dates []time.Time, values []float64, model ReferenceModel, comp Component) ([]float64, error) {
	switch model.Kind {
	case ModelVelocity:
		rate, constant := model.Velocity(comp)
		return DetrendVelocity(dates, values, rate, constant), nil
	case ModelWindowSlope:
		out, _ := DetrendWindowSlope(dates, values, model.WindowStart, model.WindowEnd)
		return out, nil
	default:
		return nil, fmt.Errorf("reference model kind %d not supported", model.Kind)
	}
}
