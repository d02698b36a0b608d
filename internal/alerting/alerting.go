// Package alerting evaluates assembled analysis results against a
// displacement threshold and routes breach notifications.
package alerting

import (
	"context"
	"time"

	"deform-watch/internal/analysis"
)

// Notification describes one displacement threshold breach at a station's
// newest epoch.
type Notification struct {
	Station     string
	Frame       string
	Date        time.Time
	Component   analysis.Component
	ValueMM     float64
	ThresholdMM float64
	Outlier     bool // the breaching epoch is itself flagged as an outlier
}

// Notifier dispatches breach notifications to a channel.
type Notifier interface {
	Notify(ctx context.Context, note Notification) error
}

// Breaches inspects the newest record of every group and reports components
// whose displacement magnitude exceeds thresholdMM. Detrended values are
// preferred; when a station has no reference model the offset-corrected raw
// value (raw − cumulative correction) is used instead, so a step already
// explained by the event catalog does not alert.
func Breaches(groups []analysis.GroupResult, thresholdMM float64) []Notification {
	if thresholdMM <= 0 {
		return nil
	}

	var notes []Notification
	for _, g := range groups {
		if len(g.Records) == 0 {
			continue
		}
		rec := g.Records[len(g.Records)-1]

		type axis struct {
			comp    analysis.Component
			raw     float64
			corr    *float64
			detr    *float64
			outlier *int
		}
		for _, a := range []axis{
			{analysis.North, rec.N, rec.CN, rec.DN, rec.ON},
			{analysis.East, rec.E, rec.CE, rec.DE, rec.OE},
			{analysis.Up, rec.U, rec.CU, rec.DU, rec.OU},
		} {
			value := a.raw
			if a.corr != nil {
				value -= *a.corr
			}
			if a.detr != nil {
				value = *a.detr
			}
			mag := value
			if mag < 0 {
				mag = -mag
			}
			if mag <= thresholdMM {
				continue
			}
			note := Notification{
				Station:     g.Key.Station,
				Frame:       g.Key.Frame,
				Date:        rec.Date,
				Component:   a.comp,
				ValueMM:     value,
				ThresholdMM: thresholdMM,
			}
			if a.outlier != nil && *a.outlier == 1 {
				note.Outlier = true
			}
			notes = append(notes, note)
		}
	}
	return notes
}
