package analysis

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNoData indicates the run received no epochs at all.
var ErrNoData = errors.New("analysis: no epochs matched the run filters")

// Component enumerates the local displacement axes.
type Component string

const (
	North Component = "N"
	East  Component = "E"
	Up    Component = "U"
)

// Components lists the axes in canonical order.
var Components = []Component{North, East, Up}

// Epoch is one dated position observation for a station in a reference frame.
// X/Y/Z are ECEF metres; N/E/U are local displacements in millimetres
// relative to the per-station/frame origin. Epochs are read-only inputs.
type Epoch struct {
	Station string
	Date    time.Time
	Frame   string
	X, Y, Z float64
	N, E, U float64
}

// Value returns the raw displacement of one component in millimetres.
func (ep Epoch) Value(c Component) float64 {
	switch c {
	case North:
		return ep.N
	case East:
		return ep.E
	default:
		return ep.U
	}
}

// GroupKey identifies an independent (station, reference frame) series.
type GroupKey struct {
	Station string
	Frame   string
}

func (k GroupKey) String() string {
	return k.Station + "/" + k.Frame
}

// Flag tags the kind of step discontinuity an event introduces.
type Flag string

const (
	FlagEarthquake  Flag = "E"
	FlagDeformation Flag = "D"
	FlagOther       Flag = "R"
)

// ParseFlag maps catalog spellings onto the canonical flag tags.
func ParseFlag(s string) (Flag, error) {
	switch s {
	case "E", "e", "earthquake":
		return FlagEarthquake, nil
	case "D", "d", "deformation":
		return FlagDeformation, nil
	case "R", "r", "other":
		return FlagOther, nil
	}
	return "", fmt.Errorf("unknown event flag %q", s)
}

// FlagSet is the set of event flags a run accumulates into offsets.
type FlagSet map[Flag]bool

// DefaultFlags returns the step flags applied by default. Deformation events
// are opt-in.
func DefaultFlags(includeDeformation bool) FlagSet {
	fs := FlagSet{FlagEarthquake: true, FlagOther: true}
	if includeDeformation {
		fs[FlagDeformation] = true
	}
	return fs
}

// TargetAll is the wildcard station target for catalog events.
const TargetAll = "ALL"

// Event is one step discontinuity: an abrupt offset applied to every epoch at
// or after its date. Magnitudes are millimetres.
type Event struct {
	Flag    Flag
	Date    time.Time
	Station string // station code or TargetAll
	N, E, U float64
}

// Applies reports whether the event targets the given station.
func (ev Event) Applies(station string) bool {
	return ev.Station == TargetAll || ev.Station == station
}

// ModelKind discriminates the ReferenceModel variants.
type ModelKind int

const (
	// ModelVelocity removes a secular rate plus constant correction.
	ModelVelocity ModelKind = iota
	// ModelWindowSlope stabilises the series against a reference window.
	ModelWindowSlope
)

// ReferenceModel is the per-station detrend configuration. Exactly one
// variant is populated, selected by Kind. Absence of a model for a station
// means detrending is unavailable there, which is distinct from a zero trend.
type ReferenceModel struct {
	Kind ModelKind

	// Velocity variant: secular rates in mm/yr and constant corrections in mm.
	VN, VE, VU float64
	CN, CE, CU float64

	// Window-slope variant: inclusive reference window.
	WindowStart time.Time
	WindowEnd   time.Time
}

// Velocity returns the secular rate and constant correction for a component.
func (m ReferenceModel) Velocity(c Component) (rate, constant float64) {
	switch c {
	case North:
		return m.VN, m.CN
	case East:
		return m.VE, m.CE
	default:
		return m.VU, m.CU
	}
}

// Record is the assembled per-epoch analysis result. Pointer fields are nil
// when the corresponding computation did not produce a value for the date;
// nil is never interchangeable with a computed zero.
type Record struct {
	Station string
	Date    time.Time
	Frame   string

	X, Y, Z float64
	N, E, U float64

	CN, CE, CU *float64
	DN, DE, DU *float64
	ON, OE, OU *int
}

// SeriesTag labels the value family of a long-view row.
type SeriesTag string

const (
	SeriesRaw       SeriesTag = "raw"
	SeriesDetrended SeriesTag = "detrended"
)

// LongRow is one row of the long (tidy) view: a single non-null component
// value of one series family.
type LongRow struct {
	Station   string
	Date      time.Time
	Frame     string
	Set       SeriesTag
	Component Component
	Value     float64
}

// Day normalises a timestamp to its UTC calendar date. All engine maps are
// keyed by Day output so epochs, events, and windows compare correctly.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// GroupEpochs splits epochs into independent (station, frame) groups, each
// sorted ascending by date.
func GroupEpochs(epochs []Epoch) map[GroupKey][]Epoch {
	groups := make(map[GroupKey][]Epoch)
	for _, ep := range epochs {
		key := GroupKey{Station: ep.Station, Frame: ep.Frame}
		ep.Date = Day(ep.Date)
		groups[key] = append(groups[key], ep)
	}
	for key := range groups {
		sort.Slice(groups[key], func(i, j int) bool {
			return groups[key][i].Date.Before(groups[key][j].Date)
		})
	}
	return groups
}

func ptrFloat(v float64) *float64 { return &v }

func ptrInt(v int) *int { return &v }
