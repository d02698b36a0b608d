package analysis

import "time"

// GroupComputation carries the three independently-produced per-date maps for
// one (station, frame) group. A nil map means the computation was skipped for
// the whole group; a date missing from a non-nil map means the value was not
// computed for that date. Neither is ever coerced to zero.
type GroupComputation struct {
	Offsets   map[time.Time]Offset
	Detrended map[Component]map[time.Time]float64
	Flags     map[Component]map[time.Time]int
}

// GroupResult is the assembled output of one group: the wide view, one
// Record per epoch date, sorted ascending.
type GroupResult struct {
	Key     GroupKey
	Records []Record
}

// Assemble aligns the computations with the group's epochs into one Record
// per date. epochs must be sorted ascending by date.
func Assemble(key GroupKey, epochs []Epoch, comp GroupComputation) GroupResult {
	records := make([]Record, 0, len(epochs))
	for _, ep := range epochs {
		day := Day(ep.Date)
		rec := Record{
			Station: key.Station,
			Date:    day,
			Frame:   key.Frame,
			X:       ep.X, Y: ep.Y, Z: ep.Z,
			N: ep.N, E: ep.E, U: ep.U,
		}
		if comp.Offsets != nil {
			if off, ok := comp.Offsets[day]; ok {
				rec.CN, rec.CE, rec.CU = ptrFloat(off.CN), ptrFloat(off.CE), ptrFloat(off.CU)
			}
		}
		rec.DN = lookupFloat(comp.Detrended, North, day)
		rec.DE = lookupFloat(comp.Detrended, East, day)
		rec.DU = lookupFloat(comp.Detrended, Up, day)
		rec.ON = lookupInt(comp.Flags, North, day)
		rec.OE = lookupInt(comp.Flags, East, day)
		rec.OU = lookupInt(comp.Flags, Up, day)
		records = append(records, rec)
	}
	return GroupResult{Key: key, Records: records}
}

// LongRows derives the long (tidy) view from the assembled records: one row
// per non-null (date, series, component) value. No recomputation happens
// here; the rows mirror the wide view exactly.
func (g GroupResult) LongRows() []LongRow {
	rows := make([]LongRow, 0, len(g.Records)*3)
	for _, rec := range g.Records {
		rows = append(rows,
			LongRow{g.Key.Station, rec.Date, g.Key.Frame, SeriesRaw, North, rec.N},
			LongRow{g.Key.Station, rec.Date, g.Key.Frame, SeriesRaw, East, rec.E},
			LongRow{g.Key.Station, rec.Date, g.Key.Frame, SeriesRaw, Up, rec.U},
		)
		for _, dv := range []struct {
			c Component
			v *float64
		}{{North, rec.DN}, {East, rec.DE}, {Up, rec.DU}} {
			if dv.v != nil {
				rows = append(rows, LongRow{g.Key.Station, rec.Date, g.Key.Frame, SeriesDetrended, dv.c, *dv.v})
			}
		}
	}
	return rows
}

func lookupFloat(m map[Component]map[time.Time]float64, c Component, day time.Time) *float64 {
	if m == nil || m[c] == nil {
		return nil
	}
	if v, ok := m[c][day]; ok {
		return ptrFloat(v)
	}
	return nil
}

func lookupInt(m map[Component]map[time.Time]int, c Component, day time.Time) *int {
	if m == nil || m[c] == nil {
		return nil
	}
	if v, ok := m[c][day]; ok {
		return ptrInt(v)
	}
	return nil
}
