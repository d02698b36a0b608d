package analysis

import "time"

// Offset is the cumulative step correction at a date, millimetres.
type Offset struct {
	CN, CE, CU float64
}

// CumulativeOffsets produces the cumulative event correction for every date
// in the series. dates must be sorted ascending and events sorted ascending
// by date; both are left unmodified. Only events whose flag is in allowed and
// whose target matches the station (or the wildcard) contribute. Events dated
// after the last sample never appear; events dated before the first sample
// are included in full from the first date on.
//
// Single forward sweep with an event cursor, O(len(events)+len(dates)).
func CumulativeOffsets(dates []time.Time, events []Event, station string, allowed FlagSet) map[time.Time]Offset {
	out := make(map[time.Time]Offset, len(dates))

	applicable := events[:0:0]
	for _, ev := range events {
		if allowed[ev.Flag] && ev.Applies(station) {
			applicable = append(applicable, ev)
		}
	}

	var cum Offset
	idx := 0
	for _, d := range dates {
		day := Day(d)
		for idx < len(applicable) && !Day(applicable[idx].Date).After(day) {
			cum.CN += applicable[idx].N
			cum.CE += applicable[idx].E
			cum.CU += applicable[idx].U
			idx++
		}
		out[day] = cum
	}
	return out
}
