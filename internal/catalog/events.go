// Package catalog loads the run metadata: the step-discontinuity event
// catalog and the per-station reference models. Entries are parsed strictly;
// a malformed entry is skipped and reported, never silently zeroed, and never
// aborts the load.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"deform-watch/internal/analysis"
)

// EntryError records one skipped catalog entry.
type EntryError struct {
	File   string
	Entry  string // index or station identifying the entry
	Reason string
}

func (e EntryError) Error() string {
	return fmt.Sprintf("%s: entry %s: %s", e.File, e.Entry, e.Reason)
}

type eventsFile struct {
	Events []eventEntry `yaml:"events"`
}

type eventEntry struct {
	Flag    *string            `yaml:"flag"`
	Date    *string            `yaml:"date"`
	Station *string            `yaml:"station"`
	Offsets map[string]float64 `yaml:"offsets"`
}

// LoadEvents reads the event catalog. The returned events are sorted
// ascending by date; magnitudes are millimetres. Malformed entries appear in
// the second return value.
func LoadEvents(path string, logger zerolog.Logger) ([]analysis.Event, []EntryError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read events catalog: %w", err)
	}

	var file eventsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("parse events catalog: %w", err)
	}

	var events []analysis.Event
	var skipped []EntryError
	for i, entry := range file.Events {
		ev, reason := parseEventEntry(entry)
		if reason != "" {
			skipped = append(skipped, EntryError{File: path, Entry: fmt.Sprintf("#%d", i), Reason: reason})
			continue
		}
		events = append(events, ev)
	}

	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })

	logger.Info().
		Str("file", path).
		Int("events", len(events)).
		Int("skipped", len(skipped)).
		Msg("event catalog loaded")
	return events, skipped, nil
}

func parseEventEntry(entry eventEntry) (analysis.Event, string) {
	if entry.Flag == nil {
		return analysis.Event{}, "missing required key: flag"
	}
	flag, err := analysis.ParseFlag(*entry.Flag)
	if err != nil {
		return analysis.Event{}, err.Error()
	}

	if entry.Date == nil || strings.TrimSpace(*entry.Date) == "" {
		return analysis.Event{}, "missing required key: date"
	}
	date, err := ParseDate(strings.Fields(*entry.Date)[0])
	if err != nil {
		return analysis.Event{}, err.Error()
	}

	if entry.Station == nil || strings.TrimSpace(*entry.Station) == "" {
		return analysis.Event{}, "missing required key: station"
	}
	station := strings.ToUpper(strings.TrimSpace(*entry.Station))

	if len(entry.Offsets) == 0 {
		return analysis.Event{}, "missing required key: offsets"
	}
	ev := analysis.Event{Flag: flag, Date: analysis.Day(date), Station: station}
	for k, v := range entry.Offsets {
		switch strings.ToUpper(k) {
		case "N":
			ev.N = v
		case "E":
			ev.E = v
		case "U":
			ev.U = v
		default:
			return analysis.Event{}, fmt.Sprintf("unknown offsets key %q", k)
		}
	}
	return ev, ""
}
