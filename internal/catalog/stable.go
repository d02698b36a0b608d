package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"deform-watch/internal/analysis"
)

type stableFile struct {
	Stations map[string]stableEntry `yaml:"stations"`
}

type stableEntry struct {
	Method          *string            `yaml:"method"`
	Velocities      map[string]float64 `yaml:"velocities"`
	Corrections     map[string]float64 `yaml:"corrections"`
	ReferenceWindow *windowEntry       `yaml:"reference_window"`
}

type windowEntry struct {
	Start *string `yaml:"start"`
	End   *string `yaml:"end"`
}

// LoadReferenceModels reads the per-station detrend configuration. Stations
// with malformed entries are skipped and reported; a station absent from the
// result has no model, which downstream means "detrend not computed".
func LoadReferenceModels(path string, logger zerolog.Logger) (map[string]analysis.ReferenceModel, []EntryError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read reference models: %w", err)
	}

	var file stableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("parse reference models: %w", err)
	}

	models := make(map[string]analysis.ReferenceModel, len(file.Stations))
	var skipped []EntryError
	for station, entry := range file.Stations {
		station = strings.ToUpper(strings.TrimSpace(station))
		model, reason := parseStableEntry(entry)
		if reason != "" {
			skipped = append(skipped, EntryError{File: path, Entry: station, Reason: reason})
			continue
		}
		models[station] = model
	}

	logger.Info().
		Str("file", path).
		Int("stations", len(models)).
		Int("skipped", len(skipped)).
		Msg("reference models loaded")
	return models, skipped, nil
}

func parseStableEntry(entry stableEntry) (analysis.ReferenceModel, string) {
	if entry.Method == nil {
		return analysis.ReferenceModel{}, "missing required key: method"
	}

	switch strings.ToUpper(strings.TrimSpace(*entry.Method)) {
	case "M1", "VELOCITY":
		return parseVelocityEntry(entry)
	case "M2", "WINDOW-SLOPE", "WINDOW_SLOPE":
		return parseWindowEntry(entry)
	default:
		return analysis.ReferenceModel{}, fmt.Sprintf("unknown method %q", *entry.Method)
	}
}

func parseVelocityEntry(entry stableEntry) (analysis.ReferenceModel, string) {
	if len(entry.Velocities) == 0 {
		return analysis.ReferenceModel{}, "velocity model requires a velocities block"
	}
	model := analysis.ReferenceModel{Kind: analysis.ModelVelocity}
	for k, v := range entry.Velocities {
		switch strings.ToUpper(k) {
		case "N":
			model.VN = v
		case "E":
			model.VE = v
		case "U":
			model.VU = v
		default:
			return analysis.ReferenceModel{}, fmt.Sprintf("unknown velocities key %q", k)
		}
	}
	// Constant corrections default to zero when the block is absent.
	for k, v := range entry.Corrections {
		switch strings.ToUpper(k) {
		case "CN":
			model.CN = v
		case "CE":
			model.CE = v
		case "CU":
			model.CU = v
		default:
			return analysis.ReferenceModel{}, fmt.Sprintf("unknown corrections key %q", k)
		}
	}
	return model, ""
}

func parseWindowEntry(entry stableEntry) (analysis.ReferenceModel, string) {
	w := entry.ReferenceWindow
	if w == nil || w.Start == nil || w.End == nil {
		return analysis.ReferenceModel{}, "window-slope model requires reference_window start and end"
	}
	start, err := ParseDate(strings.TrimSpace(*w.Start))
	if err != nil {
		return analysis.ReferenceModel{}, fmt.Sprintf("reference_window start: %v", err)
	}
	end, err := ParseDate(strings.TrimSpace(*w.End))
	if err != nil {
		return analysis.ReferenceModel{}, fmt.Sprintf("reference_window end: %v", err)
	}
	if end.Before(start) {
		return analysis.ReferenceModel{}, "reference_window end precedes start"
	}
	return analysis.ReferenceModel{
		Kind:        analysis.ModelWindowSlope,
		WindowStart: analysis.Day(start),
		WindowEnd:   analysis.Day(end),
	}, ""
}
