package analysis

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Params tune one engine run. Zero values are not usable; use DefaultParams
// as the base.
type Params struct {
	DoOffsets  bool
	DoDetrend  bool
	DoOutliers bool

	// AllowedFlags restricts which event flags accumulate into offsets.
	AllowedFlags FlagSet

	// OutlierThreshold is the robust-z cutoff; OutlierMinSamples the minimum
	// number of non-null values a series needs before scoring.
	OutlierThreshold  float64
	OutlierMinSamples int

	// Workers bounds the number of groups processed concurrently.
	Workers int
}

// DefaultParams enables every analysis with the usual robust-statistics
// settings.
func DefaultParams() Params {
	return Params{
		DoOffsets:         true,
		DoDetrend:         true,
		DoOutliers:        true,
		AllowedFlags:      DefaultFlags(false),
		OutlierThreshold:  3.5,
		OutlierMinSamples: 5,
		Workers:           4,
	}
}

// GroupError records a failure confined to one (station, frame) group.
type GroupError struct {
	Key GroupKey
	Err error
}

// RunResult aggregates every group's assembled records plus the per-group
// failures that did not abort the run.
type RunResult struct {
	Groups []GroupResult
	Errors []GroupError
}

// WideRecords flattens the wide view across all groups.
func (r *RunResult) WideRecords() []Record {
	var out []Record
	for _, g := range r.Groups {
		out = append(out, g.Records...)
	}
	return out
}

// LongRows flattens the long view across all groups.
func (r *RunResult) LongRows() []LongRow {
	var out []LongRow
	for _, g := range r.Groups {
		out = append(out, g.LongRows()...)
	}
	return out
}

// Engine runs the offset, detrend, and outlier computations over a closed
// batch of epochs. Inputs are immutable for the run; (station, frame) groups
// share no mutable state and are processed in parallel.
type Engine struct {
	params Params
	logger zerolog.Logger
}

// NewEngine constructs an engine.
func NewEngine(params Params, logger zerolog.Logger) *Engine {
	if params.Workers <= 0 {
		params.Workers = 1
	}
	return &Engine{params: params, logger: logger.With().Str("component", "engine").Logger()}
}

// Run executes the analysis. events must be sorted ascending by date; models
// is keyed by station code. An empty epoch batch is the only terminating
// condition and surfaces as ErrNoData.
func (e *Engine) Run(ctx context.Context, epochs []Epoch, events []Event, models map[string]ReferenceModel) (*RunResult, error) {
	if len(epochs) == 0 {
		return nil, ErrNoData
	}

	groups := GroupEpochs(epochs)
	keys := make([]GroupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Station != keys[j].Station {
			return keys[i].Station < keys[j].Station
		}
		return keys[i].Frame < keys[j].Frame
	})

	result := &RunResult{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	jobs := make(chan GroupKey)
	workers := e.params.Workers
	if workers > len(keys) {
		workers = len(keys)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobs {
				group, err := e.processGroup(key, groups[key], events, models)
				mu.Lock()
				if err != nil {
					result.Errors = append(result.Errors, GroupError{Key: key, Err: err})
				} else {
					result.Groups = append(result.Groups, group)
				}
				mu.Unlock()
			}
		}()
	}

	for _, key := range keys {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- key:
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(result.Groups, func(i, j int) bool {
		a, b := result.Groups[i].Key, result.Groups[j].Key
		if a.Station != b.Station {
			return a.Station < b.Station
		}
		return a.Frame < b.Frame
	})
	sort.Slice(result.Errors, func(i, j int) bool {
		a, b := result.Errors[i].Key, result.Errors[j].Key
		if a.Station != b.Station {
			return a.Station < b.Station
		}
		return a.Frame < b.Frame
	})

	e.logger.Debug().
		Int("groups", len(result.Groups)).
		Int("failed", len(result.Errors)).
		Msg("engine run complete")

	return result, nil
}

func (e *Engine) processGroup(key GroupKey, epochs []Epoch, events []Event, models map[string]ReferenceModel) (GroupResult, error) {
	dates := make([]time.Time, len(epochs))
	raw := map[Component][]float64{}
	for _, c := range Components {
		raw[c] = make([]float64, len(epochs))
	}
	for i, ep := range epochs {
		dates[i] = Day(ep.Date)
		for _, c := range Components {
			raw[c][i] = ep.Value(c)
		}
	}

	var comp GroupComputation

	if e.params.DoOffsets {
		comp.Offsets = CumulativeOffsets(dates, events, key.Station, e.params.AllowedFlags)
	}

	if e.params.DoDetrend {
		if model, ok := models[key.Station]; ok {
			comp.Detrended = make(map[Component]map[time.Time]float64, len(Components))
			for _, c := range Components {
				values, err := DetrendSeries(dates, raw[c], model, c)
				if err != nil {
					return GroupResult{}, err
				}
				byDate := make(map[time.Time]float64, len(dates))
				for i, d := range dates {
					byDate[d] = values[i]
				}
				comp.Detrended[c] = byDate
			}
		}
		// No model: detrended stays nil ("not computed"), never zero.
	}

	if e.params.DoOutliers {
		comp.Flags = make(map[Component]map[time.Time]int, len(Components))
		for _, c := range Components {
			var detrended map[time.Time]float64
			if comp.Detrended != nil {
				detrended = comp.Detrended[c]
			}
			input := DetectionInput(dates, raw[c], detrended)
			flags := FlagOutliers(input, e.params.OutlierThreshold, e.params.OutlierMinSamples)
			byDate := make(map[time.Time]int, len(dates))
			for i, d := range dates {
				byDate[d] = flags[i]
			}
			comp.Flags[c] = byDate
		}
	}

	return Assemble(key, epochs, comp), nil
}
