package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"deform-watch/internal/alerting"
	"deform-watch/internal/analysis"
)

// SimulateAlert sends a synthetic displacement notification through the
// configured channel so operators can verify credentials and formatting
// without waiting for a real breach.
func (a *App) SimulateAlert(ctx context.Context) error {
	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("no alert channel configured; enable alerting.telegram in the config")
	}

	note := alerting.Notification{
		Station:     "TEST",
		Frame:       "ITRF2014",
		Date:        time.Now().UTC(),
		Component:   analysis.Up,
		ValueMM:     -42.0,
		ThresholdMM: a.Config.Alerting.ThresholdMM,
		Outlier:     true,
	}

	a.Logger.Info().Str("station", note.Station).Msg("sending simulated alert")
	if err := notifier.Notify(ctx, note); err != nil {
		return fmt.Errorf("simulated alert failed: %w", err)
	}
	fmt.Fprintln(os.Stdout, "Simulated alert delivered.")
	return nil
}
