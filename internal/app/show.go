package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"deform-watch/internal/storage"
)

// Show prints the most recent epochs.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	epochs, err := store.ListEpochs(ctx, storage.QueryFilter{
		Stations: opts.Stations,
		Frames:   opts.Frames,
	})
	if err != nil {
		return err
	}
	if len(epochs) == 0 {
		fmt.Fprintln(os.Stdout, "no epochs found")
		return nil
	}

	if opts.Limit > 0 && len(epochs) > opts.Limit {
		epochs = epochs[len(epochs)-opts.Limit:]
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Station\tDate\tFrame\tN (mm)\tE (mm)\tU (mm)")
	for _, ep := range epochs {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%.1f\t%.1f\t%.1f\n",
			ep.Station,
			ep.Date.Format("2006-01-02"),
			ep.Frame,
			ep.N, ep.E, ep.U,
		)
	}
	return writer.Flush()
}
