package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"deform-watch/internal/app"
)

var (
	showLimit    int
	showStations []string
	showFrames   []string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recent displacement epochs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			Limit:    showLimit,
			Stations: showStations,
			Frames:   showFrames,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of epochs to display")
	showCmd.Flags().StringSliceVar(&showStations, "station", nil, "Restrict to these station codes (repeatable)")
	showCmd.Flags().StringSliceVar(&showFrames, "frame", nil, "Restrict to these reference frames (repeatable)")
}
