package cli

import (
	"github.com/spf13/cobra"

	"deform-watch/internal/app"
)

var (
	watchStations []string
	watchFrames   []string
	watchSteps    []string
	watchDeform   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the analysis on a schedule until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.AnalyzeOptions{
			Stations:         watchStations,
			Frames:           watchFrames,
			Analyses:         watchSteps,
			ApplyDeformation: watchDeform,
		}
		return getApp().Watch(cmd.Context(), opts)
	},
}

func init() {
	watchCmd.Flags().StringSliceVar(&watchStations, "station", nil, "Restrict to these station codes (repeatable)")
	watchCmd.Flags().StringSliceVar(&watchFrames, "frame", nil, "Restrict to these reference frames (repeatable)")
	watchCmd.Flags().StringSliceVar(&watchSteps, "analysis", nil, "Steps to run each cycle (default all)")
	watchCmd.Flags().BoolVar(&watchDeform, "apply-deformation", false, "Also correct slow-deformation catalog events")
}
