package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"deform-watch/internal/app"
	"deform-watch/internal/catalog"
)

var (
	analyzeStations []string
	analyzeFrames   []string
	analyzeFrom     string
	analyzeTo       string
	analyzeSteps    []string
	analyzeDeform   bool
	analyzeWideCSV  string
	analyzeLongCSV  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run offset, detrend and outlier analysis over stored epochs",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.AnalyzeOptions{
			Stations:         analyzeStations,
			Frames:           analyzeFrames,
			Analyses:         analyzeSteps,
			ApplyDeformation: analyzeDeform,
			WideCSV:          analyzeWideCSV,
			LongCSV:          analyzeLongCSV,
		}

		if analyzeFrom != "" {
			from, err := catalog.ParseDate(analyzeFrom)
			if err != nil {
				return fmt.Errorf("invalid --from value: %w", err)
			}
			opts.From = &from
		}

		if analyzeTo != "" {
			to, err := catalog.ParseDate(analyzeTo)
			if err != nil {
				return fmt.Errorf("invalid --to value: %w", err)
			}
			opts.To = &to
		}

		return getApp().Analyze(cmd.Context(), opts)
	},
}

func init() {
	analyzeCmd.Flags().StringSliceVar(&analyzeStations, "station", nil, "Restrict to these station codes (repeatable)")
	analyzeCmd.Flags().StringSliceVar(&analyzeFrames, "frame", nil, "Restrict to these reference frames (repeatable)")
	analyzeCmd.Flags().StringVar(&analyzeFrom, "from", "", "Start date (ISO, YYYYDOY or YYDOY, inclusive)")
	analyzeCmd.Flags().StringVar(&analyzeTo, "to", "", "End date (ISO, YYYYDOY or YYDOY, inclusive)")
	analyzeCmd.Flags().StringSliceVar(&analyzeSteps, "analysis", nil, "Steps to run: offsets, detrend, outliers (default all)")
	analyzeCmd.Flags().BoolVar(&analyzeDeform, "apply-deformation", false, "Also correct slow-deformation catalog events")
	analyzeCmd.Flags().StringVar(&analyzeWideCSV, "wide-csv", "", "Path for the wide result CSV (defaults under the output dir)")
	analyzeCmd.Flags().StringVar(&analyzeLongCSV, "long-csv", "", "Path for the long result CSV (defaults under the output dir)")
}
