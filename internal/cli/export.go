package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"deform-watch/internal/app"
	"deform-watch/internal/catalog"
)

var (
	exportStations  []string
	exportFrames    []string
	exportFrom      string
	exportTo        string
	exportEpochCSV  string
	exportGeoCSV    string
	exportPNGPath   string
	exportMaxPoints int
	exportStation   string
	exportFrame     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored epochs as CSV, geodetic snapshot and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			Stations:     exportStations,
			Frames:       exportFrames,
			EpochCSV:     exportEpochCSV,
			GeoCSV:       exportGeoCSV,
			ChartPNG:     exportPNGPath,
			MaxPoints:    exportMaxPoints,
			ChartStation: exportStation,
			ChartFrame:   exportFrame,
		}

		if exportFrom != "" {
			from, err := catalog.ParseDate(exportFrom)
			if err != nil {
				return fmt.Errorf("invalid --from value: %w", err)
			}
			opts.From = &from
		}

		if exportTo != "" {
			to, err := catalog.ParseDate(exportTo)
			if err != nil {
				return fmt.Errorf("invalid --to value: %w", err)
			}
			opts.To = &to
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringSliceVar(&exportStations, "station", nil, "Restrict to these station codes (repeatable)")
	exportCmd.Flags().StringSliceVar(&exportFrames, "frame", nil, "Restrict to these reference frames (repeatable)")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Start date (ISO, YYYYDOY or YYDOY, inclusive)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "End date (ISO, YYYYDOY or YYDOY, inclusive)")
	exportCmd.Flags().StringVar(&exportEpochCSV, "csv", "", "Path to write the epoch CSV")
	exportCmd.Flags().StringVar(&exportGeoCSV, "geo-csv", "", "Path to write the latest geodetic position snapshot")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write a PNG displacement chart")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Maximum chart points (defaults to config)")
	exportCmd.Flags().StringVar(&exportStation, "chart-station", "", "Station to chart (required with --png)")
	exportCmd.Flags().StringVar(&exportFrame, "chart-frame", "", "Reference frame to chart (required with --png)")
}
