package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"deform-watch/internal/app"
)

var (
	ingestCSV    string
	ingestFrame  string
	ingestDryRun bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Import ECEF positions from a CSV into the epoch store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestCSV == "" {
			return fmt.Errorf("--csv must be provided")
		}

		opts := app.IngestOptions{
			CSVPath: ingestCSV,
			Frame:   ingestFrame,
			DryRun:  ingestDryRun,
		}

		return getApp().Ingest(cmd.Context(), opts)
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCSV, "csv", "", "Path to the positions CSV (station,date,x,y,z)")
	ingestCmd.Flags().StringVar(&ingestFrame, "frame", "", "Reference frame for rows without a reference_frame column")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "Parse and report without writing to storage")
}
