package main

import (
	"fmt"
	"os"

	"scdb-dashboard/models"
	"scdb-dashboard/service"

	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered table to CSV or XLSX",
	Example: `  dashctl export --from 2000 --to 2010 -f decisionDirection=liberal
  dashctl export --format xlsx --columns caseId,term,chief -o roberts.xlsx -f chief=Roberts`,
	RunE: runExport,
}

func init() {
	addStateFlags(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: layout export name)")
}

func runExport(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	dashboard, cases, err := loadDashboard(logger)
	if err != nil {
		return err
	}
	state, err := stateFromFlags(termFrom, termTo, filterArgs, columnsArg, barVariable, trendVariable)
	if err != nil {
		return err
	}

	result, err := dashboard.Compute(state)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		logger.Warn().Msg(w)
	}

	exports := service.NewExportService(
		service.WithExportBasename(cases.Layout().ExportBasename),
		service.WithExportLogger(logger),
	)
	file, err := exports.Export(cmd.Context(), service.ExportRequest{
		Columns: result.State.Columns,
		Rows:    result.Table.Rows,
		Format:  models.ExportFormat(exportFormat),
	})
	if err != nil {
		return err
	}

	path := exportOutput
	if path == "" {
		path = file.Filename
	}
	if err := os.WriteFile(path, file.Data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(result.Table.Rows), path)
	return nil
}
