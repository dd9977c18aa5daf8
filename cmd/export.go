package main

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campuscode/leetboard/internal/export"
)

var (
	exportOut    string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Fetch current stats and export them to a CSV or JSON file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initStats(ctx, "refresh")
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := env.Refresher.Results(ctx, false)
		if err != nil {
			return eris.Wrap(err, "fetch stats")
		}

		format := exportFormat
		if format == "" {
			format = strings.TrimPrefix(filepath.Ext(exportOut), ".")
		}

		switch format {
		case "csv":
			err = export.ExportCSV(results, exportOut)
		case "json":
			err = export.ExportJSON(results, exportOut)
		default:
			return eris.Errorf("unsupported export format: %s", format)
		}
		if err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.Int("students", len(results)),
			zap.String("out", exportOut),
			zap.String("format", format),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "leetcode_stats.csv", "output file path")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "csv or json (default from file extension)")
	rootCmd.AddCommand(exportCmd)
}
