package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campuscode/leetboard/internal/model"
	"github.com/campuscode/leetboard/internal/roster"
)

var (
	importFile  string
	importSheet string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a student roster from CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		var (
			students []model.Student
			err      error
		)
		if importSheet != "" {
			students, err = roster.LoadXLSX(importFile, roster.XLSXOptions{SheetName: importSheet})
		} else {
			students, err = roster.Load(importFile)
		}
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		n, err := st.UpsertStudents(ctx, students)
		if err != nil {
			return eris.Wrap(err, "upsert students")
		}

		zap.L().Info("roster imported",
			zap.Int("students", n),
			zap.String("file", importFile),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to roster CSV or XLSX (required)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
