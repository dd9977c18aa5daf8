package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campuscode/leetboard/internal/report"
)

var (
	reportSend bool
	reportJSON bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the weekly activity report, optionally emailing it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initStats(ctx, "report")
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := env.Refresher.Results(ctx, false)
		if err != nil {
			return eris.Wrap(err, "fetch stats")
		}

		rep := report.Build(results, cfg.Report.InconsistentThreshold, time.Now())

		if reportJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(rep); err != nil {
				return eris.Wrap(err, "encode report")
			}
		} else {
			fmt.Print(rep.Render())
		}

		if reportSend {
			if err := env.Mailer.Send(ctx, rep); err != nil {
				if errors.Is(err, report.ErrNotConfigured) {
					zap.L().Warn("smtp not configured, report not emailed")
					return nil
				}
				return err
			}
			zap.L().Info("report emailed", zap.String("to", cfg.SMTP.To))
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportSend, "send", false, "email the report using the configured SMTP account")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON instead of text")
	rootCmd.AddCommand(reportCmd)
}
