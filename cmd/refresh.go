package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campuscode/leetboard/internal/model"
)

var refreshJSON bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch current stats for the whole roster and persist them",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initStats(ctx, "refresh")
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := env.Refresher.Results(ctx, true)
		if err != nil {
			return eris.Wrap(err, "refresh roster")
		}

		var fresh, stale, notFound, unknown int
		for _, r := range results {
			switch r.Outcome {
			case model.OutcomeFresh:
				fresh++
			case model.OutcomeStale:
				stale++
			case model.OutcomeNotFound:
				notFound++
			case model.OutcomeUnknown:
				unknown++
			}
		}

		zap.L().Info("refresh complete",
			zap.Int("students", len(results)),
			zap.Int("fresh", fresh),
			zap.Int("stale", stale),
			zap.Int("not_found", notFound),
			zap.Int("unknown", unknown),
		)

		if refreshJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		return nil
	},
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshJSON, "json", false, "print fetched rows as JSON to stdout")
	rootCmd.AddCommand(refreshCmd)
}
