package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campuscode/leetboard/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "leetboard",
	Short: "Student LeetCode activity dashboard",
	Long:  "Tracks solved-problem counts for a student roster across public LeetCode stats APIs, serves a dashboard API, and mails weekly activity reports.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
