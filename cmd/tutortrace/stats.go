package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/tutortrace/internal/render"
	"github.com/Zuo-Peng/tutortrace/internal/stats"
	"github.com/Zuo-Peng/tutortrace/internal/store"
)

func statsCmd() *cobra.Command {
	var in, png, csv, rule string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Tally student message types per tutor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("in") {
				cfg.StorePath = in
			}
			if cmd.Flags().Changed("png") {
				cfg.StatsPNG = png
			}
			if cmd.Flags().Changed("csv") {
				cfg.StatsCSV = csv
			}
			if cmd.Flags().Changed("tutor-rule") {
				cfg.TutorRule = rule
			}

			tutorRule, err := stats.ParseTutorRule(cfg.TutorRule)
			if err != nil {
				return err
			}
			pal, err := cfg.BuildPalette()
			if err != nil {
				return fmt.Errorf("palette: %w", err)
			}
			st, err := store.Load(cfg.StorePath)
			if err != nil {
				return fmt.Errorf("load store: %w", err)
			}

			report := stats.Aggregate(st, tutorRule)
			color := term.IsTerminal(int(os.Stdout.Fd()))
			fmt.Print(render.Summary(report, pal, render.Options{Color: color}))

			if err := stats.SaveCSV(cfg.StatsCSV, report); err != nil {
				return fmt.Errorf("csv: %w", err)
			}
			fmt.Printf("\nStatistics exported to %s\n", cfg.StatsCSV)

			if err := stats.RenderChart(report, pal, cfg.StatsPNG); err != nil {
				return fmt.Errorf("chart: %w", err)
			}
			fmt.Printf("Statistics visualization saved to %s\n", cfg.StatsPNG)
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Message store to read")
	cmd.Flags().StringVar(&png, "png", "", "Chart output path")
	cmd.Flags().StringVar(&csv, "csv", "", "CSV output path")
	cmd.Flags().StringVar(&rule, "tutor-rule", "", "Tutor attribution (per-message/first-message)")
	return cmd
}
