package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/tutortrace/internal/store"
	"github.com/Zuo-Peng/tutortrace/internal/trace"
)

func traceCmd() *cobra.Command {
	var in, out, layout, title string
	var users []string
	var showAssistant bool

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Draw the user trace diagram as a PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("in") {
				cfg.StorePath = in
			}
			if cmd.Flags().Changed("out") {
				cfg.TracePath = out
			}
			if cmd.Flags().Changed("layout") {
				cfg.Layout = layout
			}
			if cmd.Flags().Changed("show-assistant") {
				cfg.ShowAssistant = showAssistant
			}

			mode, err := trace.ParseLayout(cfg.Layout)
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

			d := trace.Build(st, pal, trace.Options{
				Users:         users,
				ShowAssistant: cfg.ShowAssistant,
				Layout:        mode,
				Title:         title,
			})
			for _, u := range d.Missing {
				slog.Warn("user not in store", "username", u)
			}
			slog.Debug("diagram laid out", "rows", len(d.Rows), "groups", len(d.Groups), "width", d.Width)

			if err := trace.Render(d, cfg.TracePath); err != nil {
				return fmt.Errorf("render: %w", err)
			}
			fmt.Printf("Trace diagram saved to %s\n", cfg.TracePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Message store to read")
	cmd.Flags().StringVar(&out, "out", "", "PNG output path")
	cmd.Flags().StringSliceVar(&users, "users", nil, "Only draw these users, in this order")
	cmd.Flags().BoolVar(&showAssistant, "show-assistant", false, "Include assistant messages")
	cmd.Flags().StringVar(&layout, "layout", "", "Row layout (grouped/per-user)")
	cmd.Flags().StringVar(&title, "title", "User Message Traces", "Diagram title")
	return cmd
}
