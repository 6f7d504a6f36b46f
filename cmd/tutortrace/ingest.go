package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/tutortrace/internal/ingest"
)

func ingestCmd() *cobra.Command {
	var sessions []string
	var users, out string

	cmd := &cobra.Command{
		Use:   "ingest [session files or dirs...]",
		Short: "Build the per-user message store from session and user logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			paths := cfg.SessionPaths
			if len(args) > 0 {
				paths = args
			}
			if cmd.Flags().Changed("sessions") {
				paths = sessions
			}
			if cmd.Flags().Changed("users") {
				cfg.UsersPath = users
			}
			if cmd.Flags().Changed("out") {
				cfg.StorePath = out
			}
			if len(paths) == 0 {
				return fmt.Errorf("no session logs given (pass paths or set sessions in config)")
			}
			if cfg.UsersPath == "" {
				return fmt.Errorf("no user log given (--users or users in config)")
			}

			fmt.Fprintf(os.Stderr, "Reading sessions...\n")
			for _, p := range paths {
				fmt.Fprintf(os.Stderr, "  %s\n", p)
			}

			stats, err := ingest.Run(paths, cfg.UsersPath, cfg.StorePath)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			fmt.Printf("User messages saved to %s\n", cfg.StorePath)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&sessions, "sessions", nil, "Session log files or directories")
	cmd.Flags().StringVar(&users, "users", "", "User log file")
	cmd.Flags().StringVar(&out, "out", "", "Output message store")
	return cmd
}
