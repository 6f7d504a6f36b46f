package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/tutortrace/internal/index"
	"github.com/Zuo-Peng/tutortrace/internal/store"
)

func indexCmd() *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Mirror the message store into the SQLite search index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("in") {
				cfg.StorePath = in
			}

			st, err := store.Load(cfg.StorePath)
			if err != nil {
				return fmt.Errorf("load store: %w", err)
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			fmt.Fprintf(os.Stderr, "Importing %s\n", cfg.StorePath)
			fmt.Fprintf(os.Stderr, "  into %s\n", cfg.DBPath)

			stats, err := index.ImportStore(db, st)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Message store to import")
	return cmd
}
