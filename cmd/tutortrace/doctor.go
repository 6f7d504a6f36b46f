package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/tutortrace/internal/config"
	"github.com/Zuo-Peng/tutortrace/internal/index"
	"github.com/Zuo-Peng/tutortrace/internal/scan"
	"github.com/Zuo-Peng/tutortrace/internal/stats"
	"github.com/Zuo-Peng/tutortrace/internal/store"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify inputs, store, index, and show stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Println("=== Config ===")
			if cfg.Source != "" {
				fmt.Printf("  File: %s\n", cfg.Source)
			} else {
				fmt.Println("  File: none (defaults + environment)")
			}
			fmt.Printf("  Layout: %s  Tutor rule: %s\n", cfg.Layout, cfg.TutorRule)

			fmt.Println("\n=== Inputs ===")
			for _, p := range cfg.SessionPaths {
				checkPath("Sessions", p)
			}
			if len(cfg.SessionPaths) > 0 {
				if files, err := scan.SessionFiles(cfg.SessionPaths...); err != nil {
					fmt.Printf("  scan error: %v\n", err)
				} else {
					fmt.Printf("  Session JSON files: %d\n", len(files))
				}
			}
			if cfg.UsersPath != "" {
				checkPath("Users", cfg.UsersPath)
			}

			fmt.Println("\n=== Store ===")
			checkPath("Store", cfg.StorePath)
			st, err := store.Load(cfg.StorePath)
			if err != nil {
				fmt.Println("  Status: not loaded (run 'tutortrace ingest' first)")
			} else {
				fmt.Printf("  Users:    %s\n", humanize.Comma(int64(st.Len())))
				fmt.Printf("  Messages: %s\n", humanize.Comma(int64(st.MessageCount())))
				fmt.Printf("  Untagged: %s\n", humanize.Comma(int64(st.UntaggedCount())))
			}

			fmt.Println("\n=== Outputs ===")
			checkPath("Trace", cfg.TracePath)
			checkPath("Chart", cfg.StatsPNG)
			checkPath("CSV", cfg.StatsCSV)

			fmt.Println("\n=== Database ===")
			checkPath("Path", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'tutortrace index' first)")
				return nil
			}
			return checkDB(cfg, st)
		},
	}
}

func checkDB(cfg *config.Config, st *store.Store) error {
	db, err := index.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	users, err := db.UserCount()
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	messages, err := db.MessageCount()
	if err != nil {
		return fmt.Errorf("count messages: %w", err)
	}
	fmt.Printf("  Users:    %s\n", humanize.Comma(int64(users)))
	fmt.Printf("  Messages: %s\n", humanize.Comma(int64(messages)))
	if id, _ := db.Meta("import_id"); id != "" {
		at, _ := db.Meta("imported_at")
		fmt.Printf("  Import:   %s (%s)\n", id, at)
	}

	fmt.Println("\n=== FTS5 ===")
	var ftsCount int
	if err := db.Raw().QueryRow("SELECT COUNT(*) FROM messages_fts").Scan(&ftsCount); err != nil {
		fmt.Printf("  FTS5 error: %v\n", err)
	} else {
		fmt.Printf("  FTS5 entries: %d\n", ftsCount)
		if ftsCount == messages {
			fmt.Println("  Status: OK (synced)")
		} else {
			fmt.Printf("  Status: MISMATCH (messages=%d, fts=%d)\n", messages, ftsCount)
		}
	}

	if st == nil {
		return nil
	}
	fmt.Println("\n=== Tag counts ===")
	counts, err := db.TagCounts()
	if err != nil {
		return fmt.Errorf("tag counts: %w", err)
	}
	if diff := compareCounts(stats.Aggregate(st, stats.RulePerMessage), counts); diff == "" {
		fmt.Println("  Status: OK (store and index agree)")
	} else {
		fmt.Printf("  Status: MISMATCH (%s; run 'tutortrace index' to refresh)\n", diff)
	}
	return nil
}

// compareCounts returns a description of the first disagreement between the
// in-memory report and the SQL counts, or "" when they match.
func compareCounts(r *stats.Report, counts map[string]map[string]int) string {
	if len(r.Tutors) != len(counts) {
		return fmt.Sprintf("tutors: store=%d index=%d", len(r.Tutors), len(counts))
	}
	for _, t := range r.Tutors {
		got := counts[t.Name]
		if len(got) != len(t.Tags) {
			return fmt.Sprintf("tutor %s: store has %d tags, index %d", t.Name, len(t.Tags), len(got))
		}
		for _, tc := range t.Tags {
			if got[tc.Tag] != tc.Count {
				return fmt.Sprintf("tutor %s tag %q: store=%d index=%d", t.Name, tc.Tag, tc.Count, got[tc.Tag])
			}
		}
	}
	return ""
}

func checkPath(name, path string) {
	if path == "" {
		fmt.Printf("  %s: (not set)\n", name)
		return
	}
	info, err := os.Stat(path)
	switch {
	case err != nil:
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	case info.IsDir():
		fmt.Printf("  %s: %s (OK, directory)\n", name, path)
	default:
		fmt.Printf("  %s: %s (OK, %s)\n", name, path, humanize.Bytes(uint64(info.Size())))
	}
}
