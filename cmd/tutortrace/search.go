package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/tutortrace/internal/index"
	"github.com/Zuo-Peng/tutortrace/internal/palette"
	"github.com/Zuo-Peng/tutortrace/internal/search"
)

var (
	styleHit  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	styleUser = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	styleDim  = lipgloss.NewStyle().Faint(true)
)

// colorizeSnippet swaps the >>> <<< hit markers for terminal styling.
func colorizeSnippet(snippet string) string {
	var b strings.Builder
	for {
		start := strings.Index(snippet, ">>>")
		if start < 0 {
			break
		}
		end := strings.Index(snippet[start:], "<<<")
		if end < 0 {
			break
		}
		end += start
		b.WriteString(snippet[:start])
		b.WriteString(styleHit.Render(snippet[start+3 : end]))
		snippet = snippet[end+3:]
	}
	b.WriteString(snippet)
	return b.String()
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func searchCmd() *cobra.Command {
	var tutor, role, tag string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across indexed messages",
		Long: `Search the SQLite mirror built by 'tutortrace index'. Output is TSV:
  username, seq, tutor, role, tag, order, snippet

Queries use FTS5 syntax; queries with Han characters fall back to substring
matching.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				return fmt.Errorf("no index at %s (run 'tutortrace index' first)", cfg.DBPath)
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			results, err := search.Search(db, search.Options{
				Query: args[0],
				Tutor: tutor,
				Role:  role,
				Tag:   tag,
				Limit: limit,
			})
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			color := term.IsTerminal(int(os.Stdout.Fd()))
			pal, err := cfg.BuildPalette()
			if err != nil {
				return fmt.Errorf("palette: %w", err)
			}
			for _, r := range results {
				printResult(r, pal, color)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tutor, "tutor", "", "Filter by tutor")
	cmd.Flags().StringVar(&role, "role", "", "Filter by role (student/assistant)")
	cmd.Flags().StringVar(&tag, "tag", "", "Filter by message tag")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")
	return cmd
}

func printResult(r search.Result, pal *palette.Palette, color bool) {
	snippet := oneLine(r.Snippet)
	tag := r.Tag
	if tag == "" {
		tag = "-"
	}
	if !color {
		snippet = strings.NewReplacer(">>>", "", "<<<", "").Replace(snippet)
		fmt.Printf("%s\t%d\t%s\t%s\t%s\t%d\t%s\n", r.Username, r.Seq, r.Tutor, r.Role, tag, r.Order, snippet)
		return
	}
	tagStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(pal.Hex(r.Tag)))
	fmt.Printf("%s\t%d\t%s\t%s\t%s\t%d\t%s\n",
		styleUser.Render(r.Username),
		r.Seq,
		r.Tutor,
		styleDim.Render(r.Role),
		tagStyle.Render(tag),
		r.Order,
		colorizeSnippet(snippet),
	)
}
