package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/tutortrace/internal/index"
)

type Result struct {
	Username string
	Seq      int
	Tutor    string
	Role     string
	Tag      string
	Order    int
	Snippet  string
	Rank     float64
}

type Options struct {
	Query string
	Tutor string // "" = all
	Role  string // "" = all, "student", "assistant"
	Tag   string // "" = all
	Limit int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet cuts text around the first case-insensitive occurrence of
// query and marks the hit with >>> <<<.
func makeSnippet(text, query string, contextChars int) string {
	runes := []rune(text)
	idx := strings.Index(strings.ToLower(text), strings.ToLower(query))
	if idx < 0 || query == "" {
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}

	pos := len([]rune(text[:idx]))
	qlen := len([]rune(query))
	start := max(pos-contextChars, 0)
	end := min(pos+qlen+contextChars, len(runes))

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(string(runes[start:pos]))
	b.WriteString(">>>" + string(runes[pos:pos+qlen]) + "<<<")
	b.WriteString(string(runes[pos+qlen : end]))
	if end < len(runes) {
		b.WriteString("...")
	}
	return b.String()
}

// Search looks up messages by content. Queries with Han characters use a
// substring scan since unicode61 does not split them into words.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, fmt.Errorf("empty query")
	}
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if containsCJK(opts.Query) {
		return searchLike(db, opts)
	}
	return searchFTS(db, opts)
}

func filters(opts Options) ([]string, []any) {
	var conditions []string
	var args []any
	if opts.Tutor != "" {
		conditions = append(conditions, "m.tutor = ?")
		args = append(args, opts.Tutor)
	}
	if opts.Role != "" {
		conditions = append(conditions, "m.role = ?")
		args = append(args, opts.Role)
	}
	if opts.Tag != "" {
		conditions = append(conditions, "m.tag = ?")
		args = append(args, opts.Tag)
	}
	return conditions, args
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"messages_fts MATCH ?"}
	args := []any{opts.Query}
	c, a := filters(opts)
	conditions = append(conditions, c...)
	args = append(args, a...)

	query := fmt.Sprintf(`
		SELECT
			m.username,
			m.seq,
			m.tutor,
			m.role,
			m.tag,
			m.ord,
			snippet(messages_fts, 0, '>>>', '<<<', '...', 24) AS snip,
			bm25(messages_fts) AS rank
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.rowid
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	return scanResults(rows, "")
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"m.content LIKE ?"}
	args := []any{"%" + opts.Query + "%"}
	c, a := filters(opts)
	conditions = append(conditions, c...)
	args = append(args, a...)

	query := fmt.Sprintf(`
		SELECT
			m.username,
			m.seq,
			m.tutor,
			m.role,
			m.tag,
			m.ord,
			m.content,
			0.0
		FROM messages m
		JOIN users u ON u.username = m.username
		WHERE %s
		ORDER BY u.position, m.seq
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	return scanResults(rows, opts.Query)
}

// scanResults reads result rows; a non-empty query means the text column is
// the full content and is cut down to a snippet here.
func scanResults(rows *sql.Rows, query string) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Username, &r.Seq, &r.Tutor, &r.Role, &r.Tag, &r.Order, &r.Snippet, &r.Rank); err != nil {
			return nil, err
		}
		if query != "" {
			r.Snippet = makeSnippet(r.Snippet, query, 30)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
