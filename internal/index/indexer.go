package index

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Zuo-Peng/tutortrace/internal/store"
)

type Stats struct {
	ImportID string
	Users    int
	Messages int
	Replaced int // rows dropped from the previous import
}

func (s Stats) String() string {
	return fmt.Sprintf("import=%s users=%d messages=%d replaced=%d",
		s.ImportID, s.Users, s.Messages, s.Replaced)
}

// ImportStore replaces the mirrored rows with the contents of st in a single
// transaction.
func ImportStore(db *DB, st *store.Store) (Stats, error) {
	stats := Stats{ImportID: uuid.NewString()}

	prev, err := db.MessageCount()
	if err != nil {
		return stats, fmt.Errorf("count: %w", err)
	}

	tx, err := db.Raw().Begin()
	if err != nil {
		return stats, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages"); err != nil {
		return stats, fmt.Errorf("clear messages: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM users"); err != nil {
		return stats, fmt.Errorf("clear users: %w", err)
	}

	userStmt, err := tx.Prepare("INSERT INTO users (username, position) VALUES (?, ?)")
	if err != nil {
		return stats, err
	}
	defer userStmt.Close()

	msgStmt, err := tx.Prepare(
		`INSERT INTO messages (username, seq, tutor, role, content, ord, tag)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return stats, err
	}
	defer msgStmt.Close()

	for pos, u := range st.Users() {
		if _, err := userStmt.Exec(u, pos); err != nil {
			return stats, fmt.Errorf("insert user %s: %w", u, err)
		}
		stats.Users++
		for seq, e := range st.Entries(u) {
			if _, err := msgStmt.Exec(u, seq, e.Tutor, e.Role, e.Content, e.Order, e.Tag); err != nil {
				return stats, fmt.Errorf("insert %s/%d: %w", u, seq, err)
			}
			stats.Messages++
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for k, v := range map[string]string{"import_id": stats.ImportID, "imported_at": now} {
		if _, err := tx.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return stats, fmt.Errorf("meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, err
	}
	stats.Replaced = prev
	return stats, nil
}

// ExportStore rebuilds a message store from the mirrored rows, users in
// their imported order.
func ExportStore(db *DB) (*store.Store, error) {
	rows, err := db.Raw().Query("SELECT username FROM users ORDER BY position")
	if err != nil {
		return nil, err
	}
	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			rows.Close()
			return nil, err
		}
		users = append(users, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	st := store.New()
	for _, u := range users {
		msgs, err := db.Messages(u)
		if err != nil {
			return nil, fmt.Errorf("messages for %s: %w", u, err)
		}
		entries := make([]store.Entry, 0, len(msgs))
		for _, m := range msgs {
			entries = append(entries, store.Entry{
				Tutor:   m.Tutor,
				Role:    m.Role,
				Content: m.Content,
				Order:   m.Order,
				Tag:     m.Tag,
			})
		}
		st.Set(u, entries)
	}
	return st, nil
}
