package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS users (
    username TEXT PRIMARY KEY,
    position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    username TEXT NOT NULL,
    seq      INTEGER NOT NULL,
    tutor    TEXT NOT NULL DEFAULT 'Unknown',
    role     TEXT NOT NULL,
    content  TEXT NOT NULL,
    ord      INTEGER NOT NULL DEFAULT 0,
    tag      TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (username, seq)
);

CREATE INDEX IF NOT EXISTS messages_tutor ON messages(tutor, role);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    content,
    content=messages,
    content_rowid=rowid,
    tokenize='unicode61'
);

CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, content) VALUES (new.rowid, new.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
    INSERT INTO messages_fts(rowid, content) VALUES (new.rowid, new.content);
END;

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

// schemaVersion is bumped whenever the table layout changes. Opening an
// older database drops the mirrored rows; the next import refills them.
const schemaVersion = "1"

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrateSchemaVersion(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

func (d *DB) migrateSchemaVersion() error {
	ver, err := d.Meta("schema_version")
	if err != nil {
		return err
	}
	if ver == schemaVersion {
		return nil
	}
	if _, err := d.db.Exec("DELETE FROM messages"); err != nil {
		return err
	}
	if _, err := d.db.Exec("DELETE FROM users"); err != nil {
		return err
	}
	_, err = d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	return err
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

// Meta returns the value stored under key, or "" when it is unset.
func (d *DB) Meta(key string) (string, error) {
	var v string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, err
}

func (d *DB) UserCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

func (d *DB) MessageCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n)
	return n, err
}

type MessageRow struct {
	Username string
	Seq      int
	Tutor    string
	Role     string
	Content  string
	Order    int
	Tag      string
}

// Messages returns one user's rows in sequence order.
func (d *DB) Messages(username string) ([]MessageRow, error) {
	rows, err := d.db.Query(
		"SELECT username, seq, tutor, role, content, ord, tag FROM messages WHERE username = ? ORDER BY seq",
		username,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MessageRow
	for rows.Next() {
		var m MessageRow
		if err := rows.Scan(&m.Username, &m.Seq, &m.Tutor, &m.Role, &m.Content, &m.Order, &m.Tag); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// TagCounts counts student messages per tutor and tag, attributing each
// message to its own tutor field.
func (d *DB) TagCounts() (map[string]map[string]int, error) {
	rows, err := d.db.Query(
		"SELECT tutor, tag, COUNT(*) FROM messages WHERE role = 'student' GROUP BY tutor, tag",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]map[string]int)
	for rows.Next() {
		var tutor, tag string
		var n int
		if err := rows.Scan(&tutor, &tag, &n); err != nil {
			return nil, err
		}
		if counts[tutor] == nil {
			counts[tutor] = make(map[string]int)
		}
		counts[tutor][tag] = n
	}
	return counts, rows.Err()
}
