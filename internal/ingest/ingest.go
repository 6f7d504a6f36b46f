package ingest

import (
	"fmt"
	"log/slog"

	"github.com/Zuo-Peng/tutortrace/internal/palette"
	"github.com/Zuo-Peng/tutortrace/internal/parse"
	"github.com/Zuo-Peng/tutortrace/internal/scan"
	"github.com/Zuo-Peng/tutortrace/internal/store"
)

type Stats struct {
	Files           int
	Sessions        int
	Messages        int
	Users           int
	UnresolvedUsers int // sessions whose user id was not in the user file
	UnknownTutors   int // sessions without metadata.llmService
}

func (s Stats) String() string {
	return fmt.Sprintf("files=%d sessions=%d messages=%d users=%d unresolved=%d unknown_tutor=%d",
		s.Files, s.Sessions, s.Messages, s.Users, s.UnresolvedUsers, s.UnknownTutors)
}

// Build groups every session message under its resolved username.
func Build(sessions []parse.Session, users []parse.User) (*store.Store, Stats) {
	var stats Stats
	names := parse.UserMap(users)
	st := store.New()

	for _, sess := range sessions {
		stats.Sessions++

		id, ok := sess.UserID()
		if !ok {
			id = palette.UnknownUserID
		}
		username, ok := names[id]
		if !ok {
			username = palette.UnknownUserPrefix + id
			stats.UnresolvedUsers++
		}

		tutor, ok := sess.Tutor()
		if !ok {
			tutor = palette.UnknownTutor
			stats.UnknownTutors++
		}

		st.Ensure(username)
		for order, msg := range sess.Messages {
			st.Append(username, store.Entry{
				Tutor:   tutor,
				Role:    msg.Role,
				Content: msg.Content,
				Order:   order,
				Tag:     "",
			})
			stats.Messages++
		}
	}

	stats.Users = st.Len()
	return st, stats
}

// Run loads the session logs and user records, builds the store and writes it
// to outPath.
func Run(sessionPaths []string, usersPath, outPath string) (Stats, error) {
	files, err := scan.SessionFiles(sessionPaths...)
	if err != nil {
		return Stats{}, fmt.Errorf("scan: %w", err)
	}
	if kept := scan.Exclude(files, usersPath); len(kept) < len(files) {
		slog.Debug("user log skipped in session paths", "path", usersPath)
		files = kept
	}
	if len(files) == 0 {
		return Stats{}, fmt.Errorf("no session files found in %v", sessionPaths)
	}

	sessions, err := parse.LoadSessionFiles(files)
	if err != nil {
		return Stats{}, fmt.Errorf("load sessions: %w", err)
	}
	users, err := parse.LoadUsers(usersPath)
	if err != nil {
		return Stats{}, fmt.Errorf("load users: %w", err)
	}
	slog.Debug("inputs loaded", "files", len(files), "sessions", len(sessions), "users", len(users))

	st, stats := Build(sessions, users)
	stats.Files = len(files)
	if stats.UnresolvedUsers > 0 {
		slog.Warn("sessions with unresolved user ids", "count", stats.UnresolvedUsers)
	}

	if err := st.Save(outPath); err != nil {
		return stats, fmt.Errorf("save store: %w", err)
	}
	return stats, nil
}
