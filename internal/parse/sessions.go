package parse

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type messageRecord struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var rec messageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	m.Role = rec.Role
	m.Content = extractContent(rec.Content)
	return nil
}

// extractContent accepts a plain string or an array of text blocks. Anything
// else is kept as its raw JSON text.
func extractContent(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var parts []string
		for _, b := range blocks {
			if b.Text == "" {
				continue
			}
			if b.Type == "" || b.Type == "text" {
				parts = append(parts, b.Text)
			}
		}
		return strings.Join(parts, "\n")
	}

	return string(raw)
}

// LoadSessions reads a JSON array of session records.
func LoadSessions(path string) ([]Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sessions []Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("parse sessions %s: %w", path, err)
	}
	return sessions, nil
}

// LoadSessionFiles concatenates the sessions of several files in order.
func LoadSessionFiles(paths []string) ([]Session, error) {
	var all []Session
	for _, p := range paths {
		s, err := LoadSessions(p)
		if err != nil {
			return nil, err
		}
		all = append(all, s...)
	}
	return all, nil
}

// LoadUsers reads a JSON array of user records.
func LoadUsers(path string) ([]User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parse users %s: %w", path, err)
	}
	return users, nil
}

// UserMap indexes usernames by id. Later records win; records without an id
// are skipped.
func UserMap(users []User) map[string]string {
	m := make(map[string]string, len(users))
	for _, u := range users {
		if u.ID.OID == nil {
			continue
		}
		m[*u.ID.OID] = u.Username
	}
	return m
}
