package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Zuo-Peng/tutortrace/internal/palette"
)

var ErrNoPath = errors.New("store path is empty")

// Entry is one message of a user's sequence. Field order matches the
// on-disk format consumed by the external tagging step.
type Entry struct {
	Tutor   string `json:"tutor"`
	Role    string `json:"role"`
	Content string `json:"content"`
	Order   int    `json:"order"` // position inside the source session
	Tag     string `json:"tag"`
}

// Store maps username to its ordered entries. Usernames keep insertion order.
type Store struct {
	users   []string
	entries map[string][]Entry
}

func New() *Store {
	return &Store{entries: make(map[string][]Entry)}
}

// Ensure registers username with an empty sequence if it is not present yet.
func (s *Store) Ensure(username string) {
	if _, ok := s.entries[username]; ok {
		return
	}
	s.users = append(s.users, username)
	s.entries[username] = []Entry{}
}

func (s *Store) Append(username string, e Entry) {
	s.Ensure(username)
	s.entries[username] = append(s.entries[username], e)
}

// Set replaces a user's sequence, keeping the user's original position.
func (s *Store) Set(username string, entries []Entry) {
	s.Ensure(username)
	if entries == nil {
		entries = []Entry{}
	}
	s.entries[username] = entries
}

func (s *Store) Has(username string) bool {
	_, ok := s.entries[username]
	return ok
}

// Users returns usernames in insertion order.
func (s *Store) Users() []string {
	out := make([]string, len(s.users))
	copy(out, s.users)
	return out
}

func (s *Store) Entries(username string) []Entry {
	return s.entries[username]
}

func (s *Store) Len() int {
	return len(s.users)
}

func (s *Store) MessageCount() int {
	n := 0
	for _, u := range s.users {
		n += len(s.entries[u])
	}
	return n
}

// UntaggedCount counts entries still carrying an empty tag.
func (s *Store) UntaggedCount() int {
	n := 0
	for _, u := range s.users {
		for _, e := range s.entries[u] {
			if e.Tag == "" {
				n++
			}
		}
	}
	return n
}

// MarshalJSON writes a compact object whose keys follow insertion order.
func (s *Store) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, u := range s.users {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := encodeCompact(u)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		val, err := encodeCompact(s.entries[u])
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", u, err)
		}
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

type rawEntry struct {
	Tutor   *string `json:"tutor"`
	Role    string  `json:"role"`
	Content string  `json:"content"`
	Order   int     `json:"order"`
	Tag     *string `json:"tag"`
}

// UnmarshalJSON reads the object key by key so that user order survives.
// A repeated key keeps its first position and its last value.
func (s *Store) UnmarshalJSON(data []byte) error {
	if s.entries == nil {
		s.entries = make(map[string][]Entry)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("store: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		user, ok := tok.(string)
		if !ok {
			return fmt.Errorf("store: expected username key, got %v", tok)
		}
		var raw []rawEntry
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("store: decode %s: %w", user, err)
		}
		entries := make([]Entry, 0, len(raw))
		for _, r := range raw {
			e := Entry{
				Tutor:   palette.UnknownRowTutor,
				Role:    r.Role,
				Content: r.Content,
				Order:   r.Order,
				Tag:     palette.UnknownTag,
			}
			if r.Tutor != nil {
				e.Tutor = *r.Tutor
			}
			if r.Tag != nil {
				e.Tag = *r.Tag
			}
			entries = append(entries, e)
		}
		s.Set(user, entries)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// Encode writes the store as JSON indented by two spaces.
func (s *Store) Encode(w io.Writer) error {
	compact, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return err
	}
	_, err = w.Write(out.Bytes())
	return err
}

func Decode(r io.Reader) (*Store, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s := New()
	if err := s.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Save(path string) error {
	if path == "" {
		return ErrNoPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	var b bytes.Buffer
	if err := s.Encode(&b); err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	return os.WriteFile(path, b.Bytes(), 0o644)
}

func Load(path string) (*Store, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("parse store %s: %w", path, err)
	}
	return s, nil
}

func encodeCompact(v any) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(b.Bytes(), "\n"), nil
}
