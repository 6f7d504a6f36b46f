package scan

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSessionFiles_ExpandsDirectories(t *testing.T) {
	dir := t.TempDir()
	logs := filepath.Join(dir, "logs")
	touch(t, filepath.Join(logs, "conversations-day-2.json"))
	touch(t, filepath.Join(logs, "conversations-day-1.json"))
	touch(t, filepath.Join(logs, "notes.txt"))
	touch(t, filepath.Join(logs, ".hidden.json"))
	touch(t, filepath.Join(logs, ".cache", "x.json"))
	touch(t, filepath.Join(logs, "week2", "conversations-day-8.json"))
	single := filepath.Join(dir, "extra.data")
	touch(t, single)

	got, err := SessionFiles(single, logs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		single,
		filepath.Join(logs, "conversations-day-1.json"),
		filepath.Join(logs, "conversations-day-2.json"),
		filepath.Join(logs, "week2", "conversations-day-8.json"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SessionFiles() =\n%v\nwant\n%v", got, want)
	}
}

func TestSessionFiles_MissingPath(t *testing.T) {
	if _, err := SessionFiles(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestExclude_DropsUserLogFromSessionDir(t *testing.T) {
	dir := t.TempDir()
	sessions := filepath.Join(dir, "test.sessions.json")
	users := filepath.Join(dir, "test.users.json")
	touch(t, sessions)
	touch(t, users)

	files, err := SessionFiles(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("SessionFiles() = %v, want both files", files)
	}

	// relative spelling of the same file is still recognized
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	rel, err := filepath.Rel(wd, users)
	if err != nil {
		t.Fatal(err)
	}
	for _, skip := range []string{users, rel} {
		got := Exclude(files, skip)
		if !reflect.DeepEqual(got, []string{sessions}) {
			t.Errorf("Exclude(%q) = %v, want [%s]", skip, got, sessions)
		}
	}

	if got := Exclude(files, ""); !reflect.DeepEqual(got, files) {
		t.Errorf("Exclude with empty skip = %v", got)
	}
	if got := Exclude(files, filepath.Join(dir, "missing.json")); !reflect.DeepEqual(got, files) {
		t.Errorf("Exclude with unknown skip = %v", got)
	}
}
