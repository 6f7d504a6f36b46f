package trace

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Zuo-Peng/tutortrace/internal/palette"
	"github.com/Zuo-Peng/tutortrace/internal/store"
)

func entry(tutor, role, tag string, order int) store.Entry {
	return store.Entry{Tutor: tutor, Role: role, Tag: tag, Order: order}
}

func testStore() *store.Store {
	st := store.New()
	// zed talks to gpt, 5 messages, 2 assistant
	st.Append("zed", entry("gpt", "student", "Question Prompt", 0))
	st.Append("zed", entry("gpt", "assistant", "Solution", 1))
	st.Append("zed", entry("gpt", "student", "Request", 2))
	st.Append("zed", entry("gpt", "assistant", "Feedback", 3))
	st.Append("zed", entry("gpt", "student", "mystery", 4))
	// amy starts with claude, later switches to gpt
	st.Append("amy", entry("claude", "student", "Exploration", 0))
	st.Append("amy", entry("gpt", "student", "Request", 0))
	st.Append("bea", entry("gpt", "student", "Request", 0))
	st.Ensure("cal")
	return st
}

func TestBuild_PacksCellsWithoutGaps(t *testing.T) {
	pal := palette.Default()
	d := Build(testStore(), pal, Options{Users: []string{"zed"}})

	if len(d.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(d.Rows))
	}
	cells := d.Rows[0].Cells
	if len(cells) != 3 {
		t.Fatalf("expected 3 cells with assistant hidden, got %d", len(cells))
	}
	for i, c := range cells {
		if c.X != i {
			t.Errorf("cell %d at x=%d, want %d", i, c.X, i)
		}
	}
	if cells[1].Order != 2 || cells[2].Order != 4 {
		t.Errorf("kept wrong messages: %+v", cells)
	}
	if cells[0].Color != pal.Color("Question Prompt") {
		t.Errorf("cell color not from palette")
	}
	if cells[2].Color != pal.Fallback() {
		t.Errorf("unknown tag should use fallback color")
	}
	if d.Width != 3 {
		t.Errorf("Width = %d, want 3", d.Width)
	}

	withAssistant := Build(testStore(), pal, Options{Users: []string{"zed"}, ShowAssistant: true})
	if n := len(withAssistant.Rows[0].Cells); n != 5 {
		t.Errorf("expected 5 cells with assistant shown, got %d", n)
	}
}

func TestBuild_GroupsByFirstMessageTutor(t *testing.T) {
	d := Build(testStore(), palette.Default(), Options{Layout: LayoutPerUser})

	var order []string
	for _, r := range d.Rows {
		order = append(order, r.Username)
	}
	// Unknown < claude < gpt in byte order
	want := []string{"cal", "amy", "zed", "bea"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("row order = %v, want %v", order, want)
	}
	if d.Rows[0].Tutor != "Unknown" {
		t.Errorf("empty user tutor = %q, want Unknown", d.Rows[0].Tutor)
	}
	if d.Rows[1].Tutor != "claude" {
		t.Errorf("amy tutor = %q, want claude (first message)", d.Rows[1].Tutor)
	}
	if len(d.Rows[0].Cells) != 0 {
		t.Errorf("empty user should have no cells")
	}

	wantGroups := []Group{{"Unknown", 0, 0}, {"claude", 1, 1}, {"gpt", 2, 3}}
	if !reflect.DeepEqual(d.Groups, wantGroups) {
		t.Errorf("groups = %+v, want %+v", d.Groups, wantGroups)
	}
	if !reflect.DeepEqual(d.Dividers, []float64{0.5, 1.5}) {
		t.Errorf("dividers = %v", d.Dividers)
	}
	if len(d.Labels) != 4 || d.Labels[2].Text != "zed (gpt)" || d.Labels[2].Pos != 2 {
		t.Errorf("per-user labels = %+v", d.Labels)
	}
}

func TestBuild_RowCountMatchesSubset(t *testing.T) {
	st := testStore()
	a := Build(st, palette.Default(), Options{Users: []string{"bea", "zed", "amy"}, Layout: LayoutPerUser})
	b := Build(st, palette.Default(), Options{Users: []string{"amy", "zed", "bea"}, Layout: LayoutPerUser})
	if len(a.Rows) != 3 || len(b.Rows) != 3 {
		t.Fatalf("row counts = %d, %d, want 3", len(a.Rows), len(b.Rows))
	}
	// inside the gpt group, request order is kept
	if a.Rows[1].Username != "bea" || a.Rows[2].Username != "zed" {
		t.Errorf("request order lost: %+v", a.Rows)
	}
	if b.Rows[1].Username != "zed" || b.Rows[2].Username != "bea" {
		t.Errorf("request order lost: %+v", b.Rows)
	}
	if a.Rows[0].Username != "amy" || b.Rows[0].Username != "amy" {
		t.Errorf("claude group must come first regardless of request order")
	}
}

func TestBuild_GroupedLabels(t *testing.T) {
	d := Build(testStore(), palette.Default(), Options{})
	want := []Label{{0, "Unknown"}, {1, "claude"}, {2.5, "gpt"}}
	if !reflect.DeepEqual(d.Labels, want) {
		t.Errorf("grouped labels = %+v, want %+v", d.Labels, want)
	}
}

func TestBuild_MissingUsersGetEmptyRows(t *testing.T) {
	d := Build(testStore(), palette.Default(), Options{Users: []string{"nobody", "ghost"}})
	if len(d.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(d.Rows))
	}
	if !reflect.DeepEqual(d.Missing, []string{"nobody", "ghost"}) {
		t.Errorf("Missing = %v", d.Missing)
	}
	if len(d.Groups) != 1 || d.Groups[0].Tutor != "Unknown" {
		t.Errorf("groups = %+v", d.Groups)
	}
	if len(d.Dividers) != 0 {
		t.Errorf("single group should have no dividers")
	}
}

func TestBuild_EmptyStore(t *testing.T) {
	d := Build(store.New(), palette.Default(), Options{})
	if len(d.Rows) != 0 || len(d.Groups) != 0 || d.Width != 0 {
		t.Errorf("expected empty diagram, got %+v", d)
	}
}

func TestBuild_Legends(t *testing.T) {
	pal := palette.Default()

	grouped := Build(testStore(), pal, Options{})
	if len(grouped.Legends) != 2 {
		t.Fatalf("grouped layout should always show both legends, got %d", len(grouped.Legends))
	}
	if len(grouped.Legends[0].Items) != 9 || len(grouped.Legends[1].Items) != 4 {
		t.Errorf("legend sizes = %d, %d", len(grouped.Legends[0].Items), len(grouped.Legends[1].Items))
	}
	if grouped.Legends[0].Items[0].Label != "Question Prompt" {
		t.Errorf("student legend must follow palette order")
	}

	hidden := Build(testStore(), pal, Options{Layout: LayoutPerUser})
	if len(hidden.Legends) != 1 || hidden.Legends[0].Title != "Student Responses" {
		t.Errorf("per-user layout without assistant actions: %+v", hidden.Legends)
	}
	shown := Build(testStore(), pal, Options{Layout: LayoutPerUser, ShowAssistant: true})
	if len(shown.Legends) != 2 {
		t.Errorf("per-user layout with assistant actions should show 2 legends")
	}
}

func TestParseLayout(t *testing.T) {
	tests := map[string]LayoutMode{
		"":         LayoutGrouped,
		"grouped":  LayoutGrouped,
		"per-user": LayoutPerUser,
		"USER":     LayoutPerUser,
	}
	for in, want := range tests {
		got, err := ParseLayout(in)
		if err != nil || got != want {
			t.Errorf("ParseLayout(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLayout("spiral"); !errors.Is(err, ErrUnknownLayout) {
		t.Errorf("expected ErrUnknownLayout, got %v", err)
	}
}

func TestRender_WritesPNG(t *testing.T) {
	dir := t.TempDir()
	pngMagic := []byte("\x89PNG\r\n\x1a\n")

	for _, layout := range []LayoutMode{LayoutGrouped, LayoutPerUser} {
		for _, st := range []*store.Store{testStore(), store.New()} {
			d := Build(st, palette.Default(), Options{Layout: layout, ShowAssistant: true})
			path := filepath.Join(dir, layout.String(), "trace.png")
			if err := Render(d, path); err != nil {
				t.Fatalf("render %s: %v", layout, err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read png: %v", err)
			}
			if !bytes.HasPrefix(data, pngMagic) {
				t.Errorf("%s: output is not a PNG", layout)
			}
		}
	}
}
