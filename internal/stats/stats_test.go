package stats

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Zuo-Peng/tutortrace/internal/palette"
	"github.com/Zuo-Peng/tutortrace/internal/store"
)

func student(tutor, tag string) store.Entry {
	return store.Entry{Tutor: tutor, Role: "student", Tag: tag}
}

func assistant(tutor, tag string) store.Entry {
	return store.Entry{Tutor: tutor, Role: "assistant", Tag: tag}
}

// A: X=2, Y=1; B: X=1
func exampleStore() *store.Store {
	st := store.New()
	st.Append("u2", student("B", "X"))
	st.Append("u2", assistant("B", "Solution"))
	st.Append("u1", student("A", "Y"))
	st.Append("u1", student("A", "X"))
	st.Append("u1", assistant("A", "Feedback"))
	st.Append("u1", student("A", "X"))
	st.Ensure("u3")
	return st
}

func TestAggregate_CountsStudentMessagesOnly(t *testing.T) {
	r := Aggregate(exampleStore(), RulePerMessage)

	if got := r.TutorNames(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("tutors = %v", got)
	}
	a := r.Tutors[0]
	if a.Total != 3 {
		t.Errorf("A total = %d, want 3", a.Total)
	}
	if len(a.Tags) != 2 {
		t.Fatalf("A tags = %+v", a.Tags)
	}
	if a.Tags[0].Tag != "X" || a.Tags[0].Count != 2 || FormatPercent(a.Tags[0].Percent) != "66.7%" {
		t.Errorf("A tags[0] = %+v", a.Tags[0])
	}
	if a.Tags[1].Tag != "Y" || a.Tags[1].Count != 1 || FormatPercent(a.Tags[1].Percent) != "33.3%" {
		t.Errorf("A tags[1] = %+v", a.Tags[1])
	}
	if a.Count("Feedback") != 0 {
		t.Errorf("assistant tags must not be counted")
	}
	if r.TotalMessages() != 4 {
		t.Errorf("TotalMessages = %d, want 4", r.TotalMessages())
	}
}

func TestAggregate_TiesKeepFirstSeenOrder(t *testing.T) {
	st := store.New()
	st.Append("u", student("T", "b"))
	st.Append("u", student("T", "a"))
	st.Append("u", student("T", "c"))
	st.Append("u", student("T", "a"))
	st.Append("u", student("T", "c"))

	r := Aggregate(st, RulePerMessage)
	var order []string
	for _, tc := range r.Tutors[0].Tags {
		order = append(order, tc.Tag)
	}
	if !reflect.DeepEqual(order, []string{"a", "c", "b"}) {
		t.Errorf("tag order = %v, want [a c b]", order)
	}
}

func TestAggregate_TutorRules(t *testing.T) {
	st := store.New()
	st.Append("u", student("gpt", "X"))
	st.Append("u", student("claude", "X"))

	per := Aggregate(st, RulePerMessage)
	if len(per.Tutors) != 2 {
		t.Errorf("per-message rule: expected 2 tutors, got %v", per.TutorNames())
	}
	first := Aggregate(st, RuleFirstMessage)
	if len(first.Tutors) != 1 || first.Tutors[0].Name != "gpt" || first.Tutors[0].Total != 2 {
		t.Errorf("first-message rule: got %+v", first.Tutors)
	}
}

func TestAggregate_EmptyStore(t *testing.T) {
	r := Aggregate(store.New(), RulePerMessage)
	if len(r.Tutors) != 0 || len(r.ChartTags()) != 0 {
		t.Errorf("expected empty report, got %+v", r)
	}
}

func TestPercent_ZeroTotal(t *testing.T) {
	if got := Percent(3, 0); got != 0 {
		t.Errorf("Percent(3, 0) = %v, want 0", got)
	}
	if got := FormatPercent(Percent(1, 3)); got != "33.3%" {
		t.Errorf("FormatPercent = %q", got)
	}
	if got := FormatPercent(Percent(1, 1)); got != "100.0%" {
		t.Errorf("FormatPercent = %q", got)
	}
}

func TestWriteCSV_Example(t *testing.T) {
	var b bytes.Buffer
	if err := WriteCSV(&b, Aggregate(exampleStore(), RulePerMessage)); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	want := "Tutor,Message Type,Count,Percentage\r\n" +
		"A,X,2,66.7%\r\n" +
		"A,Y,1,33.3%\r\n" +
		"B,X,1,100.0%\r\n"
	if b.String() != want {
		t.Errorf("csv =\n%q\nwant\n%q", b.String(), want)
	}
}

func TestWriteCSV_QuotesFields(t *testing.T) {
	st := store.New()
	st.Append("u", student("gpt, v2", "Question Prompt"))
	var b bytes.Buffer
	if err := WriteCSV(&b, Aggregate(st, RulePerMessage)); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if !strings.Contains(b.String(), `"gpt, v2",Question Prompt,1,100.0%`) {
		t.Errorf("csv = %q", b.String())
	}
}

func TestChartTags_Lexicographic(t *testing.T) {
	st := store.New()
	st.Append("u1", student("A", "Zeta"))
	st.Append("u1", student("A", "Zeta"))
	st.Append("u1", student("A", "Alpha"))
	st.Append("u2", student("B", "Mid"))

	r := Aggregate(st, RulePerMessage)
	if got := r.ChartTags(); !reflect.DeepEqual(got, []string{"Alpha", "Mid", "Zeta"}) {
		t.Errorf("ChartTags = %v", got)
	}
	// text order for A is by count
	if r.Tutors[0].Tags[0].Tag != "Zeta" {
		t.Errorf("report order should be by count, got %+v", r.Tutors[0].Tags)
	}
}

func TestParseTutorRule(t *testing.T) {
	if r, err := ParseTutorRule("first-message"); err != nil || r != RuleFirstMessage {
		t.Errorf("ParseTutorRule(first-message) = %v, %v", r, err)
	}
	if r, err := ParseTutorRule(""); err != nil || r != RulePerMessage {
		t.Errorf("ParseTutorRule(\"\") = %v, %v", r, err)
	}
	if _, err := ParseTutorRule("random"); !errors.Is(err, ErrUnknownTutorRule) {
		t.Errorf("expected ErrUnknownTutorRule, got %v", err)
	}
}

func TestChart_StacksInTagOrder(t *testing.T) {
	pal := palette.Default()
	_, legend, err := Chart(Aggregate(exampleStore(), RulePerMessage), pal)
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if len(legend) != 2 || legend[0].Label != "X" || legend[1].Label != "Y" {
		t.Errorf("legend = %+v", legend)
	}
	if legend[0].Color != pal.Fallback() {
		t.Errorf("unknown tag should use fallback color")
	}
}

func TestSaveCSVAndRenderChart(t *testing.T) {
	dir := t.TempDir()
	r := Aggregate(exampleStore(), RulePerMessage)

	csvPath := filepath.Join(dir, "reports", "message_statistics.csv")
	if err := SaveCSV(csvPath, r); err != nil {
		t.Fatalf("save csv: %v", err)
	}
	if _, err := os.Stat(csvPath); err != nil {
		t.Errorf("csv not written: %v", err)
	}

	pngPath := filepath.Join(dir, "reports", "message_statistics.png")
	if err := RenderChart(r, palette.Default(), pngPath); err != nil {
		t.Fatalf("render chart: %v", err)
	}
	data, err := os.ReadFile(pngPath)
	if err != nil {
		t.Fatalf("read png: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Errorf("chart is not a PNG")
	}

	empty := filepath.Join(dir, "empty.png")
	if err := RenderChart(Aggregate(store.New(), RulePerMessage), palette.Default(), empty); err != nil {
		t.Errorf("empty chart: %v", err)
	}
}
