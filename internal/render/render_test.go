package render

import (
	"strings"
	"testing"

	"github.com/Zuo-Peng/tutortrace/internal/palette"
	"github.com/Zuo-Peng/tutortrace/internal/stats"
	"github.com/Zuo-Peng/tutortrace/internal/store"
)

func report() *stats.Report {
	st := store.New()
	st.Append("u1", store.Entry{Tutor: "B", Role: "student", Tag: "X"})
	st.Append("u2", store.Entry{Tutor: "A", Role: "student", Tag: "Y"})
	st.Append("u2", store.Entry{Tutor: "A", Role: "student", Tag: "X"})
	st.Append("u2", store.Entry{Tutor: "A", Role: "student", Tag: "X"})
	return stats.Aggregate(st, stats.RulePerMessage)
}

func TestSummary_Plain(t *testing.T) {
	got := Summary(report(), palette.Default(), Options{})
	want := `
Message Statistics by Tutor:
--------------------------------------------------

Tutor: A
Total Messages: 3
Message Types:
  - X: 2 (66.7%)
  - Y: 1 (33.3%)

Tutor: B
Total Messages: 1
Message Types:
  - X: 1 (100.0%)
`
	if got != want {
		t.Errorf("summary =\n%s\nwant\n%s", got, want)
	}
}

func TestSummary_ColorKeepsContent(t *testing.T) {
	got := Summary(report(), palette.Default(), Options{Color: true})
	for _, s := range []string{"Tutor:", "A", "B", "66.7%", "100.0%", "■"} {
		if !strings.Contains(got, s) {
			t.Errorf("color summary missing %q:\n%s", s, got)
		}
	}
}

func TestSummary_Empty(t *testing.T) {
	got := Summary(stats.Aggregate(store.New(), stats.RulePerMessage), palette.Default(), Options{})
	if strings.Contains(got, "\nTutor: ") {
		t.Errorf("empty report should list no tutors:\n%s", got)
	}
	if !strings.HasPrefix(got, "\nMessage Statistics by Tutor:\n") || !strings.Contains(got, separator) {
		t.Errorf("header missing:\n%s", got)
	}
}
