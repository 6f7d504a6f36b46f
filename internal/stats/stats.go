package stats

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Zuo-Peng/tutortrace/internal/palette"
	"github.com/Zuo-Peng/tutortrace/internal/store"
)

var ErrUnknownTutorRule = errors.New("unknown tutor rule")

// TutorRule decides which tutor a student message is counted under.
type TutorRule int

const (
	// RulePerMessage uses the tutor stored on each entry.
	RulePerMessage TutorRule = iota
	// RuleFirstMessage uses the tutor of the user's first entry, like the
	// trace diagram does.
	RuleFirstMessage
)

func (r TutorRule) String() string {
	if r == RuleFirstMessage {
		return "first-message"
	}
	return "per-message"
}

func ParseTutorRule(s string) (TutorRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "per-message", "message":
		return RulePerMessage, nil
	case "first-message", "first", "user":
		return RuleFirstMessage, nil
	default:
		return RulePerMessage, fmt.Errorf("%w: %q", ErrUnknownTutorRule, s)
	}
}

type TagCount struct {
	Tag     string
	Count   int
	Percent float64
}

type TutorStats struct {
	Name  string
	Total int        // student messages
	Tags  []TagCount // descending count, ties in first-seen order
}

// Count returns the occurrences of tag, 0 when absent.
func (t TutorStats) Count(tag string) int {
	for _, tc := range t.Tags {
		if tc.Tag == tag {
			return tc.Count
		}
	}
	return 0
}

type Report struct {
	Rule   TutorRule
	Tutors []TutorStats // by name
}

type tally struct {
	total int
	order []string
	count map[string]int
}

// Aggregate counts student message tags per tutor.
func Aggregate(st *store.Store, rule TutorRule) *Report {
	tallies := make(map[string]*tally)

	for _, user := range st.Users() {
		entries := st.Entries(user)
		if len(entries) == 0 {
			continue
		}
		first := entries[0].Tutor
		for _, e := range entries {
			if e.Role != palette.StudentRole {
				continue
			}
			tutor := e.Tutor
			if rule == RuleFirstMessage {
				tutor = first
			}
			t, ok := tallies[tutor]
			if !ok {
				t = &tally{count: make(map[string]int)}
				tallies[tutor] = t
			}
			if _, seen := t.count[e.Tag]; !seen {
				t.order = append(t.order, e.Tag)
			}
			t.count[e.Tag]++
			t.total++
		}
	}

	r := &Report{Rule: rule}
	for name, t := range tallies {
		ts := TutorStats{Name: name, Total: t.total}
		for _, tag := range t.order {
			n := t.count[tag]
			ts.Tags = append(ts.Tags, TagCount{Tag: tag, Count: n, Percent: Percent(n, t.total)})
		}
		sort.SliceStable(ts.Tags, func(i, j int) bool {
			return ts.Tags[i].Count > ts.Tags[j].Count
		})
		r.Tutors = append(r.Tutors, ts)
	}
	sort.Slice(r.Tutors, func(i, j int) bool {
		return r.Tutors[i].Name < r.Tutors[j].Name
	})
	return r
}

// Percent returns count/total*100, or 0 when total is 0.
func Percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// FormatPercent renders one decimal place and a trailing '%'.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

func (r *Report) TutorNames() []string {
	names := make([]string, len(r.Tutors))
	for i, t := range r.Tutors {
		names[i] = t.Name
	}
	return names
}

// ChartTags returns every observed tag in lexicographic order. Unlike the
// text report this ignores counts.
func (r *Report) ChartTags() []string {
	seen := make(map[string]bool)
	var tags []string
	for _, t := range r.Tutors {
		for _, tc := range t.Tags {
			if !seen[tc.Tag] {
				seen[tc.Tag] = true
				tags = append(tags, tc.Tag)
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// TotalMessages sums the student messages over all tutors.
func (r *Report) TotalMessages() int {
	n := 0
	for _, t := range r.Tutors {
		n += t.Total
	}
	return n
}
