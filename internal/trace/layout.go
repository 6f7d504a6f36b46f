package trace

import (
	"errors"
	"fmt"
	"image/color"
	"sort"
	"strings"

	"github.com/Zuo-Peng/tutortrace/internal/chart"
	"github.com/Zuo-Peng/tutortrace/internal/palette"
	"github.com/Zuo-Peng/tutortrace/internal/store"
)

var ErrUnknownLayout = errors.New("unknown layout")

// LayoutMode selects how rows are labelled.
type LayoutMode int

const (
	// LayoutGrouped labels each tutor group once and puts the legends above
	// the grid.
	LayoutGrouped LayoutMode = iota
	// LayoutPerUser labels every row "username (tutor)" and puts the legends
	// in a side panel.
	LayoutPerUser
)

func (m LayoutMode) String() string {
	switch m {
	case LayoutPerUser:
		return "per-user"
	default:
		return "grouped"
	}
}

func ParseLayout(s string) (LayoutMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "grouped", "group", "tutor":
		return LayoutGrouped, nil
	case "per-user", "peruser", "user":
		return LayoutPerUser, nil
	default:
		return LayoutGrouped, fmt.Errorf("%w: %q", ErrUnknownLayout, s)
	}
}

type Options struct {
	Users         []string // nil means every user in store order
	ShowAssistant bool
	Layout        LayoutMode
	Title         string
}

// Cell is one drawn message. X is its packed horizontal position.
type Cell struct {
	X     int
	Order int
	Tag   string
	Color color.RGBA
}

// Row is one user. Index counts rows from the top.
type Row struct {
	Index    int
	Username string
	Tutor    string
	Cells    []Cell
}

// Group is a run of rows sharing a tutor. First and Last are row indexes.
type Group struct {
	Tutor string
	First int
	Last  int
}

// Label is a y-axis label centred on Pos, in row-index units.
type Label struct {
	Pos  float64
	Text string
}

// Diagram is the fully laid out trace diagram, independent of any drawing
// backend.
type Diagram struct {
	Layout   LayoutMode
	Title    string
	Rows     []Row
	Groups   []Group
	Labels   []Label
	Dividers []float64 // row-index boundaries between consecutive groups
	Legends  []chart.LegendGroup
	Width    int      // longest row, in cells
	Missing  []string // requested users absent from the store
}

// Build lays out the diagram. A user's tutor is the tutor of their first
// entry; groups are ordered by tutor name and keep request order inside.
func Build(st *store.Store, pal *palette.Palette, opts Options) Diagram {
	users := opts.Users
	if users == nil {
		users = st.Users()
	}

	d := Diagram{Layout: opts.Layout, Title: opts.Title}

	groups := make(map[string][]string)
	var tutors []string
	for _, u := range users {
		if !st.Has(u) {
			d.Missing = append(d.Missing, u)
		}
		tutor := rowTutor(st.Entries(u))
		if _, ok := groups[tutor]; !ok {
			tutors = append(tutors, tutor)
		}
		groups[tutor] = append(groups[tutor], u)
	}
	sort.Strings(tutors)

	idx := 0
	for gi, tutor := range tutors {
		g := Group{Tutor: tutor, First: idx}
		for _, u := range groups[tutor] {
			row := Row{Index: idx, Username: u, Tutor: tutor}
			row.Cells = cells(st.Entries(u), pal, opts.ShowAssistant)
			if len(row.Cells) > d.Width {
				d.Width = len(row.Cells)
			}
			if opts.Layout == LayoutPerUser {
				d.Labels = append(d.Labels, Label{Pos: float64(idx), Text: fmt.Sprintf("%s (%s)", u, tutor)})
			}
			d.Rows = append(d.Rows, row)
			idx++
		}
		g.Last = idx - 1
		d.Groups = append(d.Groups, g)
		if opts.Layout == LayoutGrouped {
			d.Labels = append(d.Labels, Label{Pos: float64(g.First+g.Last) / 2, Text: tutor})
		}
		if gi < len(tutors)-1 {
			d.Dividers = append(d.Dividers, float64(g.Last)+0.5)
		}
	}

	d.Legends = legends(pal, opts)
	return d
}

func rowTutor(entries []store.Entry) string {
	if len(entries) == 0 {
		return palette.UnknownRowTutor
	}
	return entries[0].Tutor
}

// cells packs the kept entries left to right; skipped assistant messages do
// not reserve a position.
func cells(entries []store.Entry, pal *palette.Palette, showAssistant bool) []Cell {
	var out []Cell
	for _, e := range entries {
		if !showAssistant && e.Role == palette.AssistantRole {
			continue
		}
		out = append(out, Cell{
			X:     len(out),
			Order: e.Order,
			Tag:   e.Tag,
			Color: pal.Color(e.Tag),
		})
	}
	return out
}

func legends(pal *palette.Palette, opts Options) []chart.LegendGroup {
	student := chart.LegendGroup{Title: "Student Responses", Outline: true}
	for _, s := range pal.Side(palette.SideStudent) {
		student.Items = append(student.Items, chart.LegendItem{Label: s.Label, Color: s.Color})
	}
	assistant := chart.LegendGroup{Title: "Assistant Responses"}
	for _, s := range pal.Side(palette.SideAssistant) {
		assistant.Items = append(assistant.Items, chart.LegendItem{Label: s.Label, Color: s.Color})
	}

	out := []chart.LegendGroup{student}
	if opts.Layout == LayoutGrouped || opts.ShowAssistant {
		out = append(out, assistant)
	}
	return out
}
