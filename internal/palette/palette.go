package palette

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Roles as they appear in session logs.
const (
	StudentRole   = "student"
	AssistantRole = "assistant"
)

// Fallback values substituted for referential gaps.
const (
	UnknownTutor      = "unknown" // session without metadata.llmService
	UnknownRowTutor   = "Unknown" // user with no messages, or entry without a tutor
	UnknownTag        = "Unknown" // entry without a tag key
	UnknownUserID     = "unknown" // session without user.$oid
	UnknownUserPrefix = "unknown_"
	FallbackHex       = "#9E9E9E"
)

var ErrBadColor = errors.New("invalid hex color")

type Side int

const (
	SideNone Side = iota
	SideStudent
	SideAssistant
)

func (s Side) String() string {
	switch s {
	case SideStudent:
		return "student"
	case SideAssistant:
		return "assistant"
	default:
		return ""
	}
}

func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SideNone, nil
	case "student":
		return SideStudent, nil
	case "assistant":
		return SideAssistant, nil
	default:
		return SideNone, fmt.Errorf("unknown palette side %q", s)
	}
}

// Swatch maps one tag label to its color and legend side.
type Swatch struct {
	Label string
	Hex   string
	Side  Side
	Color color.RGBA
}

// defaults is ordered: legends list tags in this order.
var defaults = []struct {
	label string
	hex   string
	side  Side
}{
	// student, blue
	{"Question Prompt", "#1E88E5", SideStudent},
	{"Question Summary", "#64B5F6", SideStudent},
	{"Request", "#D5FFFF", SideStudent},
	{"Question Clarification", "#FFE0E0", SideStudent},

	// student, purple
	{"Exploration", "#7E57C2", SideStudent},
	{"Clarifying Question", "#B39DDB", SideStudent},
	{"Error Message", "#FF5722", SideStudent},

	// student, teal
	{"Partial Solution", "#00897B", SideStudent},
	{"Pseudocode Solution", "#4DB6AC", SideStudent},

	{"Solution", "#43A047", SideAssistant},
	{"Leading Question", "#FFD600", SideAssistant},
	{"Feedback", "#FB8C00", SideAssistant},
	{"Unrelated", "#9E9E9E", SideAssistant},
}

// Palette is the shared tag -> color table used by both the trace diagram and
// the statistics chart.
type Palette struct {
	swatches []Swatch
	byLabel  map[string]int
	fallback color.RGBA
}

// Default returns the built-in tag palette.
func Default() *Palette {
	p := &Palette{byLabel: make(map[string]int)}
	p.fallback = mustHex(FallbackHex)
	for _, d := range defaults {
		p.set(Swatch{Label: d.label, Hex: d.hex, Side: d.side, Color: mustHex(d.hex)})
	}
	return p
}

// New builds a palette from scratch. An empty fallback uses FallbackHex.
func New(swatches []Swatch, fallbackHex string) (*Palette, error) {
	if fallbackHex == "" {
		fallbackHex = FallbackHex
	}
	fb, err := ParseHex(fallbackHex)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	p := &Palette{byLabel: make(map[string]int), fallback: fb}
	for _, s := range swatches {
		c, err := ParseHex(s.Hex)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", s.Label, err)
		}
		s.Color = c
		p.set(s)
	}
	return p, nil
}

// With returns a copy of p where each override replaces the swatch of the same
// label in place, or is appended when the label is new.
func (p *Palette) With(overrides []Swatch, fallbackHex string) (*Palette, error) {
	merged := make([]Swatch, len(p.swatches))
	copy(merged, p.swatches)
	out, err := New(merged, fallbackHex)
	if err != nil {
		return nil, err
	}
	if fallbackHex == "" {
		out.fallback = p.fallback
	}
	for _, o := range overrides {
		c, err := ParseHex(o.Hex)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", o.Label, err)
		}
		o.Color = c
		out.set(o)
	}
	return out, nil
}

func (p *Palette) set(s Swatch) {
	if i, ok := p.byLabel[s.Label]; ok {
		p.swatches[i] = s
		return
	}
	p.byLabel[s.Label] = len(p.swatches)
	p.swatches = append(p.swatches, s)
}

// Color returns the tag's color, or the fallback color for unknown tags.
func (p *Palette) Color(tag string) color.RGBA {
	if i, ok := p.byLabel[tag]; ok {
		return p.swatches[i].Color
	}
	return p.fallback
}

// Hex is like Color but returns the configured "#RRGGBB" string.
func (p *Palette) Hex(tag string) string {
	if i, ok := p.byLabel[tag]; ok {
		return p.swatches[i].Hex
	}
	return toHex(p.fallback)
}

func (p *Palette) Has(tag string) bool {
	_, ok := p.byLabel[tag]
	return ok
}

func (p *Palette) Fallback() color.RGBA {
	return p.fallback
}

// Swatches returns all entries in palette order.
func (p *Palette) Swatches() []Swatch {
	out := make([]Swatch, len(p.swatches))
	copy(out, p.swatches)
	return out
}

// Side returns the entries belonging to one legend group, in palette order.
func (p *Palette) Side(side Side) []Swatch {
	var out []Swatch
	for _, s := range p.swatches {
		if s.Side == side {
			out = append(out, s)
		}
	}
	return out
}

// ParseHex accepts "#RRGGBB" or "RRGGBB".
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func mustHex(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func toHex(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
