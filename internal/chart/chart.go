// Package chart holds the gonum/plot pieces shared by the trace diagram and
// the statistics chart: legend patches, legend panels and PNG output.
package chart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Patch is a filled legend square, optionally outlined.
type Patch struct {
	Color   color.Color
	Outline bool
}

var outlineStyle = draw.LineStyle{Color: color.Black, Width: vg.Points(0.5)}

// Thumbnail implements plot.Thumbnailer.
func (p Patch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(p.Color, c.ClipPolygonY(pts))
	if p.Outline {
		c.StrokeLines(outlineStyle, c.ClipLinesY(append(pts, pts[0]))...)
	}
}

// LegendItem is one label of a legend group.
type LegendItem struct {
	Label string
	Color color.Color
}

// LegendGroup is a titled legend drawn as its own panel.
type LegendGroup struct {
	Title   string
	Items   []LegendItem
	Outline bool
}

// DrawLegend draws a titled group top-left inside c.
func DrawLegend(c draw.Canvas, g LegendGroup, fontSize vg.Length) {
	l := plot.NewLegend()
	l.Top = true
	l.Left = true
	l.TextStyle.Font.Size = fontSize
	l.ThumbnailWidth = fontSize
	if g.Title != "" {
		l.Add(g.Title)
	}
	for _, it := range g.Items {
		l.Add(it.Label, Patch{Color: it.Color, Outline: g.Outline})
	}
	l.Draw(c)
}

// LegendHeight estimates the vertical space a group needs.
func LegendHeight(g LegendGroup, fontSize vg.Length) vg.Length {
	n := len(g.Items)
	if g.Title != "" {
		n++
	}
	return vg.Length(n)*fontSize*1.4 + fontSize
}

// NewCanvas returns a white image canvas and its drawing area.
func NewCanvas(w, h vg.Length) (*vgimg.Canvas, draw.Canvas) {
	img := vgimg.New(w, h)
	return img, draw.New(img)
}

// SavePNG writes img to path, creating parent directories as needed.
func SavePNG(img *vgimg.Canvas, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write png: %w", err)
	}
	return f.Close()
}
