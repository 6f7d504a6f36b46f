package trace

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Zuo-Peng/tutortrace/internal/chart"
)

const (
	cellHalfHeight = 0.4
	legendFont     = 14
	labelFont      = 14
)

var (
	cellEdge       = draw.LineStyle{Color: color.Black, Width: vg.Points(0.5)}
	groupedDivider = draw.LineStyle{Color: color.Gray{Y: 0x80}, Width: vg.Points(3), Dashes: []vg.Length{vg.Points(8), vg.Points(4)}}
	perUserDivider = draw.LineStyle{Color: color.Gray{Y: 0x80}, Width: vg.Points(1), Dashes: []vg.Length{vg.Points(4), vg.Points(4)}}
)

// grid is a plot.Plotter drawing the diagram cells and group dividers.
// Row 0 is drawn at the top.
type grid struct {
	d       Diagram
	divider draw.LineStyle
}

func (g grid) rowY(index float64) float64 {
	return float64(len(g.d.Rows)-1) - index
}

// Plot implements plot.Plotter.
func (g grid) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)

	for _, row := range g.d.Rows {
		y := g.rowY(float64(row.Index))
		for _, cell := range row.Cells {
			x := float64(cell.X)
			pts := []vg.Point{
				{X: trX(x), Y: trY(y - cellHalfHeight)},
				{X: trX(x + 1), Y: trY(y - cellHalfHeight)},
				{X: trX(x + 1), Y: trY(y + cellHalfHeight)},
				{X: trX(x), Y: trY(y + cellHalfHeight)},
			}
			c.FillPolygon(cell.Color, c.ClipPolygonXY(pts))
			c.StrokeLines(cellEdge, c.ClipLinesXY(append(pts, pts[0]))...)
		}
	}

	for _, div := range g.d.Dividers {
		y := trY(g.rowY(div))
		c.StrokeLine2(g.divider, c.Min.X, y, c.Max.X, y)
	}
}

func (d Diagram) plot() *plot.Plot {
	p := plot.New()
	p.Title.Text = d.Title
	p.X.Label.Text = "Message Order"
	p.X.Label.TextStyle.Font.Size = vg.Points(18)
	p.X.Tick.Label.Font.Size = vg.Points(labelFont)
	p.Y.Tick.Label.Font.Size = vg.Points(labelFont)

	divider := groupedDivider
	if d.Layout == LayoutPerUser {
		divider = perUserDivider
	}
	p.Add(grid{d: d, divider: divider})

	width := d.Width
	if width < 1 {
		width = 1
	}
	p.X.Min, p.X.Max = -1, float64(width)+1
	p.Y.Min, p.Y.Max = -1, float64(len(d.Rows))
	if len(d.Rows) == 0 {
		p.Y.Max = 1
	}

	ticks := make([]plot.Tick, 0, len(d.Labels))
	for _, l := range d.Labels {
		ticks = append(ticks, plot.Tick{Value: float64(len(d.Rows)-1) - l.Pos, Label: l.Text})
	}
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	return p
}

// size returns the image size and the legend panel extent: its height for
// the grouped layout, its width for the per-user layout.
func (d Diagram) size() (w, h, panel vg.Length) {
	rows := len(d.Rows) + 2
	if rows < 6 {
		rows = 6
	}
	w = 18 * vg.Inch
	h = vg.Length(rows) * vg.Inch

	font := vg.Points(legendFont)
	switch d.Layout {
	case LayoutPerUser:
		panel = 4 * vg.Inch
		w += panel
		var need vg.Length
		for _, g := range d.Legends {
			need += chart.LegendHeight(g, font)
		}
		if need > h {
			h = need
		}
	default:
		for _, g := range d.Legends {
			if lh := chart.LegendHeight(g, font); lh > panel {
				panel = lh
			}
		}
		h += panel
	}
	return w, h, panel
}

// Render draws the diagram and writes it to path as a PNG.
func Render(d Diagram, path string) error {
	w, h, panel := d.size()
	img, dc := chart.NewCanvas(w, h)
	font := vg.Points(legendFont)
	pad := vg.Points(10)

	p := d.plot()
	switch d.Layout {
	case LayoutPerUser:
		p.Draw(draw.Crop(dc, 0, -panel, 0, 0))
		side := draw.Crop(dc, w-panel+pad, -pad, pad, -pad)
		for _, g := range d.Legends {
			chart.DrawLegend(side, g, font)
			side = draw.Crop(side, 0, 0, 0, -chart.LegendHeight(g, font))
		}
	default:
		p.Draw(draw.Crop(dc, 0, 0, 0, -panel))
		top := draw.Crop(dc, pad, -pad, h-panel, -pad)
		if n := len(d.Legends); n > 0 {
			colW := (w - 2*pad) / vg.Length(n)
			for i, g := range d.Legends {
				left := vg.Length(i) * colW
				right := -(vg.Length(n-1-i) * colW)
				chart.DrawLegend(draw.Crop(top, left, right, 0, 0), g, font)
			}
		}
	}

	return chart.SavePNG(img, path)
}
