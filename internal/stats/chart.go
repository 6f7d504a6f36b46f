package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Zuo-Peng/tutortrace/internal/chart"
	"github.com/Zuo-Peng/tutortrace/internal/palette"
)

const (
	chartWidth  = 12 * vg.Inch
	chartHeight = 8 * vg.Inch
	legendWidth = 3 * vg.Inch
)

// Chart builds the stacked bar plot: one bar per tutor, one segment per tag,
// segments stacked in ChartTags order.
func Chart(r *Report, pal *palette.Palette) (*plot.Plot, []chart.LegendItem, error) {
	p := plot.New()
	p.Title.Text = "Message Types by Tutor"
	p.Y.Label.Text = "Number of Messages"

	tutors := r.TutorNames()
	barWidth := vg.Points(40)
	if len(tutors) > 8 {
		barWidth = vg.Points(320 / float64(len(tutors)))
	}

	var legend []chart.LegendItem
	var below *plotter.BarChart
	for _, tag := range r.ChartTags() {
		vals := make(plotter.Values, len(r.Tutors))
		for i, t := range r.Tutors {
			vals[i] = float64(t.Count(tag))
		}
		bars, err := plotter.NewBarChart(vals, barWidth)
		if err != nil {
			return nil, nil, fmt.Errorf("bars for %q: %w", tag, err)
		}
		bars.Color = pal.Color(tag)
		bars.LineStyle.Width = 0
		if below != nil {
			bars.StackOn(below)
		}
		p.Add(bars)
		below = bars

		label := tag
		if label == "" {
			label = "(untagged)"
		}
		legend = append(legend, chart.LegendItem{Label: label, Color: pal.Color(tag)})
	}

	if len(tutors) > 0 {
		p.NominalX(tutors...)
	}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
	p.Y.Min = 0
	return p, legend, nil
}

// RenderChart writes the stacked bar chart with a legend panel on the right.
func RenderChart(r *Report, pal *palette.Palette, path string) error {
	p, items, err := Chart(r, pal)
	if err != nil {
		return err
	}

	font := vg.Points(12)
	w := chartWidth + legendWidth
	img, dc := chart.NewCanvas(w, chartHeight)
	pad := vg.Points(10)
	p.Draw(draw.Crop(dc, 0, -legendWidth, 0, 0))
	panel := draw.Crop(dc, chartWidth+pad, -pad, pad, -pad)
	chart.DrawLegend(panel, chart.LegendGroup{Items: items}, font)

	return chart.SavePNG(img, path)
}
