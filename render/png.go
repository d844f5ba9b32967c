package render

import (
	"fmt"
	"image/color"
	"io"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Default PNG size for server-rendered charts
const (
	PNGWidth  = 8 * vg.Inch
	PNGHeight = 4 * vg.Inch
)

// WritePNG draws a chart with gonum/plot and writes it as PNG
func WritePNG(w io.Writer, chart *Chart, width, height vg.Length) error {
	p := plot.New()
	p.Title.Text = chart.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = chart.XAxis
	p.Y.Label.Text = chart.YAxis
	p.Add(plotter.NewGrid())

	var err error
	switch chart.Type {
	case ChartBar:
		err = addBars(p, chart)
	default:
		err = addLines(p, chart)
	}
	if err != nil {
		return err
	}

	if !hasPoints(chart) {
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}

func addLines(p *plot.Plot, chart *Chart) error {
	for i, s := range chart.Series {
		if len(s.Points) == 0 {
			continue
		}

		pts := make(plotter.XYs, len(s.Points))
		for j, pt := range s.Points {
			x, err := strconv.ParseFloat(pt.Label, 64)
			if err != nil {
				x = float64(j)
			}
			pts[j].X = x
			pts[j].Y = float64(pt.Value)
		}

		c := seriesColor(s, i)
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return fmt.Errorf("failed to build series %q: %w", s.Name, err)
		}
		line.Color = c
		line.Width = vg.Points(2)
		p.Add(line)

		if chart.Markers {
			points.Shape = draw.CircleGlyph{}
			points.Color = c
			points.Radius = vg.Points(3)
			p.Add(points)
		}
		if chart.ShowLegend {
			p.Legend.Add(s.Name, line)
		}
	}
	if chart.ShowLegend {
		p.Legend.Top = true
	}
	return nil
}

func addBars(p *plot.Plot, chart *Chart) error {
	if len(chart.Series) == 0 || len(chart.Series[0].Points) == 0 {
		return nil
	}
	s := chart.Series[0]

	values := make(plotter.Values, len(s.Points))
	labels := make([]string, len(s.Points))
	for i, pt := range s.Points {
		values[i] = float64(pt.Value)
		labels[i] = pt.Label
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.Color = seriesColor(s, 0)
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)
	return nil
}

func hasPoints(chart *Chart) bool {
	for _, s := range chart.Series {
		if len(s.Points) > 0 {
			return true
		}
	}
	return false
}

func seriesColor(s Series, i int) color.Color {
	if c, ok := parseHexColor(s.Color); ok {
		return c
	}
	c, _ := parseHexColor(palette[i%len(palette)])
	return c
}

// parseHexColor parses "#RRGGBB"
func parseHexColor(s string) (color.RGBA, bool) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}
