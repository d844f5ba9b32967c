// Package render turns aggregated dashboard views into chart and table
// descriptions the page (or a PNG renderer) can draw without further logic.
package render

import (
	"strconv"

	"scdb-dashboard/models"
)

// ChartType is the kind of chart a Chart describes
type ChartType string

const (
	ChartLine ChartType = "line"
	ChartBar  ChartType = "bar"
)

const (
	axisYear  = "Year"
	axisCases = "Number of Cases"
)

// Navy matches the dashboard theme and colors single-series charts.
const Navy = "#000080"

// palette colors multi-series charts, one entry per series in order
var palette = []string{
	"#000080", "#E4572E", "#17BEBB", "#FFC914", "#76B041",
	"#8B5CF6", "#EC4899", "#06B6D4", "#F97316", "#6B7280",
}

// Chart describes one chart
type Chart struct {
	Type       ChartType `json:"type"`
	Title      string    `json:"title"`
	XAxis      string    `json:"x_axis"`
	YAxis      string    `json:"y_axis"`
	Series     []Series  `json:"series"`
	ShowLegend bool      `json:"show_legend"`
	Markers    bool      `json:"markers"`
}

// Series is one named sequence of points
type Series struct {
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

// Point is a labelled count
type Point struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// TimeSeriesChart describes the total-cases-per-term line chart
func TimeSeriesChart(counts []models.TermCount) *Chart {
	points := make([]Point, 0, len(counts))
	for _, c := range counts {
		points = append(points, Point{Label: strconv.Itoa(c.Term), Value: c.Count})
	}

	return &Chart{
		Type:   ChartLine,
		Title:  "Total Cases",
		XAxis:  axisYear,
		YAxis:  axisCases,
		Series: []Series{{Name: "Cases", Color: Navy, Points: points}},
	}
}

// BarChart describes the count distribution of one variable
func BarChart(variable string, counts []models.CategoryCount) *Chart {
	points := make([]Point, 0, len(counts))
	for _, c := range counts {
		points = append(points, Point{Label: c.Value, Value: c.Count})
	}

	return &Chart{
		Type:   ChartBar,
		Title:  "Count Distribution",
		XAxis:  variable,
		YAxis:  axisCases,
		Series: []Series{{Name: variable, Color: Navy, Points: points}},
	}
}

// TrendChart describes one line per value of a variable over terms
func TrendChart(variable string, trend []models.TrendSeries) *Chart {
	series := make([]Series, 0, len(trend))
	for i, s := range trend {
		points := make([]Point, 0, len(s.Points))
		for _, p := range s.Points {
			points = append(points, Point{Label: strconv.Itoa(p.Term), Value: p.Count})
		}
		series = append(series, Series{
			Name:   s.Value,
			Color:  palette[i%len(palette)],
			Points: points,
		})
	}

	return &Chart{
		Type:       ChartLine,
		Title:      "Trend Over Time",
		XAxis:      axisYear,
		YAxis:      axisCases,
		Series:     series,
		ShowLegend: true,
		Markers:    true,
	}
}
