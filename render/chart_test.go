package render

import (
	"testing"

	"scdb-dashboard/models"
)

func TestTimeSeriesChart(t *testing.T) {
	chart := TimeSeriesChart([]models.TermCount{{Term: 1990, Count: 3}, {Term: 1992, Count: 2}})

	if chart.Type != ChartLine || chart.XAxis != "Year" || chart.YAxis != "Number of Cases" {
		t.Errorf("unexpected chart header %+v", chart)
	}
	if len(chart.Series) != 1 {
		t.Fatalf("expected one series, got %d", len(chart.Series))
	}
	pts := chart.Series[0].Points
	if len(pts) != 2 || pts[0] != (Point{Label: "1990", Value: 3}) || pts[1] != (Point{Label: "1992", Value: 2}) {
		t.Errorf("unexpected points %+v", pts)
	}
}

func TestBarChartUsesVariableAxis(t *testing.T) {
	chart := BarChart("issueArea", []models.CategoryCount{{Value: "8", Count: 4}, {Value: "1", Count: 2}})
	if chart.Type != ChartBar || chart.XAxis != "issueArea" {
		t.Errorf("unexpected chart %+v", chart)
	}
	if chart.Series[0].Points[0].Label != "8" {
		t.Errorf("bar order must follow the view, got %+v", chart.Series[0].Points)
	}
}

func TestTrendChartColorsAndMarkers(t *testing.T) {
	chart := TrendChart("decisionDirection", []models.TrendSeries{
		{Value: "conservative", Points: []models.TermCount{{Term: 1990, Count: 1}}},
		{Value: "liberal", Points: []models.TermCount{{Term: 1990, Count: 2}, {Term: 2001, Count: 1}}},
	})

	if !chart.Markers || !chart.ShowLegend {
		t.Error("trend chart should show markers and a legend")
	}
	if len(chart.Series) != 2 || chart.Series[1].Name != "liberal" {
		t.Fatalf("unexpected series %+v", chart.Series)
	}
	if chart.Series[0].Color == chart.Series[1].Color {
		t.Error("series should get distinct colors")
	}
}

func TestEmptyViewsProduceEmptyCharts(t *testing.T) {
	if pts := TimeSeriesChart(nil).Series[0].Points; pts == nil || len(pts) != 0 {
		t.Errorf("expected empty, non-nil points, got %#v", pts)
	}
	if s := TrendChart("chief", nil).Series; s == nil || len(s) != 0 {
		t.Errorf("expected empty, non-nil series, got %#v", s)
	}
}
