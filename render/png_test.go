package render

import (
	"bytes"
	"testing"

	"scdb-dashboard/models"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func TestWritePNG(t *testing.T) {
	charts := map[string]*Chart{
		"line":  TimeSeriesChart([]models.TermCount{{Term: 1990, Count: 3}, {Term: 1992, Count: 2}}),
		"bar":   BarChart("issueArea", []models.CategoryCount{{Value: "8", Count: 3}, {Value: "1", Count: 2}}),
		"trend": TrendChart("chief", []models.TrendSeries{{Value: "Roberts", Points: []models.TermCount{{Term: 2005, Count: 2}}}}),
		"empty": TimeSeriesChart(nil),
	}

	for name, chart := range charts {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WritePNG(&buf, chart, PNGWidth, PNGHeight); err != nil {
				t.Fatalf("WritePNG: %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), pngSignature) {
				t.Error("output is not a PNG")
			}
		})
	}
}

func TestParseHexColor(t *testing.T) {
	c, ok := parseHexColor("#000080")
	if !ok || c.R != 0 || c.G != 0 || c.B != 0x80 || c.A != 0xff {
		t.Errorf("parseHexColor = %+v, %v", c, ok)
	}
	if _, ok := parseHexColor("navy"); ok {
		t.Error("expected failure for non-hex color")
	}
}
