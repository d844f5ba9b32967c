package service

import (
	"scdb-dashboard/repository"
)

// FilterControl is one categorical multi-select
type FilterControl struct {
	Column  string   `json:"column"`
	Label   string   `json:"label"`
	Options []string `json:"options"`
}

// TermRange is the inclusive span of terms in the dataset
type TermRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// ControlPanel describes every control the page renders and its default
type ControlPanel struct {
	Title                string          `json:"title"`
	Terms                TermRange       `json:"terms"`
	Filters              []FilterControl `json:"filters"`
	Columns              []string        `json:"columns"`
	DefaultColumns       []string        `json:"default_columns"`
	BarVariables         []string        `json:"bar_variables"`
	DefaultBarVariable   string          `json:"default_bar_variable"`
	TrendVariables       []string        `json:"trend_variables"`
	DefaultTrendVariable string          `json:"default_trend_variable"`
	PageSize             int             `json:"page_size"`
	RecordCount          int             `json:"record_count"`
}

// BuildControlPanel derives control options from the loaded dataset
func BuildControlPanel(cases *repository.CaseRepository) *ControlPanel {
	layout := cases.Layout()
	min, max, _ := cases.TermBounds()

	filters := make([]FilterControl, 0, len(layout.Filters))
	for _, f := range layout.Filters {
		options := cases.DistinctValues(f.Column)
		if options == nil {
			options = []string{}
		}
		filters = append(filters, FilterControl{Column: f.Column, Label: f.Label, Options: options})
	}

	return &ControlPanel{
		Title:                layout.Title,
		Terms:                TermRange{Min: min, Max: max},
		Filters:              filters,
		Columns:              cases.Columns(),
		DefaultColumns:       availableColumns(cases, layout.DefaultColumns),
		BarVariables:         layout.BarVariables,
		DefaultBarVariable:   layout.DefaultBarVariable,
		TrendVariables:       layout.TrendVariables,
		DefaultTrendVariable: layout.DefaultTrendVariable,
		PageSize:             layout.PageSize,
		RecordCount:          cases.Len(),
	}
}

func availableColumns(cases *repository.CaseRepository, columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if cases.HasColumn(c) {
			out = append(out, c)
		}
	}
	return out
}
