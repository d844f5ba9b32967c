package models

// FilterSelection holds the current values of the filter controls
type FilterSelection struct {
	TermStart  int                 `json:"term_start"` // 0 = dataset minimum
	TermEnd    int                 `json:"term_end"`   // 0 = dataset maximum
	Categories map[string][]string `json:"categories"` // empty list = no constraint
}

// SortDirection represents a table sort direction
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortBy is a single table sort key
type SortBy struct {
	Column    string        `json:"column"`
	Direction SortDirection `json:"direction"`
}

// TableQuery is the per-column sort and filter applied to the displayed table
type TableQuery struct {
	Sort    []SortBy          `json:"sort,omitempty"`
	Filters map[string]string `json:"filters,omitempty"` // column -> filter expression
}

// IsEmpty reports whether the query leaves rows untouched
func (q TableQuery) IsEmpty() bool {
	if len(q.Sort) > 0 {
		return false
	}
	for _, expr := range q.Filters {
		if expr != "" {
			return false
		}
	}
	return true
}

// DashboardState is the full set of control values for one dashboard
type DashboardState struct {
	Selection     FilterSelection `json:"selection"`
	Columns       []string        `json:"columns"`
	BarVariable   string          `json:"bar_variable"`
	TrendVariable string          `json:"trend_variable"`
	Table         TableQuery      `json:"table"`
}

// TermCount is the number of records decided in one term
type TermCount struct {
	Term  int `json:"term"`
	Count int `json:"count"`
}

// CategoryCount is the number of records carrying one value of a variable
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// TrendSeries is the per-term count of records carrying one value of a variable
type TrendSeries struct {
	Value  string      `json:"value"`
	Points []TermCount `json:"points"`
}
