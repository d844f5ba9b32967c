package service

import (
	"errors"
	"fmt"

	"scdb-dashboard/models"
	"scdb-dashboard/render"
	"scdb-dashboard/repository"

	"github.com/rs/zerolog"
)

// DashboardService recomputes every dashboard output from a full control state
type DashboardService struct {
	cases  *repository.CaseRepository
	logger zerolog.Logger
}

// DashboardServiceOption is a functional option for DashboardService
type DashboardServiceOption func(*DashboardService)

// WithCaseRepository sets the dataset
func WithCaseRepository(cases *repository.CaseRepository) DashboardServiceOption {
	return func(s *DashboardService) {
		s.cases = cases
	}
}

// WithDashboardLogger sets the logger
func WithDashboardLogger(logger zerolog.Logger) DashboardServiceOption {
	return func(s *DashboardService) {
		s.logger = logger
	}
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(opts ...DashboardServiceOption) *DashboardService {
	s := &DashboardService{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Charts groups the three dashboard charts
type Charts struct {
	TimeSeries *render.Chart `json:"time_series"`
	Bar        *render.Chart `json:"bar"`
	Trend      *render.Chart `json:"trend"`
}

// DashboardResult is everything the page shows for one state
type DashboardResult struct {
	State      models.DashboardState  `json:"state"`
	Matched    int                    `json:"matched"`
	TimeSeries []models.TermCount     `json:"time_series"`
	Bar        []models.CategoryCount `json:"bar"`
	Trend      []models.TrendSeries   `json:"trend"`
	Charts     Charts                 `json:"charts"`
	Table      *render.Table          `json:"table"`
	Warnings   []string               `json:"warnings"`
}

var errNoDataset = errors.New("case repository not set")

// Controls returns the control panel for the loaded dataset
func (s *DashboardService) Controls() (*ControlPanel, error) {
	if s.cases == nil {
		return nil, errNoDataset
	}
	return BuildControlPanel(s.cases), nil
}

// DefaultState returns the state the page starts in
func (s *DashboardService) DefaultState() models.DashboardState {
	if s.cases == nil {
		return models.DashboardState{}
	}
	layout := s.cases.Layout()
	min, max, _ := s.cases.TermBounds()
	return models.DashboardState{
		Selection: models.FilterSelection{
			TermStart:  min,
			TermEnd:    max,
			Categories: map[string][]string{},
		},
		Columns:       availableColumns(s.cases, layout.DefaultColumns),
		BarVariable:   layout.DefaultBarVariable,
		TrendVariable: layout.DefaultTrendVariable,
	}
}

// Normalize resolves open bounds and replaces unusable control values with
// defaults. Each replacement is reported as a warning.
func (s *DashboardService) Normalize(state models.DashboardState) (models.DashboardState, []string) {
	if s.cases == nil {
		return state, nil
	}
	var warnings []string
	def := s.DefaultState()
	layout := s.cases.Layout()
	min, max, _ := s.cases.TermBounds()

	sel := state.Selection
	// Only an explicit range can be inverted. An open side takes the dataset
	// bound, so a start past the last term simply matches nothing.
	if sel.TermStart != 0 && sel.TermEnd != 0 && sel.TermStart > sel.TermEnd {
		warnings = append(warnings, fmt.Sprintf("term range %d-%d is inverted, showing all terms", sel.TermStart, sel.TermEnd))
		sel.TermStart, sel.TermEnd = min, max
	}
	if sel.TermStart == 0 {
		sel.TermStart = min
	}
	if sel.TermEnd == 0 {
		sel.TermEnd = max
	}

	filterable := make(map[string]bool)
	for _, c := range layout.FilterColumns() {
		filterable[c] = true
	}
	textCoerced := make(map[string]bool, len(layout.TextColumns))
	for _, c := range layout.TextColumns {
		textCoerced[c] = true
	}
	categories := make(map[string][]string, len(sel.Categories))
	for col, values := range sel.Categories {
		if !filterable[col] {
			warnings = append(warnings, fmt.Sprintf("filter on unknown column %q ignored", col))
			continue
		}
		if len(values) > 0 {
			categories[col] = selectionValues(values, textCoerced[col])
		}
	}
	sel.Categories = categories
	state.Selection = sel

	var columns []string
	for _, c := range state.Columns {
		if !s.cases.HasColumn(c) {
			warnings = append(warnings, fmt.Sprintf("column %q does not exist", c))
			continue
		}
		columns = append(columns, c)
	}
	if len(columns) == 0 {
		if len(state.Columns) > 0 {
			warnings = append(warnings, "no usable columns selected, showing default columns")
		}
		columns = def.Columns
	}
	state.Columns = columns

	if state.BarVariable == "" {
		state.BarVariable = def.BarVariable
	} else if !contains(layout.BarVariables, state.BarVariable) || !s.cases.HasColumn(state.BarVariable) {
		warnings = append(warnings, fmt.Sprintf("bar variable %q is not available, using %q", state.BarVariable, def.BarVariable))
		state.BarVariable = def.BarVariable
	}
	if state.TrendVariable == "" {
		state.TrendVariable = def.TrendVariable
	} else if !contains(layout.TrendVariables, state.TrendVariable) || !s.cases.HasColumn(state.TrendVariable) {
		warnings = append(warnings, fmt.Sprintf("trend variable %q is not available, using %q", state.TrendVariable, def.TrendVariable))
		state.TrendVariable = def.TrendVariable
	}

	return state, warnings
}

// Compute filters the dataset by state and builds every view. Input problems
// never fail the call; they fall back to defaults and come back as warnings.
func (s *DashboardService) Compute(state models.DashboardState) (*DashboardResult, error) {
	if s.cases == nil {
		return nil, errNoDataset
	}

	state, warnings := s.Normalize(state)
	sel := state.Selection
	filtered := FilterRecords(s.cases.Records(), sel.TermStart, sel.TermEnd, sel.Categories)

	result := &DashboardResult{
		State:      state,
		Matched:    len(filtered),
		TimeSeries: CountByTerm(filtered),
		Bar:        CountByCategory(filtered, state.BarVariable),
		Trend:      TrendByCategory(filtered, state.TrendVariable),
	}
	result.Charts = Charts{
		TimeSeries: render.TimeSeriesChart(result.TimeSeries),
		Bar:        render.BarChart(state.BarVariable, result.Bar),
		Trend:      render.TrendChart(state.TrendVariable, result.Trend),
	}

	table := render.BuildTable(state.Columns, s.cases, Project(filtered, state.Columns), s.cases.Layout().PageSize)
	rows, tableWarnings := render.ApplyTableQuery(table.Columns, table.Rows, state.Table)
	table.Rows = rows
	result.Table = table

	result.Warnings = append(warnings, tableWarnings...)
	if result.Warnings == nil {
		result.Warnings = []string{}
	}
	if len(result.Warnings) > 0 {
		s.logger.Debug().Strs("warnings", result.Warnings).Msg("dashboard state adjusted")
	}
	return result, nil
}

// Chart returns one chart of a result by name
func (r *DashboardResult) Chart(name string) (*render.Chart, bool) {
	switch name {
	case "time-series", "timeseries":
		return r.Charts.TimeSeries, true
	case "bar":
		return r.Charts.Bar, true
	case "trend":
		return r.Charts.Trend, true
	}
	return nil, false
}

// selectionValues normalizes selected values the way the loader normalizes
// cells, dropping duplicates.
func selectionValues(values []string, textCoerced bool) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = models.SelectionValue(v, textCoerced)
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
