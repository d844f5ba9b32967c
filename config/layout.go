package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed dashboard.yaml
var defaultLayoutYAML []byte

// FilterSpec describes one categorical multi-select control
type FilterSpec struct {
	Column string `yaml:"column" json:"column"`
	Label  string `yaml:"label" json:"label"`
}

// Layout describes which dataset columns drive the dashboard controls
type Layout struct {
	Title                string       `yaml:"title"`
	IDColumn             string       `yaml:"id_column"`
	TermColumn           string       `yaml:"term_column"`
	DateColumn           string       `yaml:"date_column"`
	TextColumns          []string     `yaml:"text_columns"`
	Filters              []FilterSpec `yaml:"filters"`
	DefaultColumns       []string     `yaml:"default_columns"`
	BarVariables         []string     `yaml:"bar_variables"`
	DefaultBarVariable   string       `yaml:"default_bar_variable"`
	TrendVariables       []string     `yaml:"trend_variables"`
	DefaultTrendVariable string       `yaml:"default_trend_variable"`
	PageSize             int          `yaml:"page_size"`
	ExportBasename       string       `yaml:"export_basename"`
}

// DefaultLayout returns the built-in layout for the case-centered SCDB file
func DefaultLayout() Layout {
	var l Layout
	if err := yaml.Unmarshal(defaultLayoutYAML, &l); err != nil {
		panic(fmt.Sprintf("embedded dashboard layout is invalid: %v", err))
	}
	return l
}

// LoadLayout reads a layout file. Fields absent from the file keep their
// built-in values. An empty path returns the built-in layout.
func LoadLayout(path string) (Layout, error) {
	l := DefaultLayout()
	if path == "" {
		return l, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to read dashboard layout: %w", err)
	}
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("failed to parse dashboard layout %s: %w", path, err)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, fmt.Errorf("invalid dashboard layout %s: %w", path, err)
	}
	return l, nil
}

// Validate checks that the layout is internally consistent
func (l Layout) Validate() error {
	if l.IDColumn == "" || l.TermColumn == "" || l.DateColumn == "" {
		return errors.New("id_column, term_column and date_column are required")
	}
	if len(l.DefaultColumns) == 0 {
		return errors.New("default_columns must not be empty")
	}
	if !contains(l.BarVariables, l.DefaultBarVariable) {
		return fmt.Errorf("default_bar_variable %q is not one of bar_variables", l.DefaultBarVariable)
	}
	if !contains(l.TrendVariables, l.DefaultTrendVariable) {
		return fmt.Errorf("default_trend_variable %q is not one of trend_variables", l.DefaultTrendVariable)
	}
	if l.PageSize < 0 {
		return errors.New("page_size must not be negative")
	}
	return nil
}

// FilterColumns returns the columns of the categorical filter controls
func (l Layout) FilterColumns() []string {
	cols := make([]string, 0, len(l.Filters))
	for _, f := range l.Filters {
		cols = append(cols, f.Column)
	}
	return cols
}

// RequiredColumns returns every column the dataset must provide
func (l Layout) RequiredColumns() []string {
	seen := make(map[string]bool)
	var cols []string
	add := func(names ...string) {
		for _, n := range names {
			if n != "" && !seen[n] {
				seen[n] = true
				cols = append(cols, n)
			}
		}
	}
	add(l.IDColumn, l.TermColumn, l.DateColumn)
	add(l.FilterColumns()...)
	add(l.BarVariables...)
	add(l.TrendVariables...)
	return cols
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
