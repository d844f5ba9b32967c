package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"scdb-dashboard/models"
)

// ColumnKinder reports how values of a column compare
type ColumnKinder interface {
	ColumnKind(column string) models.ColumnKind
}

// TableColumn describes one displayed column
type TableColumn struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Type       models.ColumnKind `json:"type"`
	Sortable   bool              `json:"sortable"`
	Filterable bool              `json:"filterable"`
}

// Table describes the data table widget
type Table struct {
	Columns  []TableColumn `json:"columns"`
	Rows     [][]string    `json:"rows"`
	PageSize int           `json:"page_size"`
}

// BuildTable describes a table over already projected rows
func BuildTable(columns []string, kinds ColumnKinder, rows [][]string, pageSize int) *Table {
	cols := make([]TableColumn, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, TableColumn{
			ID:         c,
			Name:       c,
			Type:       kinds.ColumnKind(c),
			Sortable:   true,
			Filterable: true,
		})
	}
	if rows == nil {
		rows = [][]string{}
	}

	return &Table{Columns: cols, Rows: rows, PageSize: pageSize}
}

type cellFilter struct {
	col     int
	op      string
	numeric bool
	num     float64
	text    string
}

// filterOps is ordered so two-character operators match before their prefixes
var filterOps = []string{">=", "<=", "!=", "=", ">", "<"}

// ApplyTableQuery narrows and orders table rows the way the page's
// per-column sort and filter boxes do. Rows are never widened: a filter
// only keeps rows already present. Query entries naming unknown columns or
// carrying unusable expressions are skipped and reported as warnings.
func ApplyTableQuery(columns []TableColumn, rows [][]string, q models.TableQuery) ([][]string, []string) {
	if q.IsEmpty() {
		return rows, nil
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c.ID] = i
	}

	var warnings []string

	var filters []cellFilter
	filterCols := make([]string, 0, len(q.Filters))
	for col := range q.Filters {
		filterCols = append(filterCols, col)
	}
	sort.Strings(filterCols)
	for _, col := range filterCols {
		expr := strings.TrimSpace(q.Filters[col])
		if expr == "" {
			continue
		}
		i, ok := index[col]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("table filter on unknown column %q ignored", col))
			continue
		}
		f, err := parseFilter(i, columns[i].Type == models.ColumnNumeric, expr)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("table filter on %q ignored: %v", col, err))
			continue
		}
		filters = append(filters, f)
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		keep := true
		for _, f := range filters {
			if !f.match(cellAt(row, f.col)) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}

	type sortKey struct {
		col     int
		desc    bool
		numeric bool
	}
	var keys []sortKey
	for _, s := range q.Sort {
		i, ok := index[s.Column]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("table sort on unknown column %q ignored", s.Column))
			continue
		}
		keys = append(keys, sortKey{col: i, desc: s.Direction == models.SortDesc, numeric: columns[i].Type == models.ColumnNumeric})
	}

	if len(keys) > 0 {
		sort.SliceStable(out, func(a, b int) bool {
			for _, k := range keys {
				c := compareCells(cellAt(out[a], k.col), cellAt(out[b], k.col), k.numeric, k.desc)
				if c != 0 {
					return c < 0
				}
			}
			return false
		})
	}

	return out, warnings
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func parseFilter(col int, numeric bool, expr string) (cellFilter, error) {
	f := cellFilter{col: col, numeric: numeric}

	lower := strings.ToLower(expr)
	switch {
	case strings.HasPrefix(lower, "contains "):
		f.op = "contains"
		f.text = strings.TrimSpace(expr[len("contains "):])
		f.numeric = false
		return f, nil
	default:
		for _, op := range filterOps {
			if strings.HasPrefix(expr, op) {
				f.op = op
				expr = strings.TrimSpace(expr[len(op):])
				break
			}
		}
	}

	if f.op == "" {
		if numeric {
			f.op = "="
		} else {
			f.op = "contains"
		}
	}
	f.text = expr

	if numeric && f.op != "contains" {
		n, err := strconv.ParseFloat(expr, 64)
		if err != nil {
			return f, fmt.Errorf("%q is not a number", expr)
		}
		f.num = n
	}
	return f, nil
}

func (f cellFilter) match(cell string) bool {
	if models.IsMissing(cell) {
		return false
	}

	if f.op == "contains" {
		return strings.Contains(strings.ToLower(cell), strings.ToLower(f.text))
	}

	var c int
	if f.numeric {
		n, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return false
		}
		switch {
		case n < f.num:
			c = -1
		case n > f.num:
			c = 1
		}
	} else {
		c = strings.Compare(strings.ToLower(cell), strings.ToLower(f.text))
	}

	switch f.op {
	case "=":
		return c == 0
	case "!=":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}

// compareCells orders two cells; missing values sort last in either direction
func compareCells(a, b string, numeric, desc bool) int {
	am, bm := models.IsMissing(a), models.IsMissing(b)
	switch {
	case am && bm:
		return 0
	case am:
		return 1
	case bm:
		return -1
	}

	var c int
	if numeric {
		x, errA := strconv.ParseFloat(a, 64)
		y, errB := strconv.ParseFloat(b, 64)
		if errA == nil && errB == nil {
			switch {
			case x < y:
				c = -1
			case x > y:
				c = 1
			}
		} else {
			c = strings.Compare(a, b)
		}
	} else {
		c = strings.Compare(a, b)
	}

	if desc {
		return -c
	}
	return c
}
