package service

import (
	"sort"
	"strings"

	"scdb-dashboard/models"
)

// FilterRecords keeps records whose term lies in [start, end] and whose value
// is among the selected values of every non-empty categorical selection.
// A zero bound leaves that side open. Selecting models.MissingOption matches
// records without a value. Source order is preserved.
func FilterRecords(records []models.CaseRecord, start, end int, categories map[string][]string) []models.CaseRecord {
	sets := make(map[string]map[string]bool, len(categories))
	for col, values := range categories {
		if len(values) == 0 {
			continue
		}
		set := make(map[string]bool, len(values))
		for _, v := range values {
			set[filterKey(v)] = true
		}
		sets[col] = set
	}

	out := make([]models.CaseRecord, 0, len(records))
	for _, rec := range records {
		if start != 0 && rec.Term < start {
			continue
		}
		if end != 0 && rec.Term > end {
			continue
		}
		keep := true
		for col, set := range sets {
			if !set[filterKey(rec.Value(col))] {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, rec)
		}
	}
	return out
}

func filterKey(v string) string {
	v = strings.TrimSpace(v)
	if models.IsMissing(v) {
		return models.MissingOption
	}
	return v
}

// CountByTerm counts records per term, ascending by term. Terms without
// records are omitted.
func CountByTerm(records []models.CaseRecord) []models.TermCount {
	counts := make(map[int]int)
	for _, rec := range records {
		counts[rec.Term]++
	}

	out := make([]models.TermCount, 0, len(counts))
	for term, n := range counts {
		out = append(out, models.TermCount{Term: term, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Term < out[j].Term })
	return out
}

// CountByCategory counts records per non-missing value of variable,
// descending by count. Ties keep first-encountered order.
func CountByCategory(records []models.CaseRecord, variable string) []models.CategoryCount {
	index := make(map[string]int)
	var out []models.CategoryCount
	for _, rec := range records {
		v := rec.Value(variable)
		if models.IsMissing(v) {
			continue
		}
		i, ok := index[v]
		if !ok {
			i = len(out)
			index[v] = i
			out = append(out, models.CategoryCount{Value: v})
		}
		out[i].Count++
	}
	if out == nil {
		out = []models.CategoryCount{}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// TrendByCategory counts records per (term, value) pair. There is one series
// per non-missing value, ordered by value; points ascend by term.
func TrendByCategory(records []models.CaseRecord, variable string) []models.TrendSeries {
	byValue := make(map[string]map[int]int)
	for _, rec := range records {
		v := rec.Value(variable)
		if models.IsMissing(v) {
			continue
		}
		terms, ok := byValue[v]
		if !ok {
			terms = make(map[int]int)
			byValue[v] = terms
		}
		terms[rec.Term]++
	}

	values := make([]string, 0, len(byValue))
	for v := range byValue {
		values = append(values, v)
	}
	sort.Strings(values)

	out := make([]models.TrendSeries, 0, len(values))
	for _, v := range values {
		points := make([]models.TermCount, 0, len(byValue[v]))
		for term, n := range byValue[v] {
			points = append(points, models.TermCount{Term: term, Count: n})
		}
		sort.Slice(points, func(i, j int) bool { return points[i].Term < points[j].Term })
		out = append(out, models.TrendSeries{Value: v, Points: points})
	}
	return out
}

// Project returns the records as rows holding the given columns, in order
func Project(records []models.CaseRecord, columns []string) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = rec.Value(c)
		}
		rows = append(rows, row)
	}
	return rows
}
