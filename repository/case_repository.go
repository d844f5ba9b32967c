package repository

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"scdb-dashboard/config"
	"scdb-dashboard/models"

	"golang.org/x/text/encoding/charmap"
)

// LoadError reports a dataset that could not be read at all
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load dataset %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ParseError reports a critical cell that could not be converted
type ParseError struct {
	Path   string
	Row    int // 1-based data row, header excluded
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: row %d: cannot parse %s value %q: %v", e.Path, e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LoadStats summarizes what the loader tolerated
type LoadStats struct {
	Rows          int  `json:"rows"`
	SkippedRows   int  `json:"skipped_rows"`  // CSV syntax errors
	ReshapedRows  int  `json:"reshaped_rows"` // wrong field count, padded or truncated
	DuplicateIDs  int  `json:"duplicate_ids"`
	MissingDates  int  `json:"missing_dates"`
	DecodedLatin1 bool `json:"decoded_latin1"`
}

var decisionDateLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	"01/02/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"1/2/2006 15:04",
}

// CaseRepository is the read-only, in-memory dataset of case records.
// It is built once at startup and shared by every session.
type CaseRepository struct {
	layout  config.Layout
	columns []string
	records []models.CaseRecord
	kinds   map[string]models.ColumnKind
	minTerm int
	maxTerm int
	stats   LoadStats
}

// LoadCaseRepository reads the dataset CSV at path
func LoadCaseRepository(path string, layout config.Layout) (*CaseRepository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	return ReadCaseRepository(f, path, layout)
}

// ReadCaseRepository parses a dataset from r; name is used in error messages
func ReadCaseRepository(r io.Reader, name string, layout config.Layout) (*CaseRepository, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Path: name, Err: err}
	}

	repo := &CaseRepository{layout: layout}

	// SCDB releases are Windows-1252 encoded
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, &LoadError{Path: name, Err: fmt.Errorf("failed to decode input: %w", err)}
		}
		data = decoded
		repo.stats.DecodedLatin1 = true
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			err = errors.New("file is empty")
		}
		return nil, &LoadError{Path: name, Err: fmt.Errorf("failed to read CSV header: %w", err)}
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	repo.columns = header

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	var missing []string
	for _, col := range layout.RequiredColumns() {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &LoadError{Path: name, Err: fmt.Errorf("missing expected columns: %s", strings.Join(missing, ", "))}
	}

	textCols := make(map[string]bool, len(layout.TextColumns))
	for _, c := range layout.TextColumns {
		textCols[c] = true
	}

	seenIDs := make(map[string]bool)
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				repo.stats.SkippedRows++
				continue
			}
			return nil, &LoadError{Path: name, Err: err}
		}
		rowNum++

		if len(row) != len(header) {
			repo.stats.ReshapedRows++
			row = reshape(row, len(header))
		}

		attrs := make(map[string]string, len(header))
		for i, col := range header {
			v := strings.TrimSpace(row[i])
			if textCols[col] {
				v = models.CanonicalText(v)
			}
			attrs[col] = v
		}

		rec := models.CaseRecord{
			CaseID:     attrs[layout.IDColumn],
			Attributes: attrs,
		}

		termRaw := attrs[layout.TermColumn]
		term, err := parseTerm(termRaw)
		if err != nil {
			return nil, &ParseError{Path: name, Row: rowNum, Column: layout.TermColumn, Value: termRaw, Err: err}
		}
		rec.Term = term
		attrs[layout.TermColumn] = strconv.Itoa(term)

		dateRaw := attrs[layout.DateColumn]
		if dateRaw == "" {
			repo.stats.MissingDates++
		} else {
			d, err := parseDecisionDate(dateRaw)
			if err != nil {
				return nil, &ParseError{Path: name, Row: rowNum, Column: layout.DateColumn, Value: dateRaw, Err: err}
			}
			rec.DateDecision = d
		}

		if seenIDs[rec.CaseID] {
			repo.stats.DuplicateIDs++
		}
		seenIDs[rec.CaseID] = true

		if len(repo.records) == 0 || term < repo.minTerm {
			repo.minTerm = term
		}
		if len(repo.records) == 0 || term > repo.maxTerm {
			repo.maxTerm = term
		}
		repo.records = append(repo.records, rec)
	}

	repo.stats.Rows = len(repo.records)
	repo.kinds = classifyColumns(header, repo.records)
	return repo, nil
}

// Layout returns the dashboard layout the dataset was validated against
func (r *CaseRepository) Layout() config.Layout { return r.layout }

// Records returns all records in source order. Callers must not modify them.
func (r *CaseRepository) Records() []models.CaseRecord { return r.records }

// Len returns the number of loaded records
func (r *CaseRepository) Len() int { return len(r.records) }

// Columns returns the dataset columns in source order
func (r *CaseRepository) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// HasColumn reports whether the dataset provides a column
func (r *CaseRepository) HasColumn(column string) bool {
	_, ok := r.kinds[column]
	return ok
}

// ColumnKind returns how values of a column compare
func (r *CaseRepository) ColumnKind(column string) models.ColumnKind {
	if k, ok := r.kinds[column]; ok {
		return k
	}
	return models.ColumnText
}

// TermBounds returns the smallest and largest term; ok is false for an empty dataset
func (r *CaseRepository) TermBounds() (min, max int, ok bool) {
	if len(r.records) == 0 {
		return 0, 0, false
	}
	return r.minTerm, r.maxTerm, true
}

// Stats returns what the loader tolerated while reading
func (r *CaseRepository) Stats() LoadStats { return r.stats }

// DistinctValues returns the distinct values of a column in first-seen order.
// When any record lacks a value, models.MissingOption comes last.
func (r *CaseRepository) DistinctValues(column string) []string {
	seen := make(map[string]bool)
	var values []string
	missing := false
	for _, rec := range r.records {
		v := rec.Value(column)
		if models.IsMissing(v) {
			missing = true
			continue
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	if missing {
		values = append(values, models.MissingOption)
	}
	return values
}

func reshape(row []string, n int) []string {
	if len(row) > n {
		return row[:n]
	}
	out := make([]string, n)
	copy(out, row)
	return out
}

func parseTerm(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, errors.New("not a whole year")
	}
	return int(f), nil
}

func parseDecisionDate(v string) (time.Time, error) {
	for _, layout := range decisionDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format")
}

func classifyColumns(columns []string, records []models.CaseRecord) map[string]models.ColumnKind {
	kinds := make(map[string]models.ColumnKind, len(columns))
	for _, col := range columns {
		numeric := false
		for _, rec := range records {
			v := rec.Value(col)
			if models.IsMissing(v) {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric = false
				break
			}
			numeric = true
		}
		if numeric {
			kinds[col] = models.ColumnNumeric
		} else {
			kinds[col] = models.ColumnText
		}
	}
	return kinds
}
