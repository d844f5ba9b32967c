package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// CaseRecord represents one row of the case-centered dataset
type CaseRecord struct {
	CaseID       string            `json:"case_id"`
	Term         int               `json:"term"`
	DateDecision time.Time         `json:"date_decision"` // zero when the source cell is empty
	Attributes   map[string]string `json:"attributes"`
}

// Value returns the normalized text of a column for this record
func (r CaseRecord) Value(column string) string {
	return r.Attributes[column]
}

// ColumnKind describes how a column's values compare
type ColumnKind string

const (
	ColumnText    ColumnKind = "text"
	ColumnNumeric ColumnKind = "numeric"
)

// IsMissing reports whether a normalized cell value counts as absent.
// Text-coerced columns carry "nan" for values that were blank in mixed-type sources.
func IsMissing(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, "nan")
}

// MissingOption is the filter option that selects records without a value
const MissingOption = "(missing)"

// CanonicalText maps numeric-looking values onto one spelling so that
// "1", "1.0" and " 1 " compare equal.
func CanonicalText(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return v
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 0):
		return v
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return strconv.FormatInt(int64(f), 10)
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

// SelectionValue normalizes one selected filter value. Missing spellings map
// to MissingOption; text-coerced columns also get CanonicalText.
func SelectionValue(value string, textCoerced bool) string {
	v := strings.TrimSpace(value)
	if v == MissingOption || IsMissing(v) {
		return MissingOption
	}
	if textCoerced {
		return CanonicalText(v)
	}
	return v
}
