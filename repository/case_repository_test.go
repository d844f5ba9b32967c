package repository

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"scdb-dashboard/config"
	"scdb-dashboard/models"
)

const fixturePath = "../testdata/cases.csv"

const header = "caseId,term,dateDecision,decisionType,chief,issue,issueArea,decisionDirection,precedentAlteration,certReason,partyWinning,majOpinWriter\n"

func TestLoadFixture(t *testing.T) {
	repo, err := LoadCaseRepository(fixturePath, config.DefaultLayout())
	if err != nil {
		t.Fatalf("LoadCaseRepository: %v", err)
	}

	if repo.Len() != 10 {
		t.Fatalf("expected 10 records, got %d", repo.Len())
	}
	min, max, ok := repo.TermBounds()
	if !ok || min != 1990 || max != 2012 {
		t.Errorf("TermBounds = %d, %d, %v", min, max, ok)
	}

	first := repo.Records()[0]
	if first.CaseID != "1990-001" || first.Term != 1990 {
		t.Errorf("unexpected first record %+v", first)
	}
	if first.DateDecision.Year() != 1990 || first.DateDecision.Month() != 11 || first.DateDecision.Day() != 13 {
		t.Errorf("date parsed as %v", first.DateDecision)
	}
	// issueArea "1.0" is coerced to match the plain "1" spelling
	if got := first.Value("issueArea"); got != "1" {
		t.Errorf("issueArea coerced to %q, want %q", got, "1")
	}

	if repo.ColumnKind("majVotes") != models.ColumnNumeric {
		t.Error("majVotes should be numeric")
	}
	if repo.ColumnKind("chief") != models.ColumnText {
		t.Error("chief should be text")
	}
	if repo.ColumnKind("dateDecision") != models.ColumnText {
		t.Error("dateDecision should be text")
	}
}

func TestDistinctValues(t *testing.T) {
	repo, err := LoadCaseRepository(fixturePath, config.DefaultLayout())
	if err != nil {
		t.Fatal(err)
	}

	got := repo.DistinctValues("issueArea")
	want := []string{"1", "2", "8", models.MissingOption}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DistinctValues(issueArea) = %v, want %v", got, want)
	}
	if got := repo.DistinctValues("chief"); !reflect.DeepEqual(got, []string{"Rehnquist", "Roberts"}) {
		t.Errorf("DistinctValues(chief) = %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadCaseRepository(filepath.Join(t.TempDir(), "nope.csv"), config.DefaultLayout())
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadError should wrap the os error: %v", err)
	}
}

func TestLoadMissingColumns(t *testing.T) {
	csv := "caseId,term,dateDecision\n1990-001,1990,11/13/1990\n"
	_, err := ReadCaseRepository(strings.NewReader(csv), "short.csv", config.DefaultLayout())
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if !strings.Contains(err.Error(), "issueArea") {
		t.Errorf("error should name missing columns: %v", err)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	_, err := ReadCaseRepository(strings.NewReader(""), "empty.csv", config.DefaultLayout())
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		row    string
		column string
	}{
		{"bad date", "1990-001,1990,someday,1,Rehnquist,1,1,1,0,10,1,90\n", "dateDecision"},
		{"bad term", "1990-001,ninety,11/13/1990,1,Rehnquist,1,1,1,0,10,1,90\n", "term"},
		{"fractional term", "1990-001,1990.5,11/13/1990,1,Rehnquist,1,1,1,0,10,1,90\n", "term"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCaseRepository(strings.NewReader(header+tt.row), "bad.csv", config.DefaultLayout())
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if parseErr.Column != tt.column || parseErr.Row != 1 {
				t.Errorf("ParseError = %+v", parseErr)
			}
		})
	}
}

func TestTolerantRows(t *testing.T) {
	csv := header +
		"1990-001,1990,11/13/1990,1,Rehnquist,1,1,1,0,10,1,90\n" +
		"1990-002,1990,,1,Rehnquist\n" + // short row, missing date
		"1990-003,1990.0,2/1/1991,1,Rehnquist,1,1,1,0,10,1,90,extra\n" +
		"1990-001,1990,11/14/1990,1,Rehnquist,1,1,1,0,10,1,90\n"

	repo, err := ReadCaseRepository(strings.NewReader(csv), "tolerant.csv", config.DefaultLayout())
	if err != nil {
		t.Fatalf("ReadCaseRepository: %v", err)
	}

	stats := repo.Stats()
	if stats.Rows != 4 || stats.ReshapedRows != 2 || stats.MissingDates != 1 || stats.DuplicateIDs != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if !repo.Records()[1].DateDecision.IsZero() {
		t.Error("missing date should stay zero")
	}
	if repo.Records()[2].Term != 1990 || repo.Records()[2].Value("term") != "1990" {
		t.Errorf("term 1990.0 should normalize to 1990, got %+v", repo.Records()[2])
	}
}

func TestWindows1252Decoding(t *testing.T) {
	// 0xE7 is "ç" in Windows-1252 and invalid as a lone UTF-8 byte
	row := "1990-001,1990,11/13/1990,1,Rehnquist,1,1,1,0,10,1,Fran\xe7ois\n"
	repo, err := ReadCaseRepository(strings.NewReader(header+row), "latin1.csv", config.DefaultLayout())
	if err != nil {
		t.Fatalf("ReadCaseRepository: %v", err)
	}
	if !repo.Stats().DecodedLatin1 {
		t.Error("expected Windows-1252 decoding")
	}
	if got := repo.Records()[0].Value("majOpinWriter"); got != "François" {
		t.Errorf("majOpinWriter = %q", got)
	}
}
