package models

import "testing"

func TestCanonicalText(t *testing.T) {
	tests := map[string]string{
		"":      "",
		"1":     "1",
		"1.0":   "1",
		" 1 ":   "1",
		"2.50":  "2.5",
		"NaN":   "nan",
		"abc":   "abc",
		"10020": "10020",
	}
	for in, want := range tests {
		if got := CanonicalText(in); got != want {
			t.Errorf("CanonicalText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSelectionValue(t *testing.T) {
	tests := []struct {
		in   string
		text bool
		want string
	}{
		{"1.0", true, "1"},
		{"1.0", false, "1.0"},
		{" Roberts ", false, "Roberts"},
		{"nan", true, MissingOption},
		{"", false, MissingOption},
		{MissingOption, true, MissingOption},
	}
	for _, tt := range tests {
		if got := SelectionValue(tt.in, tt.text); got != tt.want {
			t.Errorf("SelectionValue(%q, %v) = %q, want %q", tt.in, tt.text, got, tt.want)
		}
	}
}
