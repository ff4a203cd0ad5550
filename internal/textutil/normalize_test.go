package textutil

import "testing"

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"case", "O'Brien", "o'brien"},
		{"curly apostrophe", "O’Brien", "o'brien"},
		{"periods", "J. T.", "j t"},
		{"diacritics", "José Pérez", "jose perez"},
		{"whitespace", "  Mary \n Ann\t", "mary ann"},
		{"stroke letters", "Łukasz Søndergaard", "lukasz sondergaard"},
		{"sharp s", "Straße", "strasse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.in); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSortKeyIgnoresAccents(t *testing.T) {
	if SortKey("Álvarez, Ana") != SortKey("alvarez, ana") {
		t.Fatalf("expected accented and plain names to share a sort key: %q vs %q", SortKey("Álvarez, Ana"), SortKey("alvarez, ana"))
	}
	if FoldKey("McKnight") != FoldKey("MCKNIGHT") {
		t.Fatal("expected fold key to ignore case")
	}
	if FoldKey("Pérez") == FoldKey("Perez") {
		t.Fatal("fold key must not strip accents")
	}
}

func TestCleanDataField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Dept. of Biology\n  Univ.  of Wisconsin", "Dept. of Biology Univ. of Wisconsin"},
		{"Center for Limnology / UW–Madison", "Center for Limnology - UW-Madison"},
		{"¡Universidad! de Chile?", "Universidad de Chile"},
		{"Université Laval", "Universite Laval"},
	}
	for _, tt := range tests {
		if got := CleanDataField(tt.in); got != tt.want {
			t.Errorf("CleanDataField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollapseSpace(t *testing.T) {
	if got := CollapseSpace(" a \n\n b   c "); got != "a b c" {
		t.Fatalf("CollapseSpace = %q", got)
	}
}
