package textutil

import "testing"

func TestLike(t *testing.T) {
	tests := []struct {
		pattern string
		s       string
		want    bool
	}{
		{"Smith", "Smith", true},
		{"Smith", "smith", false},
		{"J%", "John", true},
		{"J%", "J", true},
		{"J%", "Mary", false},
		{"%Manager%", "Data Manager", true},
		{"%Manager%", "Information Manager II", true},
		{"National%", "National Park Service", true},
		{"Mc%ght", "McKnight", true},
		{"Mc%ght", "McKnights", false},
		{"J_hn", "John", true},
		{"J_hn", "Jhn", false},
		{"%", "", true},
		{"", "", true},
		{"", "x", false},
		{"%a%b%", "xxaxxbxx", true},
		{"%a%b%", "xxbxxaxx", false},
	}
	for _, tt := range tests {
		if got := Like(tt.pattern, tt.s); got != tt.want {
			t.Errorf("Like(%q, %q) = %v, want %v", tt.pattern, tt.s, got, tt.want)
		}
	}
}

func TestHasWildcard(t *testing.T) {
	if !HasWildcard("Rodr%") {
		t.Fatal("expected wildcard")
	}
	if HasWildcard("Van_Dyke") {
		t.Fatal("underscore alone does not switch to pattern matching")
	}
}
