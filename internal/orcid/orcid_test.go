package orcid

import "testing"

func TestTrim(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://orcid.org/0000-0002-9312-7910", "0000-0002-9312-7910"},
		{"http://orcid.org/0000-0002-1017-9599", "0000-0002-1017-9599"},
		{"orcid.org/0000-0001-8592-1316", "0000-0001-8592-1316"},
		{"egoldstein http://orcid.org/0000-0001-9358-1016", "0000-0001-9358-1016"},
		{"0000-0002-1694-233x", "0000-0002-1694-233X"},
		{"tjass", ""},
		{"", ""},
		{"0000-0002-9312", ""},
	}
	for _, tt := range tests {
		if got := Trim(tt.raw); got != tt.want {
			t.Errorf("Trim(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestValid(t *testing.T) {
	if !Valid("0000-0002-9312-7910") {
		t.Fatal("expected normalized id to be valid")
	}
	if Valid("https://orcid.org/0000-0002-9312-7910") {
		t.Fatal("URL form is not a normalized id")
	}
	if Valid("") {
		t.Fatal("empty id is not valid")
	}
}
