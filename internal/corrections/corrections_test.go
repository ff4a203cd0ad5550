package corrections_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"creators/internal/corrections"
	"creators/internal/logging"
	"creators/internal/services"
)

const (
	nicknamesXML = `<?xml version="1.0" encoding="UTF-8"?>
<nicknames>
  <nickname><name1>Jim</name1><name2>James</name2></nickname>
  <nickname><name1>bob</name1><name2>robert</name2></nickname>
</nicknames>`

	variantsXML = `<person_variants>
  <person>
    <variant><surname>Smith</surname><givenname>J</givenname><scope>knb-lter-ntl</scope></variant>
    <variant><surname>Smyth</surname><givenname>John</givenname><scope>edi</scope></variant>
    <comment>Same person, confirmed by site IM</comment>
  </person>
</person_variants>`

	overridesXML = `<overrides>
  <override>
    <original><surname>Smiht</surname><givenname>Bob</givenname></original>
    <corrected><surname>Smith</surname><givenname>Robert</givenname></corrected>
    <scope>knb-lter-ntl</scope>
  </override>
  <override>
    <original><surname>Rodr%</surname><givenname>Zoe</givenname><surname_raw>Rodríguez</surname_raw></original>
    <corrected><surname>Rodriquez</surname><givenname>Zoe</givenname></corrected>
    <scope>edi</scope>
  </override>
</overrides>`

	identifiersXML = `<orcids>
  <correction><surname>Smith</surname><givenname>J%</givenname><orcid>https://orcid.org/0000-0001-0000-0001</orcid></correction>
  <stipulation><surname>Jones</surname><givenname>Amy</givenname><orcid>0000-0002-0000-000x</orcid></stipulation>
</orcids>`

	organizationsXML = `<organizations>
  <organization>
    <keyword>UW-Madison</keyword>
    <name>University of Wisconsin</name>
    <email>wisc.edu</email>
  </organization>
</organizations>`
)

func writeFixture(t *testing.T, dir string, contents map[string]string) corrections.Files {
	t.Helper()
	files := corrections.Files{
		Nicknames:      filepath.Join(dir, "nicknames.xml"),
		PersonVariants: filepath.Join(dir, "variants.xml"),
		Overrides:      filepath.Join(dir, "overrides.xml"),
		Identifiers:    filepath.Join(dir, "orcids.xml"),
		Organizations:  filepath.Join(dir, "organizations.xml"),
	}
	defaults := map[string]string{
		files.Nicknames:      nicknamesXML,
		files.PersonVariants: variantsXML,
		files.Overrides:      overridesXML,
		files.Identifiers:    identifiersXML,
		files.Organizations:  organizationsXML,
	}
	for path, body := range defaults {
		if override, ok := contents[filepath.Base(path)]; ok {
			body = override
		}
		if body == "-" {
			continue
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return files
}

func TestLoadParsesAllFiles(t *testing.T) {
	files := writeFixture(t, t.TempDir(), nil)

	set, err := corrections.Load(files)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if set.Nicknames.Len() != 2 {
		t.Fatalf("expected 2 nickname pairs, got %d", set.Nicknames.Len())
	}
	if !set.Nicknames.Match("jim", "james") || !set.Nicknames.Match("robert t", "bob") {
		t.Fatal("expected nickname matches in both directions")
	}

	g1, ok1 := set.PersonVariants.Group(corrections.VariantKey{Surname: "Smith", GivenName: "J", Scope: "knb-lter-ntl"})
	g2, ok2 := set.PersonVariants.Group(corrections.VariantKey{Surname: "Smyth", GivenName: "John", Scope: "edi"})
	if !ok1 || !ok2 || g1 != g2 {
		t.Fatalf("expected both variants in one group: %d/%v %d/%v", g1, ok1, g2, ok2)
	}
	if set.PersonVariants.Groups()[0].Comment != "Same person, confirmed by site IM" {
		t.Fatalf("unexpected comment %q", set.PersonVariants.Groups()[0].Comment)
	}

	if len(set.Overrides) != 2 {
		t.Fatalf("expected 2 overrides, got %d", len(set.Overrides))
	}
	if got := set.Overrides[1].Alias(); got != "Rodríguez, Zoe" {
		t.Fatalf("alias should prefer raw surname, got %q", got)
	}

	if len(set.Identifiers) != 2 {
		t.Fatalf("expected 2 identifier corrections, got %d", len(set.Identifiers))
	}
	if set.Identifiers[0].Kind != corrections.KindCorrection || set.Identifiers[0].Identifier != "0000-0001-0000-0001" {
		t.Fatalf("unexpected correction %+v", set.Identifiers[0])
	}
	if set.Identifiers[1].Kind != corrections.KindStipulation || set.Identifiers[1].Identifier != "0000-0002-0000-000X" {
		t.Fatalf("unexpected stipulation %+v", set.Identifiers[1])
	}

	if len(set.Organizations) != 1 || set.Organizations[0].Domains[0] != "wisc.edu" {
		t.Fatalf("unexpected organizations %+v", set.Organizations)
	}
}

func TestLoadFailsOnMissingOrMalformedFiles(t *testing.T) {
	tests := []struct {
		name     string
		contents map[string]string
		wantText string
	}{
		{"missing nicknames", map[string]string{"nicknames.xml": "-"}, "missing"},
		{"empty overrides", map[string]string{"overrides.xml": "  "}, "file is empty"},
		{"broken xml", map[string]string{"variants.xml": "<person_variants><person>"}, "variants.xml"},
		{"incomplete nickname", map[string]string{"nicknames.xml": "<n><nickname><name1>Jim</name1></nickname></n>"}, "name1 and name2"},
		{"bad orcid", map[string]string{"orcids.xml": "<o><correction><surname>A</surname><givenname>B</givenname><orcid>none</orcid></correction></o>"}, "no valid orcid"},
		{"keywordless org", map[string]string{"organizations.xml": "<o><organization><name>X</name></organization></o>"}, "no keyword"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			files := writeFixture(t, t.TempDir(), tc.contents)
			_, err := corrections.Load(files)
			if err == nil {
				t.Fatal("expected load failure")
			}
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration marker, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantText) {
				t.Fatalf("error %q does not mention %q", err, tc.wantText)
			}
		})
	}
}

func TestOverrideMatches(t *testing.T) {
	exact := corrections.Override{OriginalSurname: "Smiht", OriginalGivenName: "Bob", Surname: "Smith", GivenName: "Robert", Scope: "x"}
	if !exact.Matches("x", "Smiht", "Bob") {
		t.Fatal("expected exact match")
	}
	if exact.Matches("y", "Smiht", "Bob") {
		t.Fatal("override must be scoped")
	}
	if exact.Matches("x", "Smiht", "Bobby") {
		t.Fatal("given name compares exactly")
	}
	wild := corrections.Override{OriginalSurname: "Rodr%", OriginalGivenName: "Zoe", Surname: "Rodriquez", GivenName: "Zoe", Scope: "edi"}
	if !wild.Matches("edi", "Rodriguez", "Zoe") || !wild.Matches("edi", "Rodrigues", "Zoe") {
		t.Fatal("expected wildcard surname match")
	}
	if wild.Alias() != "Rodr%, Zoe" {
		t.Fatalf("alias without raw surname falls back to original, got %q", wild.Alias())
	}
	if exact.CorrectedName() != "Smith, Robert" {
		t.Fatalf("unexpected corrected name %q", exact.CorrectedName())
	}
}

func TestIdentifierCorrectionMatches(t *testing.T) {
	c := corrections.IdentifierCorrection{Surname: "Smith", GivenName: "J%", Identifier: "0000-0001-0000-0001"}
	if !c.Matches("Smith", "John") || !c.Matches("Smith", "J") {
		t.Fatal("expected wildcard given name match")
	}
	if c.Matches("Smithe", "John") || c.Matches("Smith", "Mary") {
		t.Fatal("unexpected match")
	}
}

func TestOrganizationMatches(t *testing.T) {
	org := corrections.Organization{Keyword: "UW", Names: []string{"University of Wisconsin"}, Domains: []string{"wisc.edu"}}
	tests := []struct {
		name    string
		org     string
		address string
		emails  []string
		urls    []string
		want    bool
	}{
		{"organization name", "University of Wisconsin-Madison", "", nil, nil, true},
		{"address name", "", "Center for Limnology, University of Wisconsin", nil, nil, true},
		{"email at domain", "", "", []string{"jdoe@wisc.edu"}, nil, true},
		{"email subdomain", "", "", []string{"jdoe@limnology.wisc.edu"}, nil, true},
		{"url suffix", "", "", nil, []string{"https://lter.limnology.wisc.edu/"}, true},
		{"unrelated", "Michigan State University", "", []string{"x@msu.edu"}, []string{"https://msu.edu/wisc.edu/page"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := org.Matches(tc.org, tc.address, tc.emails, tc.urls); got != tc.want {
				t.Fatalf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCatalogReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	files := writeFixture(t, dir, nil)
	catalog := corrections.NewCatalog(files, logging.NewNop())

	first, err := catalog.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	second, err := catalog.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if first != second {
		t.Fatal("expected cached snapshot when files are unchanged")
	}

	updated := `<nicknames><nickname><name1>Bill</name1><name2>William</name2></nickname></nicknames>`
	if err := os.WriteFile(files.Nicknames, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(files.Nicknames, later, later); err != nil {
		t.Fatal(err)
	}
	third, err := catalog.Current()
	if err != nil {
		t.Fatalf("Current after edit: %v", err)
	}
	if third == first || third.Nicknames.Len() != 1 || !third.Nicknames.Match("bill", "william") {
		t.Fatalf("expected reloaded nicknames, got %d pairs", third.Nicknames.Len())
	}

	if err := os.Remove(files.Organizations); err != nil {
		t.Fatal(err)
	}
	if _, err := catalog.Current(); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error after removal, got %v", err)
	}
}
