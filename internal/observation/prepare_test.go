package observation

import (
	"testing"

	"creators/internal/corrections"
	"creators/internal/logging"
)

func obs(pid, role, surname, given string) Observation {
	p, err := ParsePackageID(pid)
	if err != nil {
		panic(err)
	}
	return Observation{Package: p, Role: role, Surname: surname, GivenName: given}
}

func TestPrepareDropsDuplicatesAndSkipped(t *testing.T) {
	raw := []Observation{
		obs("edi.1.1", RoleCreator, "Smith", "John"),
		obs("edi.1.1", RoleCreator, "Smith", "John"),
		obs("edi.1.1", RoleContact, "Smith", "John"),
		obs("edi.1.1", RoleCreator, "Office", "National Park"),
		obs("edi.1.1", RoleCreator, "Information Manager", "NTL"),
		obs("edi.1.1", RoleCreator, "NTL LTER", "Data"),
		obs("edi.1.1", RoleCreator, "Lead PI", "The"),
		obs("edi.1.1", RoleCreator, "USDA ARS", "Staff"),
		obs("edi.1.1", RoleCreator, "Doe", ""),
		obs("edi.1.1", RoleCreator, "Doe", "(unknown)"),
		obs("edi.1.1", RoleCreator, "Doe", "Center for Limnology"),
	}

	out, report := Prepare(raw, nil, logging.NewNop())
	if len(out) != 2 {
		t.Fatalf("expected 2 observations, got %d: %+v", len(out), out)
	}
	if report.Duplicates != 1 || report.Skipped != 8 || report.Output != 2 || report.Input != len(raw) {
		t.Fatalf("unexpected report %+v", report)
	}
	if out[0].Role != RoleCreator || out[1].Role != RoleContact {
		t.Fatalf("order not preserved: %+v", out)
	}
}

func TestPrepareCleansText(t *testing.T) {
	o := obs("edi.1.1", RoleCreator, "J. Müller", "Anna")
	o.Organization = "Universität\n  Wien"
	o.Address = " , "
	o.Emails = []string{"A.Muller@Univie.ac.at  second@EXAMPLE.org"}
	o.URLs = []string{"HTTPS://Example.org/"}
	o.UniqueID = "https://orcid.org/0000-0002-1825-009x"

	raw := []Observation{o}
	out, report := Prepare(raw, nil, logging.NewNop())
	if len(out) != 1 {
		t.Fatalf("expected one observation, got %d", len(out))
	}
	got := out[0]
	if got.Surname != "Muller" || got.GivenName != "Anna J" {
		t.Fatalf("unexpected name %q / %q", got.Surname, got.GivenName)
	}
	if got.SurnameRaw != "Müller" {
		t.Fatalf("expected raw surname to keep accents, got %q", got.SurnameRaw)
	}
	if report.InitialsFixed != 1 {
		t.Fatalf("expected initial fix to be counted, got %+v", report)
	}
	if got.Organization != "Universitat Wien" {
		t.Fatalf("unexpected organization %q", got.Organization)
	}
	if got.Address != "" {
		t.Fatalf("comma-only address should clear, got %q", got.Address)
	}
	if len(got.Emails) != 2 || got.Emails[0] != "a.muller@univie.ac.at" || got.Emails[1] != "second@example.org" {
		t.Fatalf("unexpected emails %v", got.Emails)
	}
	if got.URLs[0] != "https://example.org/" {
		t.Fatalf("unexpected urls %v", got.URLs)
	}
	if got.UniqueID != "0000-0002-1825-009X" || got.Correction != CodeNone {
		t.Fatalf("unexpected identifier %q code %d", got.UniqueID, got.Correction)
	}
	if raw[0].Surname != "J. Müller" || raw[0].Emails[0] != "A.Muller@Univie.ac.at  second@EXAMPLE.org" {
		t.Fatal("input slice must not be modified")
	}
}

func TestPrepareAppliesReferenceData(t *testing.T) {
	refs := &corrections.Set{
		Identifiers: []corrections.IdentifierCorrection{
			{Kind: corrections.KindCorrection, Surname: "Smith", GivenName: "J%", Identifier: "0000-0001-0000-0001"},
			{Kind: corrections.KindStipulation, Surname: "Jones", GivenName: "Amy", Identifier: "0000-0002-0000-0002"},
		},
		Overrides: []corrections.Override{
			{OriginalSurname: "Smiht", OriginalGivenName: "Bob", Surname: "Smith", GivenName: "Robert", Scope: "x"},
		},
		Organizations: []corrections.Organization{
			{Keyword: "UW", Names: []string{"University of Wisconsin"}, Domains: []string{"wisc.edu"}},
		},
	}

	john := obs("x.1.1", RoleCreator, "Smith", "John")
	john.UniqueID = "0000-0009-0000-0009"
	jane := obs("x.1.1", RoleContact, "Smith", "Jane")
	amyWithID := obs("x.2.1", RoleCreator, "Jones", "Amy")
	amyWithID.UniqueID = "0000-0003-0000-0003"
	amy := obs("x.3.1", RoleCreator, "Jones", "Amy")
	amy.Emails = []string{"amy@limnology.wisc.edu"}
	bob := obs("x.4.1", RoleCreator, "Smiht", "Bob")
	bobElsewhere := obs("y.4.1", RoleCreator, "Smiht", "Bob")
	contact := obs("x.5.1", RoleContact, "Lee", "Kim")
	contact.Organization = "University of Wisconsin"

	out, report := Prepare([]Observation{john, jane, amyWithID, amy, bob, bobElsewhere, contact}, refs, logging.NewNop())

	if out[0].UniqueID != "0000-0001-0000-0001" || out[0].Correction != CodeCorrected {
		t.Fatalf("correction should overwrite conflicting id: %+v", out[0])
	}
	if out[1].UniqueID != "0000-0001-0000-0001" || out[1].Correction != CodeCorrected {
		t.Fatalf("correction should fill empty id: %+v", out[1])
	}
	if out[2].UniqueID != "0000-0003-0000-0003" || out[2].Correction != CodeNone {
		t.Fatalf("stipulation must not overwrite: %+v", out[2])
	}
	if out[3].UniqueID != "0000-0002-0000-0002" || out[3].Correction != CodeStipulated {
		t.Fatalf("stipulation should fill empty id: %+v", out[3])
	}
	if out[4].Name() != "Smith, Robert" {
		t.Fatalf("override not applied: %q", out[4].Name())
	}
	if out[5].Name() != "Smiht, Bob" {
		t.Fatalf("override applied outside its scope: %q", out[5].Name())
	}
	if len(out[3].Keywords) != 1 || out[3].Keywords[0] != "UW" {
		t.Fatalf("expected keyword from email domain, got %v", out[3].Keywords)
	}
	if len(out[6].Keywords) != 0 {
		t.Fatalf("keywords are only assigned to creators, got %v", out[6].Keywords)
	}
	if report.Corrected != 2 || report.Stipulated != 1 || report.Overridden != 1 || report.Tagged != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}
