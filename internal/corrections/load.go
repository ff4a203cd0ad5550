package corrections

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strings"

	"creators/internal/orcid"
	"creators/internal/services"
)

// Files names the five reference data files.
type Files struct {
	Nicknames      string
	PersonVariants string
	Overrides      string
	Identifiers    string
	Organizations  string
}

func (f Files) paths() []string {
	return []string{f.Nicknames, f.PersonVariants, f.Overrides, f.Identifiers, f.Organizations}
}

// Set is one consistent snapshot of all reference data.
type Set struct {
	Nicknames      *Nicknames
	PersonVariants *PersonVariants
	Overrides      []Override
	Identifiers    []IdentifierCorrection
	Organizations  []Organization
}

// Load reads and validates every file. The first failure aborts the load.
func Load(files Files) (*Set, error) {
	nicknames, err := LoadNicknames(files.Nicknames)
	if err != nil {
		return nil, err
	}
	variants, err := LoadPersonVariants(files.PersonVariants)
	if err != nil {
		return nil, err
	}
	overrides, err := LoadOverrides(files.Overrides)
	if err != nil {
		return nil, err
	}
	identifiers, err := LoadIdentifierCorrections(files.Identifiers)
	if err != nil {
		return nil, err
	}
	organizations, err := LoadOrganizations(files.Organizations)
	if err != nil {
		return nil, err
	}
	return &Set{
		Nicknames:      nicknames,
		PersonVariants: variants,
		Overrides:      overrides,
		Identifiers:    identifiers,
		Organizations:  organizations,
	}, nil
}

type nicknamesDoc struct {
	Entries []struct {
		Name1 string `xml:"name1"`
		Name2 string `xml:"name2"`
	} `xml:"nickname"`
}

// LoadNicknames parses <nickname><name1/><name2/></nickname> entries.
func LoadNicknames(path string) (*Nicknames, error) {
	var doc nicknamesDoc
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	pairs := make([]NicknamePair, 0, len(doc.Entries))
	for i, e := range doc.Entries {
		a, b := strings.TrimSpace(e.Name1), strings.TrimSpace(e.Name2)
		if a == "" || b == "" {
			return nil, malformed(path, fmt.Sprintf("nickname %d needs name1 and name2", i+1))
		}
		pairs = append(pairs, NicknamePair{A: a, B: b})
	}
	return NewNicknames(pairs...), nil
}

type variantXML struct {
	Surname   string `xml:"surname"`
	GivenName string `xml:"givenname"`
	Scope     string `xml:"scope"`
}

type personVariantsDoc struct {
	People []struct {
		Variants []variantXML `xml:"variant"`
		Comment  string       `xml:"comment"`
	} `xml:"person"`
}

// LoadPersonVariants parses <person><variant>…</variant><comment/></person>
// groups.
func LoadPersonVariants(path string) (*PersonVariants, error) {
	var doc personVariantsDoc
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	groups := make([]PersonGroup, 0, len(doc.People))
	for i, p := range doc.People {
		group := PersonGroup{Comment: strings.TrimSpace(p.Comment)}
		for _, v := range p.Variants {
			key := VariantKey{
				Surname:   strings.TrimSpace(v.Surname),
				GivenName: strings.TrimSpace(v.GivenName),
				Scope:     strings.TrimSpace(v.Scope),
			}
			if key.Surname == "" || key.Scope == "" {
				return nil, malformed(path, fmt.Sprintf("person %d has a variant without surname or scope", i+1))
			}
			group.Variants = append(group.Variants, key)
		}
		if len(group.Variants) == 0 {
			return nil, malformed(path, fmt.Sprintf("person %d has no variants", i+1))
		}
		groups = append(groups, group)
	}
	return NewPersonVariants(groups), nil
}

type overridesDoc struct {
	Entries []struct {
		Original struct {
			Surname    string `xml:"surname"`
			GivenName  string `xml:"givenname"`
			SurnameRaw string `xml:"surname_raw"`
		} `xml:"original"`
		Corrected struct {
			Surname   string `xml:"surname"`
			GivenName string `xml:"givenname"`
		} `xml:"corrected"`
		Scope string `xml:"scope"`
	} `xml:"override"`
}

// LoadOverrides parses <override> entries in file order.
func LoadOverrides(path string) ([]Override, error) {
	var doc overridesDoc
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	overrides := make([]Override, 0, len(doc.Entries))
	for i, e := range doc.Entries {
		o := Override{
			OriginalSurname:    strings.TrimSpace(e.Original.Surname),
			OriginalGivenName:  strings.TrimSpace(e.Original.GivenName),
			OriginalSurnameRaw: strings.TrimSpace(e.Original.SurnameRaw),
			Surname:            strings.TrimSpace(e.Corrected.Surname),
			GivenName:          strings.TrimSpace(e.Corrected.GivenName),
			Scope:              strings.TrimSpace(e.Scope),
		}
		if o.OriginalSurname == "" || o.Surname == "" || o.Scope == "" {
			return nil, malformed(path, fmt.Sprintf("override %d needs original and corrected surnames and a scope", i+1))
		}
		overrides = append(overrides, o)
	}
	return overrides, nil
}

type identifierEntry struct {
	Surname   string `xml:"surname"`
	GivenName string `xml:"givenname"`
	ORCID     string `xml:"orcid"`
}

type identifiersDoc struct {
	Corrections  []identifierEntry `xml:"correction"`
	Stipulations []identifierEntry `xml:"stipulation"`
}

// LoadIdentifierCorrections parses <correction> and <stipulation> entries.
// Corrections come first, then stipulations, each in file order.
func LoadIdentifierCorrections(path string) ([]IdentifierCorrection, error) {
	var doc identifiersDoc
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	out := make([]IdentifierCorrection, 0, len(doc.Corrections)+len(doc.Stipulations))
	add := func(kind CorrectionKind, entries []identifierEntry) error {
		for i, e := range entries {
			id := orcid.Trim(e.ORCID)
			if id == "" {
				return malformed(path, fmt.Sprintf("%s %d has no valid orcid %q", kind, i+1, e.ORCID))
			}
			surname := strings.TrimSpace(e.Surname)
			if surname == "" {
				return malformed(path, fmt.Sprintf("%s %d has no surname", kind, i+1))
			}
			out = append(out, IdentifierCorrection{
				Kind:       kind,
				Surname:    surname,
				GivenName:  strings.TrimSpace(e.GivenName),
				Identifier: id,
			})
		}
		return nil
	}
	if err := add(KindCorrection, doc.Corrections); err != nil {
		return nil, err
	}
	if err := add(KindStipulation, doc.Stipulations); err != nil {
		return nil, err
	}
	return out, nil
}

type organizationsDoc struct {
	Entries []struct {
		Keyword string   `xml:"keyword"`
		Names   []string `xml:"name"`
		Emails  []string `xml:"email"`
	} `xml:"organization"`
}

// LoadOrganizations parses <organization><keyword/><name/>…<email/>…
// entries. Email elements hold bare domains such as "wisc.edu".
func LoadOrganizations(path string) ([]Organization, error) {
	var doc organizationsDoc
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	out := make([]Organization, 0, len(doc.Entries))
	for i, e := range doc.Entries {
		org := Organization{Keyword: strings.TrimSpace(e.Keyword)}
		if org.Keyword == "" {
			return nil, malformed(path, fmt.Sprintf("organization %d has no keyword", i+1))
		}
		for _, n := range e.Names {
			if n = strings.TrimSpace(n); n != "" {
				org.Names = append(org.Names, n)
			}
		}
		for _, d := range e.Emails {
			if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
				org.Domains = append(org.Domains, d)
			}
		}
		out = append(out, org)
	}
	return out, nil
}

func decodeFile(path string, v any) error {
	if strings.TrimSpace(path) == "" {
		return services.Wrap(services.ErrConfiguration, "corrections", "load", "reference file path is empty", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrConfiguration, "corrections", "load", "missing "+path, err)
		}
		return services.Wrap(services.ErrConfiguration, "corrections", "load", "read "+path, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return malformed(path, "file is empty")
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return services.Wrap(services.ErrConfiguration, "corrections", "parse", path, err)
	}
	return nil
}

func malformed(path, detail string) error {
	return services.Wrap(services.ErrConfiguration, "corrections", "parse", path+": "+detail, nil)
}
