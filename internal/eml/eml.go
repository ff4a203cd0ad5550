// Package eml extracts responsible parties from Ecological Metadata
// Language documents.
package eml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"creators/internal/observation"
)

// ErrMalformed marks documents that cannot be parsed.
var ErrMalformed = errors.New("malformed eml")

type document struct {
	Dataset *struct {
		Creators          []party `xml:"creator"`
		Contacts          []party `xml:"contact"`
		AssociatedParties []party `xml:"associatedParty"`
		MetadataProviders []party `xml:"metadataProvider"`
		Projects          []struct {
			Personnel       []party `xml:"personnel"`
			RelatedProjects []struct {
				Personnel []party `xml:"personnel"`
			} `xml:"relatedProject"`
		} `xml:"project"`
	} `xml:"dataset"`
}

type party struct {
	IndividualNames []struct {
		GivenNames []string `xml:"givenName"`
		SurNames   []string `xml:"surName"`
	} `xml:"individualName"`
	OrganizationNames []string `xml:"organizationName"`
	PositionNames     []string `xml:"positionName"`
	Addresses         []struct {
		DeliveryPoints []string `xml:"deliveryPoint"`
		Cities         []string `xml:"city"`
		Countries      []string `xml:"country"`
	} `xml:"address"`
	Emails  []string `xml:"electronicMailAddress"`
	URLs    []string `xml:"onlineUrl"`
	UserIDs []string `xml:"userId"`
}

// Parse reads one EML document and returns an observation per responsible
// party, in document order: creators, contacts, associated parties,
// metadata providers, project personnel, related project personnel. Only
// the first individualName and address of a party are read.
func Parse(r io.Reader, pid observation.PackageID) ([]observation.Observation, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, pid, err)
	}
	if doc.Dataset == nil {
		return nil, fmt.Errorf("%w: %s: no dataset element", ErrMalformed, pid)
	}

	var out []observation.Observation
	add := func(role string, parties []party) {
		for _, p := range parties {
			out = append(out, p.observation(pid, role))
		}
	}
	ds := doc.Dataset
	add(observation.RoleCreator, ds.Creators)
	add(observation.RoleContact, ds.Contacts)
	add(observation.RoleAssociatedParty, ds.AssociatedParties)
	add(observation.RoleMetadataProvider, ds.MetadataProviders)
	for _, p := range ds.Projects {
		add(observation.RolePersonnel, p.Personnel)
	}
	for _, p := range ds.Projects {
		for _, rp := range p.RelatedProjects {
			add(observation.RolePersonnel, rp.Personnel)
		}
	}
	return out, nil
}

// ParseFile parses a document saved as scope.identifier.revision.xml.
func ParseFile(path string) (observation.PackageID, []observation.Observation, error) {
	pid, err := PackageIDFromPath(path)
	if err != nil {
		return observation.PackageID{}, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return pid, nil, err
	}
	defer f.Close()
	obs, err := Parse(f, pid)
	return pid, obs, err
}

// PackageIDFromPath derives the package id from a file name.
func PackageIDFromPath(path string) (observation.PackageID, error) {
	return observation.ParsePackageID(strings.TrimSuffix(filepath.Base(path), ".xml"))
}

func (p party) observation(pid observation.PackageID, role string) observation.Observation {
	o := observation.Observation{
		Package:      pid,
		Role:         role,
		Organization: join(p.OrganizationNames),
		Position:     join(p.PositionNames),
		Emails:       nonEmpty(p.Emails),
		URLs:         nonEmpty(p.URLs),
		UniqueID:     join(p.UserIDs),
		Correction:   observation.CodeNone,
	}
	if len(p.IndividualNames) > 0 {
		n := p.IndividualNames[0]
		o.GivenName = join(n.GivenNames)
		o.Surname = join(n.SurNames)
		o.SurnameRaw = o.Surname
	}
	if len(p.Addresses) > 0 {
		a := p.Addresses[0]
		o.Address = join(a.DeliveryPoints)
		o.City = join(a.Cities)
		o.Country = join(a.Countries)
	}
	return o
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func join(values []string) string {
	return strings.Join(nonEmpty(values), " ")
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}
