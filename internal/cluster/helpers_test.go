package cluster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"creators/internal/corrections"
	"creators/internal/logging"
	"creators/internal/observation"
)

type obsOption func(*observation.Observation)

func withID(id string) obsOption {
	return func(o *observation.Observation) { o.UniqueID = id }
}

func withEmail(email string) obsOption {
	return func(o *observation.Observation) { o.Emails = append(o.Emails, email) }
}

func withOrganization(org string) obsOption {
	return func(o *observation.Observation) { o.Organization = org }
}

func withKeywords(keywords ...string) obsOption {
	return func(o *observation.Observation) { o.Keywords = append(o.Keywords, keywords...) }
}

func newObs(t *testing.T, sourceID int64, pid, role, surname, given string, opts ...obsOption) observation.Observation {
	t.Helper()
	p, err := observation.ParsePackageID(pid)
	require.NoError(t, err)
	o := observation.Observation{
		SourceID:   sourceID,
		Package:    p,
		Role:       role,
		Surname:    surname,
		GivenName:  given,
		Correction: observation.CodeNone,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func testNicknames() *corrections.Nicknames {
	return corrections.NewNicknames(
		corrections.NicknamePair{A: "steve", B: "stephen"},
		corrections.NicknamePair{A: "bob", B: "robert"},
		corrections.NicknamePair{A: "jim", B: "james"},
	)
}

func runSession(t *testing.T, obs []observation.Observation, opts Options) *Session {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	s, err := NewSession(obs, opts)
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background()))
	return s
}

func emittedLines(s *Session) []string {
	var lines []string
	for _, e := range s.Emit() {
		lines = append(lines, e.Line)
	}
	return lines
}
