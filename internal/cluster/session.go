package cluster

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"creators/internal/corrections"
	"creators/internal/logging"
	"creators/internal/observation"
	"creators/internal/services"
	"creators/internal/textutil"
)

// Pass identifies one merge pass.
type Pass int

const (
	PassSameNameInScope Pass = iota + 1
	PassSimilarNameInScope
	PassSameNameWithEvidence
	PassSimilarNameWithEvidence
)

func (p Pass) String() string {
	switch p {
	case PassSameNameInScope:
		return "same_name_in_scope"
	case PassSimilarNameInScope:
		return "similar_name_in_scope"
	case PassSameNameWithEvidence:
		return "same_name_with_evidence"
	case PassSimilarNameWithEvidence:
		return "similar_name_with_evidence"
	default:
		return "unknown"
	}
}

// Options configures a Session.
type Options struct {
	Nicknames      *corrections.Nicknames
	PersonVariants *corrections.PersonVariants
	// CreatorsOnly restricts clustering to observations with the creator role.
	CreatorsOnly bool
	// MatchSharedIdentifier lets identical identifier sets stand in for the
	// name test inside a surname bucket.
	MatchSharedIdentifier bool
	Logger                *slog.Logger
}

// Stats summarizes one run.
type Stats struct {
	Observations int
	Seeded       int
	Merges       map[Pass]int
	Clusters     int
	Anomalies    int
}

// Session holds the working cluster state of one run. It is not safe for
// concurrent use.
type Session struct {
	opts    Options
	logger  *slog.Logger
	members map[int64]observation.Observation
	input   []observation.Observation
	scopes  []string
	buckets map[string][]*PersonCluster
	keys    []string
	order   map[string]string
	stats   Stats
	ran     bool
}

// NewSession validates the observations and prepares an empty session.
// Source ids must be unique.
func NewSession(obs []observation.Observation, opts Options) (*Session, error) {
	s := &Session{
		opts:    opts,
		logger:  logging.NewComponentLogger(opts.Logger, "cluster"),
		members: make(map[int64]observation.Observation, len(obs)),
		buckets: make(map[string][]*PersonCluster),
		order:   make(map[string]string),
		stats:   Stats{Merges: make(map[Pass]int, 4)},
	}
	scopes := NewSet[string]()
	for _, o := range obs {
		if opts.CreatorsOnly && !o.IsCreator() {
			continue
		}
		if _, dup := s.members[o.SourceID]; dup {
			return nil, services.Wrap(services.ErrValidation, "cluster", "new session",
				fmt.Sprintf("duplicate source id %d", o.SourceID), nil)
		}
		s.members[o.SourceID] = o
		s.input = append(s.input, o)
		scopes.Add(o.Scope())
	}
	s.scopes = Sorted(scopes)
	s.stats.Observations = len(s.input)
	return s, nil
}

// Run executes stages A, B and C. It may only be called once.
func (s *Session) Run(ctx context.Context) error {
	if s.ran {
		return services.Wrap(services.ErrValidation, "cluster", "run", "session already ran", nil)
	}
	s.ran = true

	s.seed()
	s.stats.Seeded = s.count()

	for _, scope := range s.scopes {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.runPass(PassSameNameInScope, inScope(scope))
	}
	for _, scope := range s.scopes {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.runPass(PassSimilarNameInScope, inScope(scope))
	}
	for _, p := range []Pass{PassSameNameWithEvidence, PassSimilarNameWithEvidence} {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.runPass(p, everyCluster)
	}

	s.stats.Clusters = s.count()
	anomalies := s.Anomalies()
	s.stats.Anomalies = len(anomalies)
	logger := logging.WithContext(ctx, s.logger)
	for _, a := range anomalies {
		logging.WarnWithContext(logger, "cluster holds conflicting identifiers", "identifier_conflict",
			logging.String(logging.FieldImpact, "identifier not propagated"),
			logging.String(logging.FieldErrorHint, "add an identifier correction for the affected name"),
			logging.String("surname", strings.Join(a.Surnames, "|")),
			logging.Strings("identifiers", a.Identifiers),
		)
	}
	logger.Info("clustering finished",
		logging.Int("observations", s.stats.Observations),
		logging.Int("seeded", s.stats.Seeded),
		logging.Int("clusters", s.stats.Clusters),
		logging.Int("anomalies", s.stats.Anomalies),
	)
	return nil
}

// seed builds one cluster per run of adjacent, similarly named observations
// inside each package. An observation whose identifier conflicts with the
// run so far starts a new cluster.
func (s *Session) seed() {
	sorted := slices.Clone(s.input)
	slices.SortStableFunc(sorted, func(a, b observation.Observation) int {
		return cmp.Or(
			a.Package.Compare(b.Package),
			strings.Compare(textutil.NormalizeText(a.Surname), textutil.NormalizeText(b.Surname)),
			strings.Compare(a.GivenName, b.GivenName),
		)
	})

	var current *PersonCluster
	var prev observation.Observation
	for i, o := range sorted {
		single := FromObservation(o)
		joins := i > 0 &&
			o.Package == prev.Package &&
			SameName(o.Surname, prev.Surname) &&
			SimilarNames(o.GivenName+" "+o.Surname, prev.GivenName+" "+prev.Surname, s.opts.Nicknames) &&
			!Vetoed(current, single)
		if joins {
			current.add(o)
		} else {
			current = single
			s.insert(current)
		}
		prev = o
	}
	slices.SortFunc(s.keys, func(a, b string) int {
		return cmp.Or(strings.Compare(s.order[a], s.order[b]), strings.Compare(a, b))
	})
}

// insert adds a seeded cluster to its bucket. Buckets are ordered by the
// smallest casefolded surname spelling they hold.
func (s *Session) insert(c *PersonCluster) {
	key := bucketKey(c)
	fold := ""
	if surnames := c.Values(AttrSurname); len(surnames) > 0 {
		fold = textutil.FoldKey(surnames[0])
	}
	if _, ok := s.buckets[key]; !ok {
		s.keys = append(s.keys, key)
		s.order[key] = fold
	} else if fold < s.order[key] {
		s.order[key] = fold
	}
	s.buckets[key] = append(s.buckets[key], c)
}

// bucketKey is the normalized surname. Every merge requires equal
// normalized surnames, so a cluster never spans two buckets.
func bucketKey(c *PersonCluster) string {
	for v := range c.attrs[AttrSurname] {
		return textutil.NormalizeText(v)
	}
	return ""
}

type eligibility func(*PersonCluster) bool

func inScope(scope string) eligibility {
	return func(c *PersonCluster) bool { return c.Has(AttrScope, scope) }
}

func everyCluster(*PersonCluster) bool { return true }

func (s *Session) matcher(p Pass) func(a, b *PersonCluster) bool {
	names := func(a, b *PersonCluster) bool {
		if s.opts.MatchSharedIdentifier && SharedIdentifiers(a, b) {
			return true
		}
		if p == PassSameNameInScope || p == PassSameNameWithEvidence {
			return SameNameSets(a, b)
		}
		return SimilarNameSets(a, b, s.opts.Nicknames)
	}
	if p == PassSameNameInScope || p == PassSimilarNameInScope {
		return names
	}
	return func(a, b *PersonCluster) bool {
		if !names(a, b) {
			return false
		}
		return HasEvidence(a, b) || SharesVariantGroup(a, b, s.opts.PersonVariants)
	}
}

func (s *Session) runPass(p Pass, eligible eligibility) {
	match := s.matcher(p)
	for _, key := range s.keys {
		for {
			next, merges := scan(s.buckets[key], eligible, match)
			if merges == 0 {
				break
			}
			s.buckets[key] = next
			s.stats.Merges[p] += merges
		}
	}
}

// scan makes one greedy sweep over a bucket. Each eligible cluster absorbs
// every later eligible cluster it matches, unless the accumulated merge
// would be vetoed. Untouched clusters keep their order and merged clusters
// are appended.
func scan(bucket []*PersonCluster, eligible eligibility, match func(a, b *PersonCluster) bool) ([]*PersonCluster, int) {
	removed := make([]bool, len(bucket))
	var merged []*PersonCluster
	merges := 0
	for i, ci := range bucket {
		if removed[i] || !eligible(ci) {
			continue
		}
		acc := ci
		for j := i + 1; j < len(bucket); j++ {
			cj := bucket[j]
			if removed[j] || !eligible(cj) {
				continue
			}
			if !match(ci, cj) || Vetoed(acc, cj) {
				continue
			}
			acc = Merge(acc, cj)
			removed[j] = true
			merges++
		}
		if acc != ci {
			removed[i] = true
			merged = append(merged, acc)
		}
	}
	if merges == 0 {
		return bucket, 0
	}
	next := make([]*PersonCluster, 0, len(bucket)-merges)
	for i, c := range bucket {
		if !removed[i] {
			next = append(next, c)
		}
	}
	return append(next, merged...), merges
}

func (s *Session) count() int {
	n := 0
	for _, b := range s.buckets {
		n += len(b)
	}
	return n
}

// Clusters returns the live clusters in traversal order.
func (s *Session) Clusters() []*PersonCluster {
	out := make([]*PersonCluster, 0, s.count())
	for _, key := range s.keys {
		out = append(out, s.buckets[key]...)
	}
	return out
}

// Stats returns the run statistics.
func (s *Session) Stats() Stats {
	return s.stats
}

// Anomaly describes a cluster whose members disagree on their identifier.
type Anomaly struct {
	Surnames    []string
	GivenNames  []string
	Identifiers []string
	SourceIDs   []int64
}

// Anomalies lists every cluster holding more than one identifier.
func (s *Session) Anomalies() []Anomaly {
	var out []Anomaly
	for _, c := range s.Clusters() {
		if !c.Anomalous() {
			continue
		}
		out = append(out, Anomaly{
			Surnames:    c.Values(AttrSurname),
			GivenNames:  c.Values(AttrGivenName),
			Identifiers: c.Values(AttrIdentifier),
			SourceIDs:   c.SourceIDs(),
		})
	}
	return out
}
