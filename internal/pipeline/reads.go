package pipeline

import (
	"context"
	"slices"
	"strings"

	"creators/internal/canonical"
	"creators/internal/logging"
	"creators/internal/observation"
)

// Names returns every canonical name in display order.
func (r *Runner) Names() []string {
	return r.Table().Names()
}

// Variants returns the spellings that resolve to name.
func (r *Runner) Variants(name string) ([]string, error) {
	return r.Table().Variants(name)
}

// NamesForScope returns the canonical names of the creators credited in a
// scope. An unknown scope yields an empty list.
func (r *Runner) NamesForScope(ctx context.Context, scope string) ([]string, error) {
	scopeNames, err := r.store.ScopeNames(ctx, strings.TrimSpace(scope))
	if err != nil {
		return nil, err
	}
	return r.Table().NamesForScope(scopeNames), nil
}

// PossibleDups reports surnames with more than one canonical name, marked
// against the oldest unflushed snapshot. The current report is saved as a
// new snapshot.
func (r *Runner) PossibleDups(ctx context.Context) ([]string, error) {
	current := r.Table().PossibleDups()
	oldest, err := r.snapshots.Oldest()
	if err != nil {
		return nil, err
	}
	var earlier []string
	if oldest != nil {
		earlier = oldest.Lines
	}
	path, err := r.snapshots.Save(current)
	if err != nil {
		return nil, err
	}
	logging.WithContext(ctx, r.logger).Debug("saved possible duplicates snapshot",
		logging.String("path", path),
		logging.Int("surnames", len(current)),
	)
	return canonical.Diff(current, earlier), nil
}

// FlushPossibleDups keeps only the newest snapshot and returns how many
// were deleted.
func (r *Runner) FlushPossibleDups(ctx context.Context) (int, error) {
	removed, err := r.snapshots.Flush()
	if err != nil {
		return 0, err
	}
	logging.WithContext(ctx, r.logger).Info("flushed possible duplicates snapshots", logging.Int("removed", removed))
	return removed, nil
}

// Orphan is a stored creator whose package series is archived under a
// different revision.
type Orphan struct {
	SourceID  int64
	Surname   string
	GivenName string
	PackageID string
}

// Orphans lists stored creators left behind by a superseded revision.
func (r *Runner) Orphans(ctx context.Context) ([]Orphan, error) {
	orphans, _, err := r.findOrphans(ctx)
	return orphans, err
}

func (r *Runner) findOrphans(ctx context.Context) ([]Orphan, []observation.PackageID, error) {
	archived, err := r.archive.List()
	if err != nil {
		return nil, nil, err
	}
	revisions := make(map[string]int, len(archived))
	for _, pid := range archived {
		revisions[pid.Series()] = max(revisions[pid.Series()], pid.Revision)
	}
	raw, err := r.store.RawObservations(ctx)
	if err != nil {
		return nil, nil, err
	}
	var (
		orphans []Orphan
		pids    []observation.PackageID
	)
	for _, o := range raw {
		if !o.IsCreator() {
			continue
		}
		rev, ok := revisions[o.Package.Series()]
		if !ok || rev == o.Package.Revision {
			continue
		}
		orphans = append(orphans, Orphan{
			SourceID:  o.SourceID,
			Surname:   o.Surname,
			GivenName: o.GivenName,
			PackageID: o.Package.String(),
		})
		if !slices.Contains(pids, o.Package) {
			pids = append(pids, o.Package)
		}
	}
	slices.SortFunc(pids, observation.PackageID.Compare)
	return orphans, pids, nil
}

// FlushOrphans drops the orphaned package revisions from the store,
// recomputes, and returns the dropped ids.
func (r *Runner) FlushOrphans(ctx context.Context) ([]string, error) {
	release, err := r.acquire(kindFlushOrphans)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, summary := r.begin(ctx, kindFlushOrphans)
	_, pids, err := r.findOrphans(ctx)
	if err != nil {
		r.finish(summary, nil, err)
		return nil, err
	}
	out := make([]string, 0, len(pids))
	for _, pid := range pids {
		out = append(out, pid.String())
	}
	if len(pids) == 0 {
		r.finish(summary, nil, nil)
		return out, nil
	}
	table, err := r.recompute(ctx, Changes{Removed: pids}, summary)
	r.finish(summary, table, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}
