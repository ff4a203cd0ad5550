package pipeline

import (
	"context"
	"time"

	"creators/internal/canonical"
	"creators/internal/config"
	"creators/internal/logging"
	"creators/internal/observation"
	"creators/internal/pasta"
	"creators/internal/services"
)

// Update reads the change feed since the last successful update, fetches
// and archives new documents, prunes superseded revisions and recomputes.
// The last update time only advances when the whole run succeeds.
func (r *Runner) Update(ctx context.Context) (*canonical.Table, error) {
	release, err := r.acquire(kindUpdate)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, summary := r.begin(ctx, kindUpdate)
	table, err := r.update(ctx, summary)
	r.finish(summary, table, err)
	return table, err
}

func (r *Runner) update(ctx context.Context, summary *RunSummary) (*canonical.Table, error) {
	if r.client == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", kindUpdate, "no PASTA client configured", nil)
	}
	started := summary.Started
	from, err := r.fromDate(ctx)
	if err != nil {
		return nil, err
	}
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("reading change feed", logging.String("from", from.Format(pasta.DateLayout)))

	feed, err := r.client.Changes(services.WithStage(ctx, "changes"), from)
	if err != nil {
		return nil, err
	}

	var (
		changes Changes
		fetch   []observation.PackageID
		seen    = make(map[observation.PackageID]struct{})
	)
	for _, c := range feed {
		if c.Deleted() {
			if err := r.archive.Remove(c.ID); err != nil {
				return nil, err
			}
			changes.Removed = append(changes.Removed, c.ID)
			continue
		}
		if _, dup := seen[c.ID]; dup || r.archive.Has(c.ID) {
			continue
		}
		seen[c.ID] = struct{}{}
		fetch = append(fetch, c.ID)
	}

	added, err := r.download(ctx, fetch, summary)
	if err != nil {
		return nil, err
	}
	changes.Added = added

	pruned, err := r.archive.Prune()
	if err != nil {
		return nil, err
	}
	changes.Removed = append(changes.Removed, pruned...)

	table, err := r.recompute(ctx, changes, summary)
	if err != nil {
		return nil, err
	}
	if err := r.store.SetLastUpdate(ctx, started); err != nil {
		return nil, err
	}
	return table, nil
}

func (r *Runner) fromDate(ctx context.Context) (time.Time, error) {
	last, ok, err := r.store.LastUpdate(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if ok {
		return last, nil
	}
	from, err := time.Parse(config.FromDateLayout, r.cfg.PASTA.DefaultFromDate)
	if err != nil {
		return time.Time{}, services.Wrap(services.ErrConfiguration, "pipeline", kindUpdate, "bad default_from_date", err)
	}
	return from, nil
}

// download fetches pids and archives every document that arrived.
func (r *Runner) download(ctx context.Context, pids []observation.PackageID, summary *RunSummary) ([]observation.PackageID, error) {
	if len(pids) == 0 {
		return nil, nil
	}
	docs, err := r.client.Fetch(services.WithStage(ctx, "fetch"), pids)
	if err != nil {
		return nil, err
	}
	var added []observation.PackageID
	for _, doc := range docs {
		if doc.Err != nil {
			summary.FetchFailed++
			continue
		}
		if _, err := r.archive.Save(doc.ID, doc.Body); err != nil {
			return nil, err
		}
		added = append(added, doc.ID)
	}
	logging.WithContext(ctx, r.logger).Info("documents archived",
		logging.Int("requested", len(pids)),
		logging.Int("archived", len(added)),
		logging.Int("failed", summary.FetchFailed),
	)
	return added, nil
}

// Harvest downloads the newest revision of every package that is not yet
// archived, prunes the archive, and brings the raw store in line with it:
// archived revisions missing from the store are ingested and stored
// revisions no longer archived are dropped.
func (r *Runner) Harvest(ctx context.Context) (*canonical.Table, error) {
	release, err := r.acquire(kindHarvest)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, summary := r.begin(ctx, kindHarvest)
	table, err := r.harvest(ctx, summary)
	r.finish(summary, table, err)
	return table, err
}

func (r *Runner) harvest(ctx context.Context, summary *RunSummary) (*canonical.Table, error) {
	if r.client == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", kindHarvest, "no PASTA client configured", nil)
	}
	listed, err := r.client.Harvest(services.WithStage(ctx, "list"))
	if err != nil {
		return nil, err
	}
	var missing []observation.PackageID
	for _, pid := range listed {
		if !r.archive.Has(pid) {
			missing = append(missing, pid)
		}
	}
	if _, err := r.download(ctx, missing, summary); err != nil {
		return nil, err
	}
	if _, err := r.archive.Prune(); err != nil {
		return nil, err
	}
	changes, err := r.archiveDelta(ctx)
	if err != nil {
		return nil, err
	}
	return r.recompute(ctx, changes, summary)
}

// archiveDelta compares the archive with the raw store.
func (r *Runner) archiveDelta(ctx context.Context) (Changes, error) {
	archived, err := r.archive.List()
	if err != nil {
		return Changes{}, err
	}
	stored, err := r.store.PackageRevisions(ctx)
	if err != nil {
		return Changes{}, err
	}
	inStore := make(map[observation.PackageID]struct{}, len(stored))
	for _, pid := range stored {
		inStore[pid] = struct{}{}
	}
	inArchive := make(map[observation.PackageID]struct{}, len(archived))
	var changes Changes
	for _, pid := range archived {
		inArchive[pid] = struct{}{}
		if _, ok := inStore[pid]; !ok {
			changes.Added = append(changes.Added, pid)
		}
	}
	for _, pid := range stored {
		if _, ok := inArchive[pid]; !ok {
			changes.Removed = append(changes.Removed, pid)
		}
	}
	return changes, nil
}
