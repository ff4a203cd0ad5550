package pipeline

import (
	"context"
	"errors"
	"runtime"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"creators/internal/canonical"
	"creators/internal/cluster"
	"creators/internal/eml"
	"creators/internal/logging"
	"creators/internal/observation"
	"creators/internal/services"
)

const (
	kindUpdate       = "update"
	kindHarvest      = "harvest"
	kindRecompute    = "recompute"
	kindFlushOrphans = "flush_orphans"
)

// Recompute applies changes to the raw store and rebuilds the canonical
// table from every stored observation.
func (r *Runner) Recompute(ctx context.Context, changes Changes) (*canonical.Table, error) {
	release, err := r.acquire(kindRecompute)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, summary := r.begin(ctx, kindRecompute)
	table, err := r.recompute(ctx, changes, summary)
	r.finish(summary, table, err)
	return table, err
}

func (r *Runner) begin(ctx context.Context, kind string) (context.Context, *RunSummary) {
	summary := &RunSummary{ID: uuid.NewString(), Kind: kind, Started: r.now()}
	ctx = services.WithRunID(ctx, summary.ID)
	logging.WithContext(ctx, r.logger).Info("run started", logging.String("kind", kind))
	return ctx, summary
}

// recompute runs with the lock held.
func (r *Runner) recompute(ctx context.Context, changes Changes, summary *RunSummary) (*canonical.Table, error) {
	logger := logging.WithContext(ctx, r.logger)

	refs, err := r.catalog.Current()
	if err != nil {
		logging.ErrorWithContext(logger, "reference data unavailable", "reference_data_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "restore the reference files in "+r.cfg.Paths.CorrectionsDir),
		)
		return nil, err
	}

	if err := r.applyChanges(services.WithStage(ctx, "ingest"), changes, summary); err != nil {
		return nil, err
	}

	raw, err := r.store.RawObservations(ctx)
	if err != nil {
		return nil, err
	}
	prepared, report := observation.Prepare(raw, refs, logger)
	summary.Prepared = report
	if err := r.store.ReplaceWorking(ctx, prepared); err != nil {
		return nil, err
	}

	session, err := cluster.NewSession(prepared, cluster.Options{
		Nicknames:             refs.Nicknames,
		PersonVariants:        refs.PersonVariants,
		CreatorsOnly:          r.cfg.Matching.CreatorsOnly,
		MatchSharedIdentifier: r.cfg.Matching.MatchSharedIdentifier,
		Logger:                r.logger,
	})
	if err != nil {
		return nil, err
	}
	if err := session.Run(services.WithStage(ctx, "cluster")); err != nil {
		return nil, err
	}
	stats := session.Stats()
	summary.Clusters = stats.Clusters
	summary.Anomalies = stats.Anomalies
	for pass, n := range stats.Merges {
		r.metrics.AddMerges(pass.String(), n)
	}

	propagated, err := r.store.ApplyIdentifierUpdates(ctx, session.Propagate())
	if err != nil {
		return nil, err
	}
	summary.Propagated = propagated

	table := canonical.Build(session.Emit(), refs.Overrides)
	if err := r.store.ReplaceCanonical(ctx, table.Entries()); err != nil {
		return nil, err
	}
	summary.Names = table.Len()
	r.metrics.SetClusterState(stats.Clusters, stats.Anomalies, table.Len())

	logger.Info("recompute finished",
		logging.Int("clusters", stats.Clusters),
		logging.Int("anomalies", stats.Anomalies),
		logging.Int64("propagated", propagated),
		logging.Int("names", table.Len()),
	)
	return table, nil
}

type parsed struct {
	pid observation.PackageID
	obs []observation.Observation
	err error
}

// applyChanges parses added packages from the archive, then replaces them
// in the raw store together with the removal of dropped packages and of
// older stored revisions of every added series. Unparsable documents are
// logged and left out.
func (r *Runner) applyChanges(ctx context.Context, changes Changes, summary *RunSummary) error {
	if len(changes.Added) == 0 && len(changes.Removed) == 0 {
		return nil
	}
	logger := logging.WithContext(ctx, r.logger)

	results := make([]parsed, len(changes.Added))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, pid := range changes.Added {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, obs, err := eml.ParseFile(r.archive.Path(pid))
			results[i] = parsed{pid: pid, obs: obs, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	stored, err := r.store.PackageRevisions(ctx)
	if err != nil {
		return err
	}
	remove := slices.Clone(changes.Removed)
	var (
		added []observation.PackageID
		obs   []observation.Observation
	)
	for _, res := range results {
		if res.err != nil {
			summary.Unparsable++
			event := "eml_unreadable"
			if errors.Is(res.err, eml.ErrMalformed) {
				event = "eml_malformed"
			}
			logging.WarnWithContext(logger, "skipping package", event,
				logging.String(logging.FieldPackageID, res.pid.String()),
				logging.Error(res.err),
				logging.String(logging.FieldImpact, "package creators not counted"),
			)
			continue
		}
		added = append(added, res.pid)
		obs = append(obs, res.obs...)
		for _, s := range stored {
			if s.Series() == res.pid.Series() && s.Revision < res.pid.Revision {
				remove = append(remove, s)
			}
		}
	}

	if len(remove) > 0 {
		n, err := r.store.DeletePackages(ctx, remove)
		if err != nil {
			return err
		}
		logger.Info("removed packages", logging.Int("packages", len(remove)), logging.Int64("observations", n))
	}
	if len(added) > 0 {
		if err := r.store.ReplacePackages(ctx, added, obs); err != nil {
			return err
		}
		logger.Info("ingested packages", logging.Int("packages", len(added)), logging.Int("observations", len(obs)))
	}
	summary.Added += len(added)
	summary.Removed += len(remove)
	return nil
}
