package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"creators/internal/canonical"
	"creators/internal/config"
	"creators/internal/corrections"
	"creators/internal/logging"
	"creators/internal/metrics"
	"creators/internal/observation"
	"creators/internal/pasta"
	"creators/internal/services"
	"creators/internal/store"
)

// Changes lists package revisions to ingest and to drop.
type Changes struct {
	Added   []observation.PackageID
	Removed []observation.PackageID
}

// RunSummary describes one finished run.
type RunSummary struct {
	ID          string
	Kind        string
	Started     time.Time
	Finished    time.Time
	Added       int
	Removed     int
	FetchFailed int
	Unparsable  int
	Prepared    observation.Report
	Clusters    int
	Anomalies   int
	Propagated  int64
	Names       int
	Error       string
}

// Runner coordinates ingestion, clustering and the canonical table.
type Runner struct {
	cfg       *config.Config
	store     *store.Store
	client    *pasta.Client
	archive   *pasta.Archive
	catalog   *corrections.Catalog
	snapshots *canonical.Snapshots
	metrics   *metrics.Metrics
	logger    *slog.Logger
	lock      *flock.Flock
	now       func() time.Time

	runMu sync.Mutex

	mu      sync.RWMutex
	table   *canonical.Table
	lastRun *RunSummary
	running string
}

// Option configures a Runner.
type Option func(*Runner)

// WithClient sets the PASTA client used by Update and Harvest. Without one
// those operations fail and only Recompute is available.
func WithClient(client *pasta.Client) Option {
	return func(r *Runner) { r.client = client }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// CorrectionFiles resolves the configured reference data paths.
func CorrectionFiles(cfg *config.Config) corrections.Files {
	return corrections.Files{
		Nicknames:      cfg.CorrectionsFile(cfg.Corrections.Nicknames),
		PersonVariants: cfg.CorrectionsFile(cfg.Corrections.PersonVariants),
		Overrides:      cfg.CorrectionsFile(cfg.Corrections.Overrides),
		Identifiers:    cfg.CorrectionsFile(cfg.Corrections.IdentifierCorrections),
		Organizations:  cfg.CorrectionsFile(cfg.Corrections.Organizations),
	}
}

// New builds a runner and loads the stored canonical table.
func New(ctx context.Context, cfg *config.Config, st *store.Store, opts ...Option) (*Runner, error) {
	if cfg == nil || st == nil {
		return nil, fmt.Errorf("pipeline requires config and store")
	}
	r := &Runner{
		cfg:       cfg,
		store:     st,
		archive:   pasta.NewArchive(cfg.Paths.EMLDir),
		snapshots: canonical.NewSnapshots(cfg.Paths.SnapshotDir),
		logger:    logging.NewNop(),
		lock:      flock.New(cfg.Paths.LockPath),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "pipeline")
	r.catalog = corrections.NewCatalog(CorrectionFiles(cfg), r.logger)

	entries, err := st.Canonical(ctx)
	if err != nil {
		return nil, fmt.Errorf("load canonical table: %w", err)
	}
	r.table = canonical.FromEntries(entries)
	return r, nil
}

// acquire takes the run lock or reports ErrBusy. The returned func
// releases it.
func (r *Runner) acquire(kind string) (func(), error) {
	if !r.runMu.TryLock() {
		return nil, services.Wrap(services.ErrBusy, "pipeline", kind, "another run is in progress in this process", nil)
	}
	ok, err := r.lock.TryLock()
	if err != nil {
		r.runMu.Unlock()
		return nil, services.Wrap(services.ErrTransient, "pipeline", kind, "acquire lock "+r.cfg.Paths.LockPath, err)
	}
	if !ok {
		r.runMu.Unlock()
		return nil, services.Wrap(services.ErrBusy, "pipeline", kind, "another process holds "+r.cfg.Paths.LockPath, nil)
	}
	r.mu.Lock()
	r.running = kind
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.running = ""
		r.mu.Unlock()
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("failed to release run lock", logging.Error(err))
		}
		r.runMu.Unlock()
	}, nil
}

// Table returns the current canonical table.
func (r *Runner) Table() *canonical.Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table
}

func (r *Runner) finish(summary *RunSummary, table *canonical.Table, err error) {
	summary.Finished = r.now()
	if err != nil {
		summary.Error = err.Error()
	}
	r.mu.Lock()
	if table != nil {
		r.table = table
	}
	r.lastRun = summary
	r.mu.Unlock()
	r.metrics.ObserveRun(summary.Kind, summary.Started, err)
}

// Status reports the runner state.
type Status struct {
	Running    string
	LastUpdate *time.Time
	LastRun    *RunSummary
	Counts     store.Counts
	Archived   int
	Snapshots  int
	Database   string
}

// Status gathers run and storage state.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	var st Status
	r.mu.RLock()
	st.Running = r.running
	if r.lastRun != nil {
		last := *r.lastRun
		st.LastRun = &last
	}
	r.mu.RUnlock()

	if t, ok, err := r.store.LastUpdate(ctx); err != nil {
		return Status{}, err
	} else if ok {
		st.LastUpdate = &t
	}
	counts, err := r.store.Counts(ctx)
	if err != nil {
		return Status{}, err
	}
	st.Counts = counts
	archived, err := r.archive.List()
	if err != nil {
		return Status{}, err
	}
	st.Archived = len(archived)
	snaps, err := r.snapshots.List()
	if err != nil {
		return Status{}, err
	}
	st.Snapshots = len(snaps)
	st.Database = r.store.Path()
	return st, nil
}
