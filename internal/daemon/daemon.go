package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus"

	"creators/internal/api"
	"creators/internal/config"
	"creators/internal/logging"
	"creators/internal/metrics"
	"creators/internal/pipeline"
)

var _ api.Service = (*pipeline.Runner)(nil)

// lockName is the instance lock inside the data directory. It is distinct
// from the update lock so CLI updates can run beside a stopped scheduler.
const lockName = "creators.daemon.lock"

// Deps carries the collaborators a Daemon serves.
type Deps struct {
	Runner   *pipeline.Runner
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	// LogFile is the active log file name inside the log directory; it is
	// never pruned.
	LogFile string
}

// Daemon coordinates the API server and scheduled updates and enforces
// single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	runner  *pipeline.Runner
	server  *apiServer
	logFile string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	now     func() time.Time
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Address      string
	LockFilePath string
	Pipeline     pipeline.Status
}

// New constructs a daemon.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || deps.Runner == nil {
		return nil, errors.New("daemon requires config and pipeline runner")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.DataDir, lockName)
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		runner:   deps.Runner,
		logFile:  deps.LogFile,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		now:      time.Now,
	}
	handler := api.New(deps.Runner, logger, deps.Metrics, api.WithToken(cfg.API.Token))
	d.server = newAPIServer(cfg.API.Bind, handler, deps.Registry, logger)
	return d, nil
}

// Start acquires the instance lock, opens the listener and starts the
// update loop when one is configured.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another creators service holds %s", d.lockPath)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.server.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel

	d.pruneLogs()
	if interval := d.cfg.UpdateInterval(); interval > 0 {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.schedule(runCtx, interval)
		}()
	}

	d.running.Store(true)
	d.logger.Info("creators service started",
		logging.String("address", d.server.addr()),
		logging.String("lock", d.lockPath),
		logging.Duration("update_interval", d.cfg.UpdateInterval()),
	)
	return nil
}

// Stop shuts down the listener and update loop and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.String("lock", d.lockPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "next start may report the service as running"),
		)
	}
	d.running.Store(false)
	d.logger.Info("creators service stopped")
}

// Run starts the daemon, blocks until ctx is done, then stops it.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.Stop()
	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (d *Daemon) Addr() string {
	return d.server.addr()
}

// Status reports daemon and pipeline state.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	st := Status{
		Running:      d.running.Load(),
		Address:      d.server.addr(),
		LockFilePath: d.lockPath,
	}
	ps, err := d.runner.Status(ctx)
	if err != nil {
		return st, err
	}
	st.Pipeline = ps
	return st, nil
}

func (d *Daemon) pruneLogs() {
	removed := logging.PruneLogs(d.logger, d.cfg.Paths.LogDir, "creators-*.log", d.logFile,
		d.cfg.Logging.RetentionDays, d.now())
	if len(removed) > 0 {
		d.logger.Info("pruned old logs", logging.Int("count", len(removed)))
	}
}
