package daemon

import (
	"context"
	"errors"
	"time"

	"creators/internal/logging"
	"creators/internal/services"
)

// schedule runs an update every interval until ctx is done. A tick that
// finds another run in progress is skipped.
func (d *Daemon) schedule(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.scheduledUpdate(ctx)
		}
	}
}

func (d *Daemon) scheduledUpdate(ctx context.Context) {
	start := d.now()
	table, err := d.runner.Update(ctx)
	switch {
	case err == nil:
		d.logger.Info("scheduled update complete",
			logging.Int("names", table.Len()),
			logging.Duration("duration", time.Since(start)),
		)
	case errors.Is(err, services.ErrBusy):
		d.logger.Info("scheduled update skipped; another run is active")
	case errors.Is(err, context.Canceled):
	default:
		logging.ErrorWithContext(d.logger, "scheduled update failed", "scheduled_update_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check repository reachability and reference data files"),
		)
	}
	d.pruneLogs()
}
