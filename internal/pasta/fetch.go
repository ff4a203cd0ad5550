package pasta

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"creators/internal/logging"
	"creators/internal/observation"
)

// Document is the outcome of fetching one package's metadata. Err is set
// when every attempt failed; Body is nil in that case.
type Document struct {
	ID   observation.PackageID
	Body []byte
	Err  error
}

// Fetch retrieves metadata for pids in bursts of burstSize concurrent
// requests. Results keep the order of pids. Per-package failures are
// reported in Document.Err; the returned error is only set when ctx ends.
func (c *Client) Fetch(ctx context.Context, pids []observation.PackageID) ([]Document, error) {
	docs := make([]Document, len(pids))
	for start := 0; start < len(pids); start += c.burstSize {
		end := min(start+c.burstSize, len(pids))
		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			pid := pids[i]
			g.Go(func() error {
				docs[i] = c.fetchOne(gctx, pid)
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return docs[:end], err
		}
	}
	return docs, nil
}

func (c *Client) fetchOne(ctx context.Context, pid observation.PackageID) Document {
	start := time.Now()
	body, err := c.getWithRetry(ctx, c.MetadataURL(pid))
	outcome := "ok"
	if err != nil {
		outcome = "failed"
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "metadata fetch failed", "fetch_failed",
			logging.String(logging.FieldPackageID, pid.String()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "package left out of this update"),
			logging.String(logging.FieldErrorHint, "the package is picked up again by a harvest"),
		)
	}
	c.metrics.ObserveFetch(outcome, time.Since(start))
	return Document{ID: pid, Body: body, Err: err}
}
