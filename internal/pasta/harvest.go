package pasta

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"creators/internal/logging"
	"creators/internal/observation"
	"creators/internal/services"
)

// Scopes lists every scope in the repository that is not skipped.
func (c *Client) Scopes(ctx context.Context) ([]string, error) {
	body, err := c.getWithRetry(ctx, c.baseURL+"/package/eml/")
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "pasta", "scopes", "list scopes", err)
	}
	var scopes []string
	for _, s := range strings.Fields(string(body)) {
		if !c.Skipped(s) {
			scopes = append(scopes, s)
		}
	}
	return scopes, nil
}

// Identifiers lists the package identifiers of a scope.
func (c *Client) Identifiers(ctx context.Context, scope string) ([]int, error) {
	body, err := c.getWithRetry(ctx, c.baseURL+"/package/eml/"+url.PathEscape(scope)+"/")
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "pasta", "identifiers", scope, err)
	}
	return parseInts(body)
}

// NewestRevision returns the highest revision of scope.identifier.
func (c *Client) NewestRevision(ctx context.Context, scope string, identifier int) (int, error) {
	target := fmt.Sprintf("%s/package/eml/%s/%d/", c.baseURL, url.PathEscape(scope), identifier)
	body, err := c.getWithRetry(ctx, target)
	if err != nil {
		return 0, services.Wrap(services.ErrExternal, "pasta", "revisions", fmt.Sprintf("%s.%d", scope, identifier), err)
	}
	revisions, err := parseInts(body)
	if err != nil {
		return 0, err
	}
	if len(revisions) == 0 {
		return 0, services.Wrap(services.ErrNotFound, "pasta", "revisions", fmt.Sprintf("%s.%d has no revisions", scope, identifier), nil)
	}
	return slices.Max(revisions), nil
}

// Harvest lists the newest revision of every package in every scope that
// is not skipped. Packages whose revisions cannot be listed are logged and
// left out; only a failure to list scopes is returned.
func (c *Client) Harvest(ctx context.Context) ([]observation.PackageID, error) {
	scopes, err := c.Scopes(ctx)
	if err != nil {
		return nil, err
	}
	var (
		mu   sync.Mutex
		pids []observation.PackageID
	)
	for _, scope := range scopes {
		identifiers, err := c.Identifiers(ctx, scope)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logging.WarnWithContext(c.logger, "listing scope failed", "harvest_scope_failed",
				logging.String(logging.FieldScope, scope),
				logging.Error(err),
				logging.String(logging.FieldImpact, "scope left out of harvest"),
			)
			continue
		}
		c.logger.Info("harvesting scope", logging.String(logging.FieldScope, scope), logging.Int("packages", len(identifiers)))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.burstSize)
		for _, id := range identifiers {
			g.Go(func() error {
				rev, err := c.NewestRevision(gctx, scope, id)
				if err != nil {
					c.logger.Debug("skipping package", logging.String(logging.FieldScope, scope), logging.Int("identifier", id), logging.Error(err))
					return nil
				}
				mu.Lock()
				pids = append(pids, observation.PackageID{Scope: scope, Identifier: id, Revision: rev})
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	slices.SortFunc(pids, observation.PackageID.Compare)
	return pids, nil
}

func parseInts(body []byte) ([]int, error) {
	fields := strings.Fields(string(body))
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, services.Wrap(services.ErrExternal, "pasta", "listing", fmt.Sprintf("unexpected entry %q", f), nil)
		}
		out = append(out, n)
	}
	return out, nil
}
