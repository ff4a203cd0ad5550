package pasta

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"creators/internal/logging"
	"creators/internal/metrics"
	"creators/internal/observation"
	"creators/internal/services"
)

const (
	// DateLayout is the format of the change feed's fromDate parameter.
	DateLayout = "2006-01-02"

	actionDelete = "deleteDataPackage"
)

// Change is one entry of the change feed.
type Change struct {
	ID     observation.PackageID
	Action string
	Date   string
}

// Deleted reports whether the change removed the package from the repository.
func (c Change) Deleted() bool {
	return c.Action == actionDelete
}

// Client provides access to the PASTA package API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	burstSize  int
	maxRetries int
	retryDelay time.Duration
	skip       map[string]struct{}
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBurstSize sets how many metadata requests run concurrently.
func WithBurstSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.burstSize = n
		}
	}
}

// WithRetries sets the number of attempts per request and the pause between them.
func WithRetries(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxRetries = attempts
		}
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// WithSkipScopes excludes scopes from the change feed and harvests.
func WithSkipScopes(scopes []string) Option {
	return func(c *Client) {
		for _, s := range scopes {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				c.skip[s] = struct{}{}
			}
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a PASTA client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("pasta base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		burstSize:  10,
		maxRetries: 5,
		retryDelay: time.Second,
		skip:       make(map[string]struct{}),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "pasta")
	return client, nil
}

// Skipped reports whether scope is excluded by configuration.
func (c *Client) Skipped(scope string) bool {
	_, ok := c.skip[strings.ToLower(scope)]
	return ok
}

type changeFeed struct {
	Packages []struct {
		PackageID     string `xml:"packageId"`
		ServiceMethod string `xml:"serviceMethod"`
		Date          string `xml:"date"`
	} `xml:"dataPackage"`
}

// Changes returns the change feed entries recorded since from, in feed
// order. Entries in skipped scopes and unparseable ids are dropped.
func (c *Client) Changes(ctx context.Context, from time.Time) ([]Change, error) {
	endpoint, err := url.Parse(c.baseURL + "/package/changes/eml")
	if err != nil {
		return nil, fmt.Errorf("parse pasta url: %w", err)
	}
	params := url.Values{}
	params.Set("fromDate", from.Format(DateLayout))
	endpoint.RawQuery = params.Encode()

	body, err := c.getWithRetry(ctx, endpoint.String())
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "pasta", "changes", "read change feed", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	var feed changeFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, services.Wrap(services.ErrExternal, "pasta", "changes", "decode change feed", err)
	}
	changes := make([]Change, 0, len(feed.Packages))
	for _, p := range feed.Packages {
		pid, err := observation.ParsePackageID(p.PackageID)
		if err != nil {
			logging.WarnWithContext(c.logger, "skipping change feed entry", "bad_package_id",
				logging.String(logging.FieldPackageID, p.PackageID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "entry ignored"),
			)
			continue
		}
		if c.Skipped(pid.Scope) {
			continue
		}
		changes = append(changes, Change{
			ID:     pid,
			Action: strings.TrimSpace(p.ServiceMethod),
			Date:   strings.TrimSpace(p.Date),
		})
	}
	return changes, nil
}

// MetadataURL is the address of one package's EML document.
func (c *Client) MetadataURL(pid observation.PackageID) string {
	return fmt.Sprintf("%s/package/metadata/eml/%s/%d/%d", c.baseURL, url.PathEscape(pid.Scope), pid.Identifier, pid.Revision)
}

// statusError reports a non-200 response.
type statusError struct {
	url    string
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s returned %d", e.url, e.status)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.status == http.StatusTooManyRequests || se.status >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &statusError{url: target, status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// getWithRetry makes up to maxRetries attempts, pausing retryDelay between
// them. Client errors other than 429 are not retried.
func (c *Client) getWithRetry(ctx context.Context, target string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		body, err := c.get(ctx, target)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) || attempt == c.maxRetries {
			break
		}
		c.logger.Debug("retrying pasta request",
			logging.String("url", target),
			logging.Int("attempt", attempt),
			logging.Error(err),
		)
		timer := time.NewTimer(c.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}
