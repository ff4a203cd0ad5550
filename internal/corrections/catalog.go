package corrections

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"creators/internal/logging"
	"creators/internal/services"
)

// Catalog caches the reference data and reloads it when any file changes on
// disk. A failed reload discards the previous snapshot.
type Catalog struct {
	files  Files
	logger *slog.Logger

	mu     sync.Mutex
	stamps map[string]time.Time
	set    *Set
}

// NewCatalog constructs a catalog over files.
func NewCatalog(files Files, logger *slog.Logger) *Catalog {
	return &Catalog{
		files:  files,
		logger: logging.NewComponentLogger(logger, "corrections"),
	}
}

// Current returns the reference data, reading the files again if any
// modification time differs from the last successful load.
func (c *Catalog) Current() (*Set, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stamps := make(map[string]time.Time, 5)
	for _, path := range c.files.paths() {
		info, err := os.Stat(path)
		if err != nil {
			c.set = nil
			return nil, services.Wrap(services.ErrConfiguration, "corrections", "stat", "missing "+path, err)
		}
		stamps[path] = info.ModTime()
	}
	if c.set != nil && sameStamps(c.stamps, stamps) {
		return c.set, nil
	}

	set, err := Load(c.files)
	if err != nil {
		c.set = nil
		return nil, err
	}
	c.set = set
	c.stamps = stamps
	c.logger.Info("loaded reference data",
		logging.Int("nicknames", set.Nicknames.Len()),
		logging.Int("person_groups", set.PersonVariants.Len()),
		logging.Int("overrides", len(set.Overrides)),
		logging.Int("identifier_corrections", len(set.Identifiers)),
		logging.Int("organizations", len(set.Organizations)),
	)
	return set, nil
}

// Overrides returns the current overrides, for read paths that only need
// aliases.
func (c *Catalog) Overrides() ([]Override, error) {
	set, err := c.Current()
	if err != nil {
		return nil, err
	}
	return set.Overrides, nil
}

func sameStamps(a, b map[string]time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if !b[k].Equal(v) {
			return false
		}
	}
	return true
}
