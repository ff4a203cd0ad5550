package canonical

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"creators/internal/fileutil"
)

const (
	snapshotPrefix = "possible_dups_"
	snapshotSuffix = ".yaml"
	snapshotLayout = "2006_01_02__15_04_05.000000000"
)

// Snapshot is one saved possible-duplicates report.
type Snapshot struct {
	Taken time.Time `yaml:"taken"`
	Lines []string  `yaml:"lines"`
}

// Snapshots stores possible-duplicates reports as YAML files in one
// directory. File names sort chronologically.
type Snapshots struct {
	dir string
	now func() time.Time
}

// NewSnapshots returns a store rooted at dir.
func NewSnapshots(dir string) *Snapshots {
	return &Snapshots{dir: dir, now: time.Now}
}

// Save writes a new snapshot and returns its path.
func (s *Snapshots) Save(lines []string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	taken := s.now().UTC()
	snap := Snapshot{Taken: taken, Lines: lines}
	if snap.Lines == nil {
		snap.Lines = []string{}
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	path := filepath.Join(s.dir, snapshotPrefix+taken.Format(snapshotLayout)+snapshotSuffix)
	if err := fileutil.WriteAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// List returns snapshot paths, oldest first.
func (s *Snapshots) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, name))
	}
	slices.Sort(paths)
	return paths, nil
}

// Oldest loads the oldest snapshot. It returns nil when none exist.
func (s *Snapshots) Oldest() (*Snapshot, error) {
	paths, err := s.List()
	if err != nil || len(paths) == 0 {
		return nil, err
	}
	data, err := os.ReadFile(paths[0])
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", filepath.Base(paths[0]), err)
	}
	return &snap, nil
}

// Flush deletes every snapshot but the newest and returns how many were
// removed.
func (s *Snapshots) Flush() (int, error) {
	paths, err := s.List()
	if err != nil || len(paths) < 2 {
		return 0, err
	}
	removed := 0
	for _, p := range paths[:len(paths)-1] {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("remove snapshot: %w", err)
		}
		removed++
	}
	return removed, nil
}
