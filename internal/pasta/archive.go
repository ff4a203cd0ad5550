package pasta

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"creators/internal/fileutil"
	"creators/internal/observation"
)

const archiveExt = ".xml"

// Archive is a directory of EML documents named scope.identifier.revision.xml.
type Archive struct {
	dir string
}

func NewArchive(dir string) *Archive {
	return &Archive{dir: dir}
}

func (a *Archive) Dir() string { return a.dir }

// Path returns the file a package revision is stored in.
func (a *Archive) Path(pid observation.PackageID) string {
	return filepath.Join(a.dir, pid.String()+archiveExt)
}

// Has reports whether the revision is archived.
func (a *Archive) Has(pid observation.PackageID) bool {
	info, err := os.Stat(a.Path(pid))
	return err == nil && info.Mode().IsRegular()
}

// Save stores body for pid. It returns false without writing when the
// archived copy already holds the same bytes.
func (a *Archive) Save(pid observation.PackageID, body []byte) (bool, error) {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return false, fmt.Errorf("create archive dir: %w", err)
	}
	path := a.Path(pid)
	same, err := fileutil.SameContent(path, body)
	if err != nil {
		return false, fmt.Errorf("compare %s: %w", pid, err)
	}
	if same {
		return false, nil
	}
	if err := fileutil.WriteAtomic(path, body, 0o644); err != nil {
		return false, fmt.Errorf("archive %s: %w", pid, err)
	}
	return true, nil
}

// Remove deletes an archived revision. Removing a missing file is not an error.
func (a *Archive) Remove(pid observation.PackageID) error {
	if err := os.Remove(a.Path(pid)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", pid, err)
	}
	return nil
}

// List returns the archived package ids in scope, identifier, revision
// order. Files not named like a package id are ignored.
func (a *Archive) List() ([]observation.PackageID, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read archive dir: %w", err)
	}
	var pids []observation.PackageID
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !strings.HasSuffix(name, archiveExt) {
			continue
		}
		pid, err := observation.ParsePackageID(strings.TrimSuffix(name, archiveExt))
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	slices.SortFunc(pids, observation.PackageID.Compare)
	return pids, nil
}

// Prune removes every archived revision that has a newer revision of the
// same series in the archive, and returns the removed ids.
func (a *Archive) Prune() ([]observation.PackageID, error) {
	pids, err := a.List()
	if err != nil {
		return nil, err
	}
	var removed []observation.PackageID
	for i, pid := range pids {
		// List is sorted, so a newer revision of the series is the next entry.
		if i+1 < len(pids) && pids[i+1].Series() == pid.Series() {
			if err := a.Remove(pid); err != nil {
				return removed, err
			}
			removed = append(removed, pid)
		}
	}
	return removed, nil
}
