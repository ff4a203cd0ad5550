package canonical

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(time.Second)
		return now
	}
}

func TestSnapshotsLifecycle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "possible_dups")
	store := NewSnapshots(dir)
	store.now = fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	oldest, err := store.Oldest()
	require.NoError(t, err)
	assert.Nil(t, oldest, "no snapshots yet")

	for _, lines := range [][]string{{"Smith: J, John"}, {"Smith: J, John, Robert"}, nil} {
		_, err := store.Save(lines)
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	paths, err := store.List()
	require.NoError(t, err)
	require.Len(t, paths, 3)

	oldest, err = store.Oldest()
	require.NoError(t, err)
	require.NotNil(t, oldest)
	assert.Equal(t, []string{"Smith: J, John"}, oldest.Lines)
	assert.True(t, oldest.Taken.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))

	removed, err := store.Flush()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	paths, err = store.List()
	require.NoError(t, err)
	require.Len(t, paths, 1)

	oldest, err = store.Oldest()
	require.NoError(t, err)
	assert.Empty(t, oldest.Lines)
	assert.True(t, oldest.Taken.Equal(time.Date(2026, 3, 1, 12, 0, 2, 0, time.UTC)))

	removed, err = store.Flush()
	require.NoError(t, err)
	assert.Zero(t, removed)
}
