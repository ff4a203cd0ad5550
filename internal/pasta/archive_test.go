package pasta_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creators/internal/observation"
	"creators/internal/pasta"
)

func pid(t *testing.T, s string) observation.PackageID {
	t.Helper()
	p, err := observation.ParsePackageID(s)
	require.NoError(t, err)
	return p
}

func TestArchiveSaveListAndPrune(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "eml")
	archive := pasta.NewArchive(dir)

	for _, id := range []string{"edi.1.1", "edi.1.2", "edi.10.1", "knb-lter-ntl.1.57", "edi.1.3"} {
		written, err := archive.Save(pid(t, id), []byte("<eml>"+id+"</eml>"))
		require.NoError(t, err)
		assert.True(t, written)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0o644))

	written, err := archive.Save(pid(t, "edi.1.3"), []byte("<eml>edi.1.3</eml>"))
	require.NoError(t, err)
	assert.False(t, written, "identical content is not rewritten")

	assert.True(t, archive.Has(pid(t, "edi.1.2")))
	assert.Equal(t, filepath.Join(dir, "edi.1.2.xml"), archive.Path(pid(t, "edi.1.2")))

	list, err := archive.List()
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, "edi.1.1", list[0].String())
	assert.Equal(t, "edi.10.1", list[3].String())

	removed, err := archive.Prune()
	require.NoError(t, err)
	assert.Equal(t, []observation.PackageID{pid(t, "edi.1.1"), pid(t, "edi.1.2")}, removed)
	assert.False(t, archive.Has(pid(t, "edi.1.1")))
	assert.True(t, archive.Has(pid(t, "edi.1.3")))

	require.NoError(t, archive.Remove(pid(t, "edi.1.1")))
}

func TestArchiveListMissingDir(t *testing.T) {
	archive := pasta.NewArchive(filepath.Join(t.TempDir(), "missing"))
	list, err := archive.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}
