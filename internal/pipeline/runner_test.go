package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creators/internal/canonical"
	"creators/internal/config"
	"creators/internal/observation"
	"creators/internal/pasta"
	"creators/internal/pipeline"
	"creators/internal/services"
	"creators/internal/testsupport"
)

var (
	smiths    = observation.PackageID{Scope: "edi", Identifier: 1, Revision: 1}
	carpenter = observation.PackageID{Scope: "edi", Identifier: 2, Revision: 1}
	hanson    = observation.PackageID{Scope: "knb-lter-ntl", Identifier: 3, Revision: 1}
)

var documents = map[observation.PackageID]string{
	smiths: testsupport.EML(
		testsupport.Creator{Given: "Robert", Surname: "Smith"},
		testsupport.Creator{Given: "Bob", Surname: "Smith"},
	),
	carpenter: testsupport.EML(testsupport.Creator{Given: "Stephen", Surname: "Carpenter"}),
	hanson:    testsupport.EML(testsupport.Creator{Given: "Paul", Surname: "Hanson"}),
}

// fakePASTA serves a change feed, listings and metadata for docs.
func fakePASTA(t *testing.T, docs map[observation.PackageID]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case path == "/package/changes/eml":
			var b strings.Builder
			b.WriteString("<dataPackageChanges>")
			for pid := range docs {
				fmt.Fprintf(&b, "<dataPackage><packageId>%s</packageId><serviceMethod>createDataPackage</serviceMethod></dataPackage>", pid)
			}
			b.WriteString("</dataPackageChanges>")
			_, _ = w.Write([]byte(b.String()))
		case path == "/package/eml/":
			scopes := map[string]bool{}
			for pid := range docs {
				if !scopes[pid.Scope] {
					scopes[pid.Scope] = true
					fmt.Fprintln(w, pid.Scope)
				}
			}
		case strings.HasPrefix(path, "/package/metadata/eml/"):
			for pid, body := range docs {
				if path == fmt.Sprintf("/package/metadata/eml/%s/%d/%d", pid.Scope, pid.Identifier, pid.Revision) {
					_, _ = w.Write([]byte(body))
					return
				}
			}
			http.NotFound(w, r)
		case strings.HasPrefix(path, "/package/eml/"):
			parts := strings.Split(strings.Trim(strings.TrimPrefix(path, "/package/eml/"), "/"), "/")
			for pid := range docs {
				switch {
				case len(parts) == 1 && parts[0] == pid.Scope:
					fmt.Fprintln(w, pid.Identifier)
				case len(parts) == 2 && parts[0] == pid.Scope && parts[1] == fmt.Sprint(pid.Identifier):
					fmt.Fprintln(w, pid.Revision)
				}
			}
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newRunner(t *testing.T, cfg *config.Config, withClient bool) *pipeline.Runner {
	t.Helper()
	st := testsupport.MustOpenStore(t, cfg)
	var opts []pipeline.Option
	if withClient {
		client, err := pasta.New(cfg.PASTA.BaseURL, pasta.WithRetries(1, 0))
		require.NoError(t, err)
		opts = append(opts, pipeline.WithClient(client))
	}
	runner, err := pipeline.New(context.Background(), cfg, st, opts...)
	require.NoError(t, err)
	return runner
}

func archiveAll(t *testing.T, cfg *config.Config, docs map[observation.PackageID]string) []observation.PackageID {
	t.Helper()
	var pids []observation.PackageID
	for pid, body := range docs {
		testsupport.WriteEML(t, cfg, pid, body)
		pids = append(pids, pid)
	}
	return pids
}

func TestUpdateBuildsCanonicalTable(t *testing.T) {
	server := fakePASTA(t, documents)
	cfg := testsupport.NewConfig(t, testsupport.WithPASTA(server.URL), testsupport.WithCorrections(nil))
	runner := newRunner(t, cfg, true)
	ctx := context.Background()

	table, err := runner.Update(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Carpenter, Stephen", "Hanson, Paul", "Smith, Robert"}, table.Names())
	assert.Equal(t, table.Names(), runner.Names())

	variants, err := runner.Variants("Smith, Robert")
	require.NoError(t, err)
	assert.Equal(t, []string{"Smith, Bob", "Smith, Robert"}, variants)

	_, err = runner.Variants("Nobody, Here")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, services.HTTPStatus(err))

	names, err := runner.NamesForScope(ctx, "edi")
	require.NoError(t, err)
	assert.Equal(t, []string{"Carpenter, Stephen", "Smith, Robert"}, names)
	names, err = runner.NamesForScope(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, names)

	status, err := runner.Status(ctx)
	require.NoError(t, err)
	require.NotNil(t, status.LastUpdate)
	require.NotNil(t, status.LastRun)
	assert.Equal(t, "update", status.LastRun.Kind)
	assert.Equal(t, 3, status.LastRun.Added)
	assert.Equal(t, 3, status.Archived)
	assert.Equal(t, 3, status.Counts.Packages)
	assert.Equal(t, 3, status.Counts.CanonicalNames)

	// A second update finds everything archived and yields the same table.
	again, err := runner.Update(ctx)
	require.NoError(t, err)
	assert.Equal(t, table.Entries(), again.Entries())
}

func TestRunnerReloadsStoredTable(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCorrections(nil))
	runner := newRunner(t, cfg, false)
	_, err := runner.Recompute(context.Background(), pipeline.Changes{Added: archiveAll(t, cfg, documents)})
	require.NoError(t, err)

	reopened := newRunner(t, cfg, false)
	assert.Equal(t, runner.Names(), reopened.Names())
}

func TestUpdateWithoutClientFails(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCorrections(nil))
	runner := newRunner(t, cfg, false)
	_, err := runner.Update(context.Background())
	require.ErrorIs(t, err, services.ErrConfiguration)
}

func TestRecomputeIsBusyWhileLocked(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCorrections(nil))
	runner := newRunner(t, cfg, false)

	other := flock.New(cfg.Paths.LockPath)
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	_, err = runner.Recompute(context.Background(), pipeline.Changes{})
	require.ErrorIs(t, err, services.ErrBusy)
	assert.Equal(t, http.StatusConflict, services.HTTPStatus(err))

	require.NoError(t, other.Unlock())
	_, err = runner.Recompute(context.Background(), pipeline.Changes{})
	require.NoError(t, err)
}

func TestMissingReferenceFileAbortsBeforeWriting(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCorrections(map[string]string{
		config.Default().Corrections.Overrides: "-",
	}))
	runner := newRunner(t, cfg, false)
	ctx := context.Background()

	_, err := runner.Recompute(ctx, pipeline.Changes{Added: archiveAll(t, cfg, documents)})
	require.ErrorIs(t, err, services.ErrConfiguration)

	status, err := runner.Status(ctx)
	require.NoError(t, err)
	assert.Zero(t, status.Counts.RawObservations)
	assert.Empty(t, runner.Names())
	require.NotNil(t, status.LastRun)
	assert.NotEmpty(t, status.LastRun.Error)
}

func TestRecomputeSkipsMalformedDocuments(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCorrections(nil))
	runner := newRunner(t, cfg, false)
	broken := observation.PackageID{Scope: "edi", Identifier: 9, Revision: 1}
	testsupport.WriteEML(t, cfg, broken, "<eml><dataset><creator>")
	pids := append(archiveAll(t, cfg, documents), broken)

	table, err := runner.Recompute(context.Background(), pipeline.Changes{Added: pids})
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	status, err := runner.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, status.LastRun.Unparsable)
}

func TestPossibleDupsMarksAgainstOldestSnapshot(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCorrections(nil))
	runner := newRunner(t, cfg, false)
	ctx := context.Background()

	j := observation.PackageID{Scope: "edi", Identifier: 5, Revision: 1}
	john := observation.PackageID{Scope: "edi", Identifier: 6, Revision: 1}
	docs := map[observation.PackageID]string{
		j:    testsupport.EML(testsupport.Creator{Given: "J", Surname: "Smith", ORCID: "0000-0001-0000-0001"}),
		john: testsupport.EML(testsupport.Creator{Given: "John", Surname: "Smith", ORCID: "0000-0002-0000-0002"}),
	}
	_, err := runner.Recompute(ctx, pipeline.Changes{Added: archiveAll(t, cfg, docs)})
	require.NoError(t, err)

	first, err := runner.PossibleDups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{canonical.Separator, "Smith: J, John"}, first)

	// A new Smith shows up as a changed line.
	jane := observation.PackageID{Scope: "edi", Identifier: 7, Revision: 1}
	testsupport.WriteEML(t, cfg, jane, testsupport.EML(testsupport.Creator{Given: "Jane", Surname: "Smith", ORCID: "0000-0003-0000-0003"}))
	_, err = runner.Recompute(ctx, pipeline.Changes{Added: []observation.PackageID{jane}})
	require.NoError(t, err)

	second, err := runner.PossibleDups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Smith: J, Jane, John",
		canonical.Separator,
		canonical.ChangeMark + "Smith: J, Jane, John",
	}, second)

	removed, err := runner.FlushPossibleDups(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	third, err := runner.PossibleDups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{canonical.Separator, "Smith: J, Jane, John"}, third)
}

func TestOrphansAndFlush(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCorrections(nil))
	runner := newRunner(t, cfg, false)
	ctx := context.Background()

	_, err := runner.Recompute(ctx, pipeline.Changes{Added: archiveAll(t, cfg, documents)})
	require.NoError(t, err)

	// A newer revision lands in the archive without being ingested.
	newer := observation.PackageID{Scope: "edi", Identifier: 1, Revision: 2}
	testsupport.WriteEML(t, cfg, newer, documents[smiths])
	require.NoError(t, os.Remove(pasta.NewArchive(cfg.Paths.EMLDir).Path(smiths)))

	orphans, err := runner.Orphans(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 2)
	assert.Equal(t, "edi.1.1", orphans[0].PackageID)

	flushed, err := runner.FlushOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"edi.1.1"}, flushed)
	assert.Equal(t, []string{"Carpenter, Stephen", "Hanson, Paul"}, runner.Names())

	orphans, err = runner.Orphans(ctx)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestHarvestSyncsArchiveAndStore(t *testing.T) {
	server := fakePASTA(t, documents)
	cfg := testsupport.NewConfig(t,
		testsupport.WithPASTA(server.URL),
		testsupport.WithSkipScopes("knb-lter-ntl"),
		testsupport.WithCorrections(nil),
	)
	st := testsupport.MustOpenStore(t, cfg)
	client, err := pasta.New(cfg.PASTA.BaseURL, pasta.WithRetries(1, 0), pasta.WithSkipScopes(cfg.PASTA.SkipScopes))
	require.NoError(t, err)
	runner, err := pipeline.New(context.Background(), cfg, st, pipeline.WithClient(client))
	require.NoError(t, err)

	table, err := runner.Harvest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Carpenter, Stephen", "Smith, Robert"}, table.Names())

	pids, err := st.PackageRevisions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []observation.PackageID{smiths, carpenter}, pids)
}

func TestBusyErrorIsClassified(t *testing.T) {
	err := services.Wrap(services.ErrBusy, "pipeline", "update", "", nil)
	assert.True(t, errors.Is(err, services.ErrBusy))
}
