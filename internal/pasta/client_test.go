package pasta_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creators/internal/observation"
	"creators/internal/pasta"
)

const changeFeed = `<?xml version="1.0" encoding="UTF-8"?>
<dataPackageChanges>
  <dataPackage>
    <packageId>knb-lter-ntl.1.57</packageId>
    <scope>knb-lter-ntl</scope><identifier>1</identifier><revision>57</revision>
    <serviceMethod>createDataPackage</serviceMethod>
    <date>2021-10-02T10:00:00.000</date>
  </dataPackage>
  <dataPackage>
    <packageId>ecotrends.5.1</packageId>
    <serviceMethod>createDataPackage</serviceMethod>
  </dataPackage>
  <dataPackage>
    <packageId>edi.2.3</packageId>
    <serviceMethod>deleteDataPackage</serviceMethod>
  </dataPackage>
  <dataPackage>
    <packageId>not-a-package-id</packageId>
  </dataPackage>
</dataPackageChanges>`

type fakePASTA struct {
	flaky    atomic.Int32
	notFound atomic.Int32
}

func (f *fakePASTA) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/package/changes/eml":
		if r.URL.Query().Get("fromDate") != "2021-10-01" {
			http.Error(w, "bad fromDate", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(changeFeed))
	case "/package/metadata/eml/knb-lter-ntl/1/57":
		_, _ = w.Write([]byte("<eml/>"))
	case "/package/metadata/eml/edi/1/3":
		if f.flaky.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("<eml>edi</eml>"))
	case "/package/metadata/eml/edi/9/1":
		f.notFound.Add(1)
		http.NotFound(w, r)
	case "/package/eml/":
		_, _ = w.Write([]byte("edi\necotrends\nknb-lter-ntl\n"))
	case "/package/eml/edi/":
		_, _ = w.Write([]byte("1\n2\n"))
	case "/package/eml/edi/1/":
		_, _ = w.Write([]byte("1\n2\n3\n"))
	case "/package/eml/edi/2/":
		_, _ = w.Write([]byte("1\n"))
	case "/package/eml/knb-lter-ntl/":
		_, _ = w.Write([]byte("5\n"))
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func newClient(t *testing.T, fake *fakePASTA) *pasta.Client {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	client, err := pasta.New(server.URL+"/",
		pasta.WithBurstSize(2),
		pasta.WithRetries(3, 0),
		pasta.WithSkipScopes([]string{" EcoTrends "}),
	)
	require.NoError(t, err)
	return client
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := pasta.New("  ")
	require.Error(t, err)
}

func TestChangesSkipsScopesAndBadIDs(t *testing.T) {
	client := newClient(t, &fakePASTA{})
	from := time.Date(2021, 10, 1, 15, 0, 0, 0, time.UTC)

	changes, err := client.Changes(context.Background(), from)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, "knb-lter-ntl.1.57", changes[0].ID.String())
	assert.False(t, changes[0].Deleted())
	assert.Equal(t, "2021-10-02T10:00:00.000", changes[0].Date)
	assert.Equal(t, "edi.2.3", changes[1].ID.String())
	assert.True(t, changes[1].Deleted())
}

func TestFetchRetriesAndReportsPerPackage(t *testing.T) {
	fake := &fakePASTA{}
	client := newClient(t, fake)
	pids := []observation.PackageID{
		{Scope: "knb-lter-ntl", Identifier: 1, Revision: 57},
		{Scope: "edi", Identifier: 1, Revision: 3},
		{Scope: "edi", Identifier: 9, Revision: 1},
	}

	docs, err := client.Fetch(context.Background(), pids)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, pids[0], docs[0].ID)
	assert.Equal(t, "<eml/>", string(docs[0].Body))
	assert.NoError(t, docs[1].Err)
	assert.Equal(t, "<eml>edi</eml>", string(docs[1].Body))
	assert.Equal(t, int32(3), fake.flaky.Load())
	assert.Error(t, docs[2].Err)
	assert.Nil(t, docs[2].Body)
	assert.Equal(t, int32(1), fake.notFound.Load(), "404 must not be retried")
}

func TestFetchStopsOnCancel(t *testing.T) {
	client := newClient(t, &fakePASTA{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Fetch(ctx, []observation.PackageID{{Scope: "edi", Identifier: 1, Revision: 3}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestHarvestListsNewestRevisions(t *testing.T) {
	client := newClient(t, &fakePASTA{})

	pids, err := client.Harvest(context.Background())
	require.NoError(t, err)

	var got []string
	for _, pid := range pids {
		got = append(got, pid.String())
	}
	// knb-lter-ntl.5 cannot list revisions and is left out.
	assert.Equal(t, []string{"edi.1.3", "edi.2.1"}, got)
}
