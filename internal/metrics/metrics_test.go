package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRun("update", time.Now(), nil)
	m.ObserveRun("update", time.Now(), errors.New("boom"))
	m.AddMerges("same_name_in_scope", 3)
	m.AddMerges("same_name_in_scope", 0)
	m.SetClusterState(10, 1, 8)
	m.ObserveFetch("ok", 20*time.Millisecond)
	m.ObserveHTTP("/creators/names", "GET", 200)

	if got := testutil.ToFloat64(m.Runs.WithLabelValues("update", "success")); got != 1 {
		t.Fatalf("success runs = %v", got)
	}
	if got := testutil.ToFloat64(m.Runs.WithLabelValues("update", "failure")); got != 1 {
		t.Fatalf("failed runs = %v", got)
	}
	if got := testutil.ToFloat64(m.Merges.WithLabelValues("same_name_in_scope")); got != 3 {
		t.Fatalf("merges = %v", got)
	}
	if got := testutil.ToFloat64(m.CanonicalNames); got != 8 {
		t.Fatalf("canonical names = %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/creators/names", "GET", "200")); got != 1 {
		t.Fatalf("http requests = %v", got)
	}
	if n := testutil.CollectAndCount(m.FetchDuration); n != 1 {
		t.Fatalf("fetch histogram series = %d", n)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRun("recompute", time.Now(), nil)
	m.AddMerges("x", 1)
	m.SetClusterState(1, 1, 1)
	m.ObserveFetch("ok", time.Second)
	m.ObserveHTTP("/", "GET", 200)
}
