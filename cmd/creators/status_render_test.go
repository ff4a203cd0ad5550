package main

import (
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"creators/internal/pipeline"
	"creators/internal/store"
)

func assertGolden(t *testing.T, name string, lines []string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(strings.Join(lines, "\n")+"\n"))
}

func TestRenderStatusIdle(t *testing.T) {
	last := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	view := statusView{
		Status: pipeline.Status{
			LastUpdate: &last,
			LastRun:    &pipeline.RunSummary{Kind: "update", Names: 1234},
			Counts:     store.Counts{Packages: 1234, RawObservations: 5678, Observations: 5600, CanonicalNames: 1234},
			Archived:   1234,
			Database:   "/var/lib/creators/creators.db",
		},
		DatabaseSize: 2_000_000,
		Now:          last.Add(72 * time.Hour),
	}
	assertGolden(t, "status_idle", renderStatus(view, false))
}

func TestRenderStatusFresh(t *testing.T) {
	view := statusView{
		Status: pipeline.Status{
			Running: "update",
			LastRun: &pipeline.RunSummary{
				Kind:  "recompute",
				Error: "configuration error: pipeline: update: no repository configured",
			},
			Snapshots: 2,
			Database:  "/tmp/creators.db",
		},
		Now: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	assertGolden(t, "status_fresh", renderStatus(view, false))
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Run", statusOK, "Idle", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(&strings.Builder{}) {
		t.Fatal("expected no color for non-file writer")
	}
}
