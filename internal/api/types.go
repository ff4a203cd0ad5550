package api

import (
	"time"

	"creators/internal/pipeline"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// RunSummary describes one finished run.
type RunSummary struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Started     string `json:"started"`
	Finished    string `json:"finished,omitempty"`
	Added       int    `json:"added"`
	Removed     int    `json:"removed"`
	FetchFailed int    `json:"fetchFailed"`
	Unparsable  int    `json:"unparsable"`
	Prepared    int    `json:"prepared"`
	Clusters    int    `json:"clusters"`
	Anomalies   int    `json:"anomalies"`
	Propagated  int64  `json:"propagated"`
	Names       int    `json:"names"`
	Error       string `json:"error,omitempty"`
}

// Counts mirrors the store table sizes.
type Counts struct {
	Packages        int `json:"packages"`
	RawObservations int `json:"rawObservations"`
	Observations    int `json:"observations"`
	CanonicalNames  int `json:"canonicalNames"`
}

// Status is the payload of GET /api/status.
type Status struct {
	Running    string      `json:"running,omitempty"`
	LastUpdate string      `json:"lastUpdate,omitempty"`
	LastRun    *RunSummary `json:"lastRun,omitempty"`
	Counts     Counts      `json:"counts"`
	Archived   int         `json:"archived"`
	Snapshots  int         `json:"snapshots"`
	Database   string      `json:"database"`
}

// Orphan is a stored creator left behind by a superseded revision.
type Orphan struct {
	SourceID  int64  `json:"sourceId"`
	Surname   string `json:"surname"`
	GivenName string `json:"givenName"`
	PackageID string `json:"packageId"`
}

// RecomputeRequest optionally names package revisions to ingest or drop.
type RecomputeRequest struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// RecomputeResponse reports the outcome of a recompute.
type RecomputeResponse struct {
	Names int `json:"names"`
}

// FlushResponse reports how many snapshots a flush deleted.
type FlushResponse struct {
	Message string `json:"message"`
	Removed int    `json:"removed"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// FromRunSummary converts a pipeline run summary.
func FromRunSummary(s *pipeline.RunSummary) *RunSummary {
	if s == nil {
		return nil
	}
	return &RunSummary{
		ID:          s.ID,
		Kind:        s.Kind,
		Started:     formatTime(s.Started),
		Finished:    formatTime(s.Finished),
		Added:       s.Added,
		Removed:     s.Removed,
		FetchFailed: s.FetchFailed,
		Unparsable:  s.Unparsable,
		Prepared:    s.Prepared.Output,
		Clusters:    s.Clusters,
		Anomalies:   s.Anomalies,
		Propagated:  s.Propagated,
		Names:       s.Names,
		Error:       s.Error,
	}
}

// FromStatus converts the pipeline status.
func FromStatus(s pipeline.Status) Status {
	out := Status{
		Running:  s.Running,
		LastRun:  FromRunSummary(s.LastRun),
		Archived: s.Archived,
		Counts: Counts{
			Packages:        s.Counts.Packages,
			RawObservations: s.Counts.RawObservations,
			Observations:    s.Counts.Observations,
			CanonicalNames:  s.Counts.CanonicalNames,
		},
		Snapshots: s.Snapshots,
		Database:  s.Database,
	}
	if s.LastUpdate != nil {
		out.LastUpdate = formatTime(*s.LastUpdate)
	}
	return out
}

// FromOrphans converts orphan records. The result is never nil so it
// encodes as an empty array.
func FromOrphans(orphans []pipeline.Orphan) []Orphan {
	out := make([]Orphan, 0, len(orphans))
	for _, o := range orphans {
		out = append(out, Orphan{
			SourceID:  o.SourceID,
			Surname:   o.Surname,
			GivenName: o.GivenName,
			PackageID: o.PackageID,
		})
	}
	return out
}
