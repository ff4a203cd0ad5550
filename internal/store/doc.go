// Package store persists observations and the canonical name table in
// SQLite.
//
// Raw observations are kept per package revision exactly as parsed from
// EML. The working set is rebuilt from them on every recompute, then
// receives propagated identifiers. The canonical table is replaced as a
// whole once a recompute finishes, so readers never see a partial table.
//
// Schema changes bump schemaVersion in schema.go; an existing database
// with another version is rejected and has to be rebuilt with a harvest.
package store
