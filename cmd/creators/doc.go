// Command creators maintains the canonical table of data package creator
// names and serves it over HTTP.
//
// `creators serve` runs the HTTP service. The remaining commands operate on
// the same database directly: update and harvest pull metadata from the
// repository, recompute rebuilds from what is stored, and names, variants,
// scope, dups, orphans and status read the results.
package main
