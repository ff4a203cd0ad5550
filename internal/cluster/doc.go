// Package cluster groups observations into person clusters.
//
// A Session owns all state for one run. Run seeds clusters inside each
// package (stage A), merges by name within every scope (stage B, passes 1
// and 2), then merges across scopes when names agree and some evidence
// corroborates the match (stage C, passes 3 and 4). Every pass repeats
// until a full scan merges nothing. The algorithm is greedy and its result
// depends on traversal order, so buckets are visited by ascending
// casefolded surname and clusters inside a bucket in insertion order.
//
// Two clusters that both carry identifiers with no identifier in common are
// never merged.
package cluster
