// Package observation models the responsible-party entries extracted from
// EML documents and prepares them for clustering.
//
// Prepare runs the fixed preprocessing sequence: duplicate removal, the skip
// filter for institutional pseudo-names, misplaced middle initial repair,
// text cleaning, identifier trimming, identifier corrections, name overrides
// and organization keywords. Every step is deterministic and order
// preserving so a rerun over the same raw rows yields the same working set.
package observation
