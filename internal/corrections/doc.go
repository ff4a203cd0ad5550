// Package corrections loads the curated reference data that steers name
// resolution: nickname pairs, person variant groups, name overrides,
// identifier corrections and organization keywords.
//
// Every file is XML maintained by hand. A missing or malformed file is a
// configuration error; callers must not guess corrections, so the update run
// that needs them fails before anything is written.
package corrections
