// Package services defines shared utilities consumed by the update pipeline,
// the HTTP API and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that let callers classify
//     failures (fatal reference data, missing names, busy runs) without
//     string matching.
//
// Use these helpers when wiring new pipeline steps so error handling and
// observability stay uniform.
package services
