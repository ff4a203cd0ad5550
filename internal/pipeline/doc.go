// Package pipeline runs updates and recomputes and answers queries against
// the canonical name table.
//
// Runner owns the run lock. Update, Harvest, Recompute and FlushOrphans are
// exclusive: inside the process through a mutex and across processes
// through a file lock, so the CLI and the daemon never write at the same
// time. A second caller gets services.ErrBusy instead of waiting.
//
// A recompute loads the reference data first and fails before any write
// when it is missing or malformed. It then rebuilds the working set,
// clusters it, writes propagated identifiers and swaps in the new
// canonical table. Readers keep seeing the previous table until the swap.
package pipeline
