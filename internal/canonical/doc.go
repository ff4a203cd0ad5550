// Package canonical holds the canonical-name table and the read operations
// served from it: the sorted name list, variants of one name, the names
// credited in a scope and the possible-duplicates report with its
// snapshots.
package canonical
