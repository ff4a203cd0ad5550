// Package pasta talks to the PASTA data repository and keeps the local
// archive of EML documents.
//
// Client reads the change feed, fetches metadata documents in bursts with
// retries, and lists the full repository for an initial harvest. Archive
// stores one file per package revision and prunes superseded revisions.
package pasta
