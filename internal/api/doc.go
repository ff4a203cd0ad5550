// Package api serves the creators HTTP surface and defines its wire types.
//
// Routes mirror the long-standing /creators endpoints: GET reads from the
// current canonical table, POST triggers the matching write (an update for
// /names, a snapshot flush for /possible_dups, an orphan flush for
// /orphans). /api/status reports run state.
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// Errors are returned as {"error": "..."} with the status code derived
// from the error marker by services.HTTPStatus.
package api
