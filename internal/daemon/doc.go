// Package daemon runs the long-lived creators service.
//
// It owns the HTTP listener (creators routes plus /metrics), the optional
// scheduled update loop, and log retention, with a flock-based instance
// lock so two services never share a data directory. Ingestion and
// clustering stay in the pipeline package; the daemon only handles startup,
// shutdown, and scheduling.
package daemon
