// Package health provides liveness, readiness and version endpoints.
//
// Readiness runs every registered check concurrently with a per-check
// timeout. The exporter registers a check for the history store and one
// for each directory it writes to.
package health
