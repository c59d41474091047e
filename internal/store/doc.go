// Package store persists tick snapshots to SQLite.
//
// The store is the history-store collaborator of the simulation core: the
// driving loop publishes one snapshot per successful tick, presentation
// reads a recent window back for trend display, and Prune keeps each run
// at its rolling window size. The core pipeline never imports this
// package.
//
// Runs are keyed by time-sortable UUIDv7 tokens; snapshots within a run
// are ordered by logical tick seq, never by wall-clock timestamps.
package store
