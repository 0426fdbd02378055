// Package probe fans per-host operations out across all hosts at once.
//
// An [Orchestrator] runs one goroutine per host, blocks until every host has
// finished and reports each completion to an [Observer]. Workers never touch
// shared state directly; the observer is invoked under a single lock, so it
// sees one update at a time with cumulative counters, in completion order.
package probe
