// Package readiness runs the installation-readiness pipeline over an
// inventory: access bootstrap for every host, fact gathering for the hosts
// that are reachable, then host and cluster rule evaluation.
//
// Phases run strictly in that order. Within a phase every host runs
// concurrently; the next phase starts only after all hosts finished.
package readiness
