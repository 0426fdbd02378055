// Package inventory holds the candidate hosts of a storage cluster: the roles
// an operator assigned to each, the hardware facts gathered from it and the
// capacity numbers derived from those facts.
//
// A [Host] starts unprobed. [Host.Ingest] validates a [Facts] value and
// replaces every derived field in one step; nothing from an earlier probe
// survives a later one. Rule evaluation works on [Profile] snapshots so that
// concurrent evaluations never share mutable state.
package inventory
