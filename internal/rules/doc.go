// Package rules evaluates readiness rules for single hosts and for the
// cluster as a whole.
//
// Each engine holds an explicit, ordered list of rules. Every rule runs on
// every evaluation; problems accumulate into a [Verdict] and are never
// returned as errors.
package rules
