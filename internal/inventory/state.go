package inventory

import "fmt"

// StateKind is the coarse readiness of a host.
type StateKind int

const (
	StateUnknown StateKind = iota
	StateOK
	StateNotOK
)

// State is the readiness summary derived from a rule verdict.
type State struct {
	Kind     StateKind
	Errors   int
	Warnings int
}

// StateFromCounts returns OK when both counts are zero, NotOK otherwise.
func StateFromCounts(errors, warnings int) State {
	if errors+warnings == 0 {
		return State{Kind: StateOK}
	}
	return State{Kind: StateNotOK, Errors: errors, Warnings: warnings}
}

// String renders "Unknown", "OK", "NOTOK(2Err)" or "NOTOK(1Wrn)". Errors
// take precedence over warnings in the tag.
func (s State) String() string {
	switch s.Kind {
	case StateOK:
		return "OK"
	case StateNotOK:
		if s.Errors > 0 {
			return fmt.Sprintf("NOTOK(%dErr)", s.Errors)
		}
		return fmt.Sprintf("NOTOK(%dWrn)", s.Warnings)
	}
	return "Unknown"
}

// OK reports whether the host passed every rule.
func (s State) OK() bool { return s.Kind == StateOK }

// MarshalText lets reports carry the rendered state.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
