package rules

import (
	"fmt"
	"strings"

	"github.com/imamik/cephprobe/internal/inventory"
)

// Severity classifies a problem.
type Severity int

const (
	// SeverityError blocks deployment.
	SeverityError Severity = iota
	// SeverityWarning is informational.
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// MarshalText renders the severity name.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Problem is one rule violation.
type Problem struct {
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
}

// Verdict is the accumulated result of one evaluation.
type Verdict struct {
	Problems []Problem `json:"problems"`
}

// Errorf records an error.
func (v *Verdict) Errorf(rule, format string, args ...any) {
	v.Problems = append(v.Problems, Problem{Severity: SeverityError, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

// Warnf records a warning.
func (v *Verdict) Warnf(rule, format string, args ...any) {
	v.Problems = append(v.Problems, Problem{Severity: SeverityWarning, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

// Errors returns the error messages in rule order.
func (v Verdict) Errors() []string { return v.messages(SeverityError) }

// Warnings returns the warning messages in rule order.
func (v Verdict) Warnings() []string { return v.messages(SeverityWarning) }

func (v Verdict) messages(sev Severity) []string {
	var out []string
	for _, p := range v.Problems {
		if p.Severity == sev {
			out = append(out, p.Message)
		}
	}
	return out
}

// HasErrors reports whether any error was recorded.
func (v Verdict) HasErrors() bool { return len(v.Errors()) > 0 }

// State summarizes the verdict.
func (v Verdict) State() inventory.State {
	return inventory.StateFromCounts(len(v.Errors()), len(v.Warnings()))
}

// Message renders "Error:a, b / Warning:c", empty when the verdict is clean.
func (v Verdict) Message() string {
	var parts []string
	if errs := v.Errors(); len(errs) > 0 {
		parts = append(parts, ErrorPrefix+strings.Join(errs, ", "))
	}
	if warns := v.Warnings(); len(warns) > 0 {
		parts = append(parts, "Warning:"+strings.Join(warns, ", "))
	}
	return strings.Join(parts, " / ")
}

// ErrorPrefix starts every diagnostic message that carries an error.
const ErrorPrefix = "Error:"
