package probe

import (
	"errors"
	"fmt"
	"time"
)

// Operation names a per-host operation.
type Operation string

const (
	OperationAccess Operation = "access"
	OperationFacts  Operation = "facts"
)

// Outcome is the result class of one per-host operation.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeFailed
	OutcomeSkipped
	OutcomeUnreachable
)

var outcomeNames = map[Outcome]string{
	OutcomeSucceeded:   "succeeded",
	OutcomeFailed:      "failed",
	OutcomeSkipped:     "skipped",
	OutcomeUnreachable: "unreachable",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// MarshalText renders the outcome name.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// ErrSkipped is returned by an operation that chose not to run for a host.
var ErrSkipped = errors.New("skipped")

// ErrPanicked marks an operation that panicked instead of returning.
var ErrPanicked = errors.New("operation panicked")

// Skip returns an error that classifies as OutcomeSkipped.
func Skip(reason string) error {
	return fmt.Errorf("%w: %s", ErrSkipped, reason)
}

// Counts are cumulative outcome counters.
type Counts struct {
	Succeeded   int `json:"succeeded"`
	Failed      int `json:"failed"`
	Skipped     int `json:"skipped"`
	Unreachable int `json:"unreachable"`
}

// Done returns the number of completed hosts.
func (c Counts) Done() int { return c.Succeeded + c.Failed + c.Skipped + c.Unreachable }

func (c *Counts) add(o Outcome) {
	switch o {
	case OutcomeSucceeded:
		c.Succeeded++
	case OutcomeFailed:
		c.Failed++
	case OutcomeSkipped:
		c.Skipped++
	case OutcomeUnreachable:
		c.Unreachable++
	}
}

// Progress is delivered once per completed host.
type Progress struct {
	Operation Operation
	Host      string
	Outcome   Outcome
	Err       error
	Counts    Counts
	Total     int
}

// Observer receives progress updates. Calls are serialized.
type Observer interface {
	Observe(Progress)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Progress)

// Observe calls f.
func (f ObserverFunc) Observe(p Progress) { f(p) }

// Result is the final state of one host.
type Result struct {
	Host     string        `json:"host"`
	Outcome  Outcome       `json:"outcome"`
	Err      error         `json:"-"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
}

// Summary is the outcome of one orchestrated run.
type Summary struct {
	Operation Operation
	Results   []Result
	Counts    Counts
}

// Result returns the result for host.
func (s Summary) Result(host string) (Result, bool) {
	for _, r := range s.Results {
		if r.Host == host {
			return r, true
		}
	}
	return Result{}, false
}

// Succeeded returns the hosts whose operation succeeded, in input order.
func (s Summary) Succeeded() []string {
	var out []string
	for _, r := range s.Results {
		if r.Outcome == OutcomeSucceeded {
			out = append(out, r.Host)
		}
	}
	return out
}
