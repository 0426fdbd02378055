package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/cephprobe/internal/facts"
	"github.com/imamik/cephprobe/internal/inventory"
	"github.com/imamik/cephprobe/internal/platform/ssh"
	"github.com/imamik/cephprobe/internal/util/async"
	"github.com/imamik/cephprobe/internal/util/retry"
)

// Func is the per-host operation.
type Func func(ctx context.Context, host string) error

// Classifier maps an operation error to an outcome.
type Classifier func(err error) Outcome

// Classify is the default classifier: connectivity failures are unreachable,
// ErrSkipped is skipped and anything else failed.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSucceeded
	case errors.Is(err, ErrSkipped):
		return OutcomeSkipped
	case ssh.IsConnectivity(err), errors.Is(err, facts.ErrHostUnreachable):
		return OutcomeUnreachable
	}
	return OutcomeFailed
}

// Retryable reports whether a retry could change the outcome. Credential
// problems, skips and malformed facts are permanent.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrSkipped),
		errors.Is(err, ErrPanicked),
		ssh.IsCredential(err),
		errors.Is(err, facts.ErrMalformed),
		errors.Is(err, inventory.ErrInvalidFacts),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

// Orchestrator runs per-host operations concurrently.
type Orchestrator struct {
	observer   Observer
	classify   Classifier
	retries    int
	retryDelay time.Duration
	metrics    *Metrics
	logger     logr.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(orc *Orchestrator) { orc.observer = o }
}

// WithClassifier replaces the default error classifier.
func WithClassifier(c Classifier) Option {
	return func(orc *Orchestrator) { orc.classify = c }
}

// WithRetries retries retryable failures n times per host, starting with
// delay between attempts. The default is no retries.
func WithRetries(n int, delay time.Duration) Option {
	return func(orc *Orchestrator) {
		orc.retries = n
		orc.retryDelay = delay
	}
}

// WithMetrics records outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(orc *Orchestrator) { orc.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(orc *Orchestrator) { orc.logger = l }
}

// New creates an Orchestrator.
func New(opts ...Option) *Orchestrator {
	orc := &Orchestrator{
		classify:   Classify,
		retryDelay: time.Second,
		logger:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(orc)
	}
	return orc
}

// Run executes fn for every host and returns when all have completed.
// Results are in the order of hosts regardless of completion order.
func (o *Orchestrator) Run(ctx context.Context, op Operation, hosts []string, fn Func) Summary {
	summary := Summary{Operation: op, Results: make([]Result, len(hosts))}

	var mu sync.Mutex
	report := func(i int, r Result) {
		mu.Lock()
		defer mu.Unlock()
		summary.Results[i] = r
		summary.Counts.add(r.Outcome)
		o.metrics.record(op, r)
		if o.observer != nil {
			o.observer.Observe(Progress{
				Operation: op,
				Host:      r.Host,
				Outcome:   r.Outcome,
				Err:       r.Err,
				Counts:    summary.Counts,
				Total:     len(hosts),
			})
		}
	}

	tasks := make([]async.Task, len(hosts))
	for i, host := range hosts {
		tasks[i] = async.Task{Name: host, Func: func(ctx context.Context) error {
			r := o.runHost(ctx, op, host, fn)
			report(i, r)
			return r.Err
		}}
	}
	// Per-host errors are carried in the results.
	_ = async.RunAll(ctx, tasks)

	return summary
}

func (o *Orchestrator) runHost(ctx context.Context, op Operation, host string, fn Func) Result {
	log := o.logger.WithValues("host", host, "operation", op)
	start := time.Now()
	attempts := 0

	err := retry.Do(ctx, func(ctx context.Context) (err error) {
		attempts++
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("%w: %v", ErrPanicked, p)
			}
		}()
		return fn(ctx, host)
	},
		retry.WithMaxRetries(o.retries),
		retry.WithInitialDelay(o.retryDelay),
		retry.WithRetryable(Retryable),
		retry.WithOnRetry(func(attempt int, err error) {
			log.V(1).Info("retrying", "attempt", attempt, "error", err.Error())
		}),
	)

	r := Result{
		Host:     host,
		Outcome:  o.classify(err),
		Err:      err,
		Attempts: attempts,
		Duration: time.Since(start),
	}
	if err != nil {
		log.V(1).Info("host operation finished", "status", r.Outcome.String(), "error", err.Error())
	} else {
		log.V(1).Info("host operation finished", "status", r.Outcome.String())
	}
	return r
}
