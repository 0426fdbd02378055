package readiness

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/cephprobe/internal/facts"
	"github.com/imamik/cephprobe/internal/inventory"
	"github.com/imamik/cephprobe/internal/platform/ssh"
	"github.com/imamik/cephprobe/internal/probe"
	"github.com/imamik/cephprobe/internal/rules"
)

// Options configures a Checker.
type Options struct {
	Mode   rules.Mode
	Source rules.InstallSource

	// SSH access settings shared by all hosts.
	User     string
	Password string
	Port     int
	Timeout  time.Duration

	Transport   ssh.Transport
	Credentials ssh.CredentialStore
	Facts       facts.Source

	// SkipAccess gathers facts without an access bootstrap, for fact
	// sources that do not need a live connection.
	SkipAccess bool

	Orchestrator *probe.Orchestrator
	HostRules    *rules.HostEngine
	ClusterRules *rules.ClusterEngine

	// OnAccessChange is called on every access state transition of any
	// host. Calls for different hosts may be concurrent.
	OnAccessChange func(host string, status ssh.Status)

	Logger logr.Logger
}

// Checker evaluates the readiness of one inventory.
type Checker struct {
	inv  *inventory.Inventory
	opts Options
	log  logr.Logger

	mu          sync.Mutex
	access      map[string]ssh.Result
	hostErrors  map[string][]rules.Problem
	accessCount probe.Counts
	factsCount  probe.Counts
}

// New validates opts and returns a Checker for inv.
func New(inv *inventory.Inventory, opts Options) (*Checker, error) {
	if inv == nil {
		return nil, fmt.Errorf("inventory cannot be nil")
	}
	if opts.Mode == "" {
		opts.Mode = rules.ModeDev
	}
	if opts.Source == "" {
		opts.Source = rules.SourceCommunity
	}
	if _, err := rules.ParseMode(string(opts.Mode)); err != nil {
		return nil, err
	}
	if _, err := rules.ParseInstallSource(string(opts.Source)); err != nil {
		return nil, err
	}
	if opts.Orchestrator == nil {
		opts.Orchestrator = probe.New(probe.WithLogger(opts.Logger))
	}
	if opts.HostRules == nil {
		opts.HostRules = rules.NewHostEngine()
	}
	if opts.ClusterRules == nil {
		opts.ClusterRules = rules.NewClusterEngine()
	}
	return &Checker{
		inv:        inv,
		opts:       opts,
		log:        opts.Logger,
		access:     map[string]ssh.Result{},
		hostErrors: map[string][]rules.Problem{},
	}, nil
}

// Bootstrap runs the access state machine for every host.
func (c *Checker) Bootstrap(ctx context.Context) (probe.Summary, error) {
	if c.opts.Transport == nil || c.opts.Credentials == nil {
		return probe.Summary{}, fmt.Errorf("access bootstrap requires a transport and a credential store")
	}

	summary := c.opts.Orchestrator.Run(ctx, probe.OperationAccess, c.inv.Names(), func(ctx context.Context, host string) error {
		session, err := ssh.NewSession(ssh.SessionConfig{
			Host:        host,
			Port:        c.opts.Port,
			User:        c.opts.User,
			Password:    c.opts.Password,
			Timeout:     c.opts.Timeout,
			Transport:   c.opts.Transport,
			Credentials: c.opts.Credentials,
			OnChange:    c.opts.OnAccessChange,
			Logger:      c.log,
		})
		if err != nil {
			return err
		}
		res := session.Attempt(ctx)

		c.mu.Lock()
		c.access[host] = res
		c.mu.Unlock()
		return res.Err
	})

	c.mu.Lock()
	c.accessCount = summary.Counts
	for _, r := range summary.Results {
		c.hostErrors[r.Host] = nil
		if r.Err != nil {
			c.hostErrors[r.Host] = append(c.hostErrors[r.Host], accessProblem(c.access[r.Host], r.Err))
		}
	}
	c.mu.Unlock()

	return summary, nil
}

func accessProblem(res ssh.Result, err error) rules.Problem {
	status := res.Status
	if status == ssh.StatusUnknown {
		return rules.Problem{Severity: rules.SeverityError, Rule: "access", Message: fmt.Sprintf("ssh access: %v", err)}
	}
	return rules.Problem{
		Severity: rules.SeverityError,
		Rule:     "access",
		Message:  fmt.Sprintf("ssh access %s (%s)", status, status.Description()),
	}
}

// Access returns the last access result for host.
func (c *Checker) Access(host string) (ssh.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.access[host]
	return r, ok
}

// Gather collects and ingests facts. Hosts without verified access are
// skipped unless SkipAccess is set; a host whose gathering or ingestion
// fails returns to the unprobed state.
func (c *Checker) Gather(ctx context.Context) (probe.Summary, error) {
	if c.opts.Facts == nil {
		return probe.Summary{}, fmt.Errorf("fact gathering requires a fact source")
	}

	c.mu.Lock()
	for host, problems := range c.hostErrors {
		c.hostErrors[host] = slices.DeleteFunc(problems, func(p rules.Problem) bool { return p.Rule == "facts" })
	}
	c.mu.Unlock()

	summary := c.opts.Orchestrator.Run(ctx, probe.OperationFacts, c.inv.Names(), func(ctx context.Context, name string) error {
		host, ok := c.inv.Get(name)
		if !ok {
			return probe.Skip("removed from inventory")
		}
		if !c.opts.SkipAccess {
			res, ok := c.Access(name)
			if !ok {
				host.Reset()
				return probe.Skip("access not verified")
			}
			if !res.Status.OK() {
				host.Reset()
				return probe.Skip(fmt.Sprintf("no ssh access (%s)", res.Status))
			}
		}

		f, err := c.opts.Facts.Gather(ctx, name)
		if err != nil {
			host.Reset()
			return err
		}
		return host.Ingest(f)
	})

	c.mu.Lock()
	c.factsCount = summary.Counts
	for _, r := range summary.Results {
		if r.Err == nil || r.Outcome == probe.OutcomeSkipped {
			continue
		}
		c.hostErrors[r.Host] = append(c.hostErrors[r.Host], rules.Problem{
			Severity: rules.SeverityError,
			Rule:     "facts",
			Message:  fmt.Sprintf("facts: %v", r.Err),
		})
	}
	c.mu.Unlock()

	return summary, nil
}

// Evaluate runs the host rules on every host, records each verdict on the
// host and then runs the cluster rules over the whole set.
func (c *Checker) Evaluate() *Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	hostVerdicts := map[string]rules.Verdict{}
	for _, h := range c.inv.Hosts() {
		v := rules.Verdict{Problems: append([]rules.Problem(nil), c.hostErrors[h.Name()]...)}
		v.Problems = append(v.Problems, c.opts.HostRules.Evaluate(h.Snapshot()).Problems...)
		h.SetState(v.State(), v.Message())
		hostVerdicts[h.Name()] = v
		c.log.V(1).Info("host evaluated", "host", h.Name(), "status", v.State().String())
	}

	profiles := c.inv.Profiles()
	cluster := c.opts.ClusterRules.Evaluate(profiles, c.opts.Mode, c.opts.Source)
	c.log.V(1).Info("cluster evaluated", "status", cluster.State().String(), "problems", len(cluster.Problems))

	return newReport(c, profiles, hostVerdicts, cluster)
}

// Run executes the access, facts and evaluate phases in order.
func (c *Checker) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	if !c.opts.SkipAccess {
		if _, err := c.Bootstrap(ctx); err != nil {
			return nil, fmt.Errorf("access phase failed: %w", err)
		}
	}
	if _, err := c.Gather(ctx); err != nil {
		return nil, fmt.Errorf("facts phase failed: %w", err)
	}
	report := c.Evaluate()
	c.log.V(1).Info("readiness check completed", "duration", time.Since(start).Round(time.Millisecond).String(),
		"ready", report.Ready())
	return report, nil
}
