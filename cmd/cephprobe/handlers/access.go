package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/cephprobe/internal/platform/ssh"
	"github.com/imamik/cephprobe/internal/ui/report"
)

// AccessOptions are the access command inputs.
type AccessOptions struct {
	ConfigPath  string
	Verbosity   int
	AskPassword bool
}

// Access runs only the SSH access bootstrap and prints one status per host.
func Access(ctx context.Context, opts AccessOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	log := newLogger(opts.Verbosity)

	var password string
	if opts.AskPassword {
		if password, err = promptPassword(ctx, cfg.SSH.User); err != nil {
			return err
		}
	}

	setup := checkerSetup{cfg: cfg, log: log, password: password}
	if opts.Verbosity > 0 {
		setup.observer = progressPrinter(stderr)
	}
	checker, err := newChecker(ctx, setup)
	if err != nil {
		return err
	}

	summary, err := checker.Bootstrap(ctx)
	if err != nil {
		return err
	}

	results := make([]ssh.Result, 0, len(summary.Results))
	for _, r := range summary.Results {
		res, ok := checker.Access(r.Host)
		if !ok {
			res = ssh.Result{Host: r.Host}
		}
		results = append(results, res)
	}
	if err := report.WriteAccess(stdout, results, isTerminal(stdout)); err != nil {
		return err
	}

	if failed := len(results) - summary.Counts.Succeeded; failed > 0 {
		return fmt.Errorf("%w: %d host(s) without ssh access", ErrNotReady, failed)
	}
	return nil
}
