package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/mattn/go-isatty"

	"github.com/imamik/cephprobe/internal/config"
	"github.com/imamik/cephprobe/internal/facts"
	"github.com/imamik/cephprobe/internal/platform/ssh"
	"github.com/imamik/cephprobe/internal/probe"
	"github.com/imamik/cephprobe/internal/readiness"
	"github.com/imamik/cephprobe/internal/rules"
	"github.com/imamik/cephprobe/internal/util/prerequisites"
)

// ErrNotReady is returned when the check completed but the cluster cannot
// be installed as configured.
var ErrNotReady = errors.New("cluster is not ready for installation")

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	stdin  *os.File  = os.Stdin
)

// newLogger returns a logger writing key/value lines to stderr.
func newLogger(verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(stderr, "%s %s: %s\n", time.Now().Format(time.TimeOnly), prefix, args)
			return
		}
		fmt.Fprintf(stderr, "%s %s\n", time.Now().Format(time.TimeOnly), args)
	}, funcr.Options{Verbosity: verbosity})
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.DefaultConfigFilename
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func keyComment() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "cephprobe"
	}
	return "cephprobe@" + host
}

// checkerSetup collects what a handler wires into a readiness.Checker.
type checkerSetup struct {
	cfg        *config.Config
	log        logr.Logger
	password   string
	skipAccess bool
	withFacts  bool
	observer   probe.Observer
	metrics    *probe.Metrics
}

func newChecker(ctx context.Context, s checkerSetup) (*readiness.Checker, error) {
	cfg := s.cfg
	inv, err := cfg.Inventory()
	if err != nil {
		return nil, err
	}
	mode, err := rules.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	source, err := rules.ParseInstallSource(cfg.InstallationSource)
	if err != nil {
		return nil, err
	}

	password := cfg.SSH.Password
	if s.password != "" {
		password = s.password
	}

	opts := readiness.Options{
		Mode:       mode,
		Source:     source,
		User:       cfg.SSH.User,
		Password:   password,
		Port:       cfg.SSH.Port,
		Timeout:    cfg.SSH.ConnectTimeout,
		SkipAccess: s.skipAccess,
		Logger:     s.log,
	}

	orchOpts := []probe.Option{
		probe.WithRetries(cfg.Probe.Retries, cfg.Probe.RetryDelay),
		probe.WithLogger(s.log),
	}
	if s.observer != nil {
		orchOpts = append(orchOpts, probe.WithObserver(s.observer))
	}
	if s.metrics != nil {
		orchOpts = append(orchOpts, probe.WithMetrics(s.metrics))
	}
	opts.Orchestrator = probe.New(orchOpts...)

	if !s.skipAccess {
		creds := ssh.NewFileCredentials(cfg.SSH.KeyDir, keyComment())
		if err := creds.Ensure(); err != nil {
			return nil, fmt.Errorf("failed to prepare ssh key: %w", err)
		}
		if creds.Generated() {
			s.log.Info("generated ssh key pair", "dir", creds.Dir())
		}
		opts.Transport = ssh.NewTransport()
		opts.Credentials = creds
	}

	if s.withFacts {
		src, err := factSource(ctx, cfg, s.log)
		if err != nil {
			return nil, err
		}
		opts.Facts = src
	}

	return readiness.New(inv, opts)
}

func factSource(ctx context.Context, cfg *config.Config, log logr.Logger) (facts.Source, error) {
	switch cfg.Facts.Source {
	case config.FactsSourceDirectory:
		return facts.DirSource{Dir: cfg.Facts.Directory}, nil
	default:
		results := prerequisites.Check(ctx, prerequisites.FactCommandTools(cfg.Facts.Command))
		if err := results.Error(); err != nil {
			return nil, err
		}
		for _, r := range results.Results {
			log.V(1).Info("found local tool", "tool", r.Tool.Name, "path", r.Path, "version", r.Version)
		}
		return facts.NewCommandSource(cfg.Facts.Command, cfg.Facts.Timeout), nil
	}
}
