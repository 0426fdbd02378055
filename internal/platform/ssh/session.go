package ssh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// keyInstallTimeoutFactor scales the connect timeout into the bound on the
// remote commands that install the key.
const keyInstallTimeoutFactor = 5

// SessionConfig holds the per-host settings of a bootstrap attempt.
type SessionConfig struct {
	Host     string
	Port     int
	User     string
	Password string

	// Timeout bounds each connection attempt.
	// If zero, DefaultConnectTimeout is used.
	Timeout time.Duration

	Transport   Transport
	Credentials CredentialStore

	// OnChange, if set, is called after every state transition.
	OnChange func(host string, status Status)

	Logger logr.Logger
}

// Result is the outcome of one Attempt.
type Result struct {
	Host   string
	Status Status
	// Err wraps one of the package sentinels unless Status is StatusConnected.
	Err error
	// KeyInstalled is set when this attempt wrote the local key into the
	// remote authorized_keys. The next attempt verifies it with the key.
	KeyInstalled bool
	Duration     time.Duration
}

// Session runs the access bootstrap for a single host. A Session is cheap
// and meant to be discarded once its Result has been recorded.
type Session struct {
	cfg SessionConfig
	log logr.Logger

	mu     sync.Mutex
	status Status
}

// NewSession validates cfg and returns a session in StatusUnknown.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("session host cannot be empty")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("session user cannot be empty")
	}
	if cfg.Transport == nil {
		return nil, fmt.Errorf("session transport cannot be nil")
	}
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("session credential store cannot be nil")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConnectTimeout
	}
	return &Session{cfg: cfg, log: cfg.Logger.WithValues("host", cfg.Host)}, nil
}

// Host returns the target hostname.
func (s *Session) Host() string { return s.cfg.Host }

// Status returns the current state. Safe for concurrent use.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) set(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	s.log.V(1).Info("ssh access state", "status", status.String())
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(s.cfg.Host, status)
	}
}

// Attempt runs the bootstrap state machine once:
//
//	Unknown -> Checking -> Connected | Timeout | Unreachable | NameNotResolved
//	Checking -> AuthFailed -> MissingPassword            (no password)
//	AuthFailed -> Provisioning -> Connected              (key installed)
//	Provisioning -> AuthFailed | KeyInstallFailed | connectivity status
func (s *Session) Attempt(ctx context.Context) Result {
	start := time.Now()
	res := s.attempt(ctx)
	res.Host = s.cfg.Host
	res.Duration = time.Since(start)
	return res
}

func (s *Session) attempt(ctx context.Context) Result {
	s.set(StatusChecking)

	signer, err := s.cfg.Credentials.Signer()
	if err != nil {
		return s.finish(StatusAuthFailed, fmt.Errorf("%w: local key unavailable: %v", ErrAuthFailed, err))
	}
	hostKeys, err := s.cfg.Credentials.HostKeyCallback()
	if err != nil {
		return s.finish(StatusAuthFailed, fmt.Errorf("%w: known_hosts unavailable: %v", ErrAuthFailed, err))
	}

	target := Target{
		Host:            s.cfg.Host,
		Port:            s.cfg.Port,
		User:            s.cfg.User,
		Timeout:         s.cfg.Timeout,
		Credential:      Credential{Signer: signer},
		HostKeyCallback: hostKeys,
	}
	target.HostKeyAlgorithms = s.cfg.Credentials.HostKeyAlgorithms(target.Address())

	conn, err := s.cfg.Transport.Dial(ctx, target)
	if err == nil {
		_ = conn.Close()
		return s.finish(StatusConnected, nil)
	}
	if status := statusFor(err); status != StatusAuthFailed || errors.Is(err, ErrHostKeyMismatch) {
		return s.finish(status, err)
	}

	s.set(StatusAuthFailed)
	if s.cfg.Password == "" {
		return s.finish(StatusMissingPassword, fmt.Errorf("%w: %v", ErrMissingPassword, err))
	}

	s.set(StatusProvisioning)
	return s.provision(ctx, target)
}

func (s *Session) provision(ctx context.Context, target Target) Result {
	key, err := s.cfg.Credentials.AuthorizedKey()
	if err != nil {
		return s.finish(StatusKeyInstallFailed, fmt.Errorf("%w: %v", ErrKeyInstallFailed, err))
	}

	target.Credential = Credential{Password: s.cfg.Password}
	conn, err := s.cfg.Transport.Dial(ctx, target)
	if err != nil {
		return s.finish(statusFor(err), err)
	}
	defer func() { _ = conn.Close() }()

	installCtx, cancel := context.WithTimeout(ctx, keyInstallTimeoutFactor*s.cfg.Timeout)
	defer cancel()
	installed, err := installKey(installCtx, conn, key)
	if err != nil {
		return s.finish(StatusKeyInstallFailed, err)
	}
	s.log.V(1).Info("public key provisioned", "changed", installed)

	res := s.finish(StatusConnected, nil)
	res.KeyInstalled = installed
	return res
}

func (s *Session) finish(status Status, err error) Result {
	s.set(status)
	if err != nil {
		s.log.V(1).Info("ssh access failed", "status", status.String(), "error", err.Error())
	}
	return Result{Status: status, Err: err}
}
