package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

const (
	defaultPort = 22

	// DefaultConnectTimeout bounds both the TCP connect and the SSH handshake.
	DefaultConnectTimeout = 2 * time.Second
)

// Credential selects how a Target authenticates. Exactly one of Signer or
// Password is expected to be set.
type Credential struct {
	Signer   ssh.Signer
	Password string
}

// Target describes one connection attempt.
type Target struct {
	Host            string
	Port            int
	User            string
	Timeout         time.Duration
	Credential      Credential
	HostKeyCallback ssh.HostKeyCallback
	// HostKeyAlgorithms restricts the host key types offered during the
	// handshake. Nil keeps the library defaults.
	HostKeyAlgorithms []string
}

// Address returns host:port.
func (t Target) Address() string {
	port := t.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(port))
}

// Conn is an authenticated connection able to run commands.
type Conn interface {
	// Run executes command, feeding stdin if non-nil, and returns combined output.
	Run(ctx context.Context, command string, stdin io.Reader) (string, error)
	Close() error
}

// Transport opens authenticated connections. Dial errors wrap exactly one of
// the package's sentinel errors.
type Transport interface {
	Dial(ctx context.Context, target Target) (Conn, error)
}

// NetTransport is the Transport backed by golang.org/x/crypto/ssh.
type NetTransport struct {
	dialer net.Dialer
}

// NewTransport returns a Transport that dials real hosts.
func NewTransport() *NetTransport {
	return &NetTransport{}
}

// Dial connects in two phases so failures can be classified structurally:
// anything before the TCP connection exists is a connectivity error, anything
// during the SSH handshake is a credential error unless it timed out.
func (t *NetTransport) Dial(ctx context.Context, target Target) (Conn, error) {
	if target.Host == "" {
		return nil, fmt.Errorf("target host cannot be empty")
	}
	if target.User == "" {
		return nil, fmt.Errorf("target user cannot be empty")
	}
	timeout := target.Timeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := target.Address()
	netConn, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, classifyDialError(err))
	}

	deadline, _ := ctx.Deadline()
	_ = netConn.SetDeadline(deadline)

	hostKeyCallback := target.HostKeyCallback
	if hostKeyCallback == nil {
		hostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // callers without a store accept any key
	}

	cfg := &ssh.ClientConfig{
		User:              target.User,
		Auth:              authMethods(target.Credential),
		HostKeyCallback:   hostKeyCallback,
		HostKeyAlgorithms: target.HostKeyAlgorithms,
		Timeout:           timeout,
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, cfg)
	if err != nil {
		_ = netConn.Close()
		return nil, fmt.Errorf("handshake with %s: %w", addr, classifyHandshakeError(err))
	}
	_ = netConn.SetDeadline(time.Time{})

	return &clientConn{host: target.Host, client: ssh.NewClient(sshConn, chans, reqs)}, nil
}

func authMethods(c Credential) []ssh.AuthMethod {
	var methods []ssh.AuthMethod
	if c.Signer != nil {
		methods = append(methods, ssh.PublicKeys(c.Signer))
	}
	if c.Password != "" {
		password := c.Password
		methods = append(methods,
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}
	return methods
}

func classifyDialError(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrNameNotResolved, err)
	}
	if isTimeout(err) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

func classifyHandshakeError(err error) error {
	if errors.Is(err, ErrHostKeyMismatch) {
		return err
	}
	if isTimeout(err) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrAuthFailed, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// Older handshake paths flatten the error into text.
	return strings.Contains(err.Error(), "i/o timeout")
}

type clientConn struct {
	host   string
	client *ssh.Client
}

func (c *clientConn) Run(ctx context.Context, command string, stdin io.Reader) (string, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create SSH session on %s: %w", c.host, err)
	}
	defer func() { _ = session.Close() }()

	if stdin != nil {
		session.Stdin = stdin
	}

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := session.CombinedOutput(command)
		done <- result{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		_ = session.Close()
		return "", fmt.Errorf("command on %s: %w", c.host, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return string(res.out), fmt.Errorf("command failed on %s: %w\nOutput: %s", c.host, res.err, res.out)
		}
		return string(res.out), nil
	}
}

func (c *clientConn) Close() error {
	return c.client.Close()
}
