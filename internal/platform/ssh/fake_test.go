package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"

	"github.com/imamik/cephprobe/internal/util/keygen"
)

var (
	testKeyOnce sync.Once
	testKeyPair *keygen.KeyPair
	testKeyErr  error
)

// memoryCredentials is a CredentialStore that never touches the filesystem.
type memoryCredentials struct {
	pair   *keygen.KeyPair
	signer ssh.Signer
}

func newMemoryCredentials(t *testing.T) *memoryCredentials {
	t.Helper()
	testKeyOnce.Do(func() {
		testKeyPair, testKeyErr = keygen.GenerateRSAKeyPair(2048, "tester@local")
	})
	if testKeyErr != nil {
		t.Fatalf("failed to generate test key: %v", testKeyErr)
	}
	signer, err := ssh.ParsePrivateKey(testKeyPair.PrivateKey)
	if err != nil {
		t.Fatalf("failed to parse test key: %v", err)
	}
	return &memoryCredentials{pair: testKeyPair, signer: signer}
}

func (m *memoryCredentials) Signer() (ssh.Signer, error) { return m.signer, nil }

func (m *memoryCredentials) AuthorizedKey() (string, error) {
	return strings.TrimRight(string(m.pair.PublicKey), "\n"), nil
}

func (m *memoryCredentials) HostKeyCallback() (ssh.HostKeyCallback, error) {
	return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // test store
}

func (m *memoryCredentials) HostKeyAlgorithms(string) []string { return nil }

// fakeHost simulates the remote end of a connection.
type fakeHost struct {
	mu         sync.Mutex
	dialErr    error
	password   string
	authorized string
	failWrite  bool
	// hang makes every remote command block until its context ends.
	hang bool

	passwordDials int
	writes        int
}

type fakeTransport struct {
	hosts map[string]*fakeHost
}

func (f *fakeTransport) Dial(_ context.Context, target Target) (Conn, error) {
	h, ok := f.hosts[target.Host]
	if !ok {
		return nil, ErrNameNotResolved
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dialErr != nil {
		return nil, h.dialErr
	}
	if target.Credential.Signer != nil {
		key := strings.TrimRight(string(ssh.MarshalAuthorizedKey(target.Credential.Signer.PublicKey())), "\n")
		if _, changed, _ := MergeAuthorizedKeys([]byte(h.authorized), key); !changed {
			return &fakeConn{host: h}, nil
		}
		return nil, fmt.Errorf("%w: ssh: unable to authenticate, attempted methods [none publickey]", ErrAuthFailed)
	}
	h.passwordDials++
	if h.password != "" && target.Credential.Password == h.password {
		return &fakeConn{host: h}, nil
	}
	return nil, ErrAuthFailed
}

type fakeConn struct {
	host *fakeHost
}

func (c *fakeConn) Run(ctx context.Context, command string, stdin io.Reader) (string, error) {
	c.host.mu.Lock()
	defer c.host.mu.Unlock()
	if c.host.hang {
		c.host.mu.Unlock()
		<-ctx.Done()
		c.host.mu.Lock()
		return "", ctx.Err()
	}
	switch command {
	case readAuthorizedKeysCmd:
		return c.host.authorized, nil
	case writeAuthorizedKeysCmd:
		if c.host.failWrite {
			return "permission denied", errors.New("exit status 1")
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", err
		}
		c.host.authorized = string(data)
		c.host.writes++
		return "", nil
	}
	return "", errors.New("unexpected command: " + command)
}

func (c *fakeConn) Close() error { return nil }
