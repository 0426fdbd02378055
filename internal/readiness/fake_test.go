package readiness

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"

	cryptossh "golang.org/x/crypto/ssh"

	"github.com/imamik/cephprobe/internal/facts"
	"github.com/imamik/cephprobe/internal/inventory"
	"github.com/imamik/cephprobe/internal/platform/ssh"
)

// fakeCredentials holds an in-memory ed25519 key pair.
type fakeCredentials struct {
	signer cryptossh.Signer
	pub    string
}

func newFakeCredentials() *fakeCredentials {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	signer, err := cryptossh.NewSignerFromKey(priv)
	if err != nil {
		panic(err)
	}
	sshPub, err := cryptossh.NewPublicKey(pub)
	if err != nil {
		panic(err)
	}
	return &fakeCredentials{
		signer: signer,
		pub:    strings.TrimSpace(string(cryptossh.MarshalAuthorizedKey(sshPub))) + " cephprobe@test",
	}
}

func (f *fakeCredentials) Signer() (cryptossh.Signer, error)  { return f.signer, nil }
func (f *fakeCredentials) AuthorizedKey() (string, error)     { return f.pub, nil }
func (f *fakeCredentials) HostKeyCallback() (cryptossh.HostKeyCallback, error) {
	return cryptossh.InsecureIgnoreHostKey(), nil //nolint:gosec // test store
}
func (f *fakeCredentials) HostKeyAlgorithms(string) []string { return nil }

// remote is one simulated machine.
type remote struct {
	mu             sync.Mutex
	dialErr        error
	password       string
	authorizedKeys string
	facts          *inventory.Facts
	factsErr       error
}

type network struct {
	mu      sync.Mutex
	remotes map[string]*remote
}

func newNetwork() *network { return &network{remotes: map[string]*remote{}} }

func (n *network) add(name string, r *remote) *remote {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.remotes[name] = r
	return r
}

func (n *network) get(name string) (*remote, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	r, ok := n.remotes[name]
	return r, ok
}

// Dial implements ssh.Transport.
func (n *network) Dial(_ context.Context, target ssh.Target) (ssh.Conn, error) {
	r, ok := n.get(target.Host)
	if !ok {
		return nil, fmt.Errorf("lookup %s: %w", target.Host, ssh.ErrNameNotResolved)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dialErr != nil {
		return nil, r.dialErr
	}
	switch {
	case target.Credential.Signer != nil:
		key := strings.Fields(string(cryptossh.MarshalAuthorizedKey(target.Credential.Signer.PublicKey())))[1]
		if !strings.Contains(r.authorizedKeys, key) {
			return nil, fmt.Errorf("%w: publickey rejected", ssh.ErrAuthFailed)
		}
	case target.Credential.Password != "":
		if target.Credential.Password != r.password {
			return nil, fmt.Errorf("%w: password rejected", ssh.ErrAuthFailed)
		}
	default:
		return nil, fmt.Errorf("%w: no credential", ssh.ErrAuthFailed)
	}
	return &remoteConn{r: r}, nil
}

// remoteConn treats any command with stdin as a write of authorized_keys
// and any other command as a read.
type remoteConn struct{ r *remote }

func (c *remoteConn) Run(_ context.Context, _ string, stdin io.Reader) (string, error) {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	if stdin == nil {
		return c.r.authorizedKeys, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	c.r.authorizedKeys = string(data)
	return "", nil
}

func (c *remoteConn) Close() error { return nil }

// Gather implements facts.Source from the simulated machines.
func (n *network) Gather(_ context.Context, host string) (*inventory.Facts, error) {
	r, ok := n.get(host)
	if !ok {
		return nil, facts.ErrHostUnreachable
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factsErr != nil {
		return nil, r.factsErr
	}
	return r.facts, nil
}

type hardware struct {
	cores    int
	memoryMB int
	hdds     []string
	ssds     []string
	subnets  []string
	driver   string
}

func machine(hw hardware) *inventory.Facts {
	if hw.cores == 0 {
		hw.cores = 16
	}
	if hw.memoryMB == 0 {
		hw.memoryMB = 65536
	}
	if hw.subnets == nil {
		hw.subnets = []string{"10.0.0.0"}
	}
	if hw.driver == "" {
		hw.driver = "ixgbe"
	}
	f := &inventory.Facts{
		ProcessorCount:    1,
		ThreadsPerCore:    1,
		CoresPerProcessor: hw.cores,
		MemoryMB:          hw.memoryMB,
		Devices: map[string]inventory.BlockDevice{
			"sda": {Rotational: true, Partitions: []string{"sda1"}, Sectors: 1 << 20, SectorSize: 512},
		},
	}
	for _, d := range hw.hdds {
		f.Devices[d] = inventory.BlockDevice{Rotational: true, Sectors: 1 << 30, SectorSize: 512}
	}
	for _, d := range hw.ssds {
		f.Devices[d] = inventory.BlockDevice{Rotational: false, Sectors: 1 << 28, SectorSize: 512}
	}
	for i, network := range hw.subnets {
		f.Interfaces = append(f.Interfaces, inventory.Interface{
			Name:   fmt.Sprintf("eth%d", i),
			Driver: hw.driver,
			Active: true,
			IPv4:   &inventory.IPv4{Network: network, Netmask: "255.255.255.0"},
		})
	}
	return f
}
