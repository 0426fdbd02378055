package ssh

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/imamik/cephprobe/internal/util/keygen"
)

// KnownHostsFile is the known_hosts file name inside the key directory.
const KnownHostsFile = "known_hosts"

// CredentialStore is the capability a Session needs for local key material.
// It is the only path through which a session touches local files.
type CredentialStore interface {
	// Signer returns the local private key.
	Signer() (ssh.Signer, error)
	// AuthorizedKey returns the local public key as one authorized_keys line
	// without a trailing newline.
	AuthorizedKey() (string, error)
	// HostKeyCallback verifies remote host keys.
	HostKeyCallback() (ssh.HostKeyCallback, error)
	// HostKeyAlgorithms returns the host key algorithms to negotiate with
	// address (host:port), or nil when no key is known for it.
	HostKeyAlgorithms(address string) []string
}

// FileCredentials keeps the key pair and known_hosts in a directory,
// typically ~/.ssh. The key pair is generated on first use if absent, and
// unknown host keys are appended to known_hosts.
type FileCredentials struct {
	dir     string
	comment string
	bits    int

	mu        sync.Mutex
	pair      *keygen.KeyPair
	signer    ssh.Signer
	generated bool
	hostKeys  ssh.HostKeyCallback
}

// FileOption customizes a FileCredentials store.
type FileOption func(*FileCredentials)

// WithKeyBits sets the RSA size used when a key has to be generated.
func WithKeyBits(bits int) FileOption {
	return func(f *FileCredentials) { f.bits = bits }
}

// NewFileCredentials returns a store rooted at dir. comment is written into
// a newly generated public key.
func NewFileCredentials(dir, comment string, opts ...FileOption) *FileCredentials {
	f := &FileCredentials{dir: dir, comment: comment, bits: keygen.DefaultBits}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Dir returns the key directory.
func (f *FileCredentials) Dir() string { return f.dir }

// Generated reports whether this store created the key pair.
func (f *FileCredentials) Generated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generated
}

// Ensure loads or creates the key pair.
func (f *FileCredentials) Ensure() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ensureLocked()
}

func (f *FileCredentials) ensureLocked() error {
	if f.signer != nil {
		return nil
	}
	pair, generated, err := keygen.Ensure(f.dir, f.bits, f.comment)
	if err != nil {
		return err
	}
	signer, err := ssh.ParsePrivateKey(pair.PrivateKey)
	if err != nil {
		return fmt.Errorf("failed to parse private key: %w", err)
	}
	f.pair, f.signer, f.generated = pair, signer, generated
	return nil
}

func (f *FileCredentials) Signer() (ssh.Signer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ensureLocked(); err != nil {
		return nil, err
	}
	return f.signer, nil
}

func (f *FileCredentials) AuthorizedKey() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ensureLocked(); err != nil {
		return "", err
	}
	return strings.TrimRight(string(f.pair.PublicKey), "\n"), nil
}

func (f *FileCredentials) HostKeyCallback() (ssh.HostKeyCallback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.loadKnownHostsLocked(); err != nil {
		return nil, err
	}
	return f.verifyHostKey, nil
}

// HostKeyAlgorithms lists the algorithms matching the key types already
// recorded for address, in known_hosts order, so the server presents a key
// that can be verified.
func (f *FileCredentials) HostKeyAlgorithms(address string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.loadKnownHostsLocked(); err != nil {
		return nil
	}
	var algos []string
	for _, known := range f.knownKeysLocked(address) {
		for _, algo := range algorithmsForKeyType(known.Key.Type()) {
			if !slices.Contains(algos, algo) {
				algos = append(algos, algo)
			}
		}
	}
	return algos
}

// knownKeysLocked returns every known_hosts entry matching address.
func (f *FileCredentials) knownKeysLocked(address string) []knownhosts.KnownKey {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return nil
	}
	remote := &net.TCPAddr{IP: net.ParseIP(host)}
	if remote.IP == nil {
		remote.IP = net.IPv4zero
	}
	var keyErr *knownhosts.KeyError
	if errors.As(f.hostKeys(address, remote, lookupKey{}), &keyErr) {
		return keyErr.Want
	}
	return nil
}

func algorithmsForKeyType(keyType string) []string {
	if keyType == ssh.KeyAlgoRSA {
		return []string{ssh.KeyAlgoRSASHA512, ssh.KeyAlgoRSASHA256, ssh.KeyAlgoRSA}
	}
	return []string{keyType}
}

// lookupKey never equals a real key, so checking it against known_hosts
// yields every entry recorded for an address.
type lookupKey struct{}

func (lookupKey) Type() string    { return "cephprobe-lookup" }
func (lookupKey) Marshal() []byte { return []byte("cephprobe-lookup") }
func (lookupKey) Verify([]byte, *ssh.Signature) error {
	return errors.New("lookup key cannot verify")
}

func (f *FileCredentials) knownHostsPath() string {
	return filepath.Join(f.dir, KnownHostsFile)
}

func (f *FileCredentials) loadKnownHostsLocked() error {
	if f.hostKeys != nil {
		return nil
	}
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create key directory %s: %w", f.dir, err)
	}
	path := f.knownHostsPath()
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644) // #nosec G302 G304
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	_ = fh.Close()

	cb, err := knownhosts.New(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	f.hostKeys = cb
	return nil
}

// verifyHostKey accepts known keys, records keys of a type not yet known for
// the host and rejects a different key of a known type.
func (f *FileCredentials) verifyHostKey(hostname string, remote net.Addr, key ssh.PublicKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.hostKeys(hostname, remote, key)
	if err == nil {
		return nil
	}

	var keyErr *knownhosts.KeyError
	if !errors.As(err, &keyErr) {
		return err
	}
	for _, known := range keyErr.Want {
		if known.Key.Type() == key.Type() {
			return fmt.Errorf("%w: %s: %v", ErrHostKeyMismatch, hostname, err)
		}
	}

	line := knownhosts.Line([]string{knownhosts.Normalize(hostname)}, key)
	fh, err := os.OpenFile(f.knownHostsPath(), os.O_APPEND|os.O_WRONLY, 0o644) // #nosec G302
	if err != nil {
		return fmt.Errorf("failed to update known_hosts: %w", err)
	}
	if _, err := fmt.Fprintln(fh, line); err != nil {
		_ = fh.Close()
		return fmt.Errorf("failed to update known_hosts: %w", err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("failed to update known_hosts: %w", err)
	}

	// Reload so a later dial in this process sees the new entry.
	cb, err := knownhosts.New(f.knownHostsPath())
	if err != nil {
		return fmt.Errorf("failed to reload known_hosts: %w", err)
	}
	f.hostKeys = cb
	return nil
}
