package keygen

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
)

const (
	// DefaultBits matches the key size the installer has always generated.
	DefaultBits = 4096

	// PrivateKeyFile and PublicKeyFile are the file names inside the key directory.
	PrivateKeyFile = "id_rsa"
	PublicKeyFile  = "id_rsa.pub"
)

// KeyPair holds an RSA key pair in ready-to-use formats.
type KeyPair struct {
	// PrivateKey is the RSA private key in PEM-encoded PKCS#1 format.
	PrivateKey []byte
	// PublicKey is the public key in OpenSSH authorized_keys format,
	// terminated by a newline.
	PublicKey []byte
}

// GenerateRSAKeyPair generates a new RSA key pair with the specified bit size.
// A non-empty comment (usually user@host) is appended to the public key line.
func GenerateRSAKeyPair(bits int, comment string) (*KeyPair, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA private key: %w", err)
	}

	if err := privateKey.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate RSA private key: %w", err)
	}

	privateKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	publicRsaKey, err := ssh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}

	pub := ssh.MarshalAuthorizedKey(publicRsaKey)
	if comment != "" {
		pub = append(bytes.TrimRight(pub, "\n"), []byte(" "+comment+"\n")...)
	}

	return &KeyPair{
		PrivateKey: privateKeyPEM,
		PublicKey:  pub,
	}, nil
}

// Load reads an existing key pair from dir.
// It returns an error wrapping fs.ErrNotExist when the private key is absent.
func Load(dir string) (*KeyPair, error) {
	priv, err := os.ReadFile(filepath.Join(dir, PrivateKeyFile)) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}

	pub, err := os.ReadFile(filepath.Join(dir, PublicKeyFile)) // #nosec G304
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read public key: %w", err)
		}
		// Rebuild the public half from the private key.
		signer, perr := ssh.ParsePrivateKey(priv)
		if perr != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", perr)
		}
		pub = ssh.MarshalAuthorizedKey(signer.PublicKey())
	}

	return &KeyPair{PrivateKey: priv, PublicKey: pub}, nil
}

// Save writes the pair into dir, creating dir with 0700 if needed.
// Both files are written with 0600.
func (kp *KeyPair) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create key directory %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, PublicKeyFile), kp.PublicKey, 0o600); err != nil {
		return fmt.Errorf("unable to write %s: %w", PublicKeyFile, err)
	}
	if err := os.WriteFile(filepath.Join(dir, PrivateKeyFile), kp.PrivateKey, 0o600); err != nil {
		return fmt.Errorf("unable to write %s: %w", PrivateKeyFile, err)
	}
	return nil
}

// Ensure returns the key pair stored in dir, generating and saving a new
// one only if no private key exists yet. The boolean reports whether a key
// was generated.
func Ensure(dir string, bits int, comment string) (*KeyPair, bool, error) {
	kp, err := Load(dir)
	if err == nil {
		return kp, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}

	if bits == 0 {
		bits = DefaultBits
	}
	kp, err = GenerateRSAKeyPair(bits, comment)
	if err != nil {
		return nil, false, err
	}
	if err := kp.Save(dir); err != nil {
		return nil, false, err
	}
	return kp, true, nil
}
