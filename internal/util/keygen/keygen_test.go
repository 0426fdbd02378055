package keygen

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestGenerateRSAKeyPair_InvalidBits(t *testing.T) {
	t.Parallel()
	for _, bits := range []int{0, -1} {
		_, err := GenerateRSAKeyPair(bits, "")
		assert.Error(t, err, "bits=%d should fail", bits)
	}
}

func TestGenerateRSAKeyPair_Formats(t *testing.T) {
	t.Parallel()
	keyPair, err := GenerateRSAKeyPair(2048, "root@installer")
	require.NoError(t, err)

	block, _ := pem.Decode(keyPair.PrivateKey)
	require.NotNil(t, block)
	assert.Equal(t, "RSA PRIVATE KEY", block.Type)
	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	require.NoError(t, err)

	pub := string(keyPair.PublicKey)
	assert.True(t, strings.HasPrefix(pub, "ssh-rsa "))
	assert.True(t, strings.HasSuffix(pub, " root@installer\n"))

	parsed, comment, _, _, err := ssh.ParseAuthorizedKey(keyPair.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, "root@installer", comment)

	expected, err := ssh.NewPublicKey(&privateKey.PublicKey)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(parsed.Marshal(), expected.Marshal()), "public key does not correspond to private key")
}

func TestEnsure_GeneratesOnce(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), ".ssh")

	first, generated, err := Ensure(dir, 2048, "")
	require.NoError(t, err)
	assert.True(t, generated)

	info, err := os.Stat(filepath.Join(dir, PrivateKeyFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, generated, err := Ensure(dir, 2048, "")
	require.NoError(t, err)
	assert.False(t, generated, "existing key must be reused")
	assert.Equal(t, first.PrivateKey, second.PrivateKey)
	assert.Equal(t, first.PublicKey, second.PublicKey)
}

func TestLoad_RebuildsMissingPublicKey(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	kp, err := GenerateRSAKeyPair(2048, "")
	require.NoError(t, err)
	require.NoError(t, kp.Save(dir))
	require.NoError(t, os.Remove(filepath.Join(dir, PublicKeyFile)))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey, loaded.PublicKey)
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
