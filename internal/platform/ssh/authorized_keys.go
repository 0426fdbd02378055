package ssh

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

const (
	readAuthorizedKeysCmd  = "cat ~/.ssh/authorized_keys 2>/dev/null || true"
	writeAuthorizedKeysCmd = "umask 077 && mkdir -p ~/.ssh && " +
		"cat > ~/.ssh/authorized_keys.cephprobe && " +
		"mv -f ~/.ssh/authorized_keys.cephprobe ~/.ssh/authorized_keys && " +
		"chmod 600 ~/.ssh/authorized_keys"
)

// MergeAuthorizedKeys returns existing with key appended unless an entry for
// the same public key is already present. Comments, options and lines that
// do not parse are preserved verbatim. The boolean reports whether the
// content changed.
func MergeAuthorizedKeys(existing []byte, key string) ([]byte, bool, error) {
	want, _, _, _, err := ssh.ParseAuthorizedKey([]byte(key))
	if err != nil {
		return nil, false, fmt.Errorf("invalid public key: %w", err)
	}
	wantBytes := want.Marshal()

	scanner := bufio.NewScanner(bytes.NewReader(existing))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		have, _, _, _, err := ssh.ParseAuthorizedKey([]byte(line))
		if err != nil {
			continue
		}
		if bytes.Equal(have.Marshal(), wantBytes) {
			return existing, false, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to read authorized_keys: %w", err)
	}

	var out bytes.Buffer
	out.Grow(len(existing) + len(key) + 2)
	out.Write(existing)
	if len(existing) > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		out.WriteByte('\n')
	}
	out.WriteString(strings.TrimRight(key, "\n"))
	out.WriteByte('\n')
	return out.Bytes(), true, nil
}

// installKey makes sure key is present in the remote user's authorized_keys.
func installKey(ctx context.Context, conn Conn, key string) (bool, error) {
	current, err := conn.Run(ctx, readAuthorizedKeysCmd, nil)
	if err != nil {
		return false, fmt.Errorf("%w: reading authorized_keys: %v", ErrKeyInstallFailed, err)
	}

	merged, changed, err := MergeAuthorizedKeys([]byte(current), key)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrKeyInstallFailed, err)
	}
	if !changed {
		return false, nil
	}

	if _, err := conn.Run(ctx, writeAuthorizedKeysCmd, bytes.NewReader(merged)); err != nil {
		return false, fmt.Errorf("%w: writing authorized_keys: %v", ErrKeyInstallFailed, err)
	}
	return true, nil
}
