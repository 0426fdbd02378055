package handlers

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/imamik/cephprobe/internal/config"
	"github.com/imamik/cephprobe/internal/platform/ssh"
)

// Keygen creates the local key pair unless it exists and prints the public
// key. keyDir overrides the configured directory.
func Keygen(configPath, keyDir string) error {
	if keyDir == "" {
		dir, err := configuredKeyDir(configPath)
		if err != nil {
			return err
		}
		keyDir = dir
	}

	creds := ssh.NewFileCredentials(keyDir, keyComment())
	if err := creds.Ensure(); err != nil {
		return fmt.Errorf("failed to prepare ssh key: %w", err)
	}
	key, err := creds.AuthorizedKey()
	if err != nil {
		return err
	}

	if creds.Generated() {
		fmt.Fprintf(stdout, "Generated new key pair in %s\n", creds.Dir())
	} else {
		fmt.Fprintf(stdout, "Using existing key pair in %s\n", creds.Dir())
	}
	fmt.Fprintln(stdout, key)
	return nil
}

// configuredKeyDir reads key_dir from the config file, or returns the
// default when no config file exists.
func configuredKeyDir(configPath string) (string, error) {
	cfg, err := loadConfig(configPath)
	if err == nil {
		return cfg.SSH.KeyDir, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return config.DefaultKeyDir(), nil
	}
	return "", err
}
