package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/cephprobe/internal/facts"
)

const minimalYAML = `
hosts:
  - name: ceph-1
    roles: [mon, osd]
`

func TestLoadFromBytes_Defaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Mode)
	assert.Equal(t, "community", cfg.InstallationSource)
	assert.Equal(t, "root", cfg.SSH.User)
	assert.Equal(t, 22, cfg.SSH.Port)
	assert.Equal(t, 2*time.Second, cfg.SSH.ConnectTimeout)
	assert.Equal(t, 0, cfg.Probe.Retries)
	assert.Equal(t, time.Second, cfg.Probe.RetryDelay)
	assert.Equal(t, FactsSourceCommand, cfg.Facts.Source)
	assert.Equal(t, facts.DefaultCommand, cfg.Facts.Command)

	cfg.Facts.Command[0] = "/opt/bin/ansible"
	assert.Equal(t, "ansible", facts.DefaultCommand[0], "defaults are copied")
	assert.Equal(t, 60*time.Second, cfg.Facts.Timeout)
	assert.NotContains(t, cfg.SSH.KeyDir, "~")
	require.Len(t, cfg.Hosts, 1)
	assert.True(t, cfg.Hosts[0].IsSelected())
}

func TestLoadFromBytes_Full(t *testing.T) {
	data := `
mode: prod
installation_source: vendor-cdn
ssh:
  user: admin
  port: 2222
  key_dir: /etc/cephprobe/keys
  connect_timeout: 5s
probe:
  retries: 2
  retry_delay: 250ms
facts:
  source: directory
  directory: /var/lib/cephprobe/facts
  timeout: 30s
hosts:
  - name: mon-[1-3]
    roles: [mon]
  - name: osd[01-02]
    roles: [osd]
    selected: false
`
	cfg, err := LoadFromBytes([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Mode)
	assert.Equal(t, "vendor-cdn", cfg.InstallationSource)
	assert.Equal(t, "admin", cfg.SSH.User)
	assert.Equal(t, 2222, cfg.SSH.Port)
	assert.Equal(t, "/etc/cephprobe/keys", cfg.SSH.KeyDir)
	assert.Equal(t, 5*time.Second, cfg.SSH.ConnectTimeout)
	assert.Equal(t, 2, cfg.Probe.Retries)
	assert.Equal(t, 250*time.Millisecond, cfg.Probe.RetryDelay)
	assert.Equal(t, "/var/lib/cephprobe/facts", cfg.Facts.Directory)
	assert.Empty(t, cfg.Facts.Command)
	assert.Equal(t, 30*time.Second, cfg.Facts.Timeout)
	assert.False(t, cfg.Hosts[1].IsSelected())
}

func TestLoadFromBytes_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "malformed", data: "hosts: [", wantErr: "failed to unmarshal yaml"},
		{name: "unknown field", data: "bogus: 1\n" + minimalYAML, wantErr: "bogus"},
		{name: "no hosts", data: "mode: dev\n", wantErr: "Hosts must be min 1"},
		{name: "bad mode", data: "mode: staging\n" + minimalYAML, wantErr: "Mode must be one of"},
		{name: "bad source", data: "installation_source: ppa\n" + minimalYAML, wantErr: "InstallationSource must be one of"},
		{name: "bad port", data: "ssh:\n  port: 70000\n" + minimalYAML, wantErr: "SSH.Port must be max 65535"},
		{name: "negative retries", data: "probe:\n  retries: -1\n" + minimalYAML, wantErr: "Probe.Retries must be min 0"},
		{name: "directory without path", data: "facts:\n  source: directory\n" + minimalYAML, wantErr: "Facts.Directory is required"},
		{name: "bad fact source", data: "facts:\n  source: ssh\n" + minimalYAML, wantErr: "Facts.Source must be one of"},
		{name: "unknown role", data: "hosts:\n  - name: a\n    roles: [osd, nfs]\n", wantErr: `unknown role "nfs"`},
		{name: "duplicate host", data: "hosts:\n  - name: a-[1-2]\n  - name: a-2\n", wantErr: `duplicate host "a-2"`},
		{name: "bad range", data: "hosts:\n  - name: a-[3-1]\n", wantErr: "invalid host range"},
		{name: "empty host", data: "hosts:\n  - roles: [mon]\n", wantErr: "Hosts[0].Name is required"},
		{name: "user whitespace", data: "ssh:\n  user: \"ceph admin\"\n" + minimalYAML, wantErr: "must not contain whitespace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFilename)
	data := "facts:\n  source: directory\n  directory: facts\n" + minimalYAML
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "facts"), cfg.Facts.Directory)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".ssh"), expandHome("~/.ssh"))
	assert.Equal(t, home, expandHome("~"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
	assert.Equal(t, "~other/x", expandHome("~other/x"))
}

func TestDefaultKeyDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ssh"), DefaultKeyDir())
}
