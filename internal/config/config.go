package config

import (
	"slices"
	"time"

	"github.com/imamik/cephprobe/internal/facts"
)

// DefaultConfigFilename is the default configuration filename.
const DefaultConfigFilename = "cephprobe.yaml"

// Fact source kinds.
const (
	FactsSourceCommand   = "command"
	FactsSourceDirectory = "directory"
)

// Config holds the readiness check configuration.
type Config struct {
	Mode               string `yaml:"mode" validate:"oneof=dev prod"`
	InstallationSource string `yaml:"installation_source" validate:"oneof=community distro vendor-cdn"`

	SSH   SSHConfig   `yaml:"ssh"`
	Probe ProbeConfig `yaml:"probe"`
	Facts FactsConfig `yaml:"facts"`

	Hosts []HostConfig `yaml:"hosts" validate:"min=1,dive"`
}

// SSHConfig holds the access settings shared by all hosts.
type SSHConfig struct {
	User string `yaml:"user" validate:"required"`
	// Password is used only to install the local key on hosts that do not
	// trust it yet. Prefer CEPHPROBE_SSH_PASSWORD over storing it here.
	Password       string        `yaml:"password,omitempty"`
	Port           int           `yaml:"port" validate:"min=1,max=65535"`
	KeyDir         string        `yaml:"key_dir" validate:"required"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"gt=0"`
}

// ProbeConfig controls the per-host fan-out.
type ProbeConfig struct {
	// Retries is the number of retries for transient failures. Credential
	// failures are never retried.
	Retries    int           `yaml:"retries" validate:"min=0,max=10"`
	RetryDelay time.Duration `yaml:"retry_delay" validate:"gte=0"`
}

// FactsConfig selects where hardware facts come from.
type FactsConfig struct {
	Source    string        `yaml:"source" validate:"oneof=command directory"`
	Command   []string      `yaml:"command,omitempty" validate:"required_if=Source command"`
	Directory string        `yaml:"directory,omitempty" validate:"required_if=Source directory"`
	Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
}

// HostConfig is one host entry. Name may be a range pattern.
type HostConfig struct {
	Name     string   `yaml:"name" validate:"required"`
	Roles    []string `yaml:"roles"`
	Selected *bool    `yaml:"selected,omitempty"`
}

// IsSelected reports whether the entry is selected; entries are selected
// unless explicitly disabled.
func (h HostConfig) IsSelected() bool {
	return h.Selected == nil || *h.Selected
}

// Defaults.
const (
	DefaultMode               = "dev"
	DefaultInstallationSource = "community"
	DefaultSSHUser            = "root"
	DefaultSSHPort            = 22
	DefaultConnectTimeout     = 2 * time.Second
	DefaultRetryDelay         = time.Second
	DefaultFactsTimeout       = facts.DefaultTimeout
)

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = DefaultMode
	}
	if c.InstallationSource == "" {
		c.InstallationSource = DefaultInstallationSource
	}
	if c.SSH.User == "" {
		c.SSH.User = DefaultSSHUser
	}
	if c.SSH.Port == 0 {
		c.SSH.Port = DefaultSSHPort
	}
	if c.SSH.KeyDir == "" {
		c.SSH.KeyDir = defaultKeyDir()
	}
	if c.SSH.ConnectTimeout == 0 {
		c.SSH.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Probe.RetryDelay == 0 {
		c.Probe.RetryDelay = DefaultRetryDelay
	}
	if c.Facts.Source == "" {
		c.Facts.Source = FactsSourceCommand
	}
	if c.Facts.Source == FactsSourceCommand && len(c.Facts.Command) == 0 {
		c.Facts.Command = slices.Clone(facts.DefaultCommand)
	}
	if c.Facts.Timeout == 0 {
		c.Facts.Timeout = DefaultFactsTimeout
	}
}
