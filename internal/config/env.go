package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variables that override the file.
const (
	EnvSSHPassword     = "CEPHPROBE_SSH_PASSWORD"
	EnvSSHUser         = "CEPHPROBE_SSH_USER"
	EnvSSHTimeout      = "CEPHPROBE_SSH_TIMEOUT"
	EnvProbeRetries    = "CEPHPROBE_PROBE_RETRIES"
	EnvProbeRetryDelay = "CEPHPROBE_PROBE_RETRY_DELAY"
	EnvFactsTimeout    = "CEPHPROBE_FACTS_TIMEOUT"
)

// ApplyEnv overrides configuration values from environment variables.
// Unset or unparsable variables leave the current value in place.
//
// Environment Variables:
//   - CEPHPROBE_SSH_PASSWORD
//   - CEPHPROBE_SSH_USER
//   - CEPHPROBE_SSH_TIMEOUT (e.g. 5s)
//   - CEPHPROBE_PROBE_RETRIES
//   - CEPHPROBE_PROBE_RETRY_DELAY
//   - CEPHPROBE_FACTS_TIMEOUT
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvSSHPassword); v != "" {
		c.SSH.Password = v
	}
	if v := os.Getenv(EnvSSHUser); v != "" {
		c.SSH.User = v
	}
	c.SSH.ConnectTimeout = parseDuration(EnvSSHTimeout, c.SSH.ConnectTimeout)
	c.Probe.Retries = parseInt(EnvProbeRetries, c.Probe.Retries)
	c.Probe.RetryDelay = parseDuration(EnvProbeRetryDelay, c.Probe.RetryDelay)
	c.Facts.Timeout = parseDuration(EnvFactsTimeout, c.Facts.Timeout)
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
