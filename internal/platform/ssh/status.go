package ssh

import (
	"errors"
	"fmt"
)

// Status is the access state of one host.
type Status int

const (
	StatusUnknown Status = iota
	StatusChecking
	StatusConnected
	StatusAuthFailed
	StatusProvisioning
	StatusTimeout
	StatusUnreachable
	StatusNameNotResolved
	StatusMissingPassword
	StatusKeyInstallFailed
)

var statusText = map[Status][2]string{
	StatusUnknown:          {"UNKNOWN", "unknown or unprobed state"},
	StatusChecking:         {"CHECKING", "checking access"},
	StatusConnected:        {"OK", "ok"},
	StatusAuthFailed:       {"AUTHFAIL", "authentication failed"},
	StatusProvisioning:     {"KEY-COPY", "copying ssh public key"},
	StatusTimeout:          {"TIMEOUT", "connection attempt timed out"},
	StatusUnreachable:      {"NOCONN", "host unresponsive/uncontactable"},
	StatusNameNotResolved:  {"NOTFOUND", "unable to resolve hostname - missing DNS?"},
	StatusMissingPassword:  {"NOPASSWD", "unable to copy key without a password"},
	StatusKeyInstallFailed: {"COPYFAIL", "copy of public key failed"},
}

// String returns the short status code shown in host tables.
func (s Status) String() string {
	if t, ok := statusText[s]; ok {
		return t[0]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Description returns the long, operator-facing explanation.
func (s Status) Description() string {
	if t, ok := statusText[s]; ok {
		return t[1]
	}
	return s.String()
}

// Terminal reports whether an attempt can end in s.
func (s Status) Terminal() bool {
	switch s {
	case StatusUnknown, StatusChecking, StatusProvisioning:
		return false
	}
	return true
}

// OK reports whether key-based access is (or will be, after provisioning) available.
func (s Status) OK() bool { return s == StatusConnected }

// Connectivity errors end an attempt before any credential was checked.
var (
	ErrNameNotResolved = errors.New("hostname cannot be resolved")
	ErrUnreachable     = errors.New("host unreachable")
	ErrTimeout         = errors.New("connection attempt timed out")
)

// Credential errors mean the host was reached but access was refused.
var (
	ErrAuthFailed       = errors.New("authentication failed")
	ErrHostKeyMismatch  = fmt.Errorf("%w: remote host key does not match known_hosts", ErrAuthFailed)
	ErrMissingPassword  = errors.New("key-based access refused and no password supplied")
	ErrKeyInstallFailed = errors.New("installing public key on remote host failed")
)

// IsConnectivity reports whether err is a name resolution, transport or timeout failure.
func IsConnectivity(err error) bool {
	return errors.Is(err, ErrNameNotResolved) || errors.Is(err, ErrUnreachable) || errors.Is(err, ErrTimeout)
}

// IsCredential reports whether err is a credential failure the operator can
// fix by supplying a corrected password.
func IsCredential(err error) bool {
	return errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrMissingPassword) || errors.Is(err, ErrKeyInstallFailed)
}

// statusFor maps a dial error onto the terminal status it produces.
func statusFor(err error) Status {
	switch {
	case err == nil:
		return StatusConnected
	case errors.Is(err, ErrNameNotResolved):
		return StatusNameNotResolved
	case errors.Is(err, ErrTimeout):
		return StatusTimeout
	case errors.Is(err, ErrUnreachable):
		return StatusUnreachable
	case errors.Is(err, ErrMissingPassword):
		return StatusMissingPassword
	case errors.Is(err, ErrKeyInstallFailed):
		return StatusKeyInstallFailed
	default:
		return StatusAuthFailed
	}
}
