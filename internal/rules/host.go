package rules

import (
	"github.com/imamik/cephprobe/internal/inventory"
)

// Resource reservations used by the headroom rule.
const (
	MinSystemCores    = 2.0
	MinSystemMemoryMB = 4096
	CoresPerDisk      = 0.5
	MemoryMBPerDisk   = 2048
	// DisksPerLink is the number of disks one 10Gb link can serve.
	DisksPerLink = 12
)

// HostRule checks one aspect of a host profile.
type HostRule struct {
	Name  string
	Check func(p inventory.Profile, v *Verdict)
}

// DefaultHostRules is the ordered rule list of the host engine.
var DefaultHostRules = []HostRule{
	{Name: "probed", Check: checkProbed},
	{Name: "cpu-ram", Check: checkHeadroom},
	{Name: "network", Check: checkThroughput},
	{Name: "disks", Check: checkDisks},
}

// HostEngine evaluates per-host rules.
type HostEngine struct {
	rules []HostRule
}

// NewHostEngine returns an engine running rules in order, or
// DefaultHostRules when none are given.
func NewHostEngine(rules ...HostRule) *HostEngine {
	if len(rules) == 0 {
		rules = DefaultHostRules
	}
	return &HostEngine{rules: rules}
}

// Evaluate runs every rule against p.
func (e *HostEngine) Evaluate(p inventory.Profile) Verdict {
	var v Verdict
	for _, r := range e.rules {
		r.Check(p, &v)
	}
	return v
}

func checkProbed(p inventory.Profile, v *Verdict) {
	if !p.Probed {
		v.Errorf("probed", "host has not been probed")
	}
}

func checkHeadroom(p inventory.Profile, v *Verdict) {
	if !p.Probed {
		return
	}
	cpu := float64(p.Cores)
	ram := p.MemoryMB
	if p.Has(inventory.RoleStorage) {
		cpu -= float64(p.DiskCount()) * CoresPerDisk
		ram -= p.DiskCount() * MemoryMBPerDisk
	}
	if cpu < MinSystemCores {
		v.Warnf("cpu-ram", "CPU low")
	}
	if ram < MinSystemMemoryMB {
		v.Warnf("cpu-ram", "RAM low")
	}
}

// RequiredBandwidth is the NIC bandwidth class sum a storage host with the
// given disk count needs.
func RequiredBandwidth(disks int) int {
	links := (disks + DisksPerLink - 1) / DisksPerLink
	return links * 10
}

func checkThroughput(p inventory.Profile, v *Verdict) {
	if !p.Probed || !p.Has(inventory.RoleStorage) {
		return
	}
	if p.Bandwidth() < RequiredBandwidth(p.DiskCount()) {
		v.Warnf("network", "Network bandwidth low")
	}
}

func checkDisks(p inventory.Profile, v *Verdict) {
	if !p.Probed || !p.Has(inventory.RoleStorage) {
		return
	}
	if p.DiskCount() == 0 {
		v.Errorf("disks", "no disks")
	}
}
