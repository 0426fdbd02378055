package rules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/imamik/cephprobe/internal/inventory"
)

// Mode selects the strictness of the cluster rules.
type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeDev:
		return ModeDev, nil
	case ModeProd:
		return ModeProd, nil
	}
	return "", fmt.Errorf("invalid mode %q (must be %s or %s)", s, ModeDev, ModeProd)
}

// InstallSource is the channel the cluster software is installed from.
type InstallSource string

const (
	SourceCommunity InstallSource = "community"
	SourceDistro    InstallSource = "distro"
	// SourceVendorCDN is the vendor-curated channel; it does not support
	// collocated daemons.
	SourceVendorCDN InstallSource = "vendor-cdn"
)

// ParseInstallSource validates an installation source name.
func ParseInstallSource(s string) (InstallSource, error) {
	switch InstallSource(strings.ToLower(s)) {
	case SourceCommunity:
		return SourceCommunity, nil
	case SourceDistro:
		return SourceDistro, nil
	case SourceVendorCDN:
		return SourceVendorCDN, nil
	}
	return "", fmt.Errorf("invalid installation source %q", s)
}

// ProdMonitorCounts are the monitor counts accepted in production.
var ProdMonitorCounts = []int{3, 5}

// MinProdStorageHosts is the production minimum of storage hosts.
const MinProdStorageHosts = 3

// Cluster is the input of a cluster evaluation.
type Cluster struct {
	Profiles []inventory.Profile
	Mode     Mode
	Source   InstallSource
}

// selected returns the selected profiles.
func (c Cluster) selected() []inventory.Profile {
	var out []inventory.Profile
	for _, p := range c.Profiles {
		if p.Selected {
			out = append(out, p)
		}
	}
	return out
}

func (c Cluster) withRole(r inventory.Role) []inventory.Profile {
	var out []inventory.Profile
	for _, p := range c.selected() {
		if p.Has(r) {
			out = append(out, p)
		}
	}
	return out
}

// allProbed reports whether every selected host has facts.
func (c Cluster) allProbed() bool {
	sel := c.selected()
	for _, p := range sel {
		if !p.Probed {
			return false
		}
	}
	return len(sel) > 0
}

// ClusterRule checks one cluster-wide invariant.
type ClusterRule struct {
	Name  string
	Check func(c Cluster, v *Verdict)
}

// DefaultClusterRules is the ordered rule list of the cluster engine.
var DefaultClusterRules = []ClusterRule{
	{Name: "quorum", Check: checkQuorum},
	{Name: "storage-hosts", Check: checkStorageHosts},
	{Name: "collocation", Check: checkCollocation},
	{Name: "device-names", Check: checkDeviceNames},
	{Name: "common-subnet", Check: checkCommonSubnet},
	{Name: "host-errors", Check: checkHostErrors},
}

// ClusterEngine evaluates cluster-wide rules.
type ClusterEngine struct {
	rules []ClusterRule
}

// NewClusterEngine returns an engine running rules in order, or
// DefaultClusterRules when none are given.
func NewClusterEngine(rules ...ClusterRule) *ClusterEngine {
	if len(rules) == 0 {
		rules = DefaultClusterRules
	}
	return &ClusterEngine{rules: rules}
}

// Evaluate runs every rule against the profile set.
func (e *ClusterEngine) Evaluate(profiles []inventory.Profile, mode Mode, source InstallSource) Verdict {
	c := Cluster{Profiles: profiles, Mode: mode, Source: source}
	var v Verdict
	for _, r := range e.rules {
		r.Check(c, &v)
	}
	return v
}

func checkQuorum(c Cluster, v *Verdict) {
	mons := len(c.withRole(inventory.RoleMonitor))
	if c.Mode == ModeProd {
		if !slices.Contains(ProdMonitorCounts, mons) {
			v.Errorf("quorum", "%d mon(s) is invalid for production", mons)
		}
		return
	}
	switch {
	case mons == 0:
		v.Errorf("quorum", "No mons selected")
	case mons%2 == 0:
		v.Errorf("quorum", "#MONs must be odd (%d)", mons)
	}
}

func checkStorageHosts(c Cluster, v *Verdict) {
	if c.Mode != ModeProd {
		return
	}
	if n := len(c.withRole(inventory.RoleStorage)); n < MinProdStorageHosts {
		v.Errorf("storage-hosts", "too few OSD hosts (%d)", n)
	}
}

// checkCollocation allows the implicit monitor/manager pairing everywhere;
// any other multi-role host is unsupported on the vendor channel in
// production.
func checkCollocation(c Cluster, v *Verdict) {
	if c.Mode != ModeProd || c.Source != SourceVendorCDN {
		return
	}
	allowed := inventory.NewRoleSet(inventory.RoleMonitor, inventory.RoleManager)
	var offenders []string
	for _, p := range c.selected() {
		roles := p.Roles.WithImplicit()
		if roles.Len() > 1 && !roles.Equal(allowed) {
			offenders = append(offenders, p.Name)
		}
	}
	if len(offenders) > 0 {
		v.Errorf("collocation", "collocation unsupported (%s)", strings.Join(offenders, ", "))
	}
}

func checkDeviceNames(c Cluster, v *Verdict) {
	if !c.allProbed() {
		return
	}
	storage := c.withRole(inventory.RoleStorage)
	if len(storage) == 0 {
		return
	}
	hdds, ssds := inventory.CommonDevices(storage)
	if slices.ContainsFunc(storage, func(p inventory.Profile) bool { return len(p.HDDs) > 0 }) && len(hdds) == 0 {
		v.Errorf("device-names", "no common HDD device names across OSD hosts")
	}
	if slices.ContainsFunc(storage, func(p inventory.Profile) bool { return len(p.SSDs) > 0 }) && len(ssds) == 0 {
		v.Errorf("device-names", "no common SSD device names across OSD hosts")
	}
}

func checkCommonSubnet(c Cluster, v *Verdict) {
	if !c.allProbed() {
		return
	}
	if len(inventory.CommonSubnets(c.selected())) == 0 {
		v.Errorf("common-subnet", "hosts do not share a common subnet for the public network")
	}
}

func checkHostErrors(c Cluster, v *Verdict) {
	for _, p := range c.selected() {
		if strings.HasPrefix(strings.ToLower(p.Message), "error") {
			v.Errorf("host-errors", "Selected hosts have errors. Resolve, then re-run the check")
			return
		}
	}
}
