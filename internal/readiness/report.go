package readiness

import (
	"time"

	"github.com/google/uuid"

	"github.com/imamik/cephprobe/internal/inventory"
	"github.com/imamik/cephprobe/internal/probe"
	"github.com/imamik/cephprobe/internal/rules"
)

// Report is the result of one readiness run. It carries everything a
// deployment executor needs: the selected hosts with their roles and
// derived inventory, the proposed networks and the common device lists.
type Report struct {
	ID          string              `json:"id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Mode        rules.Mode          `json:"mode"`
	Source      rules.InstallSource `json:"installation_source"`

	Hosts   []HostReport          `json:"hosts"`
	Cluster Verdict               `json:"cluster"`
	Network inventory.NetworkPlan `json:"network"`
	Devices Devices               `json:"devices"`

	Access probe.Counts `json:"access"`
	Facts  probe.Counts `json:"facts"`
}

// Verdict is a rendered rule verdict.
type Verdict struct {
	State    inventory.State `json:"state"`
	Message  string          `json:"message,omitempty"`
	Problems []rules.Problem `json:"problems,omitempty"`
}

func renderVerdict(v rules.Verdict) Verdict {
	return Verdict{State: v.State(), Message: v.Message(), Problems: v.Problems}
}

// HasErrors reports whether any problem is an error.
func (v Verdict) HasErrors() bool {
	for _, p := range v.Problems {
		if p.Severity == rules.SeverityError {
			return true
		}
	}
	return false
}

// Devices are the free device names shared by every storage host.
type Devices struct {
	HDDs []string `json:"hdds"`
	SSDs []string `json:"ssds"`
}

// HostReport is the per-host section of a Report.
type HostReport struct {
	Name          string          `json:"name"`
	Roles         []string        `json:"roles"`
	RoleTypes     string          `json:"role_types"`
	Selected      bool            `json:"selected"`
	Probed        bool            `json:"probed"`
	Access        string          `json:"access"`
	Cores         int             `json:"cores"`
	MemoryMB      int             `json:"memory_mb"`
	NICCount      int             `json:"nic_count"`
	HDDs          []string        `json:"hdds"`
	SSDs          []string        `json:"ssds"`
	CapacityBytes uint64          `json:"capacity_bytes"`
	Subnets       []string        `json:"subnets"`
	NICs          []inventory.NIC `json:"nics,omitempty"`
	Verdict       Verdict         `json:"verdict"`
}

// Ready reports whether deployment can proceed: the cluster verdict has no
// errors. Host errors on selected hosts surface as a cluster error.
func (r *Report) Ready() bool { return !r.Cluster.HasErrors() }

// SelectedHosts returns the selected hosts in inventory order.
func (r *Report) SelectedHosts() []HostReport {
	var out []HostReport
	for _, h := range r.Hosts {
		if h.Selected {
			out = append(out, h)
		}
	}
	return out
}

// caller holds c.mu.
func newReport(c *Checker, profiles []inventory.Profile, hostVerdicts map[string]rules.Verdict, cluster rules.Verdict) *Report {
	r := &Report{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Mode:        c.opts.Mode,
		Source:      c.opts.Source,
		Cluster:     renderVerdict(cluster),
		Network:     inventory.PlanNetworks(profiles),
		Access:      c.accessCount,
		Facts:       c.factsCount,
	}

	var storage []inventory.Profile
	for _, p := range profiles {
		access := "-"
		if res, ok := c.access[p.Name]; ok {
			access = res.Status.String()
		}
		r.Hosts = append(r.Hosts, HostReport{
			Name:          p.Name,
			Roles:         p.Roles.Strings(),
			RoleTypes:     p.RoleTypes(),
			Selected:      p.Selected,
			Probed:        p.Probed,
			Access:        access,
			Cores:         p.Cores,
			MemoryMB:      p.MemoryMB,
			NICCount:      p.NICCount,
			HDDs:          p.HDDs,
			SSDs:          p.SSDs,
			CapacityBytes: p.CapacityBytes,
			Subnets:       p.Subnets,
			NICs:          p.NICs,
			Verdict:       renderVerdict(hostVerdicts[p.Name]),
		})
		if p.Selected && p.Probed && p.Has(inventory.RoleStorage) {
			storage = append(storage, p)
		}
	}
	r.Devices.HDDs, r.Devices.SSDs = inventory.CommonDevices(storage)
	return r
}
