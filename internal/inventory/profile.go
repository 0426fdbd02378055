package inventory

import "slices"

// Profile is an immutable snapshot of a host, the input to rule evaluation.
type Profile struct {
	Name     string
	Roles    RoleSet
	Selected bool
	Probed   bool
	State    State
	Message  string

	Cores         int
	MemoryMB      int
	HDDs          []string
	SSDs          []string
	CapacityBytes uint64
	NICs          []NIC
	NICCount      int
	Subnets       []string
}

// Snapshot copies the host's current roles and derived figures.
func (h *Host) Snapshot() Profile {
	h.mu.RLock()
	defer h.mu.RUnlock()

	p := Profile{
		Name:     h.name,
		Roles:    slices.Clone(h.roles),
		Selected: h.selected,
		Probed:   h.derived != nil,
		State:    h.state,
		Message:  h.message,
	}
	if d := h.derived; d != nil {
		p.Cores = d.cores
		p.MemoryMB = d.memoryMB
		p.HDDs = slices.Clone(d.hdds)
		p.SSDs = slices.Clone(d.ssds)
		p.CapacityBytes = d.capacity
		p.NICs = slices.Clone(d.nics)
		p.NICCount = d.nicCount
		p.Subnets = slices.Clone(d.subnets)
	}
	return p
}

// Has reports whether the host carries role r, counting implicit roles.
func (p Profile) Has(r Role) bool { return p.Roles.WithImplicit().Has(r) }

// DiskCount is the larger of the free HDD and SSD counts.
func (p Profile) DiskCount() int { return max(len(p.HDDs), len(p.SSDs)) }

// Bandwidth sums the bandwidth classes of all IPv4-configured NICs.
func (p Profile) Bandwidth() int {
	total := 0
	for _, nic := range p.NICs {
		total += nic.Bandwidth
	}
	return total
}

// RoleTypes renders the role abbreviation, e.g. "MO..".
func (p Profile) RoleTypes() string { return p.Roles.Abbrev() }
