package inventory

import (
	"fmt"
	"net"
	"slices"
	"sort"
	"strings"
	"sync"
)

// nicBandwidth maps NIC drivers to a bandwidth class in Gb/s.
// Unknown drivers count as class 1.
var nicBandwidth = map[string]int{
	"ixgbe":     10,
	"i40e":      40,
	"cxgb":      10,
	"cxgb4":     10,
	"bnx2x":     10,
	"mlx4_core": 10,
	"mlx5_core": 40,
}

const defaultBandwidth = 1

// virtualDevicePrefixes are block devices that can never be a free disk.
var virtualDevicePrefixes = []string{"dm-", "md", "loop", "ram", "zram", "sr"}

// BandwidthClass returns the bandwidth class for a NIC driver.
func BandwidthClass(driver string) int {
	if gb, ok := nicBandwidth[driver]; ok {
		return gb
	}
	return defaultBandwidth
}

// NIC is a network interface with an active IPv4 configuration.
type NIC struct {
	Name      string `json:"name"`
	Network   string `json:"network"`
	Driver    string `json:"driver,omitempty"`
	Bandwidth int    `json:"bandwidth_gb"`
}

// derived holds everything computed by Ingest.
type derived struct {
	cores    int
	memoryMB int
	hdds     []string
	ssds     []string
	capacity uint64
	nics     []NIC
	nicCount int
	subnets  []string
}

// Host is one candidate machine. Its methods are safe for concurrent use.
type Host struct {
	name string

	mu       sync.RWMutex
	roles    RoleSet
	selected bool
	facts    *Facts
	derived  *derived
	state    State
	message  string
}

// NewHost returns an unprobed, selected host.
func NewHost(name string, roles ...Role) (*Host, error) {
	if err := validateHostname(name); err != nil {
		return nil, err
	}
	return &Host{name: name, roles: NewRoleSet(roles...), selected: true}, nil
}

func validateHostname(name string) error {
	if name == "" {
		return fmt.Errorf("hostname cannot be empty")
	}
	if strings.ContainsFunc(name, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' }) {
		return fmt.Errorf("hostname %q contains whitespace", name)
	}
	return nil
}

// Name returns the hostname.
func (h *Host) Name() string { return h.name }

// Roles returns the declared roles.
func (h *Host) Roles() RoleSet {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.roles)
}

// SetRoles replaces the declared roles and resets the readiness state,
// since the verdict depends on roles.
func (h *Host) SetRoles(roles ...Role) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roles = NewRoleSet(roles...)
	h.state, h.message = State{}, ""
}

// Selected reports whether the host takes part in the deployment.
func (h *Host) Selected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.selected
}

// SetSelected includes or excludes the host without removing it.
func (h *Host) SetSelected(selected bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.selected = selected
}

// Probed reports whether facts have been ingested.
func (h *Host) Probed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.derived != nil
}

// Facts returns the last ingested facts, or nil.
func (h *Host) Facts() *Facts {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.facts
}

// State returns the readiness state and diagnostic message.
func (h *Host) State() (State, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state, h.message
}

// SetState records a readiness verdict.
func (h *Host) SetState(state State, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state, h.message = state, message
}

// Ingest validates facts and replaces all derived fields. On error the host
// returns to the unprobed state; stale numbers from an earlier probe are
// never kept.
func (h *Host) Ingest(f *Facts) error {
	d, err := derive(f)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.facts, h.derived = nil, nil
		return fmt.Errorf("%s: %w", h.name, err)
	}
	h.facts, h.derived = f, d
	h.state, h.message = State{}, ""
	return nil
}

// Reset drops facts and verdict, as before the first probe.
func (h *Host) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.facts, h.derived = nil, nil
	h.state, h.message = State{}, ""
}

func derive(f *Facts) (*derived, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	d := &derived{
		cores:    f.ProcessorCount * f.ThreadsPerCore * f.CoresPerProcessor,
		memoryMB: f.MemoryMB,
	}

	for _, id := range sortedKeys(f.Devices) {
		dev := f.Devices[id]
		if !isFreeDisk(id, dev) {
			continue
		}
		if dev.Rotational {
			d.hdds = append(d.hdds, id)
		} else {
			d.ssds = append(d.ssds, id)
		}
		d.capacity += dev.SizeBytes()
	}

	subnets := map[string]struct{}{}
	for _, iface := range f.Interfaces {
		if isLoopback(iface.Name) {
			continue
		}
		d.nicCount++
		if iface.IPv4 == nil || !iface.Active {
			continue
		}
		network, err := cidr(iface.IPv4.Network, iface.IPv4.Netmask)
		if err != nil {
			return nil, fmt.Errorf("%w: interface %s: %v", ErrInvalidFacts, iface.Name, err)
		}
		subnets[network] = struct{}{}
		d.nics = append(d.nics, NIC{
			Name:      iface.Name,
			Network:   network,
			Driver:    iface.Driver,
			Bandwidth: BandwidthClass(iface.Driver),
		})
	}
	sort.Slice(d.nics, func(i, j int) bool { return d.nics[i].Name < d.nics[j].Name })
	d.subnets = sortedKeys(subnets)

	return d, nil
}

// isFreeDisk excludes virtual devices and disks that are partitioned, held
// by LVM/device-mapper or part of a software RAID array.
func isFreeDisk(id string, dev BlockDevice) bool {
	for _, prefix := range virtualDevicePrefixes {
		if strings.HasPrefix(id, prefix) {
			return false
		}
	}
	return len(dev.Partitions) == 0 && len(dev.Holders) == 0 && len(dev.Masters) == 0
}

func isLoopback(name string) bool {
	return name == "lo" || strings.HasPrefix(name, "lo:")
}

// cidr converts a network address and dotted-quad netmask to CIDR notation.
func cidr(network, netmask string) (string, error) {
	ip := net.ParseIP(network).To4()
	if ip == nil {
		return "", fmt.Errorf("invalid network address %q", network)
	}
	mask := net.ParseIP(netmask).To4()
	if mask == nil {
		return "", fmt.Errorf("invalid netmask %q", netmask)
	}
	ones, bits := net.IPMask(mask).Size()
	if bits == 0 {
		return "", fmt.Errorf("non-contiguous netmask %q", netmask)
	}
	return fmt.Sprintf("%s/%d", ip.Mask(net.IPMask(mask)), ones), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
