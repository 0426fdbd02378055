package inventory

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	// ErrDuplicateHost is returned when a hostname is added twice.
	ErrDuplicateHost = errors.New("host already in inventory")
	// ErrUnknownHost is returned for operations on a hostname not in the inventory.
	ErrUnknownHost = errors.New("host not in inventory")
)

// Inventory is the ordered set of candidate hosts. Insertion order is the
// display and evaluation order.
type Inventory struct {
	mu    sync.RWMutex
	order []string
	hosts map[string]*Host
}

// New returns an inventory holding the given hosts.
func New(hosts ...*Host) (*Inventory, error) {
	inv := &Inventory{hosts: make(map[string]*Host, len(hosts))}
	for _, h := range hosts {
		if err := inv.Add(h); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

// Add appends a host.
func (inv *Inventory) Add(h *Host) error {
	if h == nil {
		return fmt.Errorf("host cannot be nil")
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.hosts == nil {
		inv.hosts = make(map[string]*Host)
	}
	if _, ok := inv.hosts[h.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateHost, h.Name())
	}
	inv.hosts[h.Name()] = h
	inv.order = append(inv.order, h.Name())
	return nil
}

// Remove deletes a host.
func (inv *Inventory) Remove(name string) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if _, ok := inv.hosts[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHost, name)
	}
	delete(inv.hosts, name)
	inv.order = slices.DeleteFunc(inv.order, func(n string) bool { return n == name })
	return nil
}

// Get returns the named host.
func (inv *Inventory) Get(name string) (*Host, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	h, ok := inv.hosts[name]
	return h, ok
}

// Len returns the number of hosts.
func (inv *Inventory) Len() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return len(inv.order)
}

// Hosts returns all hosts in insertion order.
func (inv *Inventory) Hosts() []*Host {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make([]*Host, 0, len(inv.order))
	for _, name := range inv.order {
		out = append(out, inv.hosts[name])
	}
	return out
}

// Names returns all hostnames in insertion order.
func (inv *Inventory) Names() []string {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return slices.Clone(inv.order)
}

// Selected returns the selected hosts in insertion order.
func (inv *Inventory) Selected() []*Host {
	var out []*Host
	for _, h := range inv.Hosts() {
		if h.Selected() {
			out = append(out, h)
		}
	}
	return out
}

// Profiles snapshots every host in insertion order.
func (inv *Inventory) Profiles() []Profile {
	hosts := inv.Hosts()
	out := make([]Profile, len(hosts))
	for i, h := range hosts {
		out[i] = h.Snapshot()
	}
	return out
}
