package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/imamik/cephprobe/internal/inventory"
)

// maxRangeHosts bounds a single range expansion.
const maxRangeHosts = 1024

var rangePattern = regexp.MustCompile(`^([^\[\]]*)\[(\d+)-(\d+)\]([^\[\]]*)$`)

// ExpandHosts expands a host pattern such as "ceph-[1-3]" into
// ceph-1, ceph-2, ceph-3. Names without brackets are returned as is.
// Zero-padded bounds keep their width: "osd[01-03]" gives osd01..osd03.
func ExpandHosts(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty host name")
	}
	m := rangePattern.FindStringSubmatch(pattern)
	if m == nil {
		if strings.ContainsAny(pattern, "[]") {
			return nil, fmt.Errorf("invalid host range %q", pattern)
		}
		return []string{pattern}, nil
	}

	prefix, lo, hi, suffix := m[1], m[2], m[3], m[4]
	start, err := strconv.Atoi(lo)
	if err != nil {
		return nil, fmt.Errorf("invalid host range %q: %w", pattern, err)
	}
	end, err := strconv.Atoi(hi)
	if err != nil {
		return nil, fmt.Errorf("invalid host range %q: %w", pattern, err)
	}
	if end < start {
		return nil, fmt.Errorf("invalid host range %q: %d > %d", pattern, start, end)
	}
	if end-start+1 > maxRangeHosts {
		return nil, fmt.Errorf("host range %q exceeds %d hosts", pattern, maxRangeHosts)
	}

	width := 0
	if len(lo) > 1 && lo[0] == '0' {
		width = len(lo)
	}
	names := make([]string, 0, end-start+1)
	for n := start; n <= end; n++ {
		names = append(names, fmt.Sprintf("%s%0*d%s", prefix, width, n, suffix))
	}
	return names, nil
}

// Inventory builds the candidate host inventory in configuration order.
func (c *Config) Inventory() (*inventory.Inventory, error) {
	inv, err := inventory.New()
	if err != nil {
		return nil, err
	}
	for _, hc := range c.Hosts {
		roles := make([]inventory.Role, 0, len(hc.Roles))
		for _, r := range hc.Roles {
			role, err := inventory.ParseRole(r)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", hc.Name, err)
			}
			roles = append(roles, role)
		}
		names, err := ExpandHosts(hc.Name)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			h, err := inventory.NewHost(name, roles...)
			if err != nil {
				return nil, err
			}
			h.SetSelected(hc.IsSelected())
			if err := inv.Add(h); err != nil {
				return nil, err
			}
		}
	}
	return inv, nil
}
