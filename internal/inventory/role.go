package inventory

import (
	"fmt"
	"slices"
	"strings"
)

// Role is a cluster daemon placement.
type Role string

const (
	RoleMonitor  Role = "mon"
	RoleStorage  Role = "osd"
	RoleGateway  Role = "rgw"
	RoleMetadata Role = "mds"
	RoleManager  Role = "mgr"
)

// AssignableRoles are the roles an operator picks per host, in display order.
var AssignableRoles = []Role{RoleMonitor, RoleStorage, RoleGateway, RoleMetadata}

var roleAbbrev = map[Role]string{
	RoleMonitor:  "M",
	RoleStorage:  "O",
	RoleGateway:  "R",
	RoleMetadata: "F",
}

var roleOrder = map[Role]int{
	RoleMonitor:  0,
	RoleStorage:  1,
	RoleGateway:  2,
	RoleMetadata: 3,
	RoleManager:  4,
}

// ParseRole accepts the short daemon names and a few long aliases.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mon", "monitor":
		return RoleMonitor, nil
	case "osd", "storage":
		return RoleStorage, nil
	case "rgw", "gateway":
		return RoleGateway, nil
	case "mds", "metadata":
		return RoleMetadata, nil
	case "mgr", "manager":
		return RoleManager, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// RoleSet is an ordered, duplicate-free set of roles.
type RoleSet []Role

// NewRoleSet normalizes roles into canonical order without duplicates.
func NewRoleSet(roles ...Role) RoleSet {
	out := make(RoleSet, 0, len(roles))
	for _, r := range roles {
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b Role) int { return roleOrder[a] - roleOrder[b] })
	return out
}

// Has reports whether r is in the set.
func (s RoleSet) Has(r Role) bool { return slices.Contains(s, r) }

// Len returns the number of roles.
func (s RoleSet) Len() int { return len(s) }

// Equal reports whether both sets hold the same roles.
func (s RoleSet) Equal(other RoleSet) bool {
	return slices.Equal(NewRoleSet(s...), NewRoleSet(other...))
}

// WithImplicit returns the set with the manager role added wherever a
// monitor is placed; managers are always colocated with monitors.
func (s RoleSet) WithImplicit() RoleSet {
	if s.Has(RoleMonitor) && !s.Has(RoleManager) {
		return NewRoleSet(append(slices.Clone(s), RoleManager)...)
	}
	return NewRoleSet(s...)
}

// Abbrev renders one character per assignable role, '.' when absent,
// e.g. "MO.." for a monitor + storage host.
func (s RoleSet) Abbrev() string {
	var b strings.Builder
	for _, r := range AssignableRoles {
		if s.Has(r) {
			b.WriteString(roleAbbrev[r])
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// Strings returns the role names.
func (s RoleSet) Strings() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = string(r)
	}
	return out
}

func (s RoleSet) String() string { return strings.Join(s.Strings(), ",") }
