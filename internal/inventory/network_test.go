package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommonSubnets(t *testing.T) {
	t.Parallel()

	profiles := []Profile{
		{Subnets: []string{"10.0.0.0/24", "10.1.0.0/24"}},
		{Subnets: []string{"10.1.0.0/24", "10.0.0.0/24", "10.2.0.0/24"}},
		{Subnets: []string{"10.0.0.0/24"}},
	}
	assert.Equal(t, []string{"10.0.0.0/24"}, CommonSubnets(profiles))
	assert.Nil(t, CommonSubnets(nil))
	assert.Nil(t, CommonSubnets([]Profile{{Subnets: []string{"a"}}, {Subnets: []string{"b"}}}))
}

func TestCommonDevices(t *testing.T) {
	t.Parallel()

	hdds, ssds := CommonDevices([]Profile{
		{HDDs: []string{"sdb", "sdc"}, SSDs: []string{"nvme0n1"}},
		{HDDs: []string{"sdc", "sdb", "sdd"}},
	})
	assert.Equal(t, []string{"sdb", "sdc"}, hdds)
	assert.Nil(t, ssds)
}

func TestPlanNetworks(t *testing.T) {
	t.Parallel()

	mon := Profile{Name: "m", Roles: RoleSet{RoleMonitor}, Selected: true, Probed: true,
		Subnets: []string{"10.0.0.0/24"}}
	osd1 := Profile{Name: "o1", Roles: RoleSet{RoleStorage}, Selected: true, Probed: true,
		Subnets: []string{"10.0.0.0/24", "10.9.0.0/24"}}
	osd2 := Profile{Name: "o2", Roles: RoleSet{RoleStorage}, Selected: true, Probed: true,
		Subnets: []string{"10.0.0.0/24", "10.9.0.0/24"}}
	excluded := Profile{Name: "x", Roles: RoleSet{RoleStorage}, Selected: false, Probed: true}

	plan := PlanNetworks([]Profile{mon, osd1, osd2, excluded})
	assert.Equal(t, []string{"10.0.0.0/24"}, plan.Public)
	assert.Equal(t, []string{"10.9.0.0/24"}, plan.Cluster)

	osd2.Subnets = []string{"10.0.0.0/24"}
	osd1.Subnets = []string{"10.0.0.0/24"}
	plan = PlanNetworks([]Profile{mon, osd1})
	assert.Equal(t, []string{"10.0.0.0/24"}, plan.Cluster, "falls back to the public network")

	plan = PlanNetworks([]Profile{mon})
	assert.Equal(t, plan.Public, plan.Cluster)
}
