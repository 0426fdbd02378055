package inventory

import "sort"

// CommonSubnets returns the subnets present on every given profile, sorted.
// An empty input yields nil.
func CommonSubnets(profiles []Profile) []string {
	sets := make([][]string, len(profiles))
	for i, p := range profiles {
		sets[i] = p.Subnets
	}
	return intersect(sets)
}

// CommonDevices returns the free HDD and SSD names present on every given
// profile.
func CommonDevices(profiles []Profile) (hdds, ssds []string) {
	hddSets := make([][]string, len(profiles))
	ssdSets := make([][]string, len(profiles))
	for i, p := range profiles {
		hddSets[i] = p.HDDs
		ssdSets[i] = p.SSDs
	}
	return intersect(hddSets), intersect(ssdSets)
}

// NetworkPlan is the proposed public and cluster network for a deployment.
type NetworkPlan struct {
	Public  []string `json:"public"`
	Cluster []string `json:"cluster"`
}

// PlanNetworks derives the public networks from the subnets shared by all
// selected, probed hosts and the cluster networks from those shared by the
// storage hosts among them. Without storage hosts, or when they share
// nothing, the cluster network falls back to the public one.
func PlanNetworks(profiles []Profile) NetworkPlan {
	var selected, storage []Profile
	for _, p := range profiles {
		if !p.Selected || !p.Probed {
			continue
		}
		selected = append(selected, p)
		if p.Has(RoleStorage) {
			storage = append(storage, p)
		}
	}

	plan := NetworkPlan{Public: CommonSubnets(selected)}
	plan.Cluster = CommonSubnets(storage)
	if len(plan.Cluster) == 0 {
		plan.Cluster = plan.Public
	}
	return plan
}

func intersect(sets [][]string) []string {
	if len(sets) == 0 {
		return nil
	}
	counts := map[string]int{}
	for _, set := range sets {
		seen := map[string]bool{}
		for _, v := range set {
			if !seen[v] {
				seen[v] = true
				counts[v]++
			}
		}
	}
	var out []string
	for v, n := range counts {
		if n == len(sets) {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
