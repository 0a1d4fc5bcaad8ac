// Package drorder ranks the clusters of a disaster recovery topology into the
// order an upgrade has to walk them: managed clusters before the hub, so the
// hub keeps orchestrating replication while its peers restart.
package drorder

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-version"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Policy selects the DR topology the ranking follows.
type Policy string

const (
	// PolicyMDR ranks a Metro DR topology: secondary clusters, then primary
	// clusters, hub last.
	PolicyMDR Policy = "metro-dr"
	// PolicyRDR ranks a Regional DR topology: managed clusters interleaved
	// across zones, hub last.
	PolicyRDR Policy = "regional-dr"

	// RoleHub marks the ACM hub cluster.
	RoleHub = "hub"
	// RolePrimary marks the cluster currently serving workloads.
	RolePrimary = "primary"
	// RoleSecondary marks the replication target cluster.
	RoleSecondary = "secondary"
)

// Cluster describes one member of the DR topology.
type Cluster struct {
	Name    string
	Zone    string
	Role    string
	Version string
}

// Rank returns the clusters in upgrade order for the given policy. The input
// is never mutated. Within a bucket, clusters running older versions go first
// so the fleet converges upward; ties break by name. A version that does not
// parse demotes that cluster to name ordering.
func Rank(clusters []Cluster, policy Policy) ([]Cluster, error) {
	if len(clusters) == 0 {
		return nil, nil
	}

	var hub *Cluster

	managed := make([]Cluster, 0, len(clusters))

	for _, cluster := range clusters {
		switch cluster.Role {
		case RoleHub:
			if hub != nil {
				return nil, fmt.Errorf("topology has more than one hub: %s and %s", hub.Name, cluster.Name)
			}

			foundHub := cluster
			hub = &foundHub
		case RolePrimary, RoleSecondary:
			managed = append(managed, cluster)
		default:
			return nil, fmt.Errorf("cluster %s has unknown role %q", cluster.Name, cluster.Role)
		}
	}

	var (
		ranked []Cluster
		err    error
	)

	switch policy {
	case PolicyMDR:
		ranked = rankByRole(managed)
	case PolicyRDR:
		ranked = rankByZone(managed)
	default:
		err = fmt.Errorf("unknown ranking policy %q", policy)
	}

	if err != nil {
		return nil, err
	}

	if hub != nil {
		ranked = append(ranked, *hub)
	}

	return ranked, nil
}

// rankByRole orders secondary clusters before primary ones.
func rankByRole(clusters []Cluster) []Cluster {
	buckets := orderedmap.New[string, []Cluster]()
	buckets.Set(RoleSecondary, nil)
	buckets.Set(RolePrimary, nil)

	for _, cluster := range clusters {
		bucket, _ := buckets.Get(cluster.Role)
		buckets.Set(cluster.Role, append(bucket, cluster))
	}

	var ranked []Cluster

	for pair := buckets.Oldest(); pair != nil; pair = pair.Next() {
		sortBucket(pair.Value)
		ranked = append(ranked, pair.Value...)
	}

	return ranked
}

// rankByZone interleaves clusters round-robin across zones so no zone loses
// two clusters back to back.
func rankByZone(clusters []Cluster) []Cluster {
	var zones []string

	seen := map[string]bool{}

	for _, cluster := range clusters {
		if !seen[cluster.Zone] {
			seen[cluster.Zone] = true

			zones = append(zones, cluster.Zone)
		}
	}

	sort.Strings(zones)

	buckets := orderedmap.New[string, []Cluster]()
	for _, zone := range zones {
		buckets.Set(zone, nil)
	}

	for _, cluster := range clusters {
		bucket, _ := buckets.Get(cluster.Zone)
		buckets.Set(cluster.Zone, append(bucket, cluster))
	}

	remaining := len(clusters)

	var ranked []Cluster

	for index := 0; remaining > 0; index++ {
		for pair := buckets.Oldest(); pair != nil; pair = pair.Next() {
			if index == 0 {
				sortBucket(pair.Value)
			}

			if index < len(pair.Value) {
				ranked = append(ranked, pair.Value[index])
				remaining--
			}
		}
	}

	return ranked
}

func sortBucket(bucket []Cluster) {
	sort.SliceStable(bucket, func(first, second int) bool {
		firstVersion, firstErr := version.NewVersion(bucket[first].Version)
		secondVersion, secondErr := version.NewVersion(bucket[second].Version)

		if firstErr == nil && secondErr == nil && !firstVersion.Equal(secondVersion) {
			return firstVersion.LessThan(secondVersion)
		}

		return bucket[first].Name < bucket[second].Name
	})
}
