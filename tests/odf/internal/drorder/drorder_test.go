package drorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rankedNames(clusters []Cluster) []string {
	var names []string
	for _, cluster := range clusters {
		names = append(names, cluster.Name)
	}

	return names
}

func TestRankEmpty(t *testing.T) {
	ranked, err := Rank(nil, PolicyMDR)

	assert.Nil(t, err)
	assert.Empty(t, ranked)
}

func TestRankMDR(t *testing.T) {
	clusters := []Cluster{
		{Name: "hub", Role: RoleHub, Version: "4.16.2"},
		{Name: "prod-east", Role: RolePrimary, Version: "4.16.2"},
		{Name: "prod-west", Role: RoleSecondary, Version: "4.16.1"},
		{Name: "dr-site", Role: RoleSecondary, Version: "4.15.8"},
	}

	ranked, err := Rank(clusters, PolicyMDR)

	assert.Nil(t, err)
	assert.Equal(t, []string{"dr-site", "prod-west", "prod-east", "hub"}, rankedNames(ranked))
}

func TestRankMDRTiesBreakByName(t *testing.T) {
	clusters := []Cluster{
		{Name: "beta", Role: RoleSecondary, Version: "4.16.0"},
		{Name: "alpha", Role: RoleSecondary, Version: "4.16.0"},
	}

	ranked, err := Rank(clusters, PolicyMDR)

	assert.Nil(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, rankedNames(ranked))
}

func TestRankUnparseableVersionFallsBackToName(t *testing.T) {
	clusters := []Cluster{
		{Name: "zulu", Role: RoleSecondary, Version: "4.14.0"},
		{Name: "alpha", Role: RoleSecondary, Version: "not-a-version"},
	}

	ranked, err := Rank(clusters, PolicyMDR)

	assert.Nil(t, err)
	assert.Equal(t, []string{"alpha", "zulu"}, rankedNames(ranked))
}

func TestRankRDRInterleavesZones(t *testing.T) {
	clusters := []Cluster{
		{Name: "east-1", Zone: "us-east", Role: RolePrimary, Version: "4.16.0"},
		{Name: "east-2", Zone: "us-east", Role: RoleSecondary, Version: "4.16.0"},
		{Name: "west-1", Zone: "us-west", Role: RoleSecondary, Version: "4.16.0"},
		{Name: "hub", Zone: "us-central", Role: RoleHub, Version: "4.16.0"},
	}

	ranked, err := Rank(clusters, PolicyRDR)

	assert.Nil(t, err)
	assert.Equal(t, []string{"east-1", "west-1", "east-2", "hub"}, rankedNames(ranked))
}

func TestRankMultipleHubs(t *testing.T) {
	clusters := []Cluster{
		{Name: "hub-1", Role: RoleHub, Version: "4.16.0"},
		{Name: "hub-2", Role: RoleHub, Version: "4.16.0"},
	}

	ranked, err := Rank(clusters, PolicyMDR)

	assert.Nil(t, ranked)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "more than one hub")
}

func TestRankUnknownRole(t *testing.T) {
	clusters := []Cluster{
		{Name: "prod", Role: "observer", Version: "4.16.0"},
	}

	ranked, err := Rank(clusters, PolicyMDR)

	assert.Nil(t, ranked)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), `unknown role "observer"`)
}

func TestRankUnknownPolicy(t *testing.T) {
	clusters := []Cluster{
		{Name: "prod", Role: RolePrimary, Version: "4.16.0"},
	}

	ranked, err := Rank(clusters, Policy("stretch"))

	assert.Nil(t, ranked)
	assert.NotNil(t, err)
}
