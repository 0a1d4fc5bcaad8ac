package main

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

const (
	// testNamespaceLabel selects namespaces the test suites create and own.
	testNamespaceLabel = "odf-gotests=true"

	clusterTagPrefix = "kubernetes.io/cluster/"
)

// protectedNamespaces are never deleted, even when labeled by mistake.
var protectedNamespaces = map[string]bool{
	"default":             true,
	"kube-system":         true,
	"openshift-storage":   true,
	"openshift-config":    true,
	"openshift-operators": true,
}

// deletableNamespaces filters the labeled namespaces down to the ones the
// cleanup is allowed to remove.
func deletableNamespaces(names []string) []string {
	var deletable []string

	for _, name := range names {
		if protectedNamespaces[name] {
			continue
		}

		deletable = append(deletable, name)
	}

	return deletable
}

// terminatableInstances returns the IDs of instances carrying a cluster tag
// whose cluster name starts with the given prefix. Already terminated
// instances are skipped.
func terminatableInstances(instances []ec2types.Instance, prefix string) []string {
	var instanceIDs []string

	for _, instance := range instances {
		if instance.State != nil && instance.State.Name == ec2types.InstanceStateNameTerminated {
			continue
		}

		if !matchesClusterPrefix(instance.Tags, prefix) {
			continue
		}

		instanceIDs = append(instanceIDs, aws.ToString(instance.InstanceId))
	}

	return instanceIDs
}

func matchesClusterPrefix(tags []ec2types.Tag, prefix string) bool {
	if prefix == "" {
		return false
	}

	for _, tag := range tags {
		key := aws.ToString(tag.Key)
		if !strings.HasPrefix(key, clusterTagPrefix) {
			continue
		}

		clusterName := strings.TrimPrefix(key, clusterTagPrefix)
		if strings.HasPrefix(clusterName, prefix) {
			return true
		}
	}

	return false
}
