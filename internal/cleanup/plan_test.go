package main

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
)

func taggedInstance(id, clusterName string, state ec2types.InstanceStateName) ec2types.Instance {
	return ec2types.Instance{
		InstanceId: aws.String(id),
		State:      &ec2types.InstanceState{Name: state},
		Tags: []ec2types.Tag{
			{
				Key:   aws.String(clusterTagPrefix + clusterName),
				Value: aws.String("owned"),
			},
		},
	}
}

func TestDeletableNamespaces(t *testing.T) {
	names := []string{"odf-pvc-tests", "default", "openshift-storage", "odf-mcg-tests"}

	deletable := deletableNamespaces(names)

	assert.Equal(t, []string{"odf-pvc-tests", "odf-mcg-tests"}, deletable)
}

func TestTerminatableInstances(t *testing.T) {
	instances := []ec2types.Instance{
		taggedInstance("i-1", "odfci-run1-abcde", ec2types.InstanceStateNameRunning),
		taggedInstance("i-2", "odfci-run2-fghij", ec2types.InstanceStateNameStopped),
		taggedInstance("i-3", "odfci-run1-abcde", ec2types.InstanceStateNameTerminated),
		taggedInstance("i-4", "prod-cluster", ec2types.InstanceStateNameRunning),
		{
			InstanceId: aws.String("i-5"),
			State:      &ec2types.InstanceState{Name: ec2types.InstanceStateNameRunning},
		},
	}

	instanceIDs := terminatableInstances(instances, "odfci-")

	assert.Equal(t, []string{"i-1", "i-2"}, instanceIDs)
}

func TestTerminatableInstancesEmptyPrefix(t *testing.T) {
	instances := []ec2types.Instance{
		taggedInstance("i-1", "odfci-run1", ec2types.InstanceStateNameRunning),
	}

	assert.Empty(t, terminatableInstances(instances, ""))
}
