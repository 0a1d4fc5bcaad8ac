package main

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
)

// fakeEC2 serves the instance list on unfiltered describes and reports the
// requested instances as terminated on the waiter's filtered describes.
type fakeEC2 struct {
	mutex      sync.Mutex
	instances  []ec2types.Instance
	failIDs    map[string]bool
	terminated []string
}

func (fake *fakeEC2) DescribeInstances(
	_ context.Context, params *ec2.DescribeInstancesInput,
	_ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	if len(params.InstanceIds) == 0 {
		return &ec2.DescribeInstancesOutput{
			Reservations: []ec2types.Reservation{{Instances: fake.instances}},
		}, nil
	}

	var instances []ec2types.Instance
	for _, instanceID := range params.InstanceIds {
		instances = append(instances, ec2types.Instance{
			InstanceId: aws.String(instanceID),
			State:      &ec2types.InstanceState{Name: ec2types.InstanceStateNameTerminated},
		})
	}

	return &ec2.DescribeInstancesOutput{
		Reservations: []ec2types.Reservation{{Instances: instances}},
	}, nil
}

func (fake *fakeEC2) TerminateInstances(
	_ context.Context, params *ec2.TerminateInstancesInput,
	_ ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	instanceID := params.InstanceIds[0]

	if fake.failIDs[instanceID] {
		return nil, fmt.Errorf("api error on %s", instanceID)
	}

	fake.mutex.Lock()
	defer fake.mutex.Unlock()

	fake.terminated = append(fake.terminated, instanceID)

	return &ec2.TerminateInstancesOutput{}, nil
}

func setSweepFlags(t *testing.T, clusterPrefix string) {
	t.Helper()

	oldPrefix, oldDryRun, oldParallel := prefix, dryRun, parallel
	prefix, dryRun, parallel = clusterPrefix, false, 2

	t.Cleanup(func() {
		prefix, dryRun, parallel = oldPrefix, oldDryRun, oldParallel
	})
}

func TestSweepInstancesTerminatesAndWaits(t *testing.T) {
	setSweepFlags(t, "odfci-")

	fake := &fakeEC2{
		instances: []ec2types.Instance{
			taggedInstance("i-1", "odfci-run1", ec2types.InstanceStateNameRunning),
			taggedInstance("i-2", "odfci-run2", ec2types.InstanceStateNameRunning),
			taggedInstance("i-3", "prod-cluster", ec2types.InstanceStateNameRunning),
		},
	}

	err := sweepInstances(context.Background(), fake)

	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"i-1", "i-2"}, fake.terminated)
}

func TestSweepInstancesCollectsEveryFailure(t *testing.T) {
	setSweepFlags(t, "odfci-")

	fake := &fakeEC2{
		instances: []ec2types.Instance{
			taggedInstance("i-1", "odfci-run1", ec2types.InstanceStateNameRunning),
			taggedInstance("i-2", "odfci-run2", ec2types.InstanceStateNameRunning),
			taggedInstance("i-3", "odfci-run3", ec2types.InstanceStateNameRunning),
		},
		failIDs: map[string]bool{"i-1": true, "i-3": true},
	}

	err := sweepInstances(context.Background(), fake)

	assert.Error(t, err)
	assert.ErrorContains(t, err, "failed to terminate instance i-1")
	assert.ErrorContains(t, err, "failed to terminate instance i-3")

	// The healthy instance still gets terminated despite the failures around it.
	assert.Equal(t, []string{"i-2"}, fake.terminated)
}
