package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"
)

const terminateWaitTimeout = 10 * time.Minute

// ec2API is the EC2 surface the cleanup needs. ec2.Client satisfies it.
type ec2API interface {
	ec2.DescribeInstancesAPIClient
	TerminateInstances(
		ctx context.Context,
		params *ec2.TerminateInstancesInput,
		optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
}

// cleanupInstances terminates every EC2 instance whose cluster tag matches the
// configured prefix and waits until they reach the terminated state.
func cleanupInstances(ctx context.Context) error {
	var loadOptions []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOptions = append(loadOptions, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sweepInstances(ctx, ec2.NewFromConfig(cfg))
}

// sweepInstances attempts every matching instance even when some terminations
// fail and returns the collected errors joined together.
func sweepInstances(ctx context.Context, ec2Client ec2API) error {
	instances, err := listAllInstances(ctx, ec2Client)
	if err != nil {
		return err
	}

	instanceIDs := terminatableInstances(instances, prefix)
	if len(instanceIDs) == 0 {
		glog.V(100).Infof("No instances matching cluster prefix %q found", prefix)

		return nil
	}

	glog.V(100).Infof("Terminating %d instances matching cluster prefix %q", len(instanceIDs), prefix)

	if dryRun {
		for _, instanceID := range instanceIDs {
			fmt.Printf("would terminate instance %s\n", instanceID)
		}

		return nil
	}

	terminated, errs := terminateInstances(ctx, ec2Client, instanceIDs)

	if len(terminated) > 0 {
		glog.V(100).Infof("Waiting for %d instances to reach the terminated state", len(terminated))

		waiter := ec2.NewInstanceTerminatedWaiter(ec2Client)

		err = waiter.Wait(ctx, &ec2.DescribeInstancesInput{
			InstanceIds: terminated,
		}, terminateWaitTimeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("instances never reached the terminated state: %w", err))
		}
	}

	return errors.Join(errs...)
}

// terminateInstances issues the terminations bounded by the parallel flag.
// Each instance reports its own error; one failure does not stop the rest.
func terminateInstances(ctx context.Context, ec2Client ec2API, instanceIDs []string) ([]string, []error) {
	var (
		mutex      sync.Mutex
		terminated []string
		errs       []error
	)

	var errGroup errgroup.Group
	errGroup.SetLimit(parallel)

	for _, instanceID := range instanceIDs {
		terminatedID := instanceID

		errGroup.Go(func() error {
			glog.V(100).Infof("Terminating instance %s", terminatedID)

			_, err := ec2Client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
				InstanceIds: []string{terminatedID},
			})

			mutex.Lock()
			defer mutex.Unlock()

			if err != nil {
				errs = append(errs, fmt.Errorf("failed to terminate instance %s: %w", terminatedID, err))

				return nil
			}

			terminated = append(terminated, terminatedID)

			return nil
		})
	}

	_ = errGroup.Wait()

	return terminated, errs
}

func listAllInstances(ctx context.Context, ec2Client ec2API) ([]ec2types.Instance, error) {
	var (
		instances []ec2types.Instance
		nextToken *string
	)

	for {
		output, err := ec2Client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to describe instances: %w", err)
		}

		for _, reservation := range output.Reservations {
			instances = append(instances, reservation.Instances...)
		}

		nextToken = output.NextToken
		if aws.ToString(nextToken) == "" {
			return instances, nil
		}
	}
}
