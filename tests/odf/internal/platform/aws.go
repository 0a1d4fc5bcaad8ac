package platform

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/golang/glog"
)

// AWSProvider drives node power state through the EC2 API. Node names map to
// instances by their private DNS name, which OCP uses as the node name on AWS.
type AWSProvider struct {
	ec2Client *ec2.Client
}

// NewAWSProvider builds an AWSProvider from the ambient AWS credential chain.
func NewAWSProvider(ctx context.Context) (*AWSProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &AWSProvider{ec2Client: ec2.NewFromConfig(cfg)}, nil
}

// PowerOff powers off the instance backing the node.
func (provider *AWSProvider) PowerOff(ctx context.Context, nodeName string) error {
	instanceID, err := provider.instanceID(ctx, nodeName)
	if err != nil {
		return err
	}

	glog.V(90).Infof("Stopping EC2 instance %s backing node %s", instanceID, nodeName)

	_, err = provider.ec2Client.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{instanceID},
	})

	return err
}

// PowerOn powers on the instance backing the node.
func (provider *AWSProvider) PowerOn(ctx context.Context, nodeName string) error {
	instanceID, err := provider.instanceID(ctx, nodeName)
	if err != nil {
		return err
	}

	glog.V(90).Infof("Starting EC2 instance %s backing node %s", instanceID, nodeName)

	_, err = provider.ec2Client.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{instanceID},
	})

	return err
}

// Status returns the power state of the instance backing the node.
func (provider *AWSProvider) Status(ctx context.Context, nodeName string) (NodeState, error) {
	instance, err := provider.findInstance(ctx, nodeName)
	if err != nil {
		return StateUnknown, err
	}

	switch instance.State.Name {
	case ec2types.InstanceStateNameRunning:
		return StateRunning, nil
	case ec2types.InstanceStateNameStopped:
		return StateStopped, nil
	default:
		return StateUnknown, nil
	}
}

func (provider *AWSProvider) instanceID(ctx context.Context, nodeName string) (string, error) {
	instance, err := provider.findInstance(ctx, nodeName)
	if err != nil {
		return "", err
	}

	return aws.ToString(instance.InstanceId), nil
}

func (provider *AWSProvider) findInstance(ctx context.Context, nodeName string) (*ec2types.Instance, error) {
	output, err := provider.ec2Client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{
				Name:   aws.String("private-dns-name"),
				Values: []string{nodeName},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe instance for node %s: %w", nodeName, err)
	}

	for _, reservation := range output.Reservations {
		for _, instance := range reservation.Instances {
			foundInstance := instance

			return &foundInstance, nil
		}
	}

	return nil, fmt.Errorf("no EC2 instance found for node %s", nodeName)
}
