package platform

import (
	"context"
	"fmt"
	"strings"

	bmclib "github.com/bmc-toolbox/bmclib/v2"
	"github.com/golang/glog"
)

// BMCProvider drives node power state through each node's BMC.
type BMCProvider struct {
	hosts map[string]BMCHost
}

// NewBMCProvider builds a BMCProvider from the node name to BMC endpoint map.
func NewBMCProvider(hosts map[string]BMCHost) (*BMCProvider, error) {
	if len(hosts) == 0 {
		return nil, fmt.Errorf("baremetal platform requires a BMC host map")
	}

	return &BMCProvider{hosts: hosts}, nil
}

// PowerOff powers the node off through its BMC.
func (provider *BMCProvider) PowerOff(ctx context.Context, nodeName string) error {
	return provider.setPowerState(ctx, nodeName, "off")
}

// PowerOn powers the node on through its BMC.
func (provider *BMCProvider) PowerOn(ctx context.Context, nodeName string) error {
	return provider.setPowerState(ctx, nodeName, "on")
}

// Status returns the power state the BMC reports for the node.
func (provider *BMCProvider) Status(ctx context.Context, nodeName string) (NodeState, error) {
	client, err := provider.openClient(ctx, nodeName)
	if err != nil {
		return StateUnknown, err
	}

	defer client.Close(ctx)

	powerState, err := client.GetPowerState(ctx)
	if err != nil {
		return StateUnknown, err
	}

	switch strings.ToLower(powerState) {
	case "on":
		return StateRunning, nil
	case "off":
		return StateStopped, nil
	default:
		return StateUnknown, nil
	}
}

func (provider *BMCProvider) setPowerState(ctx context.Context, nodeName, state string) error {
	glog.V(90).Infof("Setting power state of node %s to %s through its BMC", nodeName, state)

	client, err := provider.openClient(ctx, nodeName)
	if err != nil {
		return err
	}

	defer client.Close(ctx)

	ok, err := client.SetPowerState(ctx, state)
	if err != nil {
		return fmt.Errorf("failed to set power state of node %s: %w", nodeName, err)
	}

	if !ok {
		return fmt.Errorf("BMC refused to set power state of node %s to %s", nodeName, state)
	}

	return nil
}

func (provider *BMCProvider) openClient(ctx context.Context, nodeName string) (*bmclib.Client, error) {
	host, ok := provider.hosts[nodeName]
	if !ok {
		return nil, fmt.Errorf("no BMC endpoint configured for node %s", nodeName)
	}

	client := bmclib.NewClient(host.Address, host.Username, host.Password)

	err := client.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open BMC session to node %s: %w", nodeName, err)
	}

	return client, nil
}
