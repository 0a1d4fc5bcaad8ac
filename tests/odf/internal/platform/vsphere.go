package platform

import (
	"context"
	"fmt"
	"net/url"

	"github.com/golang/glog"
	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/find"
	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/types"
)

// VSphereProvider drives node power state through vCenter. Node names map to
// virtual machines by VM name.
type VSphereProvider struct {
	client *govmomi.Client
	finder *find.Finder
}

// NewVSphereProvider connects to vCenter and scopes the VM finder to the
// configured datacenter.
func NewVSphereProvider(ctx context.Context, settings VCenterSettings) (*VSphereProvider, error) {
	if settings.URL == "" {
		return nil, fmt.Errorf("vcenter 'url' cannot be empty")
	}

	vcURL, err := url.Parse(settings.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vcenter url: %w", err)
	}

	vcURL.User = url.UserPassword(settings.Username, settings.Password)

	client, err := govmomi.NewClient(ctx, vcURL, true)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vcenter: %w", err)
	}

	finder := find.NewFinder(client.Client, true)

	datacenter, err := finder.Datacenter(ctx, settings.Datacenter)
	if err != nil {
		return nil, fmt.Errorf("failed to find datacenter %s: %w", settings.Datacenter, err)
	}

	finder.SetDatacenter(datacenter)

	return &VSphereProvider{client: client, finder: finder}, nil
}

// PowerOff powers off the VM backing the node and waits for the task to complete.
func (provider *VSphereProvider) PowerOff(ctx context.Context, nodeName string) error {
	virtualMachine, err := provider.findVM(ctx, nodeName)
	if err != nil {
		return err
	}

	glog.V(90).Infof("Powering off VM backing node %s", nodeName)

	task, err := virtualMachine.PowerOff(ctx)
	if err != nil {
		return err
	}

	return task.Wait(ctx)
}

// PowerOn powers on the VM backing the node and waits for the task to complete.
func (provider *VSphereProvider) PowerOn(ctx context.Context, nodeName string) error {
	virtualMachine, err := provider.findVM(ctx, nodeName)
	if err != nil {
		return err
	}

	glog.V(90).Infof("Powering on VM backing node %s", nodeName)

	task, err := virtualMachine.PowerOn(ctx)
	if err != nil {
		return err
	}

	return task.Wait(ctx)
}

// Status returns the power state of the VM backing the node.
func (provider *VSphereProvider) Status(ctx context.Context, nodeName string) (NodeState, error) {
	virtualMachine, err := provider.findVM(ctx, nodeName)
	if err != nil {
		return StateUnknown, err
	}

	powerState, err := virtualMachine.PowerState(ctx)
	if err != nil {
		return StateUnknown, err
	}

	switch powerState {
	case types.VirtualMachinePowerStatePoweredOn:
		return StateRunning, nil
	case types.VirtualMachinePowerStatePoweredOff:
		return StateStopped, nil
	default:
		return StateUnknown, nil
	}
}

func (provider *VSphereProvider) findVM(ctx context.Context, nodeName string) (*object.VirtualMachine, error) {
	virtualMachine, err := provider.finder.VirtualMachine(ctx, nodeName)
	if err != nil {
		return nil, fmt.Errorf("failed to find VM for node %s: %w", nodeName, err)
	}

	return virtualMachine, nil
}
