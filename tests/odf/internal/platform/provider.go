package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"k8s.io/apimachinery/pkg/util/wait"
)

// NodeState is the power state of a node at the infrastructure layer.
type NodeState string

const (
	// StateRunning means the underlying machine is powered on.
	StateRunning NodeState = "running"
	// StateStopped means the underlying machine is powered off.
	StateStopped NodeState = "stopped"
	// StateUnknown means the platform reported a transitional or unrecognized state.
	StateUnknown NodeState = "unknown"
)

// Provider controls the power state of cluster nodes at the infrastructure layer.
// Node names are the kubernetes node names; each implementation maps them to its
// own machine identifiers.
type Provider interface {
	// PowerOff powers the machine backing the node off.
	PowerOff(ctx context.Context, nodeName string) error
	// PowerOn powers the machine backing the node on.
	PowerOn(ctx context.Context, nodeName string) error
	// Status returns the current power state of the machine backing the node.
	Status(ctx context.Context, nodeName string) (NodeState, error)
}

// StateError reports a node that never reached the desired power state.
type StateError struct {
	Node    string
	Desired NodeState
	Actual  NodeState
}

func (e *StateError) Error() string {
	return fmt.Sprintf("node %s is in state %s, expected %s", e.Node, e.Actual, e.Desired)
}

// VCenterSettings carries the vSphere endpoint and datacenter used to locate node VMs.
type VCenterSettings struct {
	URL        string
	Username   string
	Password   string
	Datacenter string
}

// BMCHost carries the BMC endpoint of one bare metal node.
type BMCHost struct {
	Address  string
	Username string
	Password string
}

// Settings selects and configures a platform provider.
type Settings struct {
	// Platform is one of aws, vsphere or baremetal.
	Platform string
	VCenter  VCenterSettings
	// BMCHosts maps node names to their BMC endpoints. Required for baremetal.
	BMCHosts map[string]BMCHost
}

// New returns the Provider matching the configured platform.
func New(ctx context.Context, settings Settings) (Provider, error) {
	glog.V(90).Infof("Creating %s platform provider", settings.Platform)

	switch settings.Platform {
	case "aws":
		return NewAWSProvider(ctx)
	case "vsphere":
		return NewVSphereProvider(ctx, settings.VCenter)
	case "baremetal":
		return NewBMCProvider(settings.BMCHosts)
	case "":
		return nil, fmt.Errorf("no platform configured")
	default:
		return nil, fmt.Errorf("unsupported platform %q", settings.Platform)
	}
}

// Cycle powers the node off, waits until the platform reports it stopped, then
// powers it back on and waits for the running state.
func Cycle(ctx context.Context, provider Provider, nodeName string, timeout time.Duration) error {
	glog.V(90).Infof("Power cycling node %s", nodeName)

	err := provider.PowerOff(ctx, nodeName)
	if err != nil {
		return err
	}

	err = WaitForState(ctx, provider, nodeName, StateStopped, timeout)
	if err != nil {
		return err
	}

	err = provider.PowerOn(ctx, nodeName)
	if err != nil {
		return err
	}

	return WaitForState(ctx, provider, nodeName, StateRunning, timeout)
}

// WaitForState polls the provider until the node reaches the desired power state.
// Returns a StateError carrying the last observed state on timeout.
func WaitForState(
	ctx context.Context, provider Provider, nodeName string, desired NodeState, timeout time.Duration) error {
	glog.V(90).Infof("Waiting up to %v for node %s to reach state %s", timeout, nodeName, desired)

	lastState := StateUnknown

	err := wait.PollImmediate(5*time.Second, timeout, func() (bool, error) {
		state, err := provider.Status(ctx, nodeName)
		if err != nil {
			glog.V(90).Infof("Failed to read state of node %s: %v", nodeName, err)

			return false, nil
		}

		lastState = state

		return state == desired, nil
	})

	if err != nil {
		return &StateError{Node: nodeName, Desired: desired, Actual: lastState}
	}

	return nil
}
