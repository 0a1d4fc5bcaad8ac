package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/wait"
)

// Builder provides struct for node object containing connection to the cluster and the node definitions.
type Builder struct {
	// Node definition. Used to store the node object.
	Definition *corev1.Node
	// Created node object.
	Object *corev1.Node
	// Used in functions that mutate the node definition. errorMsg is processed before the object is updated.
	errorMsg  string
	apiClient *clients.Settings
}

// Pull loads an existing node into the Builder struct.
func Pull(apiClient *clients.Settings, name string) (*Builder, error) {
	glog.V(100).Infof("Pulling existing node object: %s", name)

	builder := &Builder{
		apiClient: apiClient,
		Definition: &corev1.Node{
			ObjectMeta: metav1.ObjectMeta{
				Name: name,
			},
		},
	}

	if name == "" {
		return nil, fmt.Errorf("node 'name' cannot be empty")
	}

	if !builder.Exists() {
		return nil, fmt.Errorf("node object %s does not exist", name)
	}

	builder.Definition = builder.Object

	return builder, nil
}

// Exists checks whether the given node exists.
func (builder *Builder) Exists() bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	var err error
	builder.Object, err = builder.apiClient.CoreV1Interface.Nodes().Get(
		context.TODO(), builder.Definition.Name, metav1.GetOptions{})

	return err == nil || !k8serrors.IsNotFound(err)
}

// IsReady refreshes the node object and reports whether its Ready condition is true.
func (builder *Builder) IsReady() (bool, error) {
	if valid, err := builder.validate(); !valid {
		return false, err
	}

	if !builder.Exists() {
		return false, fmt.Errorf("node %s does not exist", builder.Definition.Name)
	}

	for _, condition := range builder.Object.Status.Conditions {
		if condition.Type == corev1.NodeReady {
			return condition.Status == corev1.ConditionTrue, nil
		}
	}

	return false, nil
}

// WaitUntilReady waits until the node reports the Ready condition true.
func (builder *Builder) WaitUntilReady(timeout time.Duration) error {
	return builder.waitUntilReadyStatus(corev1.ConditionTrue, timeout)
}

// WaitUntilNotReady waits until the node stops reporting the Ready condition true.
// Useful when waiting for a powered-off node to drop out of the cluster.
func (builder *Builder) WaitUntilNotReady(timeout time.Duration) error {
	return builder.waitUntilReadyStatus(corev1.ConditionFalse, timeout)
}

func (builder *Builder) waitUntilReadyStatus(status corev1.ConditionStatus, timeout time.Duration) error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Waiting for node %s Ready condition to become %s", builder.Definition.Name, status)

	return wait.PollImmediate(time.Second, timeout, func() (bool, error) {
		node, err := builder.apiClient.CoreV1Interface.Nodes().Get(
			context.TODO(), builder.Definition.Name, metav1.GetOptions{})
		if err != nil {
			// A node going down can momentarily break the API connection.
			return false, nil
		}

		builder.Object = node

		for _, condition := range node.Status.Conditions {
			if condition.Type == corev1.NodeReady {
				if condition.Status == status {
					return true, nil
				}

				// ConditionUnknown counts as not ready.
				if status == corev1.ConditionFalse && condition.Status != corev1.ConditionTrue {
					return true, nil
				}
			}
		}

		return false, nil
	})
}

// Cordon marks the node unschedulable.
func (builder *Builder) Cordon() error {
	return builder.setUnschedulable(true)
}

// Uncordon marks the node schedulable again.
func (builder *Builder) Uncordon() error {
	return builder.setUnschedulable(false)
}

func (builder *Builder) setUnschedulable(unschedulable bool) error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Setting node %s unschedulable=%t", builder.Definition.Name, unschedulable)

	patch := []byte(fmt.Sprintf(`{"spec":{"unschedulable":%t}}`, unschedulable))

	var err error
	builder.Object, err = builder.apiClient.CoreV1Interface.Nodes().Patch(
		context.TODO(), builder.Definition.Name, types.StrategicMergePatchType, patch, metav1.PatchOptions{})

	return err
}

// ExternalIPv4 returns the node's first external or internal IPv4 address.
func (builder *Builder) ExternalIPv4() (string, error) {
	if valid, err := builder.validate(); !valid {
		return "", err
	}

	if !builder.Exists() {
		return "", fmt.Errorf("node %s does not exist", builder.Definition.Name)
	}

	for _, address := range builder.Object.Status.Addresses {
		if address.Type == corev1.NodeExternalIP {
			return address.Address, nil
		}
	}

	for _, address := range builder.Object.Status.Addresses {
		if address.Type == corev1.NodeInternalIP {
			return address.Address, nil
		}
	}

	return "", fmt.Errorf("node %s has no external or internal address", builder.Definition.Name)
}

func (builder *Builder) validate() (bool, error) {
	if builder == nil {
		return false, fmt.Errorf("error: received nil node builder")
	}

	if builder.Definition == nil {
		return false, fmt.Errorf("can not redefine the undefined node")
	}

	if builder.apiClient == nil {
		return false, fmt.Errorf("node builder cannot have nil apiClient")
	}

	if builder.errorMsg != "" {
		return false, fmt.Errorf(builder.errorMsg)
	}

	return true, nil
}
