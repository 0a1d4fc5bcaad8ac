package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
)

// PVBuilder provides struct for persistentvolume object containing connection
// to the cluster and the persistentvolume definitions.
type PVBuilder struct {
	// PersistentVolume definition. Used to store the persistentvolume object.
	Definition *corev1.PersistentVolume
	// Created persistentvolume object.
	Object *corev1.PersistentVolume

	errorMsg  string
	apiClient *clients.Settings
}

// NewPVBuilder refers to a persistentvolume by name without requiring it to
// exist, so callers can wait for a released volume to disappear.
func NewPVBuilder(apiClient *clients.Settings, name string) *PVBuilder {
	glog.V(100).Infof("Initializing new persistentvolume structure with the name %s", name)

	builder := &PVBuilder{
		apiClient: apiClient,
		Definition: &corev1.PersistentVolume{
			ObjectMeta: metav1.ObjectMeta{
				Name: name,
			},
		},
	}

	if name == "" {
		builder.errorMsg = "persistentvolume 'name' cannot be empty"
	}

	return builder
}

// PullPV loads an existing persistentvolume into the PVBuilder struct.
func PullPV(apiClient *clients.Settings, name string) (*PVBuilder, error) {
	glog.V(100).Infof("Pulling existing persistentvolume %s", name)

	builder := &PVBuilder{
		apiClient: apiClient,
		Definition: &corev1.PersistentVolume{
			ObjectMeta: metav1.ObjectMeta{
				Name: name,
			},
		},
	}

	if name == "" {
		return nil, fmt.Errorf("persistentvolume 'name' cannot be empty")
	}

	if !builder.Exists() {
		return nil, fmt.Errorf("persistentvolume object %s does not exist", name)
	}

	builder.Definition = builder.Object

	return builder, nil
}

// ListPV returns persistentvolume inventory.
func ListPV(apiClient *clients.Settings, options metav1.ListOptions) ([]*PVBuilder, error) {
	glog.V(100).Infof("Listing persistentvolumes with the options %v", options)

	pvList, err := apiClient.PersistentVolumes().List(context.TODO(), options)
	if err != nil {
		glog.V(100).Infof("Failed to list persistentvolumes due to %s", err.Error())

		return nil, err
	}

	var pvObjects []*PVBuilder

	for _, foundPV := range pvList.Items {
		copiedPV := foundPV
		pvBuilder := &PVBuilder{
			apiClient:  apiClient,
			Object:     &copiedPV,
			Definition: &copiedPV,
		}

		pvObjects = append(pvObjects, pvBuilder)
	}

	return pvObjects, nil
}

// Exists checks whether the given persistentvolume exists.
func (builder *PVBuilder) Exists() bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	var err error
	builder.Object, err = builder.apiClient.PersistentVolumes().Get(
		context.TODO(), builder.Definition.Name, metav1.GetOptions{})

	return err == nil || !k8serrors.IsNotFound(err)
}

// WaitUntilDeleted waits until the persistentvolume is removed from the cluster.
// Released volumes with a Delete reclaim policy eventually disappear after their claim is gone.
func (builder *PVBuilder) WaitUntilDeleted(timeout time.Duration) error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Waiting for persistentvolume %s to be removed", builder.Definition.Name)

	return wait.PollImmediate(time.Second, timeout, func() (bool, error) {
		_, err := builder.apiClient.PersistentVolumes().Get(
			context.TODO(), builder.Definition.Name, metav1.GetOptions{})
		if k8serrors.IsNotFound(err) {
			return true, nil
		}

		return false, nil
	})
}

func (builder *PVBuilder) validate() (bool, error) {
	if builder == nil {
		return false, fmt.Errorf("error: received nil persistentvolume builder")
	}

	if builder.Definition == nil {
		return false, fmt.Errorf("can not redefine the undefined persistentvolume")
	}

	if builder.apiClient == nil {
		return false, fmt.Errorf("persistentvolume builder cannot have nil apiClient")
	}

	if builder.errorMsg != "" {
		return false, fmt.Errorf(builder.errorMsg)
	}

	return true, nil
}
