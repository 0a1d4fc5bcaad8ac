package storagecluster

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	ocsv1 "github.com/red-hat-storage/ocs-operator/api/v1"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	goclient "sigs.k8s.io/controller-runtime/pkg/client"
)

// Builder provides struct for storagecluster object which contains connection to
// the cluster and the storagecluster definition.
type Builder struct {
	// StorageCluster definition. Used to create the storagecluster object.
	Definition *ocsv1.StorageCluster
	// Created storagecluster object.
	Object *ocsv1.StorageCluster
	// Used in functions that define or mutate the storagecluster definition. errorMsg is
	// processed before the object is created.
	errorMsg  string
	apiClient *clients.Settings
}

// NewBuilder creates a new instance of Builder.
func NewBuilder(apiClient *clients.Settings, name, nsname string) *Builder {
	glog.V(100).Infof(
		"Initializing new storagecluster structure with the following params: %s, %s", name, nsname)

	builder := &Builder{
		apiClient: apiClient,
		Definition: &ocsv1.StorageCluster{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
		},
	}

	if name == "" {
		glog.V(100).Infof("The name of the storagecluster is empty")

		builder.errorMsg = "storagecluster 'name' cannot be empty"
	}

	if nsname == "" {
		glog.V(100).Infof("The namespace of the storagecluster is empty")

		builder.errorMsg = "storagecluster 'nsname' cannot be empty"
	}

	return builder
}

// Pull loads an existing storagecluster into the Builder struct.
func Pull(apiClient *clients.Settings, name, nsname string) (*Builder, error) {
	glog.V(100).Infof("Pulling existing storagecluster %s from namespace %s", name, nsname)

	builder := &Builder{
		apiClient: apiClient,
		Definition: &ocsv1.StorageCluster{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
		},
	}

	if name == "" {
		return nil, fmt.Errorf("storagecluster 'name' cannot be empty")
	}

	if nsname == "" {
		return nil, fmt.Errorf("storagecluster 'nsname' cannot be empty")
	}

	if !builder.Exists() {
		return nil, fmt.Errorf("storagecluster object %s does not exist in namespace %s", name, nsname)
	}

	builder.Definition = builder.Object

	return builder, nil
}

// WithStorageDeviceSet appends a device set built from the given storage class, per-device
// capacity and replica count to the storagecluster definition.
func (builder *Builder) WithStorageDeviceSet(
	name, storageClassName, capacity string, count, replica int) *Builder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	glog.V(100).Infof("Adding device set %s (%d x %d x %s from class %s) to storagecluster %s",
		name, count, replica, capacity, storageClassName, builder.Definition.Name)

	if name == "" {
		builder.errorMsg = "deviceset 'name' cannot be empty"

		return builder
	}

	capacityValue, err := resource.ParseQuantity(capacity)
	if err != nil {
		builder.errorMsg = fmt.Sprintf("invalid deviceset capacity %q: %v", capacity, err)

		return builder
	}

	volumeMode := corev1.PersistentVolumeBlock
	deviceSet := ocsv1.StorageDeviceSet{
		Name:    name,
		Count:   count,
		Replica: replica,
		DataPVCTemplate: corev1.PersistentVolumeClaim{
			Spec: corev1.PersistentVolumeClaimSpec{
				StorageClassName: &storageClassName,
				AccessModes:      []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
				VolumeMode:       &volumeMode,
				Resources: corev1.VolumeResourceRequirements{
					Requests: corev1.ResourceList{
						corev1.ResourceStorage: capacityValue,
					},
				},
			},
		},
	}

	builder.Definition.Spec.StorageDeviceSets = append(builder.Definition.Spec.StorageDeviceSets, deviceSet)

	return builder
}

// WithManagedResources enables reconcile of block, file and object storage classes.
func (builder *Builder) WithManagedResources() *Builder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	builder.Definition.Spec.ManagedResources = ocsv1.ManagedResourcesSpec{
		CephBlockPools:       ocsv1.ManageCephBlockPools{ReconcileStrategy: "manage"},
		CephFilesystems:      ocsv1.ManageCephFilesystems{ReconcileStrategy: "manage"},
		CephObjectStores:     ocsv1.ManageCephObjectStores{ReconcileStrategy: "manage"},
		CephObjectStoreUsers: ocsv1.ManageCephObjectStoreUsers{ReconcileStrategy: "manage"},
	}

	return builder
}

// WithMonDataDirHostPath points the ceph monitors at a host path. Used on bare metal clusters.
func (builder *Builder) WithMonDataDirHostPath(path string) *Builder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	if path == "" {
		builder.errorMsg = "storagecluster 'monDataDirHostPath' cannot be empty"

		return builder
	}

	builder.Definition.Spec.MonDataDirHostPath = path

	return builder
}

// Create makes a storagecluster in the cluster and stores the created object in struct.
func (builder *Builder) Create() (*Builder, error) {
	if valid, err := builder.validate(); !valid {
		return builder, err
	}

	glog.V(100).Infof("Creating storagecluster %s in namespace %s",
		builder.Definition.Name, builder.Definition.Namespace)

	var err error
	if !builder.Exists() {
		err = builder.apiClient.Create(context.TODO(), builder.Definition)
		if err == nil {
			builder.Object = builder.Definition
		}
	}

	return builder, err
}

// Get returns the storagecluster object if found.
func (builder *Builder) Get() (*ocsv1.StorageCluster, error) {
	if valid, err := builder.validate(); !valid {
		return nil, err
	}

	storageCluster := &ocsv1.StorageCluster{}
	err := builder.apiClient.Get(context.TODO(), goclient.ObjectKey{
		Name:      builder.Definition.Name,
		Namespace: builder.Definition.Namespace,
	}, storageCluster)

	if err != nil {
		return nil, err
	}

	return storageCluster, nil
}

// Update renovates the existing storagecluster object with the definition in builder.
func (builder *Builder) Update() (*Builder, error) {
	if valid, err := builder.validate(); !valid {
		return builder, err
	}

	glog.V(100).Infof("Updating storagecluster %s in namespace %s",
		builder.Definition.Name, builder.Definition.Namespace)

	err := builder.apiClient.Update(context.TODO(), builder.Definition)
	if err == nil {
		builder.Object = builder.Definition
	}

	return builder, err
}

// Delete removes the storagecluster.
func (builder *Builder) Delete() error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Deleting storagecluster %s in namespace %s",
		builder.Definition.Name, builder.Definition.Namespace)

	if !builder.Exists() {
		return nil
	}

	err := builder.apiClient.Delete(context.TODO(), builder.Definition)
	if err != nil {
		return err
	}

	builder.Object = nil

	return nil
}

// DeleteAndWait deletes the storagecluster and waits until it is removed from the cluster.
func (builder *Builder) DeleteAndWait(timeout time.Duration) error {
	if err := builder.Delete(); err != nil {
		return err
	}

	return wait.PollImmediate(5*time.Second, timeout, func() (bool, error) {
		_, err := builder.Get()
		if k8serrors.IsNotFound(err) {
			return true, nil
		}

		return false, nil
	})
}

// Exists checks whether the given storagecluster exists.
func (builder *Builder) Exists() bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	var err error
	builder.Object, err = builder.Get()

	return err == nil || !k8serrors.IsNotFound(err)
}

// WaitUntilPhase polls until the storagecluster status reports the given phase.
func (builder *Builder) WaitUntilPhase(phase string, timeout time.Duration) error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Waiting for storagecluster %s to reach phase %s", builder.Definition.Name, phase)

	return wait.PollImmediate(5*time.Second, timeout, func() (bool, error) {
		storageCluster, err := builder.Get()
		if err != nil {
			return false, nil
		}

		builder.Object = storageCluster

		return storageCluster.Status.Phase == phase, nil
	})
}

// WaitUntilReady waits until the storagecluster reaches the Ready phase.
func (builder *Builder) WaitUntilReady(timeout time.Duration) error {
	return builder.WaitUntilPhase("Ready", timeout)
}

func (builder *Builder) validate() (bool, error) {
	if builder == nil {
		return false, fmt.Errorf("error: received nil storagecluster builder")
	}

	if builder.Definition == nil {
		return false, fmt.Errorf("can not redefine the undefined storagecluster")
	}

	if builder.apiClient == nil {
		return false, fmt.Errorf("storagecluster builder cannot have nil apiClient")
	}

	if builder.errorMsg != "" {
		return false, fmt.Errorf(builder.errorMsg)
	}

	return true, nil
}
