package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
)

var supportedAccessModes = map[string]corev1.PersistentVolumeAccessMode{
	"ReadWriteOnce":    corev1.ReadWriteOnce,
	"ReadOnlyMany":     corev1.ReadOnlyMany,
	"ReadWriteMany":    corev1.ReadWriteMany,
	"ReadWriteOncePod": corev1.ReadWriteOncePod,
}

// PVCBuilder provides struct for persistentvolumeclaim object containing connection
// to the cluster and the persistentvolumeclaim definitions.
type PVCBuilder struct {
	// PersistentVolumeClaim definition. Used to create the persistentvolumeclaim object.
	Definition *corev1.PersistentVolumeClaim
	// Created persistentvolumeclaim object.
	Object *corev1.PersistentVolumeClaim

	errorMsg  string
	apiClient *clients.Settings
}

// NewPVCBuilder creates a new instance of PVCBuilder.
func NewPVCBuilder(apiClient *clients.Settings, name, nsname string) *PVCBuilder {
	glog.V(100).Infof(
		"Initializing new PVC structure with the following params: name: %s, namespace: %s", name, nsname)

	builder := &PVCBuilder{
		apiClient: apiClient,
		Definition: &corev1.PersistentVolumeClaim{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
		},
	}

	if name == "" {
		glog.V(100).Infof("The name of the PVC is empty")

		builder.errorMsg = "PVC 'name' cannot be empty"
	}

	if nsname == "" {
		glog.V(100).Infof("The namespace of the PVC is empty")

		builder.errorMsg = "PVC 'nsname' cannot be empty"
	}

	return builder
}

// PullPVC loads an existing persistentvolumeclaim into the PVCBuilder struct.
func PullPVC(apiClient *clients.Settings, name, nsname string) (*PVCBuilder, error) {
	glog.V(100).Infof("Pulling existing PVC %s from namespace %s", name, nsname)

	builder := &PVCBuilder{
		apiClient: apiClient,
		Definition: &corev1.PersistentVolumeClaim{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
		},
	}

	if name == "" {
		return nil, fmt.Errorf("PVC 'name' cannot be empty")
	}

	if nsname == "" {
		return nil, fmt.Errorf("PVC 'nsname' cannot be empty")
	}

	if !builder.Exists() {
		return nil, fmt.Errorf("PVC object %s does not exist in namespace %s", name, nsname)
	}

	builder.Definition = builder.Object

	return builder, nil
}

// WithPVCAccessMode defines the access mode for the PVC.
func (builder *PVCBuilder) WithPVCAccessMode(accessMode string) *PVCBuilder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	glog.V(100).Infof("Setting access mode %s on PVC %s", accessMode, builder.Definition.Name)

	mode, ok := supportedAccessModes[accessMode]
	if !ok {
		builder.errorMsg = fmt.Sprintf("unsupported access mode %q", accessMode)

		return builder
	}

	builder.Definition.Spec.AccessModes = append(builder.Definition.Spec.AccessModes, mode)

	return builder
}

// WithPVCCapacity defines the requested capacity of the PVC, e.g. "5Gi".
func (builder *PVCBuilder) WithPVCCapacity(capacity string) *PVCBuilder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	glog.V(100).Infof("Setting capacity %s on PVC %s", capacity, builder.Definition.Name)

	capacityValue, err := resource.ParseQuantity(capacity)
	if err != nil {
		builder.errorMsg = fmt.Sprintf("invalid PVC capacity %q: %v", capacity, err)

		return builder
	}

	builder.Definition.Spec.Resources = corev1.VolumeResourceRequirements{
		Requests: corev1.ResourceList{
			corev1.ResourceStorage: capacityValue,
		},
	}

	return builder
}

// WithStorageClass defines the storage class of the PVC.
func (builder *PVCBuilder) WithStorageClass(storageClass string) *PVCBuilder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	glog.V(100).Infof("Setting storage class %s on PVC %s", storageClass, builder.Definition.Name)

	if storageClass == "" {
		builder.errorMsg = "PVC 'storageClass' cannot be empty"

		return builder
	}

	builder.Definition.Spec.StorageClassName = &storageClass

	return builder
}

// WithVolumeMode defines the volume mode of the PVC, either Filesystem or Block.
func (builder *PVCBuilder) WithVolumeMode(volumeMode string) *PVCBuilder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	glog.V(100).Infof("Setting volume mode %s on PVC %s", volumeMode, builder.Definition.Name)

	mode := corev1.PersistentVolumeMode(volumeMode)
	if mode != corev1.PersistentVolumeFilesystem && mode != corev1.PersistentVolumeBlock {
		builder.errorMsg = fmt.Sprintf("unsupported volume mode %q", volumeMode)

		return builder
	}

	builder.Definition.Spec.VolumeMode = &mode

	return builder
}

// Create generates the PVC on the cluster and stores the created object in struct.
func (builder *PVCBuilder) Create() (*PVCBuilder, error) {
	if valid, err := builder.validate(); !valid {
		return builder, err
	}

	glog.V(100).Infof("Creating PVC %s in namespace %s",
		builder.Definition.Name, builder.Definition.Namespace)

	var err error
	if !builder.Exists() {
		builder.Object, err = builder.apiClient.PersistentVolumeClaims(builder.Definition.Namespace).Create(
			context.TODO(), builder.Definition, metav1.CreateOptions{})
	}

	return builder, err
}

// WaitUntilBound waits until the PVC reaches the Bound phase.
func (builder *PVCBuilder) WaitUntilBound(timeout time.Duration) error {
	return builder.WaitUntilInStatus(corev1.ClaimBound, timeout)
}

// WaitUntilInStatus waits until the PVC reaches the given phase.
func (builder *PVCBuilder) WaitUntilInStatus(phase corev1.PersistentVolumeClaimPhase, timeout time.Duration) error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Waiting for PVC %s to reach phase %s", builder.Definition.Name, phase)

	return wait.PollImmediate(time.Second, timeout, func() (bool, error) {
		pvc, err := builder.apiClient.PersistentVolumeClaims(builder.Definition.Namespace).Get(
			context.TODO(), builder.Definition.Name, metav1.GetOptions{})
		if err != nil {
			return false, nil
		}

		builder.Object = pvc

		return pvc.Status.Phase == phase, nil
	})
}

// Delete removes the PVC.
func (builder *PVCBuilder) Delete() error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Deleting PVC %s in namespace %s",
		builder.Definition.Name, builder.Definition.Namespace)

	if !builder.Exists() {
		return nil
	}

	err := builder.apiClient.PersistentVolumeClaims(builder.Definition.Namespace).Delete(
		context.TODO(), builder.Definition.Name, metav1.DeleteOptions{})
	if err != nil {
		return err
	}

	builder.Object = nil

	return nil
}

// DeleteAndWait deletes the PVC and waits until it is removed from the cluster.
func (builder *PVCBuilder) DeleteAndWait(timeout time.Duration) error {
	if err := builder.Delete(); err != nil {
		return err
	}

	return wait.PollImmediate(time.Second, timeout, func() (bool, error) {
		_, err := builder.apiClient.PersistentVolumeClaims(builder.Definition.Namespace).Get(
			context.TODO(), builder.Definition.Name, metav1.GetOptions{})
		if k8serrors.IsNotFound(err) {
			return true, nil
		}

		return false, nil
	})
}

// Exists checks whether the given PVC exists.
func (builder *PVCBuilder) Exists() bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	var err error
	builder.Object, err = builder.apiClient.PersistentVolumeClaims(builder.Definition.Namespace).Get(
		context.TODO(), builder.Definition.Name, metav1.GetOptions{})

	return err == nil || !k8serrors.IsNotFound(err)
}

func (builder *PVCBuilder) validate() (bool, error) {
	if builder == nil {
		return false, fmt.Errorf("error: received nil PVC builder")
	}

	if builder.Definition == nil {
		return false, fmt.Errorf("can not redefine the undefined PVC")
	}

	if builder.apiClient == nil {
		return false, fmt.Errorf("PVC builder cannot have nil apiClient")
	}

	if builder.errorMsg != "" {
		return false, fmt.Errorf(builder.errorMsg)
	}

	return true, nil
}
