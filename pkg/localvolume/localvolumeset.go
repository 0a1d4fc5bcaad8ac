package localvolume

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	lsov1 "github.com/openshift/local-storage-operator/api/v1"
	lsov1alpha1 "github.com/openshift/local-storage-operator/api/v1alpha1"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	goclient "sigs.k8s.io/controller-runtime/pkg/client"
)

// SetBuilder provides struct for localvolumeset object which contains connection to
// the cluster and the localvolumeset definition.
type SetBuilder struct {
	// LocalVolumeSet definition. Used to create the localvolumeset object.
	Definition *lsov1alpha1.LocalVolumeSet
	// Created localvolumeset object.
	Object *lsov1alpha1.LocalVolumeSet
	// Used in functions that define or mutate the localvolumeset definition. errorMsg is
	// processed before the object is created.
	errorMsg  string
	apiClient *clients.Settings
}

// NewSetBuilder creates a new instance of SetBuilder.
func NewSetBuilder(apiClient *clients.Settings, name, nsname, storageClassName string) *SetBuilder {
	glog.V(100).Infof(
		"Initializing new localvolumeset structure with the following params: %s, %s, %s",
		name, nsname, storageClassName)

	builder := &SetBuilder{
		apiClient: apiClient,
		Definition: &lsov1alpha1.LocalVolumeSet{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
			Spec: lsov1alpha1.LocalVolumeSetSpec{
				StorageClassName: storageClassName,
				VolumeMode:       lsov1.PersistentVolumeMode(corev1.PersistentVolumeBlock),
			},
		},
	}

	if name == "" {
		glog.V(100).Infof("The name of the localvolumeset is empty")

		builder.errorMsg = "localvolumeset 'name' cannot be empty"
	}

	if nsname == "" {
		glog.V(100).Infof("The namespace of the localvolumeset is empty")

		builder.errorMsg = "localvolumeset 'nsname' cannot be empty"
	}

	if storageClassName == "" {
		glog.V(100).Infof("The storage class of the localvolumeset is empty")

		builder.errorMsg = "localvolumeset 'storageClassName' cannot be empty"
	}

	return builder
}

// PullSet loads an existing localvolumeset into the SetBuilder struct.
func PullSet(apiClient *clients.Settings, name, nsname string) (*SetBuilder, error) {
	glog.V(100).Infof("Pulling existing localvolumeset %s from namespace %s", name, nsname)

	builder := &SetBuilder{
		apiClient: apiClient,
		Definition: &lsov1alpha1.LocalVolumeSet{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
		},
	}

	if name == "" {
		return nil, fmt.Errorf("localvolumeset 'name' cannot be empty")
	}

	if nsname == "" {
		return nil, fmt.Errorf("localvolumeset 'nsname' cannot be empty")
	}

	if !builder.Exists() {
		return nil, fmt.Errorf("localvolumeset object %s does not exist in namespace %s", name, nsname)
	}

	builder.Definition = builder.Object

	return builder, nil
}

// WithNodeSelector restricts device discovery to nodes matching the given label.
func (builder *SetBuilder) WithNodeSelector(key, value string) *SetBuilder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	glog.V(100).Infof("Restricting localvolumeset %s to nodes with %s=%s",
		builder.Definition.Name, key, value)

	if key == "" {
		builder.errorMsg = "nodeSelector 'key' cannot be empty"

		return builder
	}

	builder.Definition.Spec.NodeSelector = &corev1.NodeSelector{
		NodeSelectorTerms: []corev1.NodeSelectorTerm{
			{
				MatchExpressions: []corev1.NodeSelectorRequirement{
					{
						Key:      key,
						Operator: corev1.NodeSelectorOpIn,
						Values:   []string{value},
					},
				},
			},
		},
	}

	return builder
}

// WithDeviceInclusionSpec limits discovery to whole disks of at least minSize.
func (builder *SetBuilder) WithDeviceInclusionSpec(minSize string) *SetBuilder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	glog.V(100).Infof("Setting device inclusion spec on localvolumeset %s, minSize %s",
		builder.Definition.Name, minSize)

	minSizeQuantity, err := resource.ParseQuantity(minSize)
	if err != nil {
		builder.errorMsg = fmt.Sprintf("invalid device minSize %q: %v", minSize, err)

		return builder
	}

	builder.Definition.Spec.DeviceInclusionSpec = &lsov1alpha1.DeviceInclusionSpec{
		DeviceTypes: []lsov1alpha1.DeviceType{lsov1alpha1.RawDisk},
		MinSize:     &minSizeQuantity,
	}

	return builder
}

// Create makes a localvolumeset in the cluster and stores the created object in struct.
func (builder *SetBuilder) Create() (*SetBuilder, error) {
	if valid, err := builder.validate(); !valid {
		return builder, err
	}

	glog.V(100).Infof("Creating localvolumeset %s in namespace %s",
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

// Get returns the localvolumeset object if found.
func (builder *SetBuilder) Get() (*lsov1alpha1.LocalVolumeSet, error) {
	if valid, err := builder.validate(); !valid {
		return nil, err
	}

	localVolumeSet := &lsov1alpha1.LocalVolumeSet{}
	err := builder.apiClient.Get(context.TODO(), goclient.ObjectKey{
		Name:      builder.Definition.Name,
		Namespace: builder.Definition.Namespace,
	}, localVolumeSet)

	if err != nil {
		return nil, err
	}

	return localVolumeSet, nil
}

// Delete removes the localvolumeset.
func (builder *SetBuilder) Delete() error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Deleting localvolumeset %s in namespace %s",
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

// Exists checks whether the given localvolumeset exists.
func (builder *SetBuilder) Exists() bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	var err error
	builder.Object, err = builder.Get()

	return err == nil || !k8serrors.IsNotFound(err)
}

// WaitUntilProvisioned polls until the localvolumeset reports at least expectedPVs provisioned volumes.
func (builder *SetBuilder) WaitUntilProvisioned(expectedPVs int32, timeout time.Duration) error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Waiting for localvolumeset %s to provision %d volumes",
		builder.Definition.Name, expectedPVs)

	return wait.PollImmediate(5*time.Second, timeout, func() (bool, error) {
		localVolumeSet, err := builder.Get()
		if err != nil {
			return false, nil
		}

		builder.Object = localVolumeSet

		if localVolumeSet.Status.TotalProvisionedDeviceCount == nil {
			return false, nil
		}

		return *localVolumeSet.Status.TotalProvisionedDeviceCount >= expectedPVs, nil
	})
}

func (builder *SetBuilder) validate() (bool, error) {
	if builder == nil {
		return false, fmt.Errorf("error: received nil localvolumeset builder")
	}

	if builder.Definition == nil {
		return false, fmt.Errorf("can not redefine the undefined localvolumeset")
	}

	if builder.apiClient == nil {
		return false, fmt.Errorf("localvolumeset builder cannot have nil apiClient")
	}

	if builder.errorMsg != "" {
		return false, fmt.Errorf(builder.errorMsg)
	}

	return true, nil
}
