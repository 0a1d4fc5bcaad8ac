package storage

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	corev1 "k8s.io/api/core/v1"
	storagev1 "k8s.io/api/storage/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ClassBuilder provides struct for storageclass object containing connection
// to the cluster and the storageclass definitions.
type ClassBuilder struct {
	// StorageClass definition. Used to create the storageclass object.
	Definition *storagev1.StorageClass
	// Created storageclass object.
	Object *storagev1.StorageClass

	errorMsg  string
	apiClient *clients.Settings
}

// NewClassBuilder creates a new instance of ClassBuilder.
func NewClassBuilder(apiClient *clients.Settings, name, provisioner string) *ClassBuilder {
	glog.V(100).Infof(
		"Initializing new storageclass structure with the following params: name: %s, provisioner: %s",
		name, provisioner)

	builder := &ClassBuilder{
		apiClient: apiClient,
		Definition: &storagev1.StorageClass{
			ObjectMeta: metav1.ObjectMeta{
				Name: name,
			},
			Provisioner: provisioner,
		},
	}

	if name == "" {
		glog.V(100).Infof("The name of the storageclass is empty")

		builder.errorMsg = "storageclass 'name' cannot be empty"
	}

	if provisioner == "" {
		glog.V(100).Infof("The provisioner of the storageclass is empty")

		builder.errorMsg = "storageclass 'provisioner' cannot be empty"
	}

	return builder
}

// PullClass loads an existing storageclass into the ClassBuilder struct.
func PullClass(apiClient *clients.Settings, name string) (*ClassBuilder, error) {
	glog.V(100).Infof("Pulling existing storageclass %s", name)

	builder := &ClassBuilder{
		apiClient: apiClient,
		Definition: &storagev1.StorageClass{
			ObjectMeta: metav1.ObjectMeta{
				Name: name,
			},
		},
	}

	if name == "" {
		return nil, fmt.Errorf("storageclass 'name' cannot be empty")
	}

	if !builder.Exists() {
		return nil, fmt.Errorf("storageclass object %s does not exist", name)
	}

	builder.Definition = builder.Object

	return builder, nil
}

// WithParameters defines the provisioner parameters of the storageclass.
func (builder *ClassBuilder) WithParameters(parameters map[string]string) *ClassBuilder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	glog.V(100).Infof("Setting parameters on storageclass %s", builder.Definition.Name)

	if len(parameters) == 0 {
		builder.errorMsg = "storageclass 'parameters' cannot be empty"

		return builder
	}

	builder.Definition.Parameters = parameters

	return builder
}

// WithReclaimPolicy defines the reclaim policy of the storageclass.
func (builder *ClassBuilder) WithReclaimPolicy(policy corev1.PersistentVolumeReclaimPolicy) *ClassBuilder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	builder.Definition.ReclaimPolicy = &policy

	return builder
}

// Create makes a storageclass in the cluster and stores the created object in struct.
func (builder *ClassBuilder) Create() (*ClassBuilder, error) {
	if valid, err := builder.validate(); !valid {
		return builder, err
	}

	glog.V(100).Infof("Creating storageclass %s", builder.Definition.Name)

	var err error
	if !builder.Exists() {
		builder.Object, err = builder.apiClient.StorageClasses().Create(
			context.TODO(), builder.Definition, metav1.CreateOptions{})
	}

	return builder, err
}

// Delete removes the storageclass.
func (builder *ClassBuilder) Delete() error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Deleting storageclass %s", builder.Definition.Name)

	if !builder.Exists() {
		return nil
	}

	err := builder.apiClient.StorageClasses().Delete(
		context.TODO(), builder.Definition.Name, metav1.DeleteOptions{})
	if err != nil {
		return err
	}

	builder.Object = nil

	return nil
}

// Exists checks whether the given storageclass exists.
func (builder *ClassBuilder) Exists() bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	var err error
	builder.Object, err = builder.apiClient.StorageClasses().Get(
		context.TODO(), builder.Definition.Name, metav1.GetOptions{})

	return err == nil || !k8serrors.IsNotFound(err)
}

func (builder *ClassBuilder) validate() (bool, error) {
	if builder == nil {
		return false, fmt.Errorf("error: received nil storageclass builder")
	}

	if builder.Definition == nil {
		return false, fmt.Errorf("can not redefine the undefined storageclass")
	}

	if builder.apiClient == nil {
		return false, fmt.Errorf("storageclass builder cannot have nil apiClient")
	}

	if builder.errorMsg != "" {
		return false, fmt.Errorf(builder.errorMsg)
	}

	return true, nil
}
