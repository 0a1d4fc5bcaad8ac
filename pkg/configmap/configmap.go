package configmap

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Builder provides struct for configmap object containing connection to the cluster and the configmap definitions.
type Builder struct {
	// ConfigMap definition. Used to create configmap object.
	Definition *corev1.ConfigMap
	// Created configmap object.
	Object *corev1.ConfigMap
	// Used in functions that define or mutate configmap definition. errorMsg is processed before the configmap
	// object is created.
	errorMsg  string
	apiClient *clients.Settings
}

// NewBuilder creates a new instance of Builder.
func NewBuilder(apiClient *clients.Settings, name, nsname string) *Builder {
	glog.V(100).Infof(
		"Initializing new configmap structure with the following params: %s, %s", name, nsname)

	builder := &Builder{
		apiClient: apiClient,
		Definition: &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
		},
	}

	if name == "" {
		glog.V(100).Infof("The name of the configmap is empty")

		builder.errorMsg = "configmap 'name' cannot be empty"
	}

	if nsname == "" {
		glog.V(100).Infof("The namespace of the configmap is empty")

		builder.errorMsg = "configmap 'nsname' cannot be empty"
	}

	return builder
}

// Pull loads an existing configmap into the Builder struct.
func Pull(apiClient *clients.Settings, name, nsname string) (*Builder, error) {
	glog.V(100).Infof("Pulling existing configmap %s from namespace %s", name, nsname)

	builder := &Builder{
		apiClient: apiClient,
		Definition: &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
		},
	}

	if name == "" {
		return nil, fmt.Errorf("configmap 'name' cannot be empty")
	}

	if nsname == "" {
		return nil, fmt.Errorf("configmap 'nsname' cannot be empty")
	}

	if !builder.Exists() {
		return nil, fmt.Errorf("configmap object %s does not exist in namespace %s", name, nsname)
	}

	builder.Definition = builder.Object

	return builder, nil
}

// WithData defines the data placed in the configmap.
func (builder *Builder) WithData(data map[string]string) *Builder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	glog.V(100).Infof("Defining configmap %s data", builder.Definition.Name)

	if len(data) == 0 {
		builder.errorMsg = "'data' cannot be empty"

		return builder
	}

	builder.Definition.Data = data

	return builder
}

// Create makes a configmap in the cluster and stores the created object in struct.
func (builder *Builder) Create() (*Builder, error) {
	if valid, err := builder.validate(); !valid {
		return builder, err
	}

	glog.V(100).Infof("Creating configmap %s in namespace %s",
		builder.Definition.Name, builder.Definition.Namespace)

	var err error
	if !builder.Exists() {
		builder.Object, err = builder.apiClient.ConfigMaps(builder.Definition.Namespace).Create(
			context.TODO(), builder.Definition, metav1.CreateOptions{})
	}

	return builder, err
}

// Update renovates the existing configmap object with the definition in builder.
func (builder *Builder) Update() (*Builder, error) {
	if valid, err := builder.validate(); !valid {
		return builder, err
	}

	glog.V(100).Infof("Updating configmap %s in namespace %s",
		builder.Definition.Name, builder.Definition.Namespace)

	var err error
	builder.Object, err = builder.apiClient.ConfigMaps(builder.Definition.Namespace).Update(
		context.TODO(), builder.Definition, metav1.UpdateOptions{})

	return builder, err
}

// Delete removes the configmap.
func (builder *Builder) Delete() error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Deleting configmap %s in namespace %s",
		builder.Definition.Name, builder.Definition.Namespace)

	if !builder.Exists() {
		return nil
	}

	err := builder.apiClient.ConfigMaps(builder.Definition.Namespace).Delete(
		context.TODO(), builder.Definition.Name, metav1.DeleteOptions{})
	if err != nil {
		return err
	}

	builder.Object = nil

	return nil
}

// Exists checks whether the given configmap exists.
func (builder *Builder) Exists() bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	var err error
	builder.Object, err = builder.apiClient.ConfigMaps(builder.Definition.Namespace).Get(
		context.TODO(), builder.Definition.Name, metav1.GetOptions{})

	return err == nil || !k8serrors.IsNotFound(err)
}

func (builder *Builder) validate() (bool, error) {
	if builder == nil {
		return false, fmt.Errorf("error: received nil configmap builder")
	}

	if builder.Definition == nil {
		return false, fmt.Errorf("can not redefine the undefined configmap")
	}

	if builder.apiClient == nil {
		return false, fmt.Errorf("configmap builder cannot have nil apiClient")
	}

	if builder.errorMsg != "" {
		return false, fmt.Errorf(builder.errorMsg)
	}

	return true, nil
}
