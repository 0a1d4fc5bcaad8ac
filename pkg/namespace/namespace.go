package namespace

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

// Builder provides struct for namespace object which contains connection to cluster and namespace definition.
type Builder struct {
	// Namespace definition. Used to create namespace object.
	Definition *corev1.Namespace
	// Created namespace object.
	Object *corev1.Namespace
	// Used in functions that define or mutate namespace definition. errorMsg is processed before the
	// namespace object is created.
	errorMsg  string
	apiClient *clients.Settings
}

// NewBuilder creates new instance of Builder.
func NewBuilder(apiClient *clients.Settings, name string) *Builder {
	glog.V(100).Infof("Initializing new namespace structure with the following param: %s", name)

	builder := &Builder{
		apiClient: apiClient,
		Definition: &corev1.Namespace{
			ObjectMeta: metav1.ObjectMeta{
				Name: name,
			},
		},
	}

	if name == "" {
		glog.V(100).Infof("The name of the namespace is empty")

		builder.errorMsg = "namespace 'name' cannot be empty"
	}

	return builder
}

// Pull loads an existing namespace into the Builder struct.
func Pull(apiClient *clients.Settings, name string) (*Builder, error) {
	glog.V(100).Infof("Pulling existing namespace %s from cluster", name)

	builder := &Builder{
		apiClient: apiClient,
		Definition: &corev1.Namespace{
			ObjectMeta: metav1.ObjectMeta{
				Name: name,
			},
		},
	}

	if name == "" {
		return nil, fmt.Errorf("namespace 'name' cannot be empty")
	}

	if !builder.Exists() {
		return nil, fmt.Errorf("namespace object %s does not exist", name)
	}

	builder.Definition = builder.Object

	return builder, nil
}

// WithLabel redefines namespace definition with the given label.
func (builder *Builder) WithLabel(key, value string) *Builder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	glog.V(100).Infof("Labeling namespace %s with %s=%s", builder.Definition.Name, key, value)

	if key == "" {
		builder.errorMsg = "'key' cannot be empty"

		return builder
	}

	if builder.Definition.Labels == nil {
		builder.Definition.Labels = map[string]string{}
	}

	builder.Definition.Labels[key] = value

	return builder
}

// WithMultipleLabels redefines namespace definition with the given labels.
func (builder *Builder) WithMultipleLabels(labels map[string]string) *Builder {
	for key, value := range labels {
		builder.WithLabel(key, value)
	}

	return builder
}

// Create makes a namespace on the cluster and stores the created object in struct.
func (builder *Builder) Create() (*Builder, error) {
	if valid, err := builder.validate(); !valid {
		return builder, err
	}

	glog.V(100).Infof("Creating namespace %s", builder.Definition.Name)

	var err error
	if !builder.Exists() {
		builder.Object, err = builder.apiClient.Namespaces().Create(
			context.TODO(), builder.Definition, metav1.CreateOptions{})
	}

	return builder, err
}

// Update renovates the existing namespace object with the namespace definition in builder.
func (builder *Builder) Update() (*Builder, error) {
	if valid, err := builder.validate(); !valid {
		return builder, err
	}

	glog.V(100).Infof("Updating namespace %s", builder.Definition.Name)

	var err error
	builder.Object, err = builder.apiClient.Namespaces().Update(
		context.TODO(), builder.Definition, metav1.UpdateOptions{})

	return builder, err
}

// Delete removes the namespace.
func (builder *Builder) Delete() error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Deleting namespace %s", builder.Definition.Name)

	if !builder.Exists() {
		return nil
	}

	err := builder.apiClient.Namespaces().Delete(context.TODO(), builder.Object.Name, metav1.DeleteOptions{})
	if err != nil {
		return err
	}

	builder.Object = nil

	return nil
}

// DeleteAndWait deletes the namespace and waits until it is removed from the cluster.
func (builder *Builder) DeleteAndWait(timeout time.Duration) error {
	if err := builder.Delete(); err != nil {
		return err
	}

	return wait.PollImmediate(time.Second, timeout, func() (bool, error) {
		_, err := builder.apiClient.Namespaces().Get(
			context.TODO(), builder.Definition.Name, metav1.GetOptions{})
		if k8serrors.IsNotFound(err) {
			return true, nil
		}

		return false, nil
	})
}

// Exists tells whether the given namespace exists.
func (builder *Builder) Exists() bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	var err error
	builder.Object, err = builder.apiClient.Namespaces().Get(
		context.TODO(), builder.Definition.Name, metav1.GetOptions{})

	return err == nil || !k8serrors.IsNotFound(err)
}

func (builder *Builder) validate() (bool, error) {
	if builder == nil {
		return false, fmt.Errorf("error: received nil namespace builder")
	}

	if builder.Definition == nil {
		return false, fmt.Errorf("can not redefine the undefined namespace")
	}

	if builder.apiClient == nil {
		return false, fmt.Errorf("namespace builder cannot have nil apiClient")
	}

	if builder.errorMsg != "" {
		return false, fmt.Errorf(builder.errorMsg)
	}

	return true, nil
}
