package daemonset

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
)

// Builder provides struct for daemonset object containing connection to the cluster and the daemonset definitions.
type Builder struct {
	// Daemonset definition. Used to create a daemonset object.
	Definition *appsv1.DaemonSet
	// Created daemonset object.
	Object *appsv1.DaemonSet
	// Used in functions that define or mutate daemonset definition. errorMsg is processed before the daemonset
	// object is created.
	errorMsg  string
	apiClient *clients.Settings
}

// NewBuilder creates a new instance of Builder.
func NewBuilder(
	apiClient *clients.Settings, name, nsname string, labels map[string]string,
	containerSpec corev1.Container) *Builder {
	glog.V(100).Infof(
		"Initializing new daemonset structure with the following params: "+
			"name: %s, namespace: %s, labels: %s", name, nsname, labels)

	builder := &Builder{
		apiClient: apiClient,
		Definition: &appsv1.DaemonSet{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
			Spec: appsv1.DaemonSetSpec{
				Selector: &metav1.LabelSelector{
					MatchLabels: labels,
				},
				Template: corev1.PodTemplateSpec{
					ObjectMeta: metav1.ObjectMeta{
						Labels: labels,
					},
					Spec: corev1.PodSpec{
						Containers: []corev1.Container{containerSpec},
					},
				},
			},
		},
	}

	if name == "" {
		glog.V(100).Infof("The name of the daemonset is empty")

		builder.errorMsg = "daemonset 'name' cannot be empty"
	}

	if nsname == "" {
		glog.V(100).Infof("The namespace of the daemonset is empty")

		builder.errorMsg = "daemonset 'nsname' cannot be empty"
	}

	if len(labels) == 0 {
		glog.V(100).Infof("There are no labels for the daemonset")

		builder.errorMsg = "daemonset 'labels' cannot be empty"
	}

	return builder
}

// Pull loads an existing daemonset into the Builder struct.
func Pull(apiClient *clients.Settings, name, nsname string) (*Builder, error) {
	glog.V(100).Infof("Pulling existing daemonset %s from namespace %s", name, nsname)

	builder := &Builder{
		apiClient: apiClient,
		Definition: &appsv1.DaemonSet{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
		},
	}

	if name == "" {
		return nil, fmt.Errorf("daemonset 'name' cannot be empty")
	}

	if nsname == "" {
		return nil, fmt.Errorf("daemonset 'nsname' cannot be empty")
	}

	if !builder.Exists() {
		return nil, fmt.Errorf("daemonset object %s does not exist in namespace %s", name, nsname)
	}

	builder.Definition = builder.Object

	return builder, nil
}

// WithNodeSelector applies a nodeSelector to the daemonset definition.
func (builder *Builder) WithNodeSelector(selector map[string]string) *Builder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	glog.V(100).Infof("Applying nodeSelector %s to daemonset %s in namespace %s",
		selector, builder.Definition.Name, builder.Definition.Namespace)

	builder.Definition.Spec.Template.Spec.NodeSelector = selector

	return builder
}

// Create generates a daemonset on the cluster and stores the created object in struct.
func (builder *Builder) Create() (*Builder, error) {
	if valid, err := builder.validate(); !valid {
		return builder, err
	}

	glog.V(100).Infof("Creating daemonset %s in namespace %s",
		builder.Definition.Name, builder.Definition.Namespace)

	var err error
	if !builder.Exists() {
		builder.Object, err = builder.apiClient.DaemonSets(builder.Definition.Namespace).Create(
			context.TODO(), builder.Definition, metav1.CreateOptions{})
	}

	return builder, err
}

// IsReady polls until the daemonset reports every desired pod available, or the timeout expires.
func (builder *Builder) IsReady(timeout time.Duration) bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	err := wait.PollImmediate(time.Second, timeout, func() (bool, error) {
		var pollErr error

		builder.Object, pollErr = builder.apiClient.DaemonSets(builder.Definition.Namespace).Get(
			context.TODO(), builder.Definition.Name, metav1.GetOptions{})
		if pollErr != nil {
			return false, nil
		}

		if builder.Object.Status.DesiredNumberScheduled == 0 {
			return false, nil
		}

		return builder.Object.Status.NumberAvailable == builder.Object.Status.DesiredNumberScheduled, nil
	})

	return err == nil
}

// Delete removes the daemonset.
func (builder *Builder) Delete() error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Deleting daemonset %s in namespace %s",
		builder.Definition.Name, builder.Definition.Namespace)

	if !builder.Exists() {
		return nil
	}

	err := builder.apiClient.DaemonSets(builder.Definition.Namespace).Delete(
		context.TODO(), builder.Definition.Name, metav1.DeleteOptions{})
	if err != nil {
		return err
	}

	builder.Object = nil

	return nil
}

// DeleteAndWait deletes the daemonset and waits until it is removed from the cluster.
func (builder *Builder) DeleteAndWait(timeout time.Duration) error {
	if err := builder.Delete(); err != nil {
		return err
	}

	return wait.PollImmediate(time.Second, timeout, func() (bool, error) {
		_, err := builder.apiClient.DaemonSets(builder.Definition.Namespace).Get(
			context.TODO(), builder.Definition.Name, metav1.GetOptions{})
		if k8serrors.IsNotFound(err) {
			return true, nil
		}

		return false, nil
	})
}

// Exists checks whether the given daemonset exists.
func (builder *Builder) Exists() bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	var err error
	builder.Object, err = builder.apiClient.DaemonSets(builder.Definition.Namespace).Get(
		context.TODO(), builder.Definition.Name, metav1.GetOptions{})

	return err == nil || !k8serrors.IsNotFound(err)
}

func (builder *Builder) validate() (bool, error) {
	if builder == nil {
		return false, fmt.Errorf("error: received nil daemonset builder")
	}

	if builder.Definition == nil {
		return false, fmt.Errorf("can not redefine the undefined daemonset")
	}

	if builder.apiClient == nil {
		return false, fmt.Errorf("daemonset builder cannot have nil apiClient")
	}

	if builder.errorMsg != "" {
		return false, fmt.Errorf(builder.errorMsg)
	}

	return true, nil
}
