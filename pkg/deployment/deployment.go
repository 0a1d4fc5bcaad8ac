package deployment

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

// Builder provides struct for deployment object containing connection to the cluster and the deployment definitions.
type Builder struct {
	// Deployment definition. Used to create the deployment object.
	Definition *appsv1.Deployment
	// Created deployment object.
	Object *appsv1.Deployment
	// Used in functions that define or mutate deployment definition. errorMsg is processed before the deployment
	// object is created.
	errorMsg  string
	apiClient *clients.Settings
}

// NewBuilder creates a new instance of Builder.
func NewBuilder(
	apiClient *clients.Settings, name, nsname string, labels map[string]string,
	containerSpec corev1.Container) *Builder {
	glog.V(100).Infof(
		"Initializing new deployment structure with the following params: "+
			"name: %s, namespace: %s, labels: %s", name, nsname, labels)

	builder := &Builder{
		apiClient: apiClient,
		Definition: &appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
			Spec: appsv1.DeploymentSpec{
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
		glog.V(100).Infof("The name of the deployment is empty")

		builder.errorMsg = "deployment 'name' cannot be empty"
	}

	if nsname == "" {
		glog.V(100).Infof("The namespace of the deployment is empty")

		builder.errorMsg = "deployment 'nsname' cannot be empty"
	}

	if len(labels) == 0 {
		glog.V(100).Infof("There are no labels for the deployment")

		builder.errorMsg = "deployment 'labels' cannot be empty"
	}

	return builder
}

// Pull loads an existing deployment into the Builder struct.
func Pull(apiClient *clients.Settings, name, nsname string) (*Builder, error) {
	glog.V(100).Infof("Pulling existing deployment %s from namespace %s", name, nsname)

	builder := &Builder{
		apiClient: apiClient,
		Definition: &appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
		},
	}

	if name == "" {
		return nil, fmt.Errorf("deployment 'name' cannot be empty")
	}

	if nsname == "" {
		return nil, fmt.Errorf("deployment 'nsname' cannot be empty")
	}

	if !builder.Exists() {
		return nil, fmt.Errorf("deployment object %s does not exist in namespace %s", name, nsname)
	}

	builder.Definition = builder.Object

	return builder, nil
}

// WithNodeSelector applies a nodeSelector to the deployment definition.
func (builder *Builder) WithNodeSelector(selector map[string]string) *Builder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	glog.V(100).Infof("Applying nodeSelector %s to deployment %s in namespace %s",
		selector, builder.Definition.Name, builder.Definition.Namespace)

	builder.Definition.Spec.Template.Spec.NodeSelector = selector

	return builder
}

// WithReplicas sets the desired number of replicas in the deployment definition.
func (builder *Builder) WithReplicas(replicas int32) *Builder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	glog.V(100).Infof("Setting %d replicas in deployment %s in namespace %s",
		replicas, builder.Definition.Name, builder.Definition.Namespace)

	builder.Definition.Spec.Replicas = &replicas

	return builder
}

// WithVolume attaches the given volume to the deployment pod template and mounts it
// into the first container at mountPath.
func (builder *Builder) WithVolume(volume corev1.Volume, mountPath string) *Builder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	glog.V(100).Infof("Adding volume %s to deployment %s mounted at %s",
		volume.Name, builder.Definition.Name, mountPath)

	if volume.Name == "" {
		builder.errorMsg = "volume 'name' cannot be empty"

		return builder
	}

	if mountPath == "" {
		builder.errorMsg = "volume 'mountPath' cannot be empty"

		return builder
	}

	podSpec := &builder.Definition.Spec.Template.Spec
	podSpec.Volumes = append(podSpec.Volumes, volume)
	podSpec.Containers[0].VolumeMounts = append(podSpec.Containers[0].VolumeMounts,
		corev1.VolumeMount{Name: volume.Name, MountPath: mountPath})

	return builder
}

// WithPVC attaches the given PersistentVolumeClaim to the deployment pod template.
func (builder *Builder) WithPVC(pvcName, mountPath string) *Builder {
	if pvcName == "" {
		builder.errorMsg = "pvc 'name' cannot be empty"

		return builder
	}

	return builder.WithVolume(corev1.Volume{
		Name: pvcName,
		VolumeSource: corev1.VolumeSource{
			PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
				ClaimName: pvcName,
			},
		},
	}, mountPath)
}

// Create generates a deployment on the cluster and stores the created object in struct.
func (builder *Builder) Create() (*Builder, error) {
	if valid, err := builder.validate(); !valid {
		return builder, err
	}

	glog.V(100).Infof("Creating deployment %s in namespace %s",
		builder.Definition.Name, builder.Definition.Namespace)

	var err error
	if !builder.Exists() {
		builder.Object, err = builder.apiClient.Deployments(builder.Definition.Namespace).Create(
			context.TODO(), builder.Definition, metav1.CreateOptions{})
	}

	return builder, err
}

// CreateAndWaitUntilReady creates the deployment and waits until all its replicas report ready.
func (builder *Builder) CreateAndWaitUntilReady(timeout time.Duration) (*Builder, error) {
	builder, err := builder.Create()
	if err != nil {
		return builder, err
	}

	if builder.IsReady(timeout) {
		return builder, nil
	}

	return builder, fmt.Errorf("deployment %s in namespace %s is not ready",
		builder.Definition.Name, builder.Definition.Namespace)
}

// IsReady polls until the deployment reports all replicas ready, or the timeout expires.
func (builder *Builder) IsReady(timeout time.Duration) bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	err := wait.PollImmediate(time.Second, timeout, func() (bool, error) {
		var pollErr error

		builder.Object, pollErr = builder.apiClient.Deployments(builder.Definition.Namespace).Get(
			context.TODO(), builder.Definition.Name, metav1.GetOptions{})
		if pollErr != nil {
			return false, nil
		}

		if builder.Object.Spec.Replicas == nil {
			return false, nil
		}

		return builder.Object.Status.ReadyReplicas == *builder.Object.Spec.Replicas, nil
	})

	return err == nil
}

// Delete removes the deployment.
func (builder *Builder) Delete() error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Deleting deployment %s in namespace %s",
		builder.Definition.Name, builder.Definition.Namespace)

	if !builder.Exists() {
		return nil
	}

	err := builder.apiClient.Deployments(builder.Definition.Namespace).Delete(
		context.TODO(), builder.Definition.Name, metav1.DeleteOptions{})
	if err != nil {
		return err
	}

	builder.Object = nil

	return nil
}

// DeleteAndWait deletes the deployment and waits until it is removed from the cluster.
func (builder *Builder) DeleteAndWait(timeout time.Duration) error {
	if err := builder.Delete(); err != nil {
		return err
	}

	return wait.PollImmediate(time.Second, timeout, func() (bool, error) {
		_, err := builder.apiClient.Deployments(builder.Definition.Namespace).Get(
			context.TODO(), builder.Definition.Name, metav1.GetOptions{})
		if k8serrors.IsNotFound(err) {
			return true, nil
		}

		return false, nil
	})
}

// Exists checks whether the given deployment exists.
func (builder *Builder) Exists() bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	var err error
	builder.Object, err = builder.apiClient.Deployments(builder.Definition.Namespace).Get(
		context.TODO(), builder.Definition.Name, metav1.GetOptions{})

	return err == nil || !k8serrors.IsNotFound(err)
}

func (builder *Builder) validate() (bool, error) {
	if builder == nil {
		return false, fmt.Errorf("error: received nil deployment builder")
	}

	if builder.Definition == nil {
		return false, fmt.Errorf("can not redefine the undefined deployment")
	}

	if builder.apiClient == nil {
		return false, fmt.Errorf("deployment builder cannot have nil apiClient")
	}

	if builder.errorMsg != "" {
		return false, fmt.Errorf(builder.errorMsg)
	}

	return true, nil
}
