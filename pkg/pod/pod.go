package pod

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/remotecommand"
	"k8s.io/utils/ptr"
)

// Builder provides a struct for pod object from the cluster and a pod definition.
type Builder struct {
	// Pod definition, used to create the pod object.
	Definition *corev1.Pod
	// Created pod object.
	Object *corev1.Pod
	// Used to store latest error message upon defining or mutating pod definition.
	errorMsg  string
	apiClient *clients.Settings
}

// NewBuilder creates a new instance of Builder.
func NewBuilder(apiClient *clients.Settings, name, nsname, image string) *Builder {
	glog.V(100).Infof(
		"Initializing new pod structure with the following params: name: %s, namespace: %s, image: %s",
		name, nsname, image)

	builder := &Builder{
		apiClient:  apiClient,
		Definition: getDefinition(name, nsname, image),
	}

	if name == "" {
		glog.V(100).Infof("The name of the pod is empty")

		builder.errorMsg = "pod 'name' cannot be empty"
	}

	if nsname == "" {
		glog.V(100).Infof("The namespace of the pod is empty")

		builder.errorMsg = "pod 'nsname' cannot be empty"
	}

	if image == "" {
		glog.V(100).Infof("The image of the pod is empty")

		builder.errorMsg = "pod 'image' cannot be empty"
	}

	return builder
}

// Pull loads an existing pod into the Builder struct.
func Pull(apiClient *clients.Settings, name, nsname string) (*Builder, error) {
	glog.V(100).Infof("Pulling existing pod %s from namespace %s", name, nsname)

	builder := &Builder{
		apiClient: apiClient,
		Definition: &corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
		},
	}

	if name == "" {
		return nil, fmt.Errorf("pod 'name' cannot be empty")
	}

	if nsname == "" {
		return nil, fmt.Errorf("pod 'nsname' cannot be empty")
	}

	if !builder.Exists() {
		return nil, fmt.Errorf("pod object %s does not exist in namespace %s", name, nsname)
	}

	builder.Definition = builder.Object

	return builder, nil
}

// DefineOnNode adds the node name to the pod's definition.
func (builder *Builder) DefineOnNode(nodeName string) *Builder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	glog.V(100).Infof("Defining pod %s on node %s", builder.Definition.Name, nodeName)

	if builder.Object != nil {
		builder.errorMsg = fmt.Sprintf(
			"can not redefine running pod. pod already running on node %s", builder.Object.Spec.NodeName)

		return builder
	}

	if nodeName == "" {
		builder.errorMsg = "can not define pod on empty node"

		return builder
	}

	builder.Definition.Spec.NodeName = nodeName

	return builder
}

// WithVolume attaches a volume to the pod and mounts it into the first container at mountPath.
func (builder *Builder) WithVolume(volume corev1.Volume, mountPath string) *Builder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	glog.V(100).Infof("Adding volume %s to pod %s mounted at %s",
		volume.Name, builder.Definition.Name, mountPath)

	if volume.Name == "" {
		builder.errorMsg = "volume 'name' cannot be empty"

		return builder
	}

	if mountPath == "" {
		builder.errorMsg = "volume 'mountPath' cannot be empty"

		return builder
	}

	builder.Definition.Spec.Volumes = append(builder.Definition.Spec.Volumes, volume)
	builder.Definition.Spec.Containers[0].VolumeMounts = append(
		builder.Definition.Spec.Containers[0].VolumeMounts,
		corev1.VolumeMount{Name: volume.Name, MountPath: mountPath})

	return builder
}

// WithPVC attaches the given PersistentVolumeClaim to the pod mounted at mountPath.
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

// WithLabel applies the given label to the pod definition.
func (builder *Builder) WithLabel(key, value string) *Builder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	if key == "" {
		builder.errorMsg = "label 'key' cannot be empty"

		return builder
	}

	if builder.Definition.Labels == nil {
		builder.Definition.Labels = map[string]string{}
	}

	builder.Definition.Labels[key] = value

	return builder
}

// Create makes a pod according to the pod definition and stores the created object in the pod builder.
func (builder *Builder) Create() (*Builder, error) {
	if valid, err := builder.validate(); !valid {
		return builder, err
	}

	glog.V(100).Infof("Creating pod %s in namespace %s", builder.Definition.Name, builder.Definition.Namespace)

	var err error
	if !builder.Exists() {
		builder.Object, err = builder.apiClient.Pods(builder.Definition.Namespace).Create(
			context.TODO(), builder.Definition, metav1.CreateOptions{})
	}

	return builder, err
}

// CreateAndWaitUntilRunning creates the pod object and waits until the pod is running.
func (builder *Builder) CreateAndWaitUntilRunning(timeout time.Duration) (*Builder, error) {
	builder, err := builder.Create()
	if err != nil {
		return builder, err
	}

	err = builder.WaitUntilRunning(timeout)
	if err != nil {
		return builder, err
	}

	return builder, nil
}

// Delete removes the pod object and resets the builder object.
func (builder *Builder) Delete() (*Builder, error) {
	if valid, err := builder.validate(); !valid {
		return builder, err
	}

	glog.V(100).Infof("Deleting pod %s in namespace %s", builder.Definition.Name, builder.Definition.Namespace)

	if !builder.Exists() {
		return builder, nil
	}

	err := builder.apiClient.Pods(builder.Definition.Namespace).Delete(
		context.TODO(), builder.Object.Name, metav1.DeleteOptions{})

	if err != nil {
		return builder, fmt.Errorf("can not delete pod: %w", err)
	}

	builder.Object = nil

	return builder, nil
}

// DeleteAndWait deletes the pod object and waits until the pod is deleted.
func (builder *Builder) DeleteAndWait(timeout time.Duration) (*Builder, error) {
	builder, err := builder.Delete()
	if err != nil {
		return builder, err
	}

	err = builder.WaitUntilDeleted(timeout)
	if err != nil {
		return builder, err
	}

	return builder, nil
}

// WaitUntilRunning waits for the duration of the defined timeout or until the pod is running.
func (builder *Builder) WaitUntilRunning(timeout time.Duration) error {
	return builder.WaitUntilInStatus(corev1.PodRunning, timeout)
}

// WaitUntilReady waits for the duration of the defined timeout or until the pod reports the Ready condition.
func (builder *Builder) WaitUntilReady(timeout time.Duration) error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	return wait.PollImmediate(time.Second, timeout, func() (bool, error) {
		updatePod, err := builder.apiClient.Pods(builder.Definition.Namespace).Get(
			context.TODO(), builder.Definition.Name, metav1.GetOptions{})
		if err != nil {
			return false, nil
		}

		for _, condition := range updatePod.Status.Conditions {
			if condition.Type == corev1.PodReady && condition.Status == corev1.ConditionTrue {
				return true, nil
			}
		}

		return false, nil
	})
}

// WaitUntilInStatus waits for the duration of the defined timeout or until the pod gets to a specific status.
func (builder *Builder) WaitUntilInStatus(status corev1.PodPhase, timeout time.Duration) error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	return wait.PollImmediate(time.Second, timeout, func() (bool, error) {
		updatePod, err := builder.apiClient.Pods(builder.Definition.Namespace).Get(
			context.TODO(), builder.Definition.Name, metav1.GetOptions{})
		if err != nil {
			return false, nil
		}

		return updatePod.Status.Phase == status, nil
	})
}

// WaitUntilDeleted waits for the duration of the defined timeout or until the pod is deleted.
func (builder *Builder) WaitUntilDeleted(timeout time.Duration) error {
	return wait.PollImmediate(time.Second, timeout, func() (bool, error) {
		_, err := builder.apiClient.Pods(builder.Definition.Namespace).Get(
			context.TODO(), builder.Definition.Name, metav1.GetOptions{})
		if err == nil {
			glog.V(100).Infof("pod %s/%s still present",
				builder.Definition.Namespace, builder.Definition.Name)

			return false, nil
		}

		if k8serrors.IsNotFound(err) {
			glog.V(100).Infof("pod %s/%s is gone", builder.Definition.Namespace, builder.Definition.Name)

			return true, nil
		}

		return false, err
	})
}

// ExecCommand runs command in the pod and returns the buffer output.
func (builder *Builder) ExecCommand(command []string, containerName ...string) (bytes.Buffer, error) {
	var (
		buffer bytes.Buffer
		cName  string
	)

	if valid, err := builder.validate(); !valid {
		return buffer, err
	}

	if len(containerName) > 0 {
		cName = containerName[0]
	} else {
		cName = builder.Definition.Spec.Containers[0].Name
	}

	glog.V(100).Infof("Executing command %v in pod %s container %s",
		command, builder.Definition.Name, cName)

	req := builder.apiClient.CoreV1Interface.RESTClient().
		Post().
		Namespace(builder.Object.Namespace).
		Resource("pods").
		Name(builder.Object.Name).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: cName,
			Command:   command,
			Stdin:     false,
			Stdout:    true,
			Stderr:    true,
			TTY:       false,
		}, scheme.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(builder.apiClient.Config, "POST", req.URL())
	if err != nil {
		return buffer, err
	}

	err = exec.Stream(remotecommand.StreamOptions{
		Stdout: &buffer,
		Stderr: &buffer,
	})

	if err != nil {
		return buffer, err
	}

	return buffer, nil
}

// GetLog returns the log of the pod's first (or named) container for the given time span.
func (builder *Builder) GetLog(logStartTime time.Duration, containerName ...string) (string, error) {
	if valid, err := builder.validate(); !valid {
		return "", err
	}

	cName := builder.Definition.Spec.Containers[0].Name
	if len(containerName) > 0 {
		cName = containerName[0]
	}

	seconds := int64(logStartTime.Seconds())
	req := builder.apiClient.Pods(builder.Definition.Namespace).GetLogs(
		builder.Definition.Name, &corev1.PodLogOptions{SinceSeconds: &seconds, Container: cName})

	log, err := req.DoRaw(context.TODO())
	if err != nil {
		return "", err
	}

	return string(log), nil
}

// Exists checks whether the given pod exists.
func (builder *Builder) Exists() bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	var err error
	builder.Object, err = builder.apiClient.Pods(builder.Definition.Namespace).Get(
		context.TODO(), builder.Definition.Name, metav1.GetOptions{})

	return err == nil || !k8serrors.IsNotFound(err)
}

func getDefinition(name, nsname, image string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: nsname,
		},
		Spec: corev1.PodSpec{
			TerminationGracePeriodSeconds: ptr.To[int64](0),
			Containers: []corev1.Container{
				{
					Name:    "test",
					Image:   image,
					Command: []string{"/bin/bash", "-c", "sleep INF"},
				},
			},
		},
	}
}

func (builder *Builder) validate() (bool, error) {
	if builder == nil {
		return false, fmt.Errorf("error: received nil pod builder")
	}

	if builder.Definition == nil {
		return false, fmt.Errorf("can not redefine the undefined pod")
	}

	if builder.apiClient == nil {
		return false, fmt.Errorf("pod builder cannot have nil apiClient")
	}

	if builder.errorMsg != "" {
		return false, fmt.Errorf(builder.errorMsg)
	}

	return true, nil
}
