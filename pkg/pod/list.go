package pod

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// List returns pod inventory in the given namespace.
func List(apiClient *clients.Settings, nsname string, options metav1.ListOptions) ([]*Builder, error) {
	glog.V(100).Infof("Listing pods in the namespace %s with the options %v", nsname, options)

	if nsname == "" {
		glog.V(100).Infof("pod 'nsname' parameter can not be empty")

		return nil, fmt.Errorf("failed to list pods, 'nsname' parameter is empty")
	}

	podList, err := apiClient.Pods(nsname).List(context.TODO(), options)
	if err != nil {
		glog.V(100).Infof("Failed to list pods in the namespace %s due to %s", nsname, err.Error())

		return nil, err
	}

	var podObjects []*Builder

	for _, foundPod := range podList.Items {
		copiedPod := foundPod
		podBuilder := &Builder{
			apiClient:  apiClient,
			Object:     &copiedPod,
			Definition: &copiedPod,
		}

		podObjects = append(podObjects, podBuilder)
	}

	return podObjects, nil
}

// ListByNamePattern returns pods in the given namespace whose name contains the given pattern.
func ListByNamePattern(apiClient *clients.Settings, pattern, nsname string) ([]*Builder, error) {
	glog.V(100).Infof("Listing pods in the namespace %s matching name pattern %s", nsname, pattern)

	if pattern == "" {
		return nil, fmt.Errorf("failed to list pods, 'pattern' parameter is empty")
	}

	podList, err := List(apiClient, nsname, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	var matched []*Builder

	for _, podBuilder := range podList {
		if strings.Contains(podBuilder.Object.Name, pattern) {
			matched = append(matched, podBuilder)
		}
	}

	return matched, nil
}

// WaitForAllPodsRunning waits until every pod matching options in nsname reports the Running phase.
func WaitForAllPodsRunning(
	apiClient *clients.Settings, nsname string, options metav1.ListOptions, timeout int) (bool, error) {
	podList, err := List(apiClient, nsname, options)
	if err != nil {
		return false, err
	}

	for _, podBuilder := range podList {
		// Completed pods, e.g. osd prepare jobs, never return to Running.
		if podBuilder.Object.Status.Phase == corev1.PodSucceeded {
			continue
		}

		err = podBuilder.WaitUntilRunning(time.Duration(timeout) * time.Second)
		if err != nil {
			glog.V(100).Infof("pod %s in namespace %s never became Running",
				podBuilder.Definition.Name, nsname)

			return false, err
		}
	}

	return true, nil
}
