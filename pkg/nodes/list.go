package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
)

const (
	// WorkerLabel marks schedulable worker nodes.
	WorkerLabel = "node-role.kubernetes.io/worker"
	// ControlPlaneLabel marks control plane nodes.
	ControlPlaneLabel = "node-role.kubernetes.io/master"
)

// List returns node inventory matching the given options.
func List(apiClient *clients.Settings, options metav1.ListOptions) ([]*Builder, error) {
	glog.V(100).Infof("Listing cluster nodes with the options %v", options)

	nodeList, err := apiClient.CoreV1Interface.Nodes().List(context.TODO(), options)
	if err != nil {
		glog.V(100).Infof("Failed to list nodes due to %s", err.Error())

		return nil, err
	}

	var nodeObjects []*Builder

	for _, foundNode := range nodeList.Items {
		copiedNode := foundNode
		nodeBuilder := &Builder{
			apiClient:  apiClient,
			Object:     &copiedNode,
			Definition: &copiedNode,
		}

		nodeObjects = append(nodeObjects, nodeBuilder)
	}

	return nodeObjects, nil
}

// ListWorkers returns all nodes carrying the worker role label.
func ListWorkers(apiClient *clients.Settings) ([]*Builder, error) {
	return List(apiClient, metav1.ListOptions{LabelSelector: WorkerLabel})
}

// WaitForAllNodesReady polls until every node in the cluster reports Ready, or the timeout expires.
func WaitForAllNodesReady(apiClient *clients.Settings, timeout time.Duration) error {
	glog.V(100).Infof("Waiting up to %v for all nodes to become Ready", timeout)

	return wait.PollImmediate(5*time.Second, timeout, func() (bool, error) {
		nodeList, err := List(apiClient, metav1.ListOptions{})
		if err != nil {
			return false, nil
		}

		if len(nodeList) == 0 {
			return false, fmt.Errorf("cluster reports zero nodes")
		}

		for _, nodeBuilder := range nodeList {
			ready, err := nodeBuilder.IsReady()
			if err != nil || !ready {
				return false, nil
			}
		}

		return true, nil
	})
}
