package cluster

import (
	"time"

	"github.com/golang/glog"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	"github.com/red-hat-storage/odf-gotests/pkg/nodes"
	"github.com/red-hat-storage/odf-gotests/pkg/pod"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// WaitForRecovery waits until every node reports Ready and every pod in the
// given namespaces runs again. Used after disruptive operations such as a node
// power cycle.
func WaitForRecovery(apiClient *clients.Settings, namespaces []string, timeout time.Duration) error {
	glog.V(90).Infof("Waiting up to %v for cluster recovery across namespaces %v", timeout, namespaces)

	err := nodes.WaitForAllNodesReady(apiClient, timeout)
	if err != nil {
		return err
	}

	for _, nsname := range namespaces {
		glog.V(90).Infof("Waiting for all pods in namespace %s to run", nsname)

		_, err = pod.WaitForAllPodsRunning(apiClient, nsname, metav1.ListOptions{}, int(timeout.Seconds()))
		if err != nil {
			return err
		}
	}

	return nil
}
