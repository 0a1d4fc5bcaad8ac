package cephtools

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	"github.com/red-hat-storage/odf-gotests/pkg/pod"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
)

const (
	// ToolsPodLabel selects the rook ceph toolbox pod.
	ToolsPodLabel = "app=rook-ceph-tools"

	toolsPodTimeout = 3 * time.Minute
)

// CommandError reports a ceph command that failed inside the toolbox pod.
type CommandError struct {
	Command string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("ceph command %q failed: %v: %s", e.Command, e.Err, e.Output)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Exec runs the given shell command inside the rook ceph toolbox pod and returns its output.
func Exec(apiClient *clients.Settings, nsname, command string) (string, error) {
	glog.V(90).Infof("Running %q in the ceph toolbox pod in namespace %s", command, nsname)

	toolsPods, err := pod.List(apiClient, nsname, metav1.ListOptions{LabelSelector: ToolsPodLabel})
	if err != nil {
		return "", err
	}

	if len(toolsPods) == 0 {
		return "", fmt.Errorf("no ceph toolbox pod found in namespace %s", nsname)
	}

	toolsPod := toolsPods[0]

	err = toolsPod.WaitUntilRunning(toolsPodTimeout)
	if err != nil {
		return "", err
	}

	buffer, err := toolsPod.ExecCommand([]string{"sh", "-c", command})
	if err != nil {
		return "", &CommandError{Command: command, Output: buffer.String(), Err: err}
	}

	return buffer.String(), nil
}

// Status returns the parsed output of ceph status.
func Status(apiClient *clients.Settings, nsname string) (*CephStatus, error) {
	output, err := Exec(apiClient, nsname, "ceph status --format json")
	if err != nil {
		return nil, err
	}

	return ParseStatus(output)
}

// WaitForHealthOK polls ceph status until the cluster health is acceptable per
// VerifyHealth, or the timeout expires.
func WaitForHealthOK(
	apiClient *clients.Settings, nsname string, mutedWarnings []string, timeout time.Duration) error {
	glog.V(90).Infof("Waiting up to %v for ceph health to recover in namespace %s", timeout, nsname)

	var lastErr error

	err := wait.PollImmediate(10*time.Second, timeout, func() (bool, error) {
		status, err := Status(apiClient, nsname)
		if err != nil {
			lastErr = err

			return false, nil
		}

		lastErr = VerifyHealth(status, mutedWarnings)

		return lastErr == nil, nil
	})

	if err != nil && lastErr != nil {
		return lastErr
	}

	return err
}
