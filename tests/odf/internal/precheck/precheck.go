package precheck

import (
	"fmt"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	"github.com/red-hat-storage/odf-gotests/pkg/nodes"
	"github.com/red-hat-storage/odf-gotests/pkg/storage"
	"github.com/red-hat-storage/odf-gotests/pkg/storagecluster"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
)

// Check is a single named environment verification.
type Check struct {
	Name string
	Run  func() error
}

// Profile is the minimum node footprint the deployment suite expects.
type Profile struct {
	MinWorkers       int
	MinCPUPerNode    resource.Quantity
	MinMemPerNode    resource.Quantity
	DeviceSetClass   string
	StorageCluster   string
	StorageNamespace string
}

// DefaultProfile matches a minimal three worker internal-mode deployment.
func DefaultProfile(deviceSetClass, storageNamespace, storageClusterName string) Profile {
	return Profile{
		MinWorkers:       3,
		MinCPUPerNode:    resource.MustParse("10"),
		MinMemPerNode:    resource.MustParse("24Gi"),
		DeviceSetClass:   deviceSetClass,
		StorageCluster:   storageClusterName,
		StorageNamespace: storageNamespace,
	}
}

// AggregateError collects every check that failed. All checks always run; a
// failing check never prevents the remaining ones from reporting.
type AggregateError struct {
	Failures map[string]error
}

func (e *AggregateError) Error() string {
	var checkNames []string
	for name := range e.Failures {
		checkNames = append(checkNames, name)
	}

	sort.Strings(checkNames)

	var details []string
	for _, name := range checkNames {
		details = append(details, fmt.Sprintf("%s: %v", name, e.Failures[name]))
	}

	return fmt.Sprintf("%d environment checks failed: %s", len(e.Failures), strings.Join(details, "; "))
}

// RunAll runs every check and returns an AggregateError when any failed.
func RunAll(checks []Check) error {
	failures := map[string]error{}

	for _, check := range checks {
		glog.V(90).Infof("Running environment check %q", check.Name)

		err := check.Run()
		if err != nil {
			glog.V(90).Infof("Environment check %q failed: %v", check.Name, err)

			failures[check.Name] = err
		}
	}

	if len(failures) > 0 {
		return &AggregateError{Failures: failures}
	}

	return nil
}

// DeploymentChecks returns the checks the deployment suite runs before
// installing the storage operator.
func DeploymentChecks(apiClient *clients.Settings, profile Profile) []Check {
	return []Check{
		{
			Name: "enough-schedulable-workers",
			Run: func() error {
				workers, err := listWorkerNodes(apiClient)
				if err != nil {
					return err
				}

				return verifyWorkerCount(workers, profile.MinWorkers)
			},
		},
		{
			Name: "node-resources",
			Run: func() error {
				workers, err := listWorkerNodes(apiClient)
				if err != nil {
					return err
				}

				return verifyNodeResources(workers, profile.MinCPUPerNode, profile.MinMemPerNode)
			},
		},
		{
			Name: "device-set-storage-class",
			Run: func() error {
				_, err := storage.PullClass(apiClient, profile.DeviceSetClass)

				return err
			},
		},
		{
			Name: "no-leftover-storagecluster",
			Run: func() error {
				_, err := storagecluster.Pull(apiClient, profile.StorageCluster, profile.StorageNamespace)
				if err == nil {
					return fmt.Errorf("storagecluster %s already exists in namespace %s",
						profile.StorageCluster, profile.StorageNamespace)
				}

				return nil
			},
		},
	}
}

func listWorkerNodes(apiClient *clients.Settings) ([]corev1.Node, error) {
	workerBuilders, err := nodes.ListWorkers(apiClient)
	if err != nil {
		return nil, err
	}

	var workers []corev1.Node
	for _, workerBuilder := range workerBuilders {
		workers = append(workers, *workerBuilder.Object)
	}

	return workers, nil
}

// verifyWorkerCount fails when fewer than minWorkers schedulable workers exist.
func verifyWorkerCount(workers []corev1.Node, minWorkers int) error {
	schedulable := 0

	for _, worker := range workers {
		if !worker.Spec.Unschedulable {
			schedulable++
		}
	}

	if schedulable < minWorkers {
		return fmt.Errorf("found %d schedulable worker nodes, need at least %d", schedulable, minWorkers)
	}

	return nil
}

// verifyNodeResources fails when any worker allocates less CPU or memory than
// the profile minimum. All undersized nodes are named in the error.
func verifyNodeResources(workers []corev1.Node, minCPU, minMem resource.Quantity) error {
	var undersized []string

	for _, worker := range workers {
		cpu := worker.Status.Allocatable[corev1.ResourceCPU]
		memory := worker.Status.Allocatable[corev1.ResourceMemory]

		if cpu.Cmp(minCPU) < 0 || memory.Cmp(minMem) < 0 {
			undersized = append(undersized, fmt.Sprintf(
				"%s (cpu=%s, memory=%s)", worker.Name, cpu.String(), memory.String()))
		}
	}

	if len(undersized) > 0 {
		return fmt.Errorf("nodes below the minimum of cpu=%s memory=%s: %s",
			minCPU.String(), minMem.String(), strings.Join(undersized, ", "))
	}

	return nil
}
