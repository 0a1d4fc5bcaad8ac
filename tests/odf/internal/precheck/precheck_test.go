package precheck

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func workerNode(name, cpu, memory string, unschedulable bool) corev1.Node {
	return corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Spec:       corev1.NodeSpec{Unschedulable: unschedulable},
		Status: corev1.NodeStatus{
			Allocatable: corev1.ResourceList{
				corev1.ResourceCPU:    resource.MustParse(cpu),
				corev1.ResourceMemory: resource.MustParse(memory),
			},
		},
	}
}

func TestVerifyWorkerCount(t *testing.T) {
	workers := []corev1.Node{
		workerNode("worker-0", "16", "64Gi", false),
		workerNode("worker-1", "16", "64Gi", false),
		workerNode("worker-2", "16", "64Gi", true),
	}

	assert.Nil(t, verifyWorkerCount(workers, 2))

	err := verifyWorkerCount(workers, 3)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "found 2 schedulable worker nodes, need at least 3")
}

func TestVerifyNodeResources(t *testing.T) {
	minCPU := resource.MustParse("10")
	minMem := resource.MustParse("24Gi")

	workers := []corev1.Node{
		workerNode("worker-0", "16", "64Gi", false),
		workerNode("worker-1", "4", "64Gi", false),
		workerNode("worker-2", "16", "16Gi", false),
	}

	assert.Nil(t, verifyNodeResources(workers[:1], minCPU, minMem))

	err := verifyNodeResources(workers, minCPU, minMem)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "worker-1")
	assert.Contains(t, err.Error(), "worker-2")
	assert.NotContains(t, err.Error(), "worker-0")
}

func TestRunAllPasses(t *testing.T) {
	checks := []Check{
		{Name: "first", Run: func() error { return nil }},
		{Name: "second", Run: func() error { return nil }},
	}

	assert.Nil(t, RunAll(checks))
}

func TestRunAllCollectsEveryFailure(t *testing.T) {
	var secondRan, thirdRan bool

	checks := []Check{
		{Name: "first", Run: func() error { return fmt.Errorf("not enough workers") }},
		{Name: "second", Run: func() error {
			secondRan = true

			return nil
		}},
		{Name: "third", Run: func() error {
			thirdRan = true

			return fmt.Errorf("storagecluster already exists")
		}},
	}

	err := RunAll(checks)

	assert.NotNil(t, err)
	assert.True(t, secondRan)
	assert.True(t, thirdRan)

	var aggregateErr *AggregateError
	assert.ErrorAs(t, err, &aggregateErr)
	assert.Len(t, aggregateErr.Failures, 2)
	assert.Contains(t, err.Error(), "2 environment checks failed")
	assert.Contains(t, err.Error(), "first: not enough workers")
	assert.Contains(t, err.Error(), "third: storagecluster already exists")
}
