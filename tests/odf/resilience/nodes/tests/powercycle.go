package tests

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/red-hat-storage/odf-gotests/pkg/nodes"
	"github.com/red-hat-storage/odf-gotests/pkg/pod"
	"github.com/red-hat-storage/odf-gotests/tests/internal/cephtools"
	"github.com/red-hat-storage/odf-gotests/tests/internal/cluster"
	"github.com/red-hat-storage/odf-gotests/tests/internal/polarion"
	. "github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfinittools"
	"github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfparams"
	"github.com/red-hat-storage/odf-gotests/tests/odf/internal/platform"
	"github.com/red-hat-storage/odf-gotests/tests/odf/resilience/nodes/internal/tsparams"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

var _ = Describe(
	"Node power resilience",
	Ordered,
	ContinueOnFailure,
	Label(tsparams.Label), func() {
		var provider platform.Provider

		BeforeAll(func() {
			if ODFConfig.Platform == "" {
				Skip("No platform configured, disruptive node cases need power control")
			}

			var err error
			provider, err = platform.New(context.TODO(), ODFConfig.PlatformSettings())
			Expect(err).ToNot(HaveOccurred(), "Failed to build the platform provider")

			By("Verifying ceph is healthy before disrupting anything")
			err = cephtools.WaitForHealthOK(
				APIClient, ODFConfig.StorageNamespace, ODFConfig.MutedHealthChecks, odfparams.DefaultTimeout)
			Expect(err).ToNot(HaveOccurred(), "Ceph is not healthy before the disruption")
		})

		It("Recovers from an unplanned worker power loss", polarion.ID("38630"), func() {
			By("Choosing a worker running an OSD")

			osdPods, err := pod.List(APIClient, ODFConfig.StorageNamespace, metav1.ListOptions{
				LabelSelector: tsparams.OSDPodLabel,
			})
			Expect(err).ToNot(HaveOccurred(), "Failed to list OSD pods")
			Expect(osdPods).ToNot(BeEmpty(), "No OSD pods found in the storage namespace")

			nodeName := osdPods[0].Object.Spec.NodeName
			Expect(nodeName).ToNot(BeEmpty(), "OSD pod carries no node name")

			workerNode, err := nodes.Pull(APIClient, nodeName)
			Expect(err).ToNot(HaveOccurred(), "Failed to pull node %s", nodeName)

			By("Powering the node off")

			Expect(provider.PowerOff(context.TODO(), nodeName)).ToNot(
				HaveOccurred(), "Failed to power off node %s", nodeName)
			Expect(platform.WaitForState(
				context.TODO(), provider, nodeName, platform.StateStopped, odfparams.DefaultTimeout)).ToNot(
				HaveOccurred(), "Node %s never stopped at the platform layer", nodeName)

			By("Waiting for kubernetes to mark the node not ready")

			Expect(workerNode.WaitUntilNotReady(odfparams.DefaultTimeout)).ToNot(
				HaveOccurred(), "Node %s never went NotReady", nodeName)

			By("Powering the node back on")

			Expect(provider.PowerOn(context.TODO(), nodeName)).ToNot(
				HaveOccurred(), "Failed to power on node %s", nodeName)
			Expect(platform.WaitForState(
				context.TODO(), provider, nodeName, platform.StateRunning, odfparams.DefaultTimeout)).ToNot(
				HaveOccurred(), "Node %s never started at the platform layer", nodeName)

			Expect(workerNode.WaitUntilReady(odfparams.HealthRecoveryTimeout)).ToNot(
				HaveOccurred(), "Node %s never came back Ready", nodeName)

			By("Waiting for the storage workloads to recover")

			err = cluster.WaitForRecovery(
				APIClient, []string{ODFConfig.StorageNamespace}, odfparams.HealthRecoveryTimeout)
			Expect(err).ToNot(HaveOccurred(), "Storage workloads never recovered")

			By("Waiting for ceph health to converge")

			err = cephtools.WaitForHealthOK(
				APIClient, ODFConfig.StorageNamespace, ODFConfig.MutedHealthChecks, odfparams.HealthRecoveryTimeout)
			Expect(err).ToNot(HaveOccurred(), "Ceph health never converged after the power cycle")
		})

		It("Survives a full worker power cycle in one motion", polarion.ID("38631"), func() {
			By("Choosing a worker running an OSD")

			osdPods, err := pod.List(APIClient, ODFConfig.StorageNamespace, metav1.ListOptions{
				LabelSelector: tsparams.OSDPodLabel,
			})
			Expect(err).ToNot(HaveOccurred(), "Failed to list OSD pods")
			Expect(osdPods).ToNot(BeEmpty(), "No OSD pods found in the storage namespace")

			nodeName := osdPods[len(osdPods)-1].Object.Spec.NodeName

			By("Power cycling the node")

			Expect(platform.Cycle(
				context.TODO(), provider, nodeName, odfparams.DefaultTimeout)).ToNot(
				HaveOccurred(), "Failed to power cycle node %s", nodeName)

			workerNode, err := nodes.Pull(APIClient, nodeName)
			Expect(err).ToNot(HaveOccurred(), "Failed to pull node %s", nodeName)
			Expect(workerNode.WaitUntilReady(odfparams.HealthRecoveryTimeout)).ToNot(
				HaveOccurred(), "Node %s never came back Ready", nodeName)

			By("Waiting for ceph health to converge")

			err = cephtools.WaitForHealthOK(
				APIClient, ODFConfig.StorageNamespace, ODFConfig.MutedHealthChecks, odfparams.HealthRecoveryTimeout)
			Expect(err).ToNot(HaveOccurred(), "Ceph health never converged after the power cycle")
		})
	})
