package tests

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	olmv1alpha1 "github.com/operator-framework/api/pkg/operators/v1alpha1"
	"github.com/red-hat-storage/odf-gotests/pkg/cephcluster"
	"github.com/red-hat-storage/odf-gotests/pkg/daemonset"
	"github.com/red-hat-storage/odf-gotests/pkg/deployment"
	"github.com/red-hat-storage/odf-gotests/pkg/localvolume"
	"github.com/red-hat-storage/odf-gotests/pkg/namespace"
	"github.com/red-hat-storage/odf-gotests/pkg/olm"
	"github.com/red-hat-storage/odf-gotests/pkg/storage"
	"github.com/red-hat-storage/odf-gotests/pkg/storagecluster"
	"github.com/red-hat-storage/odf-gotests/tests/internal/cephtools"
	"github.com/red-hat-storage/odf-gotests/tests/internal/polarion"
	"github.com/red-hat-storage/odf-gotests/tests/odf/deployment/internal/tsparams"
	. "github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfinittools"
	"github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfparams"
	"github.com/red-hat-storage/odf-gotests/tests/odf/internal/precheck"
	cephv1 "github.com/rook/rook/pkg/apis/ceph.rook.io/v1"
)

var _ = Describe(
	"Storage cluster deployment",
	Ordered,
	ContinueOnFailure,
	Label(tsparams.Label), func() {
		BeforeAll(func() {
			By("Running pre-flight environment checks")
			profile := precheck.DefaultProfile(
				ODFConfig.DeviceSetStorageClass, ODFConfig.StorageNamespace, ODFConfig.StorageClusterName)
			err := precheck.RunAll(precheck.DeploymentChecks(APIClient, profile))
			Expect(err).ToNot(HaveOccurred(), "Cluster does not meet the deployment requirements")
		})

		It("Installs the storage operator through OLM", polarion.ID("38601"), func() {
			By("Ensuring the storage namespace exists with cluster monitoring enabled")
			_, err := namespace.NewBuilder(APIClient, ODFConfig.StorageNamespace).
				WithLabel("openshift.io/cluster-monitoring", "true").Create()
			Expect(err).ToNot(HaveOccurred(), "Failed to create the storage namespace")

			By("Creating the operatorgroup")
			_, err = olm.NewOperatorGroupBuilder(
				APIClient, tsparams.OperatorGroupName, ODFConfig.StorageNamespace).Create()
			Expect(err).ToNot(HaveOccurred(), "Failed to create the operatorgroup")

			By("Subscribing to the storage operator package")
			subscription, err := olm.NewSubscriptionBuilder(
				APIClient,
				ODFConfig.OperatorPackage,
				ODFConfig.StorageNamespace,
				ODFConfig.CatalogSource,
				ODFConfig.CatalogSourceNamespace,
				ODFConfig.OperatorPackage).
				WithChannel(ODFConfig.SubscriptionChannel).
				WithInstallPlanApproval(olmv1alpha1.ApprovalAutomatic).
				Create()
			Expect(err).ToNot(HaveOccurred(), "Failed to create the subscription")

			By("Waiting for the subscription to resolve a CSV")
			var csvName string
			Eventually(func() error {
				csvName, err = subscription.CurrentCSV()

				return err
			}, odfparams.DefaultTimeout, 10*time.Second).Should(
				Succeed(), "Subscription never resolved a CSV")

			By("Waiting for the CSV to succeed")
			csv, err := olm.PullClusterServiceVersion(APIClient, csvName, ODFConfig.StorageNamespace)
			Expect(err).ToNot(HaveOccurred(), "Failed to pull CSV %s", csvName)
			Expect(csv.WaitUntilSucceeded(odfparams.DefaultTimeout)).ToNot(
				HaveOccurred(), "CSV %s never reached the Succeeded phase", csvName)
		})

		It("Provisions local block devices for the device sets", polarion.ID("38607"), func() {
			if ODFConfig.LocalVolumeSetName == "" {
				Skip("Device sets are served by a cloud provisioner, no local volumes needed")
			}

			By("Creating the local volume set")
			localVolumeSet, err := localvolume.NewSetBuilder(
				APIClient,
				ODFConfig.LocalVolumeSetName,
				tsparams.LSONamespace,
				ODFConfig.DeviceSetStorageClass).
				WithNodeSelector(tsparams.StorageNodeLabel, "").
				WithDeviceInclusionSpec(tsparams.MinDeviceSize).
				Create()
			Expect(err).ToNot(HaveOccurred(), "Failed to create the local volume set")

			By("Waiting for the discovered devices to become PVs")
			Expect(localVolumeSet.WaitUntilProvisioned(
				tsparams.DeviceSetCount*tsparams.DeviceSetReplica, tsparams.LocalVolumeProvisionTimeout)).ToNot(
				HaveOccurred(), "Local volume set never provisioned enough devices")
		})

		It("Creates the storage cluster and waits for ceph bootstrap", polarion.ID("38602"), func() {
			storageCluster, err := storagecluster.NewBuilder(
				APIClient, ODFConfig.StorageClusterName, ODFConfig.StorageNamespace).
				WithManagedResources().
				WithStorageDeviceSet(
					tsparams.DeviceSetName,
					ODFConfig.DeviceSetStorageClass,
					ODFConfig.DeviceSetCapacity,
					tsparams.DeviceSetCount,
					tsparams.DeviceSetReplica).
				Create()
			Expect(err).ToNot(HaveOccurred(), "Failed to create the storagecluster")

			Expect(storageCluster.WaitUntilReady(odfparams.StorageClusterReadyTimeout)).ToNot(
				HaveOccurred(), "Storagecluster never reached the Ready phase")
		})

		It("Verifies the operator deployments are ready", polarion.ID("38603"), func() {
			for _, deploymentName := range tsparams.OperatorDeployments {
				operatorDeployment, err := deployment.Pull(
					APIClient, deploymentName, ODFConfig.StorageNamespace)
				Expect(err).ToNot(HaveOccurred(), "Failed to pull deployment %s", deploymentName)
				Expect(operatorDeployment.IsReady(odfparams.DefaultTimeout)).To(
					BeTrue(), "Deployment %s is not Ready", deploymentName)
			}
		})

		It("Verifies the CSI daemonsets cover the worker nodes", polarion.ID("38604"), func() {
			for _, daemonSetName := range tsparams.CSIDaemonSets {
				csiDaemonSet, err := daemonset.Pull(APIClient, daemonSetName, ODFConfig.StorageNamespace)
				Expect(err).ToNot(HaveOccurred(), "Failed to pull daemonset %s", daemonSetName)
				Expect(csiDaemonSet.IsReady(odfparams.DefaultTimeout)).To(
					BeTrue(), "Daemonset %s is not Ready", daemonSetName)
			}
		})

		It("Verifies the default storage classes exist", polarion.ID("38605"), func() {
			for _, className := range []string{
				ODFConfig.CephBlockStorageClass,
				ODFConfig.CephFSStorageClass,
				ODFConfig.MCGStorageClass,
			} {
				_, err := storage.PullClass(APIClient, className)
				Expect(err).ToNot(HaveOccurred(), "Storage class %s does not exist", className)
			}
		})

		It("Reports ceph HEALTH_OK", polarion.ID("38606"), func() {
			err := cephtools.WaitForHealthOK(
				APIClient, ODFConfig.StorageNamespace, ODFConfig.MutedHealthChecks, odfparams.HealthRecoveryTimeout)
			Expect(err).ToNot(HaveOccurred(), "Ceph never reported HEALTH_OK")
		})

		It("Reflects the ceph health in the cephcluster resource", polarion.ID("38608"), func() {
			cephCluster, err := cephcluster.Pull(
				APIClient, ODFConfig.CephClusterName(), ODFConfig.StorageNamespace)
			Expect(err).ToNot(HaveOccurred(), "Failed to pull the cephcluster")

			Expect(cephCluster.WaitUntilPhase(cephv1.ConditionReady, odfparams.DefaultTimeout)).ToNot(
				HaveOccurred(), "Cephcluster never reached the Ready phase")
			Expect(cephCluster.WaitUntilHealthOK(odfparams.DefaultTimeout)).ToNot(
				HaveOccurred(), "Cephcluster status never reported HEALTH_OK")
		})

		AfterAll(func() {
			if !ODFConfig.Teardown {
				return
			}

			By("Deleting the storage cluster")
			storageCluster, err := storagecluster.Pull(
				APIClient, ODFConfig.StorageClusterName, ODFConfig.StorageNamespace)
			if err == nil {
				Expect(storageCluster.DeleteAndWait(odfparams.StorageClusterReadyTimeout)).ToNot(
					HaveOccurred(), "Failed to delete the storagecluster")
			}

			By("Removing the operator subscription and CSV")
			subscription, err := olm.PullSubscription(
				APIClient, ODFConfig.OperatorPackage, ODFConfig.StorageNamespace)
			if err == nil {
				csvName, csvErr := subscription.CurrentCSV()
				Expect(subscription.Delete()).ToNot(HaveOccurred(), "Failed to delete the subscription")

				if csvErr == nil {
					csv, pullErr := olm.PullClusterServiceVersion(APIClient, csvName, ODFConfig.StorageNamespace)
					if pullErr == nil {
						Expect(csv.Delete()).ToNot(HaveOccurred(), "Failed to delete the CSV")
					}
				}
			}

			By("Removing the operatorgroup")
			Expect(olm.NewOperatorGroupBuilder(
				APIClient, tsparams.OperatorGroupName, ODFConfig.StorageNamespace).Delete()).ToNot(
				HaveOccurred(), "Failed to delete the operatorgroup")

			if ODFConfig.LocalVolumeSetName != "" {
				By("Removing the local volume set")
				Expect(localvolume.NewSetBuilder(
					APIClient,
					ODFConfig.LocalVolumeSetName,
					tsparams.LSONamespace,
					ODFConfig.DeviceSetStorageClass).Delete()).ToNot(
					HaveOccurred(), "Failed to delete the local volume set")
			}
		})
	})
