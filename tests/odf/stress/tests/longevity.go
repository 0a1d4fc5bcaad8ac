package tests

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/red-hat-storage/odf-gotests/pkg/namespace"
	"github.com/red-hat-storage/odf-gotests/pkg/pod"
	"github.com/red-hat-storage/odf-gotests/pkg/storage"
	"github.com/red-hat-storage/odf-gotests/tests/internal/cephtools"
	"github.com/red-hat-storage/odf-gotests/tests/internal/params"
	"github.com/red-hat-storage/odf-gotests/tests/internal/polarion"
	. "github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfinittools"
	"github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfparams"
	"github.com/red-hat-storage/odf-gotests/tests/odf/internal/stress"
	"github.com/red-hat-storage/odf-gotests/tests/odf/stress/internal/tsparams"
)

var _ = Describe(
	"Longevity stress",
	Ordered,
	ContinueOnFailure,
	Label(tsparams.Label), func() {
		var workloadPod *pod.Builder

		BeforeAll(func() {
			By("Creating the test namespace")
			_, err := namespace.NewBuilder(APIClient, tsparams.TestNamespace).
				WithMultipleLabels(params.PrivilegedNSLabels).
				WithMultipleLabels(odfparams.OwnedNamespaceLabels).
				Create()
			Expect(err).ToNot(HaveOccurred(), "Failed to create the test namespace")

			By("Provisioning the shared cephfs volume")
			pvcBuilder, err := storage.NewPVCBuilder(APIClient, tsparams.PVCName, tsparams.TestNamespace).
				WithPVCAccessMode("ReadWriteMany").
				WithPVCCapacity(tsparams.PVCCapacity).
				WithStorageClass(ODFConfig.CephFSStorageClass).
				Create()
			Expect(err).ToNot(HaveOccurred(), "Failed to create the shared PVC")
			Expect(pvcBuilder.WaitUntilBound(odfparams.DefaultTimeout)).ToNot(
				HaveOccurred(), "Shared PVC never bound")

			By("Starting the workload pod")
			workloadPod, err = pod.NewBuilder(
				APIClient, "stress-writer", tsparams.TestNamespace, tsparams.WorkloadImage).
				WithPVC(tsparams.PVCName, tsparams.MountPath).
				CreateAndWaitUntilRunning(odfparams.DefaultTimeout)
			Expect(err).ToNot(HaveOccurred(), "Workload pod never reached Running")
		})

		AfterAll(func() {
			By("Removing the test namespace")
			err := namespace.NewBuilder(APIClient, tsparams.TestNamespace).
				DeleteAndWait(odfparams.DefaultTimeout)
			Expect(err).ToNot(HaveOccurred(), "Failed to delete the test namespace")
		})

		It("Sustains write load with ceph staying healthy", polarion.ID("38650"), func() {
			runDuration, err := ODFConfig.StressRunDuration()
			Expect(err).ToNot(HaveOccurred(), "Invalid stress duration configured")

			runner, err := stress.NewRunner(stress.Settings{
				Writers:        tsparams.WriterCount,
				WriteInterval:  time.Second,
				HealthInterval: 30 * time.Second,
				Write:          stress.PodWriter(workloadPod, tsparams.MountPath, tsparams.WriteBlockCount),
				CheckHealth: func() error {
					status, err := cephtools.Status(APIClient, ODFConfig.StorageNamespace)
					if err != nil {
						return err
					}

					return cephtools.VerifyHealth(status, ODFConfig.MutedHealthChecks)
				},
			})
			Expect(err).ToNot(HaveOccurred(), "Failed to build the stress runner")

			By("Running the stress load")

			runner.Start()
			time.Sleep(runDuration)
			runner.Stop()

			Expect(runner.Errs()).To(BeEmpty(), "Stress run collected failures")

			By("Verifying ceph health after the load")

			err = cephtools.WaitForHealthOK(
				APIClient, ODFConfig.StorageNamespace, ODFConfig.MutedHealthChecks, odfparams.HealthRecoveryTimeout)
			Expect(err).ToNot(HaveOccurred(), "Ceph health never converged after the stress run")
		})
	})
