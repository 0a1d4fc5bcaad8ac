package tests

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/red-hat-storage/odf-gotests/pkg/namespace"
	"github.com/red-hat-storage/odf-gotests/pkg/pod"
	"github.com/red-hat-storage/odf-gotests/pkg/storage"
	"github.com/red-hat-storage/odf-gotests/tests/internal/params"
	"github.com/red-hat-storage/odf-gotests/tests/internal/polarion"
	"github.com/red-hat-storage/odf-gotests/tests/odf/functional/pvc/internal/tsparams"
	. "github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfinittools"
	"github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfparams"
	"golang.org/x/sync/errgroup"
)

var _ = Describe(
	"PVC lifecycle",
	Ordered,
	ContinueOnFailure,
	Label(tsparams.Label), func() {
		BeforeAll(func() {
			By("Creating the test namespace")
			_, err := namespace.NewBuilder(APIClient, tsparams.TestNamespace).
				WithMultipleLabels(params.PrivilegedNSLabels).
				WithMultipleLabels(odfparams.OwnedNamespaceLabels).
				Create()
			Expect(err).ToNot(HaveOccurred(), "Failed to create the test namespace")
		})

		AfterAll(func() {
			By("Removing the test namespace")
			err := namespace.NewBuilder(APIClient, tsparams.TestNamespace).
				DeleteAndWait(odfparams.DefaultTimeout)
			Expect(err).ToNot(HaveOccurred(), "Failed to delete the test namespace")
		})

		It("Provisions and attaches a ceph block backed volume", polarion.ID("38610"), func() {
			verifyVolumeLifecycle("rbd-workload", ODFConfig.CephBlockStorageClass)
		})

		It("Provisions and attaches a cephfs backed volume", polarion.ID("38611"), func() {
			verifyVolumeLifecycle("cephfs-workload", ODFConfig.CephFSStorageClass)
		})

		It("Provisions a raw block volume", polarion.ID("38612"), func() {
			pvcBuilder, err := storage.NewPVCBuilder(APIClient, "raw-block", tsparams.TestNamespace).
				WithPVCAccessMode("ReadWriteOnce").
				WithPVCCapacity(tsparams.PVCCapacity).
				WithStorageClass(ODFConfig.CephBlockStorageClass).
				WithVolumeMode("Block").
				Create()
			Expect(err).ToNot(HaveOccurred(), "Failed to create the raw block PVC")

			Expect(pvcBuilder.WaitUntilBound(tsparams.BindTimeout)).ToNot(
				HaveOccurred(), "Raw block PVC never bound")

			Expect(pvcBuilder.DeleteAndWait(odfparams.DefaultTimeout)).ToNot(
				HaveOccurred(), "Failed to delete the raw block PVC")
		})

		It("Deletes a bulk of volumes concurrently", polarion.ID("38613"), func() {
			By("Provisioning the volumes")

			var pvcBuilders []*storage.PVCBuilder

			for index := 0; index < tsparams.BulkPVCCount; index++ {
				pvcBuilder, err := storage.NewPVCBuilder(
					APIClient, fmt.Sprintf("bulk-%d", index), tsparams.TestNamespace).
					WithPVCAccessMode("ReadWriteOnce").
					WithPVCCapacity(tsparams.PVCCapacity).
					WithStorageClass(ODFConfig.CephBlockStorageClass).
					Create()
				Expect(err).ToNot(HaveOccurred(), "Failed to create PVC bulk-%d", index)

				pvcBuilders = append(pvcBuilders, pvcBuilder)
			}

			for _, pvcBuilder := range pvcBuilders {
				Expect(pvcBuilder.WaitUntilBound(tsparams.BindTimeout)).ToNot(
					HaveOccurred(), "PVC %s never bound", pvcBuilder.Definition.Name)
			}

			By("Deleting the volumes concurrently")

			var errGroup errgroup.Group

			errGroup.SetLimit(tsparams.BulkDeleteParallelism)

			for _, pvcBuilder := range pvcBuilders {
				deletedPVC := pvcBuilder

				errGroup.Go(func() error {
					return deletedPVC.DeleteAndWait(odfparams.DefaultTimeout)
				})
			}

			Expect(errGroup.Wait()).ToNot(HaveOccurred(), "Concurrent PVC deletion failed")
		})
	})

// verifyVolumeLifecycle provisions a filesystem volume from the given class,
// attaches it to a pod, proves data written survives a reread and tears both
// down, waiting for the backing PV to go away.
func verifyVolumeLifecycle(name, storageClass string) {
	By("Provisioning the volume")

	pvcBuilder, err := storage.NewPVCBuilder(APIClient, name, tsparams.TestNamespace).
		WithPVCAccessMode("ReadWriteOnce").
		WithPVCCapacity(tsparams.PVCCapacity).
		WithStorageClass(storageClass).
		Create()
	Expect(err).ToNot(HaveOccurred(), "Failed to create the PVC")

	Expect(pvcBuilder.WaitUntilBound(tsparams.BindTimeout)).ToNot(HaveOccurred(), "PVC never bound")

	boundPVC, err := storage.PullPVC(APIClient, name, tsparams.TestNamespace)
	Expect(err).ToNot(HaveOccurred(), "Failed to pull the bound PVC")

	volumeName := boundPVC.Object.Spec.VolumeName
	Expect(volumeName).ToNot(BeEmpty(), "Bound PVC carries no volume name")

	By("Attaching the volume to a pod")

	workloadPod, err := pod.NewBuilder(APIClient, name, tsparams.TestNamespace, tsparams.WorkloadImage).
		WithPVC(name, "/mnt/data").
		CreateAndWaitUntilRunning(odfparams.DefaultTimeout)
	Expect(err).ToNot(HaveOccurred(), "Workload pod never reached Running")

	By("Writing and reading back data")

	_, err = workloadPod.ExecCommand([]string{"sh", "-c", "echo storage-smoke > /mnt/data/probe"})
	Expect(err).ToNot(HaveOccurred(), "Failed to write to the mounted volume")

	output, err := workloadPod.ExecCommand([]string{"sh", "-c", "cat /mnt/data/probe"})
	Expect(err).ToNot(HaveOccurred(), "Failed to read from the mounted volume")
	Expect(output.String()).To(ContainSubstring("storage-smoke"), "Read data does not match what was written")

	By("Tearing down the workload")

	_, err = workloadPod.DeleteAndWait(odfparams.DefaultTimeout)
	Expect(err).ToNot(HaveOccurred(), "Failed to delete the workload pod")

	Expect(pvcBuilder.DeleteAndWait(odfparams.DefaultTimeout)).ToNot(
		HaveOccurred(), "Failed to delete the PVC")

	By("Waiting for the backing PV to be reclaimed")

	backingPV := storage.NewPVBuilder(APIClient, volumeName)
	Expect(backingPV.WaitUntilDeleted(odfparams.DefaultTimeout)).ToNot(
		HaveOccurred(), "Backing PV %s was never reclaimed", volumeName)
}
