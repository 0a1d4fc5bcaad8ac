package tests

import (
	"fmt"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hashicorp/go-version"
	"github.com/red-hat-storage/odf-gotests/pkg/olm"
	"github.com/red-hat-storage/odf-gotests/pkg/storagecluster"
	"github.com/red-hat-storage/odf-gotests/tests/internal/cephtools"
	"github.com/red-hat-storage/odf-gotests/tests/internal/polarion"
	"github.com/red-hat-storage/odf-gotests/tests/odf/internal/drorder"
	. "github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfinittools"
	"github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfparams"
	"github.com/red-hat-storage/odf-gotests/tests/odf/upgrade/internal/tsparams"
)

var _ = Describe(
	"Storage operator upgrade",
	Ordered,
	ContinueOnFailure,
	Label(tsparams.Label), func() {
		var oldVersion *version.Version

		BeforeAll(func() {
			if ODFConfig.UpgradeChannel == "" || ODFConfig.UpgradeChannel == ODFConfig.SubscriptionChannel {
				Skip("No upgrade channel configured beyond the installed one")
			}
		})

		It("Plans the upgrade walk across the DR topology", polarion.ID("38660"), func() {
			if ODFConfig.DRClusters == "" {
				Skip("Single cluster deployment, no DR topology to rank")
			}

			topology, err := parseTopology(ODFConfig.DRClusters)
			Expect(err).ToNot(HaveOccurred(), "Failed to parse the DR topology")

			ranked, err := drorder.Rank(topology, drorder.PolicyMDR)
			Expect(err).ToNot(HaveOccurred(), "Failed to rank the DR topology")
			Expect(ranked).ToNot(BeEmpty(), "Ranking produced an empty walk")

			// The hub orchestrates replication, so it has to upgrade last.
			Expect(ranked[len(ranked)-1].Role).To(
				Equal(drorder.RoleHub), "The upgrade walk does not end at the hub")
		})

		It("Bumps the subscription channel and waits for the new CSV", polarion.ID("38661"), func() {
			subscription, err := olm.PullSubscription(
				APIClient, ODFConfig.OperatorPackage, ODFConfig.StorageNamespace)
			Expect(err).ToNot(HaveOccurred(), "Failed to pull the operator subscription")

			oldCSVName, err := subscription.CurrentCSV()
			Expect(err).ToNot(HaveOccurred(), "Subscription points at no CSV before the upgrade")

			oldCSV, err := olm.PullClusterServiceVersion(APIClient, oldCSVName, ODFConfig.StorageNamespace)
			Expect(err).ToNot(HaveOccurred(), "Failed to pull CSV %s", oldCSVName)

			oldVersion, err = version.NewVersion(oldCSV.Object.Spec.Version.String())
			Expect(err).ToNot(HaveOccurred(), "CSV %s carries an unparseable version", oldCSVName)

			By("Switching the subscription to the upgrade channel")

			_, err = subscription.WithChannel(ODFConfig.UpgradeChannel).Update()
			Expect(err).ToNot(HaveOccurred(), "Failed to update the subscription channel")

			By("Waiting for the subscription to resolve the next CSV")

			var newCSVName string
			Eventually(func() bool {
				newCSVName, err = subscription.CurrentCSV()

				return err == nil && newCSVName != oldCSVName
			}, tsparams.CSVSwitchTimeout, 10*time.Second).Should(
				BeTrue(), "Subscription never resolved a new CSV on channel %s", ODFConfig.UpgradeChannel)

			By("Waiting for the new CSV to succeed")

			newCSV, err := olm.PullClusterServiceVersion(APIClient, newCSVName, ODFConfig.StorageNamespace)
			Expect(err).ToNot(HaveOccurred(), "Failed to pull CSV %s", newCSVName)
			Expect(newCSV.WaitUntilSucceeded(tsparams.OperatorUpgradeTimeout)).ToNot(
				HaveOccurred(), "CSV %s never reached the Succeeded phase", newCSVName)

			By("Verifying the operator version moved forward")

			newVersion, err := version.NewVersion(newCSV.Object.Spec.Version.String())
			Expect(err).ToNot(HaveOccurred(), "CSV %s carries an unparseable version", newCSVName)
			Expect(newVersion.GreaterThan(oldVersion)).To(
				BeTrue(), "Operator version %s did not move past %s", newVersion, oldVersion)
		})

		It("Keeps the storage cluster healthy through the upgrade", polarion.ID("38662"), func() {
			storageCluster, err := storagecluster.Pull(
				APIClient, ODFConfig.StorageClusterName, ODFConfig.StorageNamespace)
			Expect(err).ToNot(HaveOccurred(), "Failed to pull the storagecluster")
			Expect(storageCluster.WaitUntilReady(odfparams.StorageClusterReadyTimeout)).ToNot(
				HaveOccurred(), "Storagecluster left the Ready phase during the upgrade")

			err = cephtools.WaitForHealthOK(
				APIClient, ODFConfig.StorageNamespace, ODFConfig.MutedHealthChecks, odfparams.HealthRecoveryTimeout)
			Expect(err).ToNot(HaveOccurred(), "Ceph health never converged after the upgrade")
		})
	})

// parseTopology decodes comma separated name:role:version triples, with an
// optional zone as name:role:zone:version.
func parseTopology(encoded string) ([]drorder.Cluster, error) {
	var topology []drorder.Cluster

	for _, entry := range strings.Split(encoded, ",") {
		fields := strings.Split(strings.TrimSpace(entry), ":")

		switch len(fields) {
		case 3:
			topology = append(topology, drorder.Cluster{
				Name: fields[0], Role: fields[1], Version: fields[2],
			})
		case 4:
			topology = append(topology, drorder.Cluster{
				Name: fields[0], Role: fields[1], Zone: fields[2], Version: fields[3],
			})
		default:
			return nil, fmt.Errorf("malformed DR topology entry %q", entry)
		}
	}

	return topology, nil
}
