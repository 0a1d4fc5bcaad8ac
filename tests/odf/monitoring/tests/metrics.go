package tests

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	monv1 "github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring/v1"
	"github.com/red-hat-storage/odf-gotests/tests/internal/polarion"
	"github.com/red-hat-storage/odf-gotests/tests/internal/prometheus"
	. "github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfinittools"
	"github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfparams"
	"github.com/red-hat-storage/odf-gotests/tests/odf/monitoring/internal/tsparams"
	goclient "sigs.k8s.io/controller-runtime/pkg/client"
)

var _ = Describe(
	"Storage metrics",
	Ordered,
	ContinueOnFailure,
	Label(tsparams.Label), func() {
		var promClient *prometheus.Client

		BeforeAll(func() {
			By("Building the in-cluster prometheus client")

			var err error
			promClient, err = prometheus.NewClient(APIClient)
			Expect(err).ToNot(HaveOccurred(), "Failed to build the prometheus client")
		})

		It("Reports healthy ceph through metrics", polarion.ID("38640"), func() {
			err := promClient.WaitForValue(tsparams.CephHealthQuery, 0, odfparams.DefaultTimeout)
			Expect(err).ToNot(HaveOccurred(), "ceph_health_status never reported HEALTH_OK")
		})

		It("Reports consistent raw capacity", polarion.ID("38641"), func() {
			totalBytes, err := promClient.QueryScalar(tsparams.TotalCapacityQuery)
			Expect(err).ToNot(HaveOccurred(), "Failed to query the total capacity")
			Expect(totalBytes).To(BeNumerically(">", 0), "Total capacity is not positive")

			usedBytes, err := promClient.QueryScalar(tsparams.UsedCapacityQuery)
			Expect(err).ToNot(HaveOccurred(), "Failed to query the used capacity")
			Expect(usedBytes).To(BeNumerically(">", 0), "Used capacity is not positive")
			Expect(usedBytes).To(BeNumerically("<", totalBytes),
				"Used capacity exceeds the total capacity")
		})

		It("Reports no down OSDs", polarion.ID("38642"), func() {
			samples, err := promClient.Query(tsparams.DownOSDsQuery)
			Expect(err).ToNot(HaveOccurred(), "Failed to query for down OSDs")
			Expect(samples.Array()).To(BeEmpty(), "Some OSDs are reported down")
		})

		It("Ships the ceph alerting rules", polarion.ID("38643"), func() {
			cephRules := &monv1.PrometheusRule{}

			err := APIClient.Get(context.TODO(), goclient.ObjectKey{
				Name:      tsparams.CephRulesName,
				Namespace: ODFConfig.StorageNamespace,
			}, cephRules)
			Expect(err).ToNot(HaveOccurred(), "PrometheusRule %s does not exist", tsparams.CephRulesName)
			Expect(cephRules.Spec.Groups).ToNot(BeEmpty(), "Ceph alerting rules carry no rule groups")
		})
	})
