package odfparams

import (
	nbv1 "github.com/noobaa/noobaa-operator/v5/pkg/apis/noobaa/v1alpha1"
	"github.com/openshift-kni/k8sreporter"
	ocsv1 "github.com/red-hat-storage/ocs-operator/api/v1"
	cephv1 "github.com/rook/rook/pkg/apis/ceph.rook.io/v1"
	corev1 "k8s.io/api/core/v1"
)

var (
	// Labels represents the range of labels that can be used for test cases selection.
	Labels = []string{Label}

	// OwnedNamespaceLabels mark the namespaces the suites create so the cleanup
	// CLI can find them later.
	OwnedNamespaceLabels = map[string]string{"odf-gotests": "true"}

	// ReporterNamespacesToDump tells to the reporter from where to collect logs.
	ReporterNamespacesToDump = map[string]string{
		"openshift-storage":                "openshift-storage",
		"openshift-local-storage":          "openshift-local-storage",
		"openshift-storage-client":         "openshift-storage-client",
		"openshift-storage-extended-tests": "odf-tests",
	}

	// ReporterCRDsToDump tells to the reporter what CRs to dump.
	ReporterCRDsToDump = []k8sreporter.CRData{
		{Cr: &corev1.PodList{}},
		{Cr: &corev1.PersistentVolumeClaimList{}},
		{Cr: &ocsv1.StorageClusterList{}},
		{Cr: &cephv1.CephClusterList{}},
		{Cr: &nbv1.NooBaaList{}},
	}
)
