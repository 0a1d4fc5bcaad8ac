package tsparams

import (
	"github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfparams"
)

var (
	// Labels represents the range of labels that can be used for test cases selection.
	Labels = append(odfparams.Labels, Label)

	// OperatorDeployments are the deployments the operator install has to bring up.
	OperatorDeployments = []string{
		"odf-operator-controller-manager",
		"ocs-operator",
		"rook-ceph-operator",
		"noobaa-operator",
	}

	// CSIDaemonSets are the rook CSI plugin daemonsets serving the storage classes.
	CSIDaemonSets = []string{
		"csi-rbdplugin",
		"csi-cephfsplugin",
	}
)
