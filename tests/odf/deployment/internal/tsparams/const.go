package tsparams

import "time"

const (
	// Label represents the deployment label that can be used for test cases selection.
	Label = "deployment"

	// OperatorGroupName is the operatorgroup created for the storage operator install.
	OperatorGroupName = "openshift-storage-operatorgroup"

	// DeviceSetName is the name given to the default storage device set.
	DeviceSetName = "ocs-deviceset"

	// DeviceSetCount is the number of device sets.
	DeviceSetCount = 1

	// DeviceSetReplica spreads one OSD per failure domain.
	DeviceSetReplica = 3

	// LSONamespace is where the local storage operator watches LocalVolumeSets.
	LSONamespace = "openshift-local-storage"

	// StorageNodeLabel marks the nodes whose disks back the device sets.
	StorageNodeLabel = "cluster.ocs.openshift.io/openshift-storage"

	// MinDeviceSize filters out small disks, e.g. the boot device, from
	// local volume discovery.
	MinDeviceSize = "100Gi"

	// LocalVolumeProvisionTimeout bounds local device discovery and PV creation.
	LocalVolumeProvisionTimeout = 10 * time.Minute
)
