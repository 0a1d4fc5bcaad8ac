package tsparams

import (
	"time"
)

const (
	// Label represents the pvc label that can be used for test cases selection.
	Label = "pvc"

	// TestNamespace holds the workloads the suite creates.
	TestNamespace = "odf-pvc-tests"

	// WorkloadImage backs the pods attaching the volumes.
	WorkloadImage = "registry.access.redhat.com/ubi9/ubi:latest"

	// PVCCapacity requested for every volume.
	PVCCapacity = "5Gi"

	// BulkPVCCount is the number of volumes the concurrent deletion case creates.
	BulkPVCCount = 10

	// BulkDeleteParallelism bounds the concurrent deletions.
	BulkDeleteParallelism = 5

	// BindTimeout bounds dynamic provisioning of one volume.
	BindTimeout = 3 * time.Minute
)
