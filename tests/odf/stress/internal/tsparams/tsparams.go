package tsparams

const (
	// Label represents the stress label that can be used for test cases selection.
	Label = "stress"

	// TestNamespace holds the stress workload.
	TestNamespace = "odf-stress-tests"

	// WorkloadImage backs the pod writing into the shared volume.
	WorkloadImage = "registry.access.redhat.com/ubi9/ubi:latest"

	// PVCName is the shared cephfs volume the writers target.
	PVCName = "stress-shared-data"

	// PVCCapacity requested for the shared volume.
	PVCCapacity = "50Gi"

	// MountPath of the shared volume inside the workload pod.
	MountPath = "/mnt/stress"

	// WriterCount is the number of concurrent writer goroutines.
	WriterCount = 4

	// WriteBlockCount is the number of 1M blocks each write lays down.
	WriteBlockCount = 64
)
