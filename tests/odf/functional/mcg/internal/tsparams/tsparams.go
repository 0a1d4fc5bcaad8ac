package tsparams

const (
	// Label represents the mcg label that can be used for test cases selection.
	Label = "mcg"

	// TestNamespace holds the bucket claims the suite creates.
	TestNamespace = "odf-mcg-tests"

	// NooBaaName is the NooBaa system name the odf operator deploys.
	NooBaaName = "noobaa"

	// ClaimName is the object bucket claim the suite creates.
	ClaimName = "mcg-smoke-claim"

	// S3ServiceName is the service fronting the NooBaa S3 endpoint.
	S3ServiceName = "s3"

	// ObjectKey is the key the S3 round trip writes.
	ObjectKey = "smoke/probe.txt"

	// ObjectBody is the payload the S3 round trip writes.
	ObjectBody = "mcg object service smoke payload"
)
