package params

const (
	// PolarionTCPrefix is used as a prefix for the polarion reporter. Example OCS-1111 where [OCS-] is the
	// prefix and 1111 is the test case ID.
	PolarionTCPrefix = "OCS-"
)
