package odfparams

import (
	"time"
)

const (
	// Label represents the odf label that can be used for test cases selection.
	Label = "odf"

	// OdfLogLevel represents the default log level for the odf suites.
	OdfLogLevel = 90

	// DefaultTimeout represents the default timeout for resource convergence.
	DefaultTimeout = 300 * time.Second

	// StorageClusterReadyTimeout allows the initial ceph bootstrap to finish.
	StorageClusterReadyTimeout = 30 * time.Minute

	// HealthRecoveryTimeout bounds ceph health re-convergence after disruption.
	HealthRecoveryTimeout = 15 * time.Minute
)
