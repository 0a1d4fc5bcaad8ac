package tsparams

import (
	"time"
)

const (
	// Label represents the upgrade label that can be used for test cases selection.
	Label = "upgrade"

	// CSVSwitchTimeout bounds how long the subscription may take to point at the
	// next CSV after the channel changes.
	CSVSwitchTimeout = 10 * time.Minute

	// OperatorUpgradeTimeout bounds the install of the new CSV.
	OperatorUpgradeTimeout = 20 * time.Minute
)
