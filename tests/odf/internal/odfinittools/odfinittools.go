package odfinittools

import (
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	"github.com/red-hat-storage/odf-gotests/tests/internal/inittools"
	"github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfconfig"
)

var (
	// APIClient provides API access to cluster.
	APIClient *clients.Settings
	// ODFConfig provides access to general configuration parameters.
	ODFConfig *odfconfig.ODFConfig
)

// init loads all variables automatically when this package is imported. Once package is imported a user has full
// access to all vars within init function. It is recommended to import this package using dot import.
func init() {
	ODFConfig = odfconfig.NewOdfConfig()
	APIClient = inittools.APIClient
}
