package reporter

import (
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	"k8s.io/apimachinery/pkg/runtime"
)

// clients.SetScheme already registers every storage resource the framework touches,
// including the rook, noobaa, bucket and local-storage CRDs.
var reporterSchemes = []func(scheme *runtime.Scheme) error{
	clients.SetScheme,
}

func setReporterSchemes(scheme *runtime.Scheme) error {
	for _, schemeAttacher := range reporterSchemes {
		if err := schemeAttacher(scheme); err != nil {
			return err
		}
	}

	return nil
}
