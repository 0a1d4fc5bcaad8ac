package reporter

import (
	"strings"

	"github.com/golang/glog"
	"github.com/onsi/ginkgo/v2/types"
	"github.com/openshift-kni/k8sreporter"

	. "github.com/red-hat-storage/odf-gotests/tests/internal/inittools"
)

// ReportIfFailed dumps the watched namespaces and custom resources when the given
// spec report ends in a failure state.
func ReportIfFailed(
	report types.SpecReport, testSuite string, nsToDump map[string]string, crsToDump []k8sreporter.CRData) {
	if !types.SpecStateFailureStates.Is(report.State) {
		return
	}

	dumpDir := GeneralConfig.GetDumpFailedTestReportLocation(testSuite)
	if dumpDir == "" {
		return
	}

	dumpNamespace := func(namespace string) bool {
		_, ok := nsToDump[namespace]

		return ok
	}

	clusterReporter, err := k8sreporter.New("", setReporterSchemes, dumpNamespace, dumpDir, crsToDump...)
	if err != nil {
		glog.Fatalf("Failed to create log reporter due to %s", err.Error())
	}

	tcReportFolderName := strings.ReplaceAll(report.FullText(), " ", "_")

	clusterReporter.Dump(report.RunTime, tcReportFolderName)
}
