package monitoring

import (
	"runtime"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/red-hat-storage/odf-gotests/tests/internal/polarion"
	"github.com/red-hat-storage/odf-gotests/tests/internal/reporter"
	. "github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfinittools"
	"github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfparams"
	"github.com/red-hat-storage/odf-gotests/tests/odf/monitoring/internal/tsparams"
	_ "github.com/red-hat-storage/odf-gotests/tests/odf/monitoring/tests"
)

var _, currentFile, _, _ = runtime.Caller(0)

func TestMonitoring(t *testing.T) {
	_, reporterConfig := GinkgoConfiguration()
	reporterConfig.JUnitReport = ODFConfig.GetJunitReportPath(currentFile)

	RegisterFailHandler(Fail)
	RunSpecs(t, "Monitoring", Label(append(odfparams.Labels, tsparams.Label)...), reporterConfig)
}

var _ = JustAfterEach(func() {
	reporter.ReportIfFailed(
		CurrentSpecReport(), currentFile, odfparams.ReporterNamespacesToDump, odfparams.ReporterCRDsToDump)
})

var _ = ReportAfterSuite("", func(report Report) {
	polarion.CreateReport(
		report, ODFConfig.GetPolarionReportPath(), ODFConfig.TCPrefix)
})
