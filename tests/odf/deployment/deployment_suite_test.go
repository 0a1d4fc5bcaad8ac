package deployment

import (
	"runtime"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/red-hat-storage/odf-gotests/tests/internal/polarion"
	"github.com/red-hat-storage/odf-gotests/tests/internal/reporter"
	"github.com/red-hat-storage/odf-gotests/tests/odf/deployment/internal/tsparams"
	_ "github.com/red-hat-storage/odf-gotests/tests/odf/deployment/tests"
	. "github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfinittools"
	"github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfparams"
)

var _, currentFile, _, _ = runtime.Caller(0)

func TestDeployment(t *testing.T) {
	_, reporterConfig := GinkgoConfiguration()
	reporterConfig.JUnitReport = ODFConfig.GetJunitReportPath(currentFile)

	RegisterFailHandler(Fail)
	RunSpecs(t, "Deployment", Label(tsparams.Labels...), reporterConfig)
}

var _ = JustAfterEach(func() {
	reporter.ReportIfFailed(
		CurrentSpecReport(), currentFile, odfparams.ReporterNamespacesToDump, odfparams.ReporterCRDsToDump)
})

var _ = ReportAfterSuite("", func(report Report) {
	polarion.CreateReport(
		report, ODFConfig.GetPolarionReportPath(), ODFConfig.TCPrefix)
})
