package mcg

import (
	"runtime"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/red-hat-storage/odf-gotests/tests/internal/polarion"
	"github.com/red-hat-storage/odf-gotests/tests/internal/reporter"
	"github.com/red-hat-storage/odf-gotests/tests/odf/functional/mcg/internal/tsparams"
	_ "github.com/red-hat-storage/odf-gotests/tests/odf/functional/mcg/tests"
	. "github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfinittools"
	"github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfparams"
)

var _, currentFile, _, _ = runtime.Caller(0)

func TestMCG(t *testing.T) {
	_, reporterConfig := GinkgoConfiguration()
	reporterConfig.JUnitReport = ODFConfig.GetJunitReportPath(currentFile)

	RegisterFailHandler(Fail)
	RunSpecs(t, "MCG", Label(append(odfparams.Labels, tsparams.Label)...), reporterConfig)
}

var _ = JustAfterEach(func() {
	reporter.ReportIfFailed(
		CurrentSpecReport(), currentFile, odfparams.ReporterNamespacesToDump, odfparams.ReporterCRDsToDump)
})

var _ = ReportAfterSuite("", func(report Report) {
	polarion.CreateReport(
		report, ODFConfig.GetPolarionReportPath(), ODFConfig.TCPrefix)
})
