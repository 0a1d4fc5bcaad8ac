package nodes

import (
	"fmt"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/golang/glog"
	. "github.com/onsi/ginkgo/v2"
	"github.com/onsi/ginkgo/v2/types"
	. "github.com/onsi/gomega"
	nodeshelper "github.com/red-hat-storage/odf-gotests/pkg/nodes"
	"github.com/red-hat-storage/odf-gotests/tests/internal/polarion"
	"github.com/red-hat-storage/odf-gotests/tests/internal/reporter"
	"github.com/red-hat-storage/odf-gotests/tests/internal/systemreporter"
	. "github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfinittools"
	"github.com/red-hat-storage/odf-gotests/tests/odf/internal/odfparams"
	"github.com/red-hat-storage/odf-gotests/tests/odf/resilience/nodes/internal/tsparams"
	_ "github.com/red-hat-storage/odf-gotests/tests/odf/resilience/nodes/tests"
)

var _, currentFile, _, _ = runtime.Caller(0)

func TestNodes(t *testing.T) {
	_, reporterConfig := GinkgoConfiguration()
	reporterConfig.JUnitReport = ODFConfig.GetJunitReportPath(currentFile)

	RegisterFailHandler(Fail)
	RunSpecs(t, "NodeResilience", Label(append(odfparams.Labels, tsparams.Label)...), reporterConfig)
}

var _ = JustAfterEach(func() {
	reporter.ReportIfFailed(
		CurrentSpecReport(), currentFile, odfparams.ReporterNamespacesToDump, odfparams.ReporterCRDsToDump)

	if ODFConfig.SSHKeyPath != "" {
		systemreporter.ReportIfFailedFromNodeList(
			CurrentSpecReport(), currentFile, tsparams.GatherCommands, workerAddresses())
		downloadNodeArtifacts(CurrentSpecReport())
	}
})

var _ = ReportAfterSuite("", func(report Report) {
	polarion.CreateReport(
		report, ODFConfig.GetPolarionReportPath(), ODFConfig.TCPrefix)
})

// downloadNodeArtifacts copies the node log files listed in tsparams.GatherFiles
// from every worker into the failure dump directory over scp.
func downloadNodeArtifacts(report SpecReport) {
	if !types.SpecStateFailureStates.Is(report.State) {
		return
	}

	dumpDir := ODFConfig.GetDumpFailedTestReportLocation(currentFile)
	if dumpDir == "" {
		return
	}

	for _, address := range workerAddresses() {
		for _, source := range tsparams.GatherFiles {
			destination := filepath.Join(dumpDir, fmt.Sprintf("%s_%s", address, filepath.Base(source)))

			err := systemreporter.DownloadFileFromNode(source, destination, address, ODFConfig.SSHKeyPath)
			if err != nil {
				glog.Errorf("failed to download %s from node %s: %v", source, address, err)
			}
		}
	}
}

// workerAddresses resolves the external addresses of the worker nodes for the
// SSH based system state gather.
func workerAddresses() []string {
	workers, err := nodeshelper.ListWorkers(APIClient)
	if err != nil {
		return nil
	}

	var addresses []string

	for _, worker := range workers {
		address, err := worker.ExternalIPv4()
		if err != nil {
			continue
		}

		addresses = append(addresses, address)
	}

	return addresses
}
