package polarion

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/ginkgo/v2/types"
	"github.com/stretchr/testify/assert"
)

func buildReport(specs []types.SpecReport) ginkgo.Report {
	return ginkgo.Report{
		SuiteDescription: "storage functional suite",
		RunTime:          90 * time.Second,
		SpecReports:      specs,
	}
}

func passingSpec(text string, labels []string) types.SpecReport {
	return types.SpecReport{
		State:                   types.SpecStatePassed,
		LeafNodeText:            text,
		LeafNodeLabels:          labels,
		LeafNodeType:            types.NodeTypeIt,
		ContainerHierarchyTexts: []string{"pvc"},
	}
}

func failingSpec(text string) types.SpecReport {
	return types.SpecReport{
		State:                   types.SpecStateFailed,
		LeafNodeText:            text,
		LeafNodeType:            types.NodeTypeIt,
		ContainerHierarchyTexts: []string{"pvc"},
		Failure: types.Failure{
			Message: "pvc never reached Bound",
		},
	}
}

func readSuite(t *testing.T, path string) TestSuite {
	content, err := os.ReadFile(path)
	assert.Nil(t, err)

	var suite TestSuite

	err = xml.Unmarshal(content, &suite)
	assert.Nil(t, err)

	return suite
}

func TestCreateReportEmptyDestination(t *testing.T) {
	// Must not panic or create anything when reporting is disabled.
	CreateReport(buildReport(nil), "", "OCS-")
}

func TestCreateReportWithTestID(t *testing.T) {
	destFile := filepath.Join(t.TempDir(), "report_polarion.xml")

	report := buildReport([]types.SpecReport{
		passingSpec("creates a cephfs pvc", []string{"test_id:2233"}),
	})

	CreateReport(report, destFile, "OCS-")

	suite := readSuite(t, destFile)
	assert.Equal(t, 1, suite.Tests)
	assert.Equal(t, 0, suite.Failures)
	assert.Len(t, suite.TestCases, 1)
	assert.Equal(t, polarionTag, suite.TestCases[0].Properties.Property[0].Name)
	assert.Equal(t, "OCS-2233", suite.TestCases[0].Properties.Property[0].Value)
}

func TestCreateReportWithFailure(t *testing.T) {
	destFile := filepath.Join(t.TempDir(), "report_polarion.xml")

	report := buildReport([]types.SpecReport{
		failingSpec("expands an rbd pvc"),
	})

	CreateReport(report, destFile, "OCS-")

	suite := readSuite(t, destFile)
	assert.Equal(t, 1, suite.Failures)
	assert.NotNil(t, suite.TestCases[0].FailureMessage)
	assert.Contains(t, suite.TestCases[0].FailureMessage.Message, "pvc never reached Bound")
}

func TestIDLabel(t *testing.T) {
	labels := ID("1122")

	assert.Contains(t, labels, "1122")
	assert.Contains(t, labels, "test_id:1122")
}
