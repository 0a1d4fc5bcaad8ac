package systemreporter

import (
	"bytes"
	"fmt"
	"os"
	re "regexp"
	"strings"

	"github.com/golang/glog"
	"github.com/onsi/ginkgo/v2/types"
	scputil "github.com/povsister/scp"
	"golang.org/x/crypto/ssh"

	. "github.com/red-hat-storage/odf-gotests/tests/internal/inittools"
)

var (
	// Matches option hypens, spaces, and special characters.
	specialChars = re.MustCompile(`-?\s-?|[/|'"\.\[\]]`)

	// Matches duplicate underscores.
	dupUnderscores = re.MustCompile(`__+`)

	// Matches leading and trailing underscores.
	leadAndTrailUnderscores = re.MustCompile(`^_|_$`)
)

// ReportIfFailedFromNodeList dumps the requested command output from specified nodes through SSH if test case fails.
func ReportIfFailedFromNodeList(report types.SpecReport, testSuite string, commands []string, nodes []string) {
	if !types.SpecStateFailureStates.Is(report.State) {
		return
	}

	dumpDir := GeneralConfig.GetDumpFailedTestReportLocation(testSuite)

	tcReportFolderName := strings.ReplaceAll(report.FullText(), " ", "_")

	systemFolder := fmt.Sprintf("%s/%s/system", dumpDir, tcReportFolderName)

	err := os.MkdirAll(systemFolder, 0755)
	if err != nil {
		glog.Errorf("failed to create directory for storing system info %s", err)

		return
	}

	GatherInfoThroughSSH(commands, systemFolder, GeneralConfig.SSHKeyPath, nodes)
}

// GatherInfoThroughSSH gathers command output from specified nodes
// and writes output to specified directory.
func GatherInfoThroughSSH(commands []string, outputdir string, sshKeyPath string, nodes []string) {
	config, err := sshClientConfig(sshKeyPath)
	if err != nil {
		glog.Errorf("failed to build SSH client config: %s", err)

		return
	}

	for _, node := range nodes {
		client, err := ssh.Dial("tcp", fmt.Sprintf("%s:22", node), config)
		if err != nil {
			glog.Errorf("failed to establish SSH connection to %s: %s", node, err)

			continue
		}

		defer client.Close()

		for _, command := range commands {
			var output bytes.Buffer

			var stderr bytes.Buffer

			session, err := client.NewSession()
			if err != nil {
				glog.Errorf("failed to create SSH session on %s: %s", node, err)

				break
			}

			defer session.Close()

			session.Stdout = &output
			session.Stderr = &stderr

			err = session.Run(command)
			if err == nil {
				err = os.WriteFile(outputdir+"/"+node+"_"+fileNameFromCommand(command), output.Bytes(), 0650)
				if err != nil {
					glog.Errorf("error writing to file: %s", err)
				}
			} else {
				glog.Errorf("error executing command '%s' on %s: %s", command, node, stderr.String())
			}
		}
	}
}

// DownloadFileFromNode copies a file from a node to the local destination over scp.
// Used to fetch larger artifacts, e.g. collected log bundles, that are impractical
// to stream through an exec session.
func DownloadFileFromNode(source, destination, nodeAddr, sshKeyPath string) error {
	if source == "" {
		return fmt.Errorf("the source cannot be empty")
	}

	if destination == "" {
		return fmt.Errorf("the destination cannot be empty")
	}

	if nodeAddr == "" {
		return fmt.Errorf("the node address cannot be empty")
	}

	glog.V(100).Infof("Copying %s from node %s to %s", source, nodeAddr, destination)

	privateKey, err := os.ReadFile(sshKeyPath)
	if err != nil {
		return fmt.Errorf("failed to read private ssh key from system: %w", err)
	}

	sshConf, err := scputil.NewSSHConfigFromPrivateKey(GeneralConfig.SSHUser, privateKey)
	if err != nil {
		return err
	}

	scpClient, err := scputil.NewClient(nodeAddr, sshConf, &scputil.ClientOption{})
	if err != nil {
		return err
	}

	err = scpClient.CopyFileFromRemote(source, destination, &scputil.FileTransferOption{})
	if err != nil {
		return err
	}

	if _, err := os.Stat(destination); os.IsNotExist(err) {
		return err
	}

	return nil
}

func sshClientConfig(sshKeyPath string) (*ssh.ClientConfig, error) {
	if sshKeyPath == "" {
		return nil, fmt.Errorf("cannot gather system information without providing ssh key path")
	}

	privateKey, err := os.ReadFile(sshKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private ssh key from system: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private ssh key: %w", err)
	}

	return &ssh.ClientConfig{
		User:            GeneralConfig.SSHUser,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
	}, nil
}

func fileNameFromCommand(command string) string {
	fileName := command

	// Replace option hypens, spaces, and special characters with underscores everywhere in the command.
	fileName = specialChars.ReplaceAllString(fileName, "_")

	// Remove repeated underscores
	fileName = dupUnderscores.ReplaceAllString(fileName, "_")

	// Remove leading and trailing underscores
	fileName = leadAndTrailUnderscores.ReplaceAllString(fileName, "")

	return fileName
}
