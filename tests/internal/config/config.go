package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const (
	// PathToDefaultParamsFile path to config file with default parameters.
	PathToDefaultParamsFile = "./default.yaml"
)

// GeneralConfig type keeps general configuration.
type GeneralConfig struct {
	ReportsDirAbsPath    string `yaml:"reports_dump_dir" envconfig:"ODF_REPORTS_DUMP_DIR"`
	VerboseLevel         string `yaml:"verbose_level" envconfig:"ODF_VERBOSE_LEVEL"`
	DumpFailedTests      bool   `yaml:"dump_failed_tests" envconfig:"ODF_DUMP_FAILED_TESTS"`
	EnableReport         bool   `yaml:"enable_report" envconfig:"ODF_ENABLE_REPORT"`
	DryRun               bool   `yaml:"dry_run" envconfig:"ODF_DRY_RUN"`
	SSHKeyPath           string `envconfig:"ODF_SSH_KEY_PATH"`
	SSHUser              string `yaml:"ssh_user" envconfig:"ODF_SSH_USER"`
	KubernetesRolePrefix string `yaml:"kubernetes_role_prefix" envconfig:"ODF_KUBERNETES_ROLE_PREFIX"`
	WorkerLabelEnvVar    string `yaml:"worker_label" envconfig:"ODF_WORKER_LABEL"`
	WorkerLabel          string
	ControlPlaneLabel    string `yaml:"control_plane_label" envconfig:"ODF_CONTROL_PLANE_LABEL"`
	TCPrefix             string `yaml:"tc_prefix" envconfig:"ODF_TC_PREFIX"`
	// Platform the cluster runs on, one of aws, vsphere or baremetal. Empty means
	// platform dependent suites skip their disruptive cases.
	Platform             string `yaml:"platform" envconfig:"ODF_PLATFORM"`
	WorkerLabelMap       map[string]string
	ControlPlaneLabelMap map[string]string
}

// NewConfig returns instance of GeneralConfig config type.
func NewConfig() *GeneralConfig {
	log.Print("Creating new GeneralConfig struct")

	var conf GeneralConfig

	_, filename, _, _ := runtime.Caller(0)
	baseDir := filepath.Dir(filename)
	confFile := filepath.Join(baseDir, PathToDefaultParamsFile)

	err := readFile(&conf, confFile)
	if err != nil {
		log.Printf("Error to read config file %s", confFile)

		return nil
	}

	err = readEnv(&conf)
	if err != nil {
		log.Print("Error to read environment variables")

		return nil
	}

	err = deployReportDir(conf.ReportsDirAbsPath)
	if err != nil {
		log.Printf("Error to deploy report directory %s due to %s", conf.ReportsDirAbsPath, err.Error())

		return nil
	}

	return &conf
}

// GetJunitReportPath returns full path to the junit report file.
func (cfg *GeneralConfig) GetJunitReportPath(file string) string {
	reportFileName := strings.TrimSuffix(filepath.Base(file), filepath.Ext(filepath.Base(file)))

	return fmt.Sprintf("%s_junit.xml", filepath.Join(cfg.ReportsDirAbsPath, reportFileName))
}

// GetPolarionReportPath returns full path to the polarion report file.
func (cfg *GeneralConfig) GetPolarionReportPath() string {
	if !cfg.EnableReport {
		return ""
	}

	return fmt.Sprintf("%s_polarion.xml", filepath.Join(cfg.ReportsDirAbsPath, "report"))
}

// GetDumpFailedTestReportLocation returns destination file for failed tests logs.
func (cfg *GeneralConfig) GetDumpFailedTestReportLocation(file string) string {
	if cfg.DumpFailedTests {
		if _, err := os.Stat(cfg.ReportsDirAbsPath); os.IsNotExist(err) {
			err := os.MkdirAll(cfg.ReportsDirAbsPath, 0744)
			if err != nil {
				log.Fatalf("panic: Failed to create report dir due to %s", err)
			}
		}

		dumpFileName := strings.TrimSuffix(filepath.Base(file), filepath.Ext(filepath.Base(file)))

		return filepath.Join(cfg.ReportsDirAbsPath, fmt.Sprintf("failed_%s", dumpFileName))
	}

	return ""
}

func readFile(cfg *GeneralConfig, cfgFile string) error {
	openedCfgFile, err := os.Open(cfgFile)
	if err != nil {
		return err
	}

	defer func() {
		_ = openedCfgFile.Close()
	}()

	decoder := yaml.NewDecoder(openedCfgFile)

	err = decoder.Decode(&cfg)
	if err != nil {
		return err
	}

	return nil
}

func readEnv(cfg *GeneralConfig) error {
	err := envconfig.Process("", cfg)
	if err != nil {
		return err
	}

	cfg.WorkerLabel = fmt.Sprintf("%s/%s", cfg.KubernetesRolePrefix, cfg.WorkerLabelEnvVar)
	cfg.ControlPlaneLabel = fmt.Sprintf("%s/%s", cfg.KubernetesRolePrefix, cfg.ControlPlaneLabel)
	cfg.WorkerLabelMap = map[string]string{cfg.WorkerLabel: ""}
	cfg.ControlPlaneLabelMap = map[string]string{cfg.ControlPlaneLabel: ""}

	return nil
}

func deployReportDir(dirName string) error {
	_, err := os.Stat(dirName)
	if os.IsNotExist(err) {
		return os.MkdirAll(dirName, 0777)
	}

	return err
}
