package odfconfig

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/red-hat-storage/odf-gotests/tests/internal/config"
	"github.com/red-hat-storage/odf-gotests/tests/odf/internal/platform"
	"gopkg.in/yaml.v2"
)

const (
	// PathToDefaultOdfParamsFile path to config file with default odf parameters.
	PathToDefaultOdfParamsFile = "./default.yaml"
)

// ODFConfig type keeps odf configuration.
type ODFConfig struct {
	*config.GeneralConfig
	StorageNamespace       string `yaml:"odf_storage_namespace" envconfig:"ODF_STORAGE_NAMESPACE"`
	StorageClusterName     string `yaml:"odf_storagecluster_name" envconfig:"ODF_STORAGECLUSTER_NAME"`
	CephBlockStorageClass  string `yaml:"odf_ceph_block_storage_class" envconfig:"ODF_CEPH_BLOCK_STORAGE_CLASS"`
	CephFSStorageClass     string `yaml:"odf_cephfs_storage_class" envconfig:"ODF_CEPHFS_STORAGE_CLASS"`
	MCGStorageClass        string `yaml:"odf_mcg_storage_class" envconfig:"ODF_MCG_STORAGE_CLASS"`
	DeviceSetStorageClass  string `yaml:"odf_device_set_storage_class" envconfig:"ODF_DEVICE_SET_STORAGE_CLASS"`
	DeviceSetCapacity      string `yaml:"odf_device_set_capacity" envconfig:"ODF_DEVICE_SET_CAPACITY"`
	// LocalVolumeSetName makes the deployment suite provision local block devices
	// through the local storage operator before creating the storage cluster.
	// Empty means the device set storage class is served by a cloud provisioner.
	LocalVolumeSetName string `yaml:"odf_local_volume_set_name" envconfig:"ODF_LOCAL_VOLUME_SET_NAME"`
	OperatorPackage        string `yaml:"odf_operator_package" envconfig:"ODF_OPERATOR_PACKAGE"`
	CatalogSource          string `yaml:"odf_catalog_source" envconfig:"ODF_CATALOG_SOURCE"`
	CatalogSourceNamespace string `yaml:"odf_catalog_source_namespace" envconfig:"ODF_CATALOG_SOURCE_NAMESPACE"`
	SubscriptionChannel    string `yaml:"odf_subscription_channel" envconfig:"ODF_SUBSCRIPTION_CHANNEL"`
	UpgradeChannel         string `yaml:"odf_upgrade_channel" envconfig:"ODF_UPGRADE_CHANNEL"`
	// Teardown makes the deployment suite remove the storage cluster and operator
	// after its verifications pass.
	Teardown bool `yaml:"odf_teardown" envconfig:"ODF_TEARDOWN"`
	// StressDuration is how long the longevity stress case keeps writing,
	// in time.ParseDuration format.
	StressDuration string `yaml:"odf_stress_duration" envconfig:"ODF_STRESS_DURATION"`
	// MutedHealthChecks lists ceph health check names whose warnings do not fail
	// health verification, e.g. TOO_MANY_PGS on small test clusters.
	MutedHealthChecks []string `yaml:"odf_muted_health_checks" envconfig:"ODF_MUTED_HEALTH_CHECKS"`
	// DRClusters describes the multicluster DR topology for the upgrade suite as
	// comma separated name:role:version triples. Empty means single cluster.
	DRClusters        string            `envconfig:"ODF_DR_CLUSTERS"`
	VCenterURL        string            `yaml:"odf_vcenter_url" envconfig:"ODF_VCENTER_URL"`
	VCenterUsername   string            `envconfig:"ODF_VCENTER_USERNAME"`
	VCenterPassword   string            `envconfig:"ODF_VCENTER_PASSWORD"`
	VCenterDatacenter string            `yaml:"odf_vcenter_datacenter" envconfig:"ODF_VCENTER_DATACENTER"`
	BMCUsername       string            `envconfig:"ODF_BMC_USERNAME"`
	BMCPassword       string            `envconfig:"ODF_BMC_PASSWORD"`
	BMCHosts          map[string]string `yaml:"odf_bmc_hosts"`
}

// NewOdfConfig returns instance of ODF config type.
func NewOdfConfig() *ODFConfig {
	log.Print("Creating new ODFConfig struct")

	var odfConf ODFConfig
	odfConf.GeneralConfig = config.NewConfig()

	_, filename, _, _ := runtime.Caller(0)
	baseDir := filepath.Dir(filename)
	confFile := filepath.Join(baseDir, PathToDefaultOdfParamsFile)
	err := readFile(&odfConf, confFile)

	if err != nil {
		log.Printf("Error to read config file %s", confFile)

		return nil
	}

	err = readEnv(&odfConf)

	if err != nil {
		log.Print("Error to read environment variables")

		return nil
	}

	return &odfConf
}

// StressRunDuration parses the configured stress duration.
func (odfConfig *ODFConfig) StressRunDuration() (time.Duration, error) {
	return time.ParseDuration(odfConfig.StressDuration)
}

// CephClusterName returns the name rook gives the CephCluster owned by the
// configured StorageCluster.
func (odfConfig *ODFConfig) CephClusterName() string {
	return odfConfig.StorageClusterName + "-cephcluster"
}

// PlatformSettings maps the configuration onto platform provider settings.
func (odfConfig *ODFConfig) PlatformSettings() platform.Settings {
	bmcHosts := make(map[string]platform.BMCHost)
	for nodeName, address := range odfConfig.BMCHosts {
		bmcHosts[nodeName] = platform.BMCHost{
			Address:  address,
			Username: odfConfig.BMCUsername,
			Password: odfConfig.BMCPassword,
		}
	}

	return platform.Settings{
		Platform: odfConfig.Platform,
		VCenter: platform.VCenterSettings{
			URL:        odfConfig.VCenterURL,
			Username:   odfConfig.VCenterUsername,
			Password:   odfConfig.VCenterPassword,
			Datacenter: odfConfig.VCenterDatacenter,
		},
		BMCHosts: bmcHosts,
	}
}

func readFile(odfConfig *ODFConfig, cfgFile string) error {
	openedCfgFile, err := os.Open(cfgFile)
	if err != nil {
		return err
	}

	defer func() {
		_ = openedCfgFile.Close()
	}()

	decoder := yaml.NewDecoder(openedCfgFile)
	err = decoder.Decode(&odfConfig)

	if err != nil {
		return err
	}

	return nil
}

func readEnv(odfConfig *ODFConfig) error {
	err := envconfig.Process("", odfConfig)
	if err != nil {
		return err
	}

	return nil
}
