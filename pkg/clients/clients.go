package clients

import (
	"fmt"
	"os"

	"github.com/golang/glog"

	obv1alpha1 "github.com/kube-object-storage/lib-bucket-provisioner/pkg/apis/objectbucket.io/v1alpha1"
	nbv1 "github.com/noobaa/noobaa-operator/v5/pkg/apis/noobaa/v1alpha1"
	configv1 "github.com/openshift/api/config/v1"
	routev1 "github.com/openshift/api/route/v1"
	clientConfigV1 "github.com/openshift/client-go/config/clientset/versioned/typed/config/v1"
	clientRouteV1 "github.com/openshift/client-go/route/clientset/versioned/typed/route/v1"
	lsov1 "github.com/openshift/local-storage-operator/api/v1"
	lsov1alpha1 "github.com/openshift/local-storage-operator/api/v1alpha1"
	olmv1 "github.com/operator-framework/api/pkg/operators/v1"
	olmv1alpha1 "github.com/operator-framework/api/pkg/operators/v1alpha1"
	monv1 "github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring/v1"
	ocsv1 "github.com/red-hat-storage/ocs-operator/api/v1"
	cephv1 "github.com/rook/rook/pkg/apis/ceph.rook.io/v1"

	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	appsV1Client "k8s.io/client-go/kubernetes/typed/apps/v1"
	coreV1Client "k8s.io/client-go/kubernetes/typed/core/v1"
	storageV1Client "k8s.io/client-go/kubernetes/typed/storage/v1"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	runtimeClient "sigs.k8s.io/controller-runtime/pkg/client"
)

// Settings provides the struct to talk with relevant API.
type Settings struct {
	KubeconfigPath string
	K8sClient      kubernetes.Interface
	coreV1Client.CoreV1Interface
	appsV1Client.AppsV1Interface
	storageV1Client.StorageV1Interface
	clientConfigV1.ConfigV1Interface
	clientRouteV1.RouteV1Interface
	Config *rest.Config
	runtimeClient.Client
}

// New returns a *Settings with the given kubeconfig.
func New(kubeconfig string) *Settings {
	var (
		config *rest.Config
		err    error
	)

	if kubeconfig == "" {
		kubeconfig = os.Getenv("KUBECONFIG")
	}

	if kubeconfig != "" {
		glog.V(4).Infof("Loading kube client config from path %q", kubeconfig)
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	} else {
		glog.V(4).Infof("Using in-cluster kube client config")
		config, err = rest.InClusterConfig()
	}

	if err != nil {
		return nil
	}

	clientSet := &Settings{}
	clientSet.K8sClient = kubernetes.NewForConfigOrDie(config)
	clientSet.CoreV1Interface = coreV1Client.NewForConfigOrDie(config)
	clientSet.AppsV1Interface = appsV1Client.NewForConfigOrDie(config)
	clientSet.StorageV1Interface = storageV1Client.NewForConfigOrDie(config)
	clientSet.ConfigV1Interface = clientConfigV1.NewForConfigOrDie(config)
	clientSet.RouteV1Interface = clientRouteV1.NewForConfigOrDie(config)

	clientSet.Config = config

	crScheme := runtime.NewScheme()

	err = SetScheme(crScheme)
	if err != nil {
		glog.V(4).Infof("Failed to load scheme: %v", err)

		return nil
	}

	clientSet.Client, err = runtimeClient.New(config, runtimeClient.Options{
		Scheme: crScheme,
	})
	if err != nil {
		glog.V(4).Infof("Failed to instantiate controller-runtime client: %v", err)

		return nil
	}

	clientSet.KubeconfigPath = kubeconfig

	return clientSet
}

// SetScheme registers every resource type the framework touches on the given scheme.
func SetScheme(crScheme *runtime.Scheme) error {
	if err := scheme.AddToScheme(crScheme); err != nil {
		return err
	}

	if err := configv1.Install(crScheme); err != nil {
		return err
	}

	if err := routev1.Install(crScheme); err != nil {
		return err
	}

	if err := ocsv1.AddToScheme(crScheme); err != nil {
		return err
	}

	if err := cephv1.AddToScheme(crScheme); err != nil {
		return err
	}

	if err := nbv1.SchemeBuilder.AddToScheme(crScheme); err != nil {
		return err
	}

	if err := obv1alpha1.AddToScheme(crScheme); err != nil {
		return err
	}

	if err := lsov1.AddToScheme(crScheme); err != nil {
		return err
	}

	if err := lsov1alpha1.AddToScheme(crScheme); err != nil {
		return err
	}

	if err := olmv1.AddToScheme(crScheme); err != nil {
		return err
	}

	if err := olmv1alpha1.AddToScheme(crScheme); err != nil {
		return err
	}

	if err := monv1.AddToScheme(crScheme); err != nil {
		return err
	}

	return nil
}

// GetAPIClient returns the settings themselves. Implements the cluster.APIClientGetter interface.
func (settings *Settings) GetAPIClient() (*Settings, error) {
	if settings == nil {
		return nil, fmt.Errorf("apiClient cannot be nil")
	}

	return settings, nil
}
