package cluster

import (
	"fmt"

	"github.com/golang/glog"
	configv1 "github.com/openshift/api/config/v1"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	"github.com/red-hat-storage/odf-gotests/pkg/clusterversion"
	"github.com/red-hat-storage/odf-gotests/pkg/secret"
)

// APIClientGetter is an interface that returns an APIClient from a struct.
type APIClientGetter interface {
	GetAPIClient() (*clients.Settings, error)
}

// GetOCPClusterVersion leverages APIClientGetter to retrieve the OCP clusterversion from an arbitrary cluster.
func GetOCPClusterVersion(clusterObj APIClientGetter) (*clusterversion.Builder, error) {
	apiClient, err := checkAPIClient(clusterObj)
	if err != nil {
		return nil, fmt.Errorf("failed to get clusterversion from cluster: %w", err)
	}

	glog.V(90).Infof("Gathering OCP clusterversion from cluster at %s", apiClient.KubeconfigPath)

	clusterVersion, err := clusterversion.Pull(apiClient)
	if err != nil {
		return nil, err
	}

	return clusterVersion, nil
}

// GetOCPPullSecret leverages APIClientGetter to retrieve the OCP pull-secret from an arbitrary cluster.
func GetOCPPullSecret(clusterObj APIClientGetter) (*secret.Builder, error) {
	apiClient, err := checkAPIClient(clusterObj)
	if err != nil {
		return nil, err
	}

	glog.V(90).Infof("Gathering OCP pull-secret from cluster at %s", apiClient.KubeconfigPath)

	pullSecret, err := secret.Pull(apiClient, "pull-secret", "openshift-config")
	if err != nil {
		return nil, err
	}

	_, ok := pullSecret.Object.Data[".dockerconfigjson"]
	if !ok {
		return nil, fmt.Errorf("pull-secret does not contain .dockerconfigjson data")
	}

	return pullSecret, nil
}

// Connected checks whether the cluster can reach remote update servers.
func Connected(clusterObj APIClientGetter) (bool, error) {
	clusterVersion, err := GetOCPClusterVersion(clusterObj)
	if err != nil {
		return false, err
	}

	for _, condition := range clusterVersion.Object.Status.Conditions {
		if condition.Type == configv1.RetrievedUpdates {
			if condition.Reason == "RemoteFailed" {
				return false, nil
			}

			return true, nil
		}
	}

	return false, fmt.Errorf("clusterversion does not report the RetrievedUpdates condition")
}

// Disconnected checks whether the cluster is cut off from remote update servers.
func Disconnected(clusterObj APIClientGetter) (bool, error) {
	connected, err := Connected(clusterObj)
	if err != nil {
		return false, err
	}

	return !connected, nil
}

// checkAPIClient determines if the APIClient returned is not nil.
func checkAPIClient(clusterObj APIClientGetter) (*clients.Settings, error) {
	glog.V(90).Infof("Getting APIClient from provided object")

	apiClient, err := clusterObj.GetAPIClient()
	if err != nil {
		return nil, err
	}

	if apiClient == nil {
		glog.V(90).Infof("The returned APIClient is nil")

		return nil, fmt.Errorf("cannot discover cluster information when APIClient is nil")
	}

	return apiClient, nil
}
