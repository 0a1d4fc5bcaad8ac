package clusterversion

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	configv1 "github.com/openshift/api/config/v1"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// clusterVersionName is the singleton name of the clusterversion object on every OCP cluster.
const clusterVersionName = "version"

// Builder provides struct for clusterversion object which contains connection to
// the cluster and the clusterversion definition.
type Builder struct {
	// ClusterVersion definition. Used to store the clusterversion object.
	Definition *configv1.ClusterVersion
	// Created clusterversion object.
	Object *configv1.ClusterVersion

	apiClient *clients.Settings
}

// Pull loads the cluster's clusterversion into the Builder struct.
func Pull(apiClient *clients.Settings) (*Builder, error) {
	glog.V(100).Infof("Pulling cluster clusterversion object")

	if apiClient == nil {
		return nil, fmt.Errorf("clusterversion 'apiClient' cannot be nil")
	}

	builder := &Builder{
		apiClient: apiClient,
		Definition: &configv1.ClusterVersion{
			ObjectMeta: metav1.ObjectMeta{
				Name: clusterVersionName,
			},
		},
	}

	if !builder.Exists() {
		return nil, fmt.Errorf("clusterversion object %s does not exist", clusterVersionName)
	}

	builder.Definition = builder.Object

	return builder, nil
}

// Exists checks whether the clusterversion object is present.
func (builder *Builder) Exists() bool {
	if builder == nil || builder.apiClient == nil {
		return false
	}

	var err error
	builder.Object, err = builder.apiClient.ClusterVersions().Get(
		context.TODO(), builder.Definition.Name, metav1.GetOptions{})

	return err == nil
}

// DesiredVersion returns the version the cluster currently desires.
func (builder *Builder) DesiredVersion() string {
	if builder == nil || builder.Object == nil {
		return ""
	}

	return builder.Object.Status.Desired.Version
}
