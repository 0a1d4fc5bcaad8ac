package olm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"
	olmv1alpha1 "github.com/operator-framework/api/pkg/operators/v1alpha1"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	goclient "sigs.k8s.io/controller-runtime/pkg/client"
)

// ClusterServiceVersionBuilder provides struct for clusterserviceversion object which contains
// connection to the cluster and the clusterserviceversion definition.
type ClusterServiceVersionBuilder struct {
	// ClusterServiceVersion definition. Used to store the clusterserviceversion object.
	Definition *olmv1alpha1.ClusterServiceVersion
	// Created clusterserviceversion object.
	Object *olmv1alpha1.ClusterServiceVersion

	errorMsg  string
	apiClient *clients.Settings
}

// PullClusterServiceVersion loads an existing clusterserviceversion into the builder struct.
func PullClusterServiceVersion(
	apiClient *clients.Settings, name, nsname string) (*ClusterServiceVersionBuilder, error) {
	glog.V(100).Infof("Pulling existing clusterserviceversion %s from namespace %s", name, nsname)

	builder := &ClusterServiceVersionBuilder{
		apiClient: apiClient,
		Definition: &olmv1alpha1.ClusterServiceVersion{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
		},
	}

	if name == "" {
		return nil, fmt.Errorf("clusterserviceversion 'name' cannot be empty")
	}

	if nsname == "" {
		return nil, fmt.Errorf("clusterserviceversion 'nsname' cannot be empty")
	}

	if !builder.Exists() {
		return nil, fmt.Errorf(
			"clusterserviceversion object %s does not exist in namespace %s", name, nsname)
	}

	builder.Definition = builder.Object

	return builder, nil
}

// ListClusterServiceVersion returns clusterserviceversion inventory in the given namespace.
func ListClusterServiceVersion(
	apiClient *clients.Settings, nsname string) ([]*ClusterServiceVersionBuilder, error) {
	glog.V(100).Infof("Listing clusterserviceversions in the namespace %s", nsname)

	if nsname == "" {
		return nil, fmt.Errorf("failed to list clusterserviceversions, 'nsname' parameter is empty")
	}

	csvList := &olmv1alpha1.ClusterServiceVersionList{}

	err := apiClient.List(context.TODO(), csvList, goclient.InNamespace(nsname))
	if err != nil {
		glog.V(100).Infof("Failed to list clusterserviceversions in the namespace %s due to %s",
			nsname, err.Error())

		return nil, err
	}

	var csvObjects []*ClusterServiceVersionBuilder

	for _, foundCSV := range csvList.Items {
		copiedCSV := foundCSV
		csvBuilder := &ClusterServiceVersionBuilder{
			apiClient:  apiClient,
			Object:     &copiedCSV,
			Definition: &copiedCSV,
		}

		csvObjects = append(csvObjects, csvBuilder)
	}

	return csvObjects, nil
}

// PullClusterServiceVersionByNamePattern returns the first clusterserviceversion in nsname
// whose name contains the given pattern.
func PullClusterServiceVersionByNamePattern(
	apiClient *clients.Settings, pattern, nsname string) (*ClusterServiceVersionBuilder, error) {
	csvList, err := ListClusterServiceVersion(apiClient, nsname)
	if err != nil {
		return nil, err
	}

	for _, csvBuilder := range csvList {
		if strings.Contains(csvBuilder.Object.Name, pattern) {
			return csvBuilder, nil
		}
	}

	return nil, fmt.Errorf(
		"no clusterserviceversion matching pattern %s found in namespace %s", pattern, nsname)
}

// Get returns the clusterserviceversion object if found.
func (builder *ClusterServiceVersionBuilder) Get() (*olmv1alpha1.ClusterServiceVersion, error) {
	if valid, err := builder.validate(); !valid {
		return nil, err
	}

	csv := &olmv1alpha1.ClusterServiceVersion{}
	err := builder.apiClient.Get(context.TODO(), goclient.ObjectKey{
		Name:      builder.Definition.Name,
		Namespace: builder.Definition.Namespace,
	}, csv)

	if err != nil {
		return nil, err
	}

	return csv, nil
}

// Delete removes the clusterserviceversion, uninstalling the operator it owns.
func (builder *ClusterServiceVersionBuilder) Delete() error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Deleting clusterserviceversion %s in namespace %s",
		builder.Definition.Name, builder.Definition.Namespace)

	if !builder.Exists() {
		return nil
	}

	err := builder.apiClient.Delete(context.TODO(), builder.Definition)
	if err != nil {
		return err
	}

	builder.Object = nil

	return nil
}

// Exists checks whether the given clusterserviceversion exists.
func (builder *ClusterServiceVersionBuilder) Exists() bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	var err error
	builder.Object, err = builder.Get()

	return err == nil || !k8serrors.IsNotFound(err)
}

// IsSuccessful refreshes the clusterserviceversion and reports whether it reached the Succeeded phase.
func (builder *ClusterServiceVersionBuilder) IsSuccessful() (bool, error) {
	csv, err := builder.Get()
	if err != nil {
		return false, err
	}

	builder.Object = csv

	return csv.Status.Phase == olmv1alpha1.CSVPhaseSucceeded, nil
}

// WaitUntilSucceeded polls until the clusterserviceversion reaches the Succeeded phase.
func (builder *ClusterServiceVersionBuilder) WaitUntilSucceeded(timeout time.Duration) error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Waiting for clusterserviceversion %s to succeed", builder.Definition.Name)

	return wait.PollImmediate(5*time.Second, timeout, func() (bool, error) {
		succeeded, err := builder.IsSuccessful()
		if err != nil {
			return false, nil
		}

		return succeeded, nil
	})
}

func (builder *ClusterServiceVersionBuilder) validate() (bool, error) {
	if builder == nil {
		return false, fmt.Errorf("error: received nil clusterserviceversion builder")
	}

	if builder.Definition == nil {
		return false, fmt.Errorf("can not redefine the undefined clusterserviceversion")
	}

	if builder.apiClient == nil {
		return false, fmt.Errorf("clusterserviceversion builder cannot have nil apiClient")
	}

	if builder.errorMsg != "" {
		return false, fmt.Errorf(builder.errorMsg)
	}

	return true, nil
}
