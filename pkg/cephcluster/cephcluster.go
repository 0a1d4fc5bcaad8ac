package cephcluster

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	cephv1 "github.com/rook/rook/pkg/apis/ceph.rook.io/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	goclient "sigs.k8s.io/controller-runtime/pkg/client"
)

// HealthOK is the ceph status string reported by a fully healthy cluster.
const HealthOK = "HEALTH_OK"

// Builder provides struct for cephcluster object which contains connection to
// the cluster and the cephcluster definition.
type Builder struct {
	// CephCluster definition. Used to store the cephcluster object.
	Definition *cephv1.CephCluster
	// Created cephcluster object.
	Object *cephv1.CephCluster

	errorMsg  string
	apiClient *clients.Settings
}

// Pull loads an existing cephcluster into the Builder struct.
func Pull(apiClient *clients.Settings, name, nsname string) (*Builder, error) {
	glog.V(100).Infof("Pulling existing cephcluster %s from namespace %s", name, nsname)

	builder := &Builder{
		apiClient: apiClient,
		Definition: &cephv1.CephCluster{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
		},
	}

	if name == "" {
		return nil, fmt.Errorf("cephcluster 'name' cannot be empty")
	}

	if nsname == "" {
		return nil, fmt.Errorf("cephcluster 'nsname' cannot be empty")
	}

	if !builder.Exists() {
		return nil, fmt.Errorf("cephcluster object %s does not exist in namespace %s", name, nsname)
	}

	builder.Definition = builder.Object

	return builder, nil
}

// Get returns the cephcluster object if found.
func (builder *Builder) Get() (*cephv1.CephCluster, error) {
	if valid, err := builder.validate(); !valid {
		return nil, err
	}

	cephCluster := &cephv1.CephCluster{}
	err := builder.apiClient.Get(context.TODO(), goclient.ObjectKey{
		Name:      builder.Definition.Name,
		Namespace: builder.Definition.Namespace,
	}, cephCluster)

	if err != nil {
		return nil, err
	}

	return cephCluster, nil
}

// Exists checks whether the given cephcluster exists.
func (builder *Builder) Exists() bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	var err error
	builder.Object, err = builder.Get()

	return err == nil || !k8serrors.IsNotFound(err)
}

// Health refreshes the cephcluster object and returns the reported ceph health string,
// e.g. HEALTH_OK or HEALTH_WARN.
func (builder *Builder) Health() (string, error) {
	if valid, err := builder.validate(); !valid {
		return "", err
	}

	cephCluster, err := builder.Get()
	if err != nil {
		return "", err
	}

	builder.Object = cephCluster

	if cephCluster.Status.CephStatus == nil {
		return "", fmt.Errorf("cephcluster %s reports no ceph status yet", builder.Definition.Name)
	}

	return cephCluster.Status.CephStatus.Health, nil
}

// IsHealthOK reports whether the cephcluster is in HEALTH_OK.
func (builder *Builder) IsHealthOK() bool {
	health, err := builder.Health()

	return err == nil && health == HealthOK
}

// WaitUntilHealthOK polls until the ceph status reports HEALTH_OK, or the timeout expires.
// Used after node disruptions to wait for the cluster to reconverge.
func (builder *Builder) WaitUntilHealthOK(timeout time.Duration) error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Waiting up to %v for cephcluster %s to report %s",
		timeout, builder.Definition.Name, HealthOK)

	return wait.PollImmediate(5*time.Second, timeout, func() (bool, error) {
		health, err := builder.Health()
		if err != nil {
			return false, nil
		}

		glog.V(100).Infof("cephcluster %s health: %s", builder.Definition.Name, health)

		return health == HealthOK, nil
	})
}

// WaitUntilPhase polls until the cephcluster reaches the given phase.
func (builder *Builder) WaitUntilPhase(phase cephv1.ConditionType, timeout time.Duration) error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Waiting for cephcluster %s to reach phase %s", builder.Definition.Name, phase)

	return wait.PollImmediate(5*time.Second, timeout, func() (bool, error) {
		cephCluster, err := builder.Get()
		if err != nil {
			return false, nil
		}

		builder.Object = cephCluster

		return cephCluster.Status.Phase == phase, nil
	})
}

func (builder *Builder) validate() (bool, error) {
	if builder == nil {
		return false, fmt.Errorf("error: received nil cephcluster builder")
	}

	if builder.Definition == nil {
		return false, fmt.Errorf("can not redefine the undefined cephcluster")
	}

	if builder.apiClient == nil {
		return false, fmt.Errorf("cephcluster builder cannot have nil apiClient")
	}

	if builder.errorMsg != "" {
		return false, fmt.Errorf(builder.errorMsg)
	}

	return true, nil
}
