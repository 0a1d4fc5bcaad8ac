package olm

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	olmv1 "github.com/operator-framework/api/pkg/operators/v1"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	goclient "sigs.k8s.io/controller-runtime/pkg/client"
)

// OperatorGroupBuilder provides struct for operatorgroup object which contains connection to
// the cluster and the operatorgroup definition.
type OperatorGroupBuilder struct {
	// OperatorGroup definition. Used to create the operatorgroup object.
	Definition *olmv1.OperatorGroup
	// Created operatorgroup object.
	Object *olmv1.OperatorGroup
	// Used in functions that define or mutate the operatorgroup definition. errorMsg is
	// processed before the object is created.
	errorMsg  string
	apiClient *clients.Settings
}

// NewOperatorGroupBuilder creates a new instance of OperatorGroupBuilder. The group targets
// its own namespace, which is what a namespaced operator install needs.
func NewOperatorGroupBuilder(apiClient *clients.Settings, name, nsname string) *OperatorGroupBuilder {
	glog.V(100).Infof(
		"Initializing new operatorgroup structure with the following params: name: %s, namespace: %s", name, nsname)

	builder := &OperatorGroupBuilder{
		apiClient: apiClient,
		Definition: &olmv1.OperatorGroup{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
			Spec: olmv1.OperatorGroupSpec{
				TargetNamespaces: []string{nsname},
			},
		},
	}

	if name == "" {
		builder.errorMsg = "operatorgroup 'name' cannot be empty"
	}

	if nsname == "" {
		builder.errorMsg = "operatorgroup 'nsname' cannot be empty"
	}

	return builder
}

// Create makes an operatorgroup in cluster and stores the created object in struct.
func (builder *OperatorGroupBuilder) Create() (*OperatorGroupBuilder, error) {
	if valid, err := builder.validate(); !valid {
		return builder, err
	}

	glog.V(100).Infof("Creating operatorgroup %s in namespace %s",
		builder.Definition.Name, builder.Definition.Namespace)

	if builder.Exists() {
		return builder, nil
	}

	err := builder.apiClient.Create(context.TODO(), builder.Definition)
	if err != nil {
		return builder, err
	}

	builder.Object = builder.Definition

	return builder, nil
}

// Get fetches the defined operatorgroup from the cluster.
func (builder *OperatorGroupBuilder) Get() (*olmv1.OperatorGroup, error) {
	if valid, err := builder.validate(); !valid {
		return nil, err
	}

	operatorGroup := &olmv1.OperatorGroup{}

	err := builder.apiClient.Get(context.TODO(), goclient.ObjectKey{
		Name:      builder.Definition.Name,
		Namespace: builder.Definition.Namespace,
	}, operatorGroup)
	if err != nil {
		return nil, err
	}

	return operatorGroup, nil
}

// Delete removes the operatorgroup from the cluster.
func (builder *OperatorGroupBuilder) Delete() error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Deleting operatorgroup %s from namespace %s",
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

// Exists checks whether the given operatorgroup exists.
func (builder *OperatorGroupBuilder) Exists() bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	var err error
	builder.Object, err = builder.Get()

	return err == nil || !k8serrors.IsNotFound(err)
}

func (builder *OperatorGroupBuilder) validate() (bool, error) {
	if builder == nil {
		return false, fmt.Errorf("error: received nil operatorgroup builder")
	}

	if builder.Definition == nil {
		return false, fmt.Errorf("can not redefine the undefined operatorgroup")
	}

	if builder.apiClient == nil {
		return false, fmt.Errorf("operatorgroup builder cannot have nil apiClient")
	}

	if builder.errorMsg != "" {
		return false, fmt.Errorf(builder.errorMsg)
	}

	return true, nil
}
