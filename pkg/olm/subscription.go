package olm

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	olmv1alpha1 "github.com/operator-framework/api/pkg/operators/v1alpha1"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	goclient "sigs.k8s.io/controller-runtime/pkg/client"
)

// SubscriptionBuilder provides struct for subscription object which contains connection to
// the cluster and the subscription definition.
type SubscriptionBuilder struct {
	// Subscription definition. Used to create the subscription object.
	Definition *olmv1alpha1.Subscription
	// Created subscription object.
	Object *olmv1alpha1.Subscription
	// Used in functions that define or mutate the subscription definition. errorMsg is
	// processed before the object is created.
	errorMsg  string
	apiClient *clients.Settings
}

// NewSubscriptionBuilder creates a new instance of SubscriptionBuilder.
func NewSubscriptionBuilder(
	apiClient *clients.Settings, name, nsname, catalogSource, catalogSourceNamespace, packageName string,
) *SubscriptionBuilder {
	glog.V(100).Infof(
		"Initializing new subscription structure with the following params: "+
			"name: %s, namespace: %s, package: %s", name, nsname, packageName)

	builder := &SubscriptionBuilder{
		apiClient: apiClient,
		Definition: &olmv1alpha1.Subscription{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
			Spec: &olmv1alpha1.SubscriptionSpec{
				CatalogSource:          catalogSource,
				CatalogSourceNamespace: catalogSourceNamespace,
				Package:                packageName,
			},
		},
	}

	if name == "" {
		builder.errorMsg = "subscription 'name' cannot be empty"
	}

	if nsname == "" {
		builder.errorMsg = "subscription 'nsname' cannot be empty"
	}

	if catalogSource == "" {
		builder.errorMsg = "subscription 'catalogSource' cannot be empty"
	}

	if catalogSourceNamespace == "" {
		builder.errorMsg = "subscription 'catalogSourceNamespace' cannot be empty"
	}

	if packageName == "" {
		builder.errorMsg = "subscription 'packageName' cannot be empty"
	}

	return builder
}

// PullSubscription loads an existing subscription into the SubscriptionBuilder struct.
func PullSubscription(apiClient *clients.Settings, name, nsname string) (*SubscriptionBuilder, error) {
	glog.V(100).Infof("Pulling existing subscription %s from namespace %s", name, nsname)

	builder := &SubscriptionBuilder{
		apiClient: apiClient,
		Definition: &olmv1alpha1.Subscription{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
		},
	}

	if name == "" {
		return nil, fmt.Errorf("subscription 'name' cannot be empty")
	}

	if nsname == "" {
		return nil, fmt.Errorf("subscription 'nsname' cannot be empty")
	}

	if !builder.Exists() {
		return nil, fmt.Errorf("subscription object %s does not exist in namespace %s", name, nsname)
	}

	builder.Definition = builder.Object

	return builder, nil
}

// WithChannel sets the channel the subscription follows.
func (builder *SubscriptionBuilder) WithChannel(channel string) *SubscriptionBuilder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	glog.V(100).Infof("Setting channel %s on subscription %s", channel, builder.Definition.Name)

	if channel == "" {
		builder.errorMsg = "subscription 'channel' cannot be empty"

		return builder
	}

	builder.Definition.Spec.Channel = channel

	return builder
}

// WithInstallPlanApproval sets the install plan approval mode, Automatic or Manual.
func (builder *SubscriptionBuilder) WithInstallPlanApproval(
	approval olmv1alpha1.Approval) *SubscriptionBuilder {
	if valid, _ := builder.validate(); !valid {
		return builder
	}

	if approval != olmv1alpha1.ApprovalAutomatic && approval != olmv1alpha1.ApprovalManual {
		builder.errorMsg = "subscription 'installPlanApproval' must be Automatic or Manual"

		return builder
	}

	builder.Definition.Spec.InstallPlanApproval = approval

	return builder
}

// Create makes a subscription in the cluster and stores the created object in struct.
func (builder *SubscriptionBuilder) Create() (*SubscriptionBuilder, error) {
	if valid, err := builder.validate(); !valid {
		return builder, err
	}

	glog.V(100).Infof("Creating subscription %s in namespace %s",
		builder.Definition.Name, builder.Definition.Namespace)

	var err error
	if !builder.Exists() {
		err = builder.apiClient.Create(context.TODO(), builder.Definition)
		if err == nil {
			builder.Object = builder.Definition
		}
	}

	return builder, err
}

// Get returns the subscription object if found.
func (builder *SubscriptionBuilder) Get() (*olmv1alpha1.Subscription, error) {
	if valid, err := builder.validate(); !valid {
		return nil, err
	}

	subscription := &olmv1alpha1.Subscription{}
	err := builder.apiClient.Get(context.TODO(), goclient.ObjectKey{
		Name:      builder.Definition.Name,
		Namespace: builder.Definition.Namespace,
	}, subscription)

	if err != nil {
		return nil, err
	}

	return subscription, nil
}

// Update applies the builder definition, refreshing the resource version first so a
// channel change lands on the live object.
func (builder *SubscriptionBuilder) Update() (*SubscriptionBuilder, error) {
	if valid, err := builder.validate(); !valid {
		return builder, err
	}

	glog.V(100).Infof("Updating subscription %s in namespace %s",
		builder.Definition.Name, builder.Definition.Namespace)

	subscription, err := builder.Get()
	if err != nil {
		return builder, fmt.Errorf("subscription %s does not exist in namespace %s: %w",
			builder.Definition.Name, builder.Definition.Namespace, err)
	}

	builder.Definition.ResourceVersion = subscription.ResourceVersion

	err = builder.apiClient.Update(context.TODO(), builder.Definition)
	if err != nil {
		return builder, err
	}

	builder.Object = builder.Definition

	return builder, nil
}

// CurrentCSV refreshes the subscription object and returns the CSV name it currently points at.
func (builder *SubscriptionBuilder) CurrentCSV() (string, error) {
	subscription, err := builder.Get()
	if err != nil {
		return "", err
	}

	builder.Object = subscription

	if subscription.Status.CurrentCSV == "" {
		return "", fmt.Errorf("subscription %s has no current CSV yet", builder.Definition.Name)
	}

	return subscription.Status.CurrentCSV, nil
}

// Delete removes the subscription.
func (builder *SubscriptionBuilder) Delete() error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Deleting subscription %s in namespace %s",
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

// Exists checks whether the given subscription exists.
func (builder *SubscriptionBuilder) Exists() bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	var err error
	builder.Object, err = builder.Get()

	return err == nil || !k8serrors.IsNotFound(err)
}

func (builder *SubscriptionBuilder) validate() (bool, error) {
	if builder == nil {
		return false, fmt.Errorf("error: received nil subscription builder")
	}

	if builder.Definition == nil {
		return false, fmt.Errorf("can not redefine the undefined subscription")
	}

	if builder.apiClient == nil {
		return false, fmt.Errorf("subscription builder cannot have nil apiClient")
	}

	if builder.errorMsg != "" {
		return false, fmt.Errorf(builder.errorMsg)
	}

	return true, nil
}
