package bucketclaim

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	obv1alpha1 "github.com/kube-object-storage/lib-bucket-provisioner/pkg/apis/objectbucket.io/v1alpha1"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	goclient "sigs.k8s.io/controller-runtime/pkg/client"
)

// Builder provides struct for objectbucketclaim object which contains connection to
// the cluster and the objectbucketclaim definition.
type Builder struct {
	// ObjectBucketClaim definition. Used to create the objectbucketclaim object.
	Definition *obv1alpha1.ObjectBucketClaim
	// Created objectbucketclaim object.
	Object *obv1alpha1.ObjectBucketClaim
	// Used in functions that define or mutate the objectbucketclaim definition. errorMsg is
	// processed before the object is created.
	errorMsg  string
	apiClient *clients.Settings
}

// NewBuilder creates a new instance of Builder.
func NewBuilder(apiClient *clients.Settings, name, nsname, storageClassName string) *Builder {
	glog.V(100).Infof(
		"Initializing new objectbucketclaim structure with the following params: %s, %s, %s",
		name, nsname, storageClassName)

	builder := &Builder{
		apiClient: apiClient,
		Definition: &obv1alpha1.ObjectBucketClaim{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
			Spec: obv1alpha1.ObjectBucketClaimSpec{
				GenerateBucketName: name,
				StorageClassName:   storageClassName,
			},
		},
	}

	if name == "" {
		glog.V(100).Infof("The name of the objectbucketclaim is empty")

		builder.errorMsg = "objectbucketclaim 'name' cannot be empty"
	}

	if nsname == "" {
		glog.V(100).Infof("The namespace of the objectbucketclaim is empty")

		builder.errorMsg = "objectbucketclaim 'nsname' cannot be empty"
	}

	if storageClassName == "" {
		glog.V(100).Infof("The storage class of the objectbucketclaim is empty")

		builder.errorMsg = "objectbucketclaim 'storageClassName' cannot be empty"
	}

	return builder
}

// Pull loads an existing objectbucketclaim into the Builder struct.
func Pull(apiClient *clients.Settings, name, nsname string) (*Builder, error) {
	glog.V(100).Infof("Pulling existing objectbucketclaim %s from namespace %s", name, nsname)

	builder := &Builder{
		apiClient: apiClient,
		Definition: &obv1alpha1.ObjectBucketClaim{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
		},
	}

	if name == "" {
		return nil, fmt.Errorf("objectbucketclaim 'name' cannot be empty")
	}

	if nsname == "" {
		return nil, fmt.Errorf("objectbucketclaim 'nsname' cannot be empty")
	}

	if !builder.Exists() {
		return nil, fmt.Errorf("objectbucketclaim object %s does not exist in namespace %s", name, nsname)
	}

	builder.Definition = builder.Object

	return builder, nil
}

// Create makes an objectbucketclaim in the cluster and stores the created object in struct.
func (builder *Builder) Create() (*Builder, error) {
	if valid, err := builder.validate(); !valid {
		return builder, err
	}

	glog.V(100).Infof("Creating objectbucketclaim %s in namespace %s",
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

// Get returns the objectbucketclaim object if found.
func (builder *Builder) Get() (*obv1alpha1.ObjectBucketClaim, error) {
	if valid, err := builder.validate(); !valid {
		return nil, err
	}

	bucketClaim := &obv1alpha1.ObjectBucketClaim{}
	err := builder.apiClient.Get(context.TODO(), goclient.ObjectKey{
		Name:      builder.Definition.Name,
		Namespace: builder.Definition.Namespace,
	}, bucketClaim)

	if err != nil {
		return nil, err
	}

	return bucketClaim, nil
}

// Delete removes the objectbucketclaim.
func (builder *Builder) Delete() error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Deleting objectbucketclaim %s in namespace %s",
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

// DeleteAndWait deletes the objectbucketclaim and waits until it is removed from the cluster.
func (builder *Builder) DeleteAndWait(timeout time.Duration) error {
	if err := builder.Delete(); err != nil {
		return err
	}

	return wait.PollImmediate(time.Second, timeout, func() (bool, error) {
		_, err := builder.Get()
		if k8serrors.IsNotFound(err) {
			return true, nil
		}

		return false, nil
	})
}

// Exists checks whether the given objectbucketclaim exists.
func (builder *Builder) Exists() bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	var err error
	builder.Object, err = builder.Get()

	return err == nil || !k8serrors.IsNotFound(err)
}

// WaitUntilBound polls until the claim reports the Bound phase and a provisioned bucket.
func (builder *Builder) WaitUntilBound(timeout time.Duration) error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Waiting for objectbucketclaim %s to become Bound", builder.Definition.Name)

	return wait.PollImmediate(time.Second, timeout, func() (bool, error) {
		bucketClaim, err := builder.Get()
		if err != nil {
			return false, nil
		}

		builder.Object = bucketClaim

		return bucketClaim.Status.Phase == obv1alpha1.ObjectBucketClaimStatusPhaseBound, nil
	})
}

// BucketName returns the provisioned bucket name once the claim is bound.
func (builder *Builder) BucketName() (string, error) {
	if valid, err := builder.validate(); !valid {
		return "", err
	}

	bucketClaim, err := builder.Get()
	if err != nil {
		return "", err
	}

	builder.Object = bucketClaim

	if bucketClaim.Spec.BucketName == "" {
		return "", fmt.Errorf("objectbucketclaim %s has no provisioned bucket yet", builder.Definition.Name)
	}

	return bucketClaim.Spec.BucketName, nil
}

func (builder *Builder) validate() (bool, error) {
	if builder == nil {
		return false, fmt.Errorf("error: received nil objectbucketclaim builder")
	}

	if builder.Definition == nil {
		return false, fmt.Errorf("can not redefine the undefined objectbucketclaim")
	}

	if builder.apiClient == nil {
		return false, fmt.Errorf("objectbucketclaim builder cannot have nil apiClient")
	}

	if builder.errorMsg != "" {
		return false, fmt.Errorf(builder.errorMsg)
	}

	return true, nil
}
