package noobaa

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	nbv1 "github.com/noobaa/noobaa-operator/v5/pkg/apis/noobaa/v1alpha1"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	goclient "sigs.k8s.io/controller-runtime/pkg/client"
)

// Builder provides struct for noobaa object which contains connection to
// the cluster and the noobaa definition.
type Builder struct {
	// NooBaa definition. Used to store the noobaa object.
	Definition *nbv1.NooBaa
	// Created noobaa object.
	Object *nbv1.NooBaa

	errorMsg  string
	apiClient *clients.Settings
}

// Pull loads an existing noobaa system into the Builder struct.
func Pull(apiClient *clients.Settings, name, nsname string) (*Builder, error) {
	glog.V(100).Infof("Pulling existing noobaa %s from namespace %s", name, nsname)

	builder := &Builder{
		apiClient: apiClient,
		Definition: &nbv1.NooBaa{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: nsname,
			},
		},
	}

	if name == "" {
		return nil, fmt.Errorf("noobaa 'name' cannot be empty")
	}

	if nsname == "" {
		return nil, fmt.Errorf("noobaa 'nsname' cannot be empty")
	}

	if !builder.Exists() {
		return nil, fmt.Errorf("noobaa object %s does not exist in namespace %s", name, nsname)
	}

	builder.Definition = builder.Object

	return builder, nil
}

// Get returns the noobaa object if found.
func (builder *Builder) Get() (*nbv1.NooBaa, error) {
	if valid, err := builder.validate(); !valid {
		return nil, err
	}

	noobaaSystem := &nbv1.NooBaa{}
	err := builder.apiClient.Get(context.TODO(), goclient.ObjectKey{
		Name:      builder.Definition.Name,
		Namespace: builder.Definition.Namespace,
	}, noobaaSystem)

	if err != nil {
		return nil, err
	}

	return noobaaSystem, nil
}

// Exists checks whether the given noobaa system exists.
func (builder *Builder) Exists() bool {
	if valid, _ := builder.validate(); !valid {
		return false
	}

	var err error
	builder.Object, err = builder.Get()

	return err == nil || !k8serrors.IsNotFound(err)
}

// WaitUntilPhase polls until the noobaa system reaches the given phase.
func (builder *Builder) WaitUntilPhase(phase nbv1.SystemPhase, timeout time.Duration) error {
	if valid, err := builder.validate(); !valid {
		return err
	}

	glog.V(100).Infof("Waiting for noobaa %s to reach phase %s", builder.Definition.Name, phase)

	return wait.PollImmediate(5*time.Second, timeout, func() (bool, error) {
		noobaaSystem, err := builder.Get()
		if err != nil {
			return false, nil
		}

		builder.Object = noobaaSystem

		return noobaaSystem.Status.Phase == phase, nil
	})
}

// WaitUntilReady waits until the noobaa system reaches the Ready phase.
func (builder *Builder) WaitUntilReady(timeout time.Duration) error {
	return builder.WaitUntilPhase(nbv1.SystemPhaseReady, timeout)
}

// S3Endpoint refreshes the noobaa object and returns its first external S3 service address.
// Falls back to the internal address when no external one is published.
func (builder *Builder) S3Endpoint() (string, error) {
	if valid, err := builder.validate(); !valid {
		return "", err
	}

	noobaaSystem, err := builder.Get()
	if err != nil {
		return "", err
	}

	builder.Object = noobaaSystem

	if noobaaSystem.Status.Services == nil {
		return "", fmt.Errorf("noobaa %s reports no service addresses yet", builder.Definition.Name)
	}

	serviceS3 := noobaaSystem.Status.Services.ServiceS3
	if len(serviceS3.ExternalDNS) > 0 {
		return serviceS3.ExternalDNS[0], nil
	}

	if len(serviceS3.InternalDNS) > 0 {
		return serviceS3.InternalDNS[0], nil
	}

	return "", fmt.Errorf("noobaa %s publishes no S3 address", builder.Definition.Name)
}

// AdminCredentialsSecret returns the name of the secret holding the admin S3 credentials.
func (builder *Builder) AdminCredentialsSecret() (string, error) {
	if valid, err := builder.validate(); !valid {
		return "", err
	}

	noobaaSystem, err := builder.Get()
	if err != nil {
		return "", err
	}

	builder.Object = noobaaSystem

	if noobaaSystem.Status.Accounts == nil {
		return "", fmt.Errorf("noobaa %s reports no admin account yet", builder.Definition.Name)
	}

	secretRef := noobaaSystem.Status.Accounts.Admin.SecretRef
	if secretRef.Name == "" {
		return "", fmt.Errorf("noobaa %s admin account has no secret reference", builder.Definition.Name)
	}

	return secretRef.Name, nil
}

func (builder *Builder) validate() (bool, error) {
	if builder == nil {
		return false, fmt.Errorf("error: received nil noobaa builder")
	}

	if builder.Definition == nil {
		return false, fmt.Errorf("can not redefine the undefined noobaa")
	}

	if builder.apiClient == nil {
		return false, fmt.Errorf("noobaa builder cannot have nil apiClient")
	}

	if builder.errorMsg != "" {
		return false, fmt.Errorf(builder.errorMsg)
	}

	return true, nil
}
