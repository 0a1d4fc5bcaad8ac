package cluster

import (
	"fmt"
	"testing"

	configv1 "github.com/openshift/api/config/v1"
	configv1fake "github.com/openshift/client-go/config/clientset/versioned/fake"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	"github.com/stretchr/testify/assert"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	k8sfake "k8s.io/client-go/kubernetes/fake"
)

type MockAPIClientGetter struct {
	testClients *clients.Settings
}

// NewMockAPIClientGetter returns a new instance of MockAPIClientGetter.
func NewMockAPIClientGetter() *MockAPIClientGetter {
	return &MockAPIClientGetter{}
}

// SetFakeOCPClient sets a fake openshift config client for testing purposes.
func (m *MockAPIClientGetter) SetFakeOCPClient(runtimeObjs []runtime.Object) {
	fakeClient := configv1fake.NewSimpleClientset(runtimeObjs...)
	m.testClients = &clients.Settings{
		ConfigV1Interface: fakeClient.ConfigV1(),
	}
}

// SetFakeK8sClient sets a fake k8s client for testing purposes.
func (m *MockAPIClientGetter) SetFakeK8sClient(runtimeObjs []runtime.Object) {
	m.testClients = &clients.Settings{
		K8sClient:       k8sfake.NewSimpleClientset(runtimeObjs...),
		CoreV1Interface: k8sfake.NewSimpleClientset(runtimeObjs...).CoreV1(),
	}
}

// GetAPIClient returns the fake k8s client settings struct.
func (m *MockAPIClientGetter) GetAPIClient() (*clients.Settings, error) {
	if m.testClients == nil {
		return nil, fmt.Errorf("apiClient cannot be nil")
	}

	return m.testClients, nil
}

func generateFakeClusterVersion(version string) runtime.Object {
	return &configv1.ClusterVersion{
		ObjectMeta: metav1.ObjectMeta{
			Name: "version",
		},
		Status: configv1.ClusterVersionStatus{
			Desired: configv1.Release{
				Version: version,
			},
		},
		Spec: configv1.ClusterVersionSpec{
			ClusterID: "fake-cluster-id",
		},
	}
}

func generateFakeClusterVersionWithConnectionInfo(connected bool) runtime.Object {
	reason := "VersionNotFound"
	if !connected {
		reason = "RemoteFailed"
	}

	return &configv1.ClusterVersion{
		ObjectMeta: metav1.ObjectMeta{
			Name: "version",
		},
		Status: configv1.ClusterVersionStatus{
			Conditions: []configv1.ClusterOperatorStatusCondition{
				{
					Type:   configv1.RetrievedUpdates,
					Reason: reason,
				},
			},
		},
	}
}

func generateFakeK8sSecret(containsDockerJSON bool, name, namespace string) runtime.Object {
	testSecret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
		},
	}

	if containsDockerJSON {
		testSecret.Data = map[string][]byte{
			".dockerconfigjson": []byte("fake-docker-json"),
		}
	}

	return testSecret
}

func TestGetOCPClusterVersion(t *testing.T) {
	testCases := []struct {
		versionExists bool
	}{
		{
			versionExists: true,
		},
		{
			versionExists: false,
		},
	}

	for _, testCase := range testCases {
		var runtimeObjs []runtime.Object

		if testCase.versionExists {
			runtimeObjs = append(runtimeObjs, generateFakeClusterVersion("4.16.0"))
		}

		mockAPIClient := NewMockAPIClientGetter()
		mockAPIClient.SetFakeOCPClient(runtimeObjs)

		clusterVersion, err := GetOCPClusterVersion(mockAPIClient)
		if testCase.versionExists {
			assert.Nil(t, err)
			assert.Equal(t, "4.16.0", clusterVersion.DesiredVersion())
		} else {
			assert.NotNil(t, err)
		}
	}
}

func TestGetOCPPullSecret(t *testing.T) {
	testCases := []struct {
		containsDockerJSON bool
		expectedError      bool
		secretExists       bool
	}{
		{
			containsDockerJSON: true,
			expectedError:      false,
			secretExists:       true,
		},
		{
			containsDockerJSON: false,
			expectedError:      true,
			secretExists:       true,
		},
		{
			containsDockerJSON: true,
			expectedError:      true,
			secretExists:       false,
		},
	}

	for _, testCase := range testCases {
		mockAPIClient := NewMockAPIClientGetter()

		var runtimeObjs []runtime.Object

		if testCase.secretExists {
			runtimeObjs = append(runtimeObjs,
				generateFakeK8sSecret(testCase.containsDockerJSON, "pull-secret", "openshift-config"))
		}

		mockAPIClient.SetFakeK8sClient(runtimeObjs)

		secretObj, err := GetOCPPullSecret(mockAPIClient)

		if testCase.expectedError {
			assert.NotNil(t, err)
		} else {
			assert.Nil(t, err)
			assert.Equal(t, "pull-secret", secretObj.Object.Name)
			assert.Equal(t, "openshift-config", secretObj.Object.Namespace)
		}
	}
}

func TestConnected(t *testing.T) {
	testCases := []struct {
		versionExists bool
		connected     bool
		validAPI      bool
	}{
		{
			versionExists: true,
			connected:     true,
			validAPI:      true,
		},
		{
			versionExists: true,
			connected:     false,
			validAPI:      true,
		},
		{
			versionExists: false,
			connected:     false,
			validAPI:      true,
		},
		{
			versionExists: true,
			connected:     true,
			validAPI:      false,
		},
	}

	for _, testCase := range testCases {
		var runtimeObjs []runtime.Object

		if testCase.versionExists {
			runtimeObjs = append(runtimeObjs, generateFakeClusterVersionWithConnectionInfo(testCase.connected))
		}

		mockAPIClient := NewMockAPIClientGetter()

		if testCase.validAPI {
			mockAPIClient.SetFakeOCPClient(runtimeObjs)
		}

		connectionResult, err := Connected(mockAPIClient)

		if !testCase.validAPI {
			assert.NotNil(t, err)
			assert.Equal(t, "failed to get clusterversion from cluster: apiClient cannot be nil", err.Error())

			continue
		}

		if testCase.versionExists {
			assert.Nil(t, err)
			assert.Equal(t, testCase.connected, connectionResult)
		} else {
			assert.NotNil(t, err)
		}
	}
}

func TestDisconnected(t *testing.T) {
	testCases := []struct {
		connected bool
	}{
		{
			connected: true,
		},
		{
			connected: false,
		},
	}

	for _, testCase := range testCases {
		runtimeObjs := []runtime.Object{generateFakeClusterVersionWithConnectionInfo(testCase.connected)}

		mockAPIClient := NewMockAPIClientGetter()
		mockAPIClient.SetFakeOCPClient(runtimeObjs)

		connectionResult, err := Disconnected(mockAPIClient)

		assert.Nil(t, err)
		assert.Equal(t, !testCase.connected, connectionResult)
	}
}
