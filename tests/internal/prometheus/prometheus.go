package prometheus

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang/glog"
	"github.com/red-hat-storage/odf-gotests/pkg/clients"
	"github.com/tidwall/gjson"
	authenticationv1 "k8s.io/api/authentication/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
)

const (
	monitoringNamespace = "openshift-monitoring"
	querierRouteName    = "thanos-querier"
	serviceAccountName  = "prometheus-k8s"
)

// Client queries cluster metrics through the thanos querier route.
type Client struct {
	queryURL   string
	token      string
	httpClient *http.Client
}

// NewClient discovers the thanos querier route and requests a service account
// token to authenticate queries with.
func NewClient(apiClient *clients.Settings) (*Client, error) {
	glog.V(90).Infof("Building prometheus client against the %s route", querierRouteName)

	querierRoute, err := apiClient.Routes(monitoringNamespace).Get(
		context.TODO(), querierRouteName, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to discover the %s route: %w", querierRouteName, err)
	}

	tokenRequest, err := apiClient.K8sClient.CoreV1().ServiceAccounts(monitoringNamespace).CreateToken(
		context.TODO(), serviceAccountName, &authenticationv1.TokenRequest{}, metav1.CreateOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to request a token for %s: %w", serviceAccountName, err)
	}

	return &Client{
		queryURL: fmt.Sprintf("https://%s/api/v1/query", querierRoute.Spec.Host),
		token:    tokenRequest.Status.Token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				// The querier route serves a cluster-internal certificate.
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}, nil
}

// Query runs the given promql query and returns the result vector.
func (client *Client) Query(query string) (gjson.Result, error) {
	glog.V(90).Infof("Running prometheus query: %s", query)

	requestURL := fmt.Sprintf("%s?query=%s", client.queryURL, url.QueryEscape(query))

	request, err := http.NewRequest(http.MethodGet, requestURL, nil)
	if err != nil {
		return gjson.Result{}, err
	}

	request.Header.Set("Authorization", fmt.Sprintf("Bearer %s", client.token))

	response, err := client.httpClient.Do(request)
	if err != nil {
		return gjson.Result{}, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return gjson.Result{}, err
	}

	if response.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf(
			"prometheus query returned status %d: %s", response.StatusCode, string(body))
	}

	if gjson.GetBytes(body, "status").String() != "success" {
		return gjson.Result{}, fmt.Errorf("prometheus query failed: %s", string(body))
	}

	return gjson.GetBytes(body, "data.result"), nil
}

// QueryScalar runs the given query and returns the value of the first sample.
func (client *Client) QueryScalar(query string) (float64, error) {
	result, err := client.Query(query)
	if err != nil {
		return 0, err
	}

	samples := result.Array()
	if len(samples) == 0 {
		return 0, fmt.Errorf("prometheus query %q returned no samples", query)
	}

	return samples[0].Get("value.1").Float(), nil
}

// WaitForValue polls the query until the first sample equals the expected value.
func (client *Client) WaitForValue(query string, expected float64, timeout time.Duration) error {
	glog.V(90).Infof("Waiting up to %v for query %q to report %v", timeout, query, expected)

	return wait.PollImmediate(10*time.Second, timeout, func() (bool, error) {
		value, err := client.QueryScalar(query)
		if err != nil {
			glog.V(90).Infof("Query not ready yet: %v", err)

			return false, nil
		}

		return value == expected, nil
	})
}
