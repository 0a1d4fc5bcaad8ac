package platform

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeProvider struct {
	states    map[string]NodeState
	stateErrs map[string]error
	// flips the node to this state after the first Status call.
	settleTo NodeState
	calls    int
}

func (provider *fakeProvider) PowerOff(_ context.Context, nodeName string) error {
	provider.states[nodeName] = StateStopped

	return nil
}

func (provider *fakeProvider) PowerOn(_ context.Context, nodeName string) error {
	provider.states[nodeName] = StateRunning

	return nil
}

func (provider *fakeProvider) Status(_ context.Context, nodeName string) (NodeState, error) {
	if err := provider.stateErrs[nodeName]; err != nil {
		return StateUnknown, err
	}

	provider.calls++
	if provider.settleTo != "" && provider.calls > 1 {
		provider.states[nodeName] = provider.settleTo
	}

	return provider.states[nodeName], nil
}

func TestNewUnsupportedPlatform(t *testing.T) {
	testCases := []struct {
		platform string
	}{
		{platform: ""},
		{platform: "gcp"},
	}

	for _, testCase := range testCases {
		provider, err := New(context.Background(), Settings{Platform: testCase.platform})

		assert.Nil(t, provider)
		assert.NotNil(t, err)
	}
}

func TestNewBMCProviderRequiresHosts(t *testing.T) {
	provider, err := NewBMCProvider(nil)

	assert.Nil(t, provider)
	assert.NotNil(t, err)
}

func TestWaitForStateImmediate(t *testing.T) {
	provider := &fakeProvider{states: map[string]NodeState{"worker-0": StateStopped}}

	err := WaitForState(context.Background(), provider, "worker-0", StateStopped, 5*time.Second)

	assert.Nil(t, err)
}

func TestWaitForStateSettles(t *testing.T) {
	provider := &fakeProvider{
		states:   map[string]NodeState{"worker-0": StateUnknown},
		settleTo: StateRunning,
	}

	err := WaitForState(context.Background(), provider, "worker-0", StateRunning, 30*time.Second)

	assert.Nil(t, err)
}

func TestWaitForStateTimeout(t *testing.T) {
	provider := &fakeProvider{states: map[string]NodeState{"worker-0": StateRunning}}

	err := WaitForState(context.Background(), provider, "worker-0", StateStopped, 2*time.Second)

	assert.NotNil(t, err)

	var stateErr *StateError
	assert.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "worker-0", stateErr.Node)
	assert.Equal(t, StateStopped, stateErr.Desired)
	assert.Equal(t, StateRunning, stateErr.Actual)
}

func TestCycle(t *testing.T) {
	provider := &fakeProvider{states: map[string]NodeState{"worker-0": StateRunning}}

	err := Cycle(context.Background(), provider, "worker-0", 10*time.Second)

	assert.Nil(t, err)
	assert.Equal(t, StateRunning, provider.states["worker-0"])
}
