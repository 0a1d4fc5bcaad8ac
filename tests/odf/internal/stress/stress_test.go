package stress

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRunnerValidation(t *testing.T) {
	testCases := []struct {
		settings      Settings
		expectedError string
	}{
		{
			settings:      Settings{Writers: 0, Write: func(int) error { return nil }},
			expectedError: "stress runner needs at least one writer",
		},
		{
			settings:      Settings{Writers: 1},
			expectedError: "stress runner 'Write' cannot be nil",
		},
		{
			settings: Settings{
				Writers:        1,
				Write:          func(int) error { return nil },
				HealthInterval: time.Second,
			},
			expectedError: "stress runner 'CheckHealth' cannot be nil when a health interval is set",
		},
	}

	for _, testCase := range testCases {
		runner, err := NewRunner(testCase.settings)

		assert.Nil(t, runner)
		assert.EqualError(t, err, testCase.expectedError)
	}
}

func TestRunnerWritesUntilStopped(t *testing.T) {
	var writes int64

	runner, err := NewRunner(Settings{
		Writers:       3,
		WriteInterval: time.Millisecond,
		Write: func(int) error {
			atomic.AddInt64(&writes, 1)

			return nil
		},
	})
	assert.Nil(t, err)

	runner.Start()
	time.Sleep(50 * time.Millisecond)
	runner.Stop()

	assert.GreaterOrEqual(t, atomic.LoadInt64(&writes), int64(3))
	assert.Empty(t, runner.Errs())
}

func TestRunnerCollectsFailuresWithoutAborting(t *testing.T) {
	var writes int64

	runner, err := NewRunner(Settings{
		Writers:        1,
		WriteInterval:  time.Millisecond,
		HealthInterval: time.Millisecond,
		Write: func(int) error {
			count := atomic.AddInt64(&writes, 1)
			if count == 1 {
				return fmt.Errorf("disk full")
			}

			return nil
		},
		CheckHealth: func() error { return fmt.Errorf("HEALTH_WARN") },
	})
	assert.Nil(t, err)

	runner.Start()
	time.Sleep(50 * time.Millisecond)
	runner.Stop()

	// The failing first write never stops the writer.
	assert.Greater(t, atomic.LoadInt64(&writes), int64(1))

	errs := runner.Errs()
	assert.NotEmpty(t, errs)

	var writerErrs, watcherErrs int

	for _, runErr := range errs {
		switch {
		case assert.ObjectsAreEqual("writer 0: disk full", runErr.Error()):
			writerErrs++
		default:
			watcherErrs++
		}
	}

	assert.Equal(t, 1, writerErrs)
	assert.GreaterOrEqual(t, watcherErrs, 1)
}

func TestRunnerStopIsIdempotent(t *testing.T) {
	runner, err := NewRunner(Settings{
		Writers:       1,
		WriteInterval: time.Millisecond,
		Write:         func(int) error { return nil },
	})
	assert.Nil(t, err)

	runner.Start()
	runner.Stop()
	runner.Stop()
}
