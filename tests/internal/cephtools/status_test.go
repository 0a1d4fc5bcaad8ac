package cephtools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const healthyStatusJSON = `{
  "health": {
    "status": "HEALTH_OK",
    "checks": {}
  },
  "monmap": {
    "num_mons": 3
  },
  "osdmap": {
    "num_osds": 3,
    "num_up_osds": 3,
    "num_in_osds": 3
  },
  "pgmap": {
    "num_pgs": 169
  }
}`

const warnStatusJSON = `{
  "health": {
    "status": "HEALTH_WARN",
    "checks": {
      "MON_DISK_LOW": {
        "severity": "HEALTH_WARN",
        "summary": {
          "message": "mon a is low on available space"
        }
      }
    }
  },
  "monmap": {
    "num_mons": 3
  },
  "osdmap": {
    "num_osds": 3,
    "num_up_osds": 2,
    "num_in_osds": 3
  },
  "pgmap": {
    "num_pgs": 169
  }
}`

func TestParseStatusHealthy(t *testing.T) {
	status, err := ParseStatus(healthyStatusJSON)

	assert.Nil(t, err)
	assert.Equal(t, HealthOK, status.Health)
	assert.Empty(t, status.HealthChecks)
	assert.Equal(t, int64(3), status.NumOSDs)
	assert.Equal(t, int64(3), status.NumMons)
	assert.Equal(t, int64(169), status.NumPGs)
	assert.True(t, status.AllOSDsUp())
}

func TestParseStatusWithChecks(t *testing.T) {
	status, err := ParseStatus(warnStatusJSON)

	assert.Nil(t, err)
	assert.Equal(t, HealthWarn, status.Health)
	assert.Equal(t, "mon a is low on available space", status.HealthChecks["MON_DISK_LOW"])
	assert.False(t, status.AllOSDsUp())
}

func TestParseStatusInvalidInput(t *testing.T) {
	testCases := []struct {
		input string
	}{
		{input: "not json at all"},
		{input: `{"monmap": {"num_mons": 3}}`},
	}

	for _, testCase := range testCases {
		_, err := ParseStatus(testCase.input)

		assert.NotNil(t, err)
	}
}

func TestVerifyHealth(t *testing.T) {
	testCases := []struct {
		health        string
		checks        map[string]string
		mutedWarnings []string
		expectedError bool
	}{
		{
			health:        HealthOK,
			expectedError: false,
		},
		{
			health:        HealthWarn,
			checks:        map[string]string{"MON_DISK_LOW": "mon a is low on available space"},
			expectedError: true,
		},
		{
			health:        HealthWarn,
			checks:        map[string]string{"MON_DISK_LOW": "mon a is low on available space"},
			mutedWarnings: []string{"MON_DISK_LOW"},
			expectedError: false,
		},
		{
			health:        HealthWarn,
			checks:        map[string]string{"MON_DISK_LOW": "low", "OSD_DOWN": "1 osd down"},
			mutedWarnings: []string{"MON_DISK_LOW"},
			expectedError: true,
		},
		{
			health:        HealthErr,
			checks:        map[string]string{"PG_DAMAGED": "pg damaged"},
			mutedWarnings: []string{"PG_DAMAGED"},
			expectedError: true,
		},
	}

	for _, testCase := range testCases {
		status := &CephStatus{
			Health:       testCase.health,
			HealthChecks: testCase.checks,
		}

		err := VerifyHealth(status, testCase.mutedWarnings)

		if testCase.expectedError {
			assert.NotNil(t, err)

			var healthErr *HealthError
			assert.ErrorAs(t, err, &healthErr)
			assert.Equal(t, testCase.health, healthErr.Health)
		} else {
			assert.Nil(t, err)
		}
	}
}
