package cephtools

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	// HealthOK means every ceph subsystem is healthy.
	HealthOK = "HEALTH_OK"
	// HealthWarn means ceph raised at least one health check warning.
	HealthWarn = "HEALTH_WARN"
	// HealthErr means ceph detected a serious problem.
	HealthErr = "HEALTH_ERR"
)

// CephStatus holds the fields of ceph status the framework asserts on.
type CephStatus struct {
	Health       string
	HealthChecks map[string]string
	NumOSDs      int64
	NumUpOSDs    int64
	NumInOSDs    int64
	NumPGs       int64
	NumMons      int64
}

// HealthError reports an unacceptable ceph health state together with the
// health checks that caused it.
type HealthError struct {
	Health string
	Checks map[string]string
}

func (e *HealthError) Error() string {
	if len(e.Checks) == 0 {
		return fmt.Sprintf("ceph health is %s", e.Health)
	}

	var checkNames []string
	for name := range e.Checks {
		checkNames = append(checkNames, name)
	}

	return fmt.Sprintf("ceph health is %s with checks: %s", e.Health, strings.Join(checkNames, ", "))
}

// ParseStatus extracts the asserted fields from ceph status --format json output.
func ParseStatus(statusJSON string) (*CephStatus, error) {
	if !gjson.Valid(statusJSON) {
		return nil, fmt.Errorf("ceph status output is not valid json")
	}

	health := gjson.Get(statusJSON, "health.status")
	if !health.Exists() {
		return nil, fmt.Errorf("ceph status output has no health.status field")
	}

	status := &CephStatus{
		Health:       health.String(),
		HealthChecks: map[string]string{},
		NumOSDs:      gjson.Get(statusJSON, "osdmap.num_osds").Int(),
		NumUpOSDs:    gjson.Get(statusJSON, "osdmap.num_up_osds").Int(),
		NumInOSDs:    gjson.Get(statusJSON, "osdmap.num_in_osds").Int(),
		NumPGs:       gjson.Get(statusJSON, "pgmap.num_pgs").Int(),
		NumMons:      gjson.Get(statusJSON, "monmap.num_mons").Int(),
	}

	gjson.Get(statusJSON, "health.checks").ForEach(func(key, value gjson.Result) bool {
		status.HealthChecks[key.String()] = value.Get("summary.message").String()

		return true
	})

	return status, nil
}

// VerifyHealth decides whether the given ceph status is acceptable.
// HEALTH_OK always passes. HEALTH_WARN passes only when every raised check is
// listed in mutedWarnings. Anything else returns a HealthError.
func VerifyHealth(status *CephStatus, mutedWarnings []string) error {
	if status.Health == HealthOK {
		return nil
	}

	if status.Health == HealthWarn {
		unmuted := map[string]string{}

		for check, message := range status.HealthChecks {
			if !contains(mutedWarnings, check) {
				unmuted[check] = message
			}
		}

		if len(unmuted) == 0 {
			return nil
		}

		return &HealthError{Health: status.Health, Checks: unmuted}
	}

	return &HealthError{Health: status.Health, Checks: status.HealthChecks}
}

// AllOSDsUp reports whether every known OSD is both up and in.
func (status *CephStatus) AllOSDsUp() bool {
	return status.NumOSDs > 0 && status.NumOSDs == status.NumUpOSDs && status.NumOSDs == status.NumInOSDs
}

func contains(list []string, entry string) bool {
	for _, element := range list {
		if element == entry {
			return true
		}
	}

	return false
}
