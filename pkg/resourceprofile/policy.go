package resourceprofile

import (
	"fmt"

	derror "github.com/devaraj-kavali/spark/pkg/errors"
)

// ClusterFacts are the cluster-manager facts the admission policy is
// evaluated against. They are derived once from the driver configuration
// and never change for the lifetime of the process.
type ClusterFacts struct {
	// IsYarn is true when the configured master endpoint points at a
	// YARN cluster manager.
	IsYarn bool

	// DynamicAllocationEnabled is true when executors can be added and
	// removed elastically.
	DynamicAllocationEnabled bool

	// TestingOverride is true when running under a test harness that
	// has not explicitly asked for strict validation.
	TestingOverride bool
}

// CheckSupported decides whether registering rp is permitted under the
// given cluster facts. Non-default profiles change per-stage executor
// shapes, which only works when the cluster manager can elastically
// resize the executor set. Using one anywhere else is a configuration
// error, not a silent degrade.
func CheckSupported(facts ClusterFacts, rp *ResourceProfile) error {
	if rp.IsDefault() {
		return nil
	}
	if facts.TestingOverride {
		return nil
	}
	if facts.IsYarn && facts.DynamicAllocationEnabled {
		return nil
	}

	var reason string
	if !facts.IsYarn {
		reason = "the cluster manager is not YARN"
	} else {
		reason = "dynamic allocation is disabled"
	}
	return derror.ErrResourceProfileUnsupported.GenWithStackByArgs(
		fmt.Sprintf("profile %d rejected because %s", rp.ID(), reason))
}
