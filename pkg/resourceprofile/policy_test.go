package resourceprofile

import (
	"testing"

	"github.com/stretchr/testify/require"

	derror "github.com/devaraj-kavali/spark/pkg/errors"
)

func TestCheckSupported(t *testing.T) {
	t.Parallel()

	defaultRP := newTestDefaultProfile()
	customRP := NewResourceProfile(1,
		NewExecutorResourceRequests().Cores(4),
		NewTaskResourceRequests().CPUs(1))

	testCases := []struct {
		name    string
		facts   ClusterFacts
		rp      *ResourceProfile
		allowed bool
	}{
		{
			name:    "default profile always allowed",
			facts:   ClusterFacts{},
			rp:      defaultRP,
			allowed: true,
		},
		{
			name:    "non-yarn under test harness",
			facts:   ClusterFacts{TestingOverride: true},
			rp:      customRP,
			allowed: true,
		},
		{
			name:    "non-yarn strict",
			facts:   ClusterFacts{},
			rp:      customRP,
			allowed: false,
		},
		{
			name: "yarn with dynamic allocation",
			facts: ClusterFacts{
				IsYarn:                   true,
				DynamicAllocationEnabled: true,
			},
			rp:      customRP,
			allowed: true,
		},
		{
			name: "yarn without dynamic allocation under test harness",
			facts: ClusterFacts{
				IsYarn:          true,
				TestingOverride: true,
			},
			rp:      customRP,
			allowed: true,
		},
		{
			name:    "yarn without dynamic allocation strict",
			facts:   ClusterFacts{IsYarn: true},
			rp:      customRP,
			allowed: false,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := CheckSupported(tc.facts, tc.rp)
			if tc.allowed {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				require.True(t, derror.ErrResourceProfileUnsupported.Equal(err))
			}
		})
	}
}
