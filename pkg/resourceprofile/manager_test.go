package resourceprofile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	derror "github.com/devaraj-kavali/spark/pkg/errors"
	"github.com/devaraj-kavali/spark/pkg/notifier"
)

func yarnFacts() ClusterFacts {
	return ClusterFacts{
		IsYarn:                   true,
		DynamicAllocationEnabled: true,
	}
}

func newTestDefaultProfile() *ResourceProfile {
	return NewResourceProfile(
		DefaultProfileID,
		NewExecutorResourceRequests().Cores(1).Memory(1024, "m"),
		NewTaskResourceRequests().CPUs(1),
	)
}

func newTestManager(t *testing.T, facts ClusterFacts, reuseEnabled bool) *Manager {
	m, err := NewManager(facts, reuseEnabled, newTestDefaultProfile(), nil)
	require.NoError(t, err)
	return m
}

func TestDefaultProfileRegisteredAtConstruction(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, yarnFacts(), false)

	rp, err := m.ProfileFromID(DefaultProfileID)
	require.NoError(t, err)
	require.Same(t, m.DefaultProfile(), rp)

	cpus, err := m.TaskCPUsForProfileID(DefaultProfileID)
	require.NoError(t, err)
	defCPUs, ok := m.DefaultProfile().TaskCPUs()
	require.True(t, ok)
	require.Equal(t, defCPUs, cpus)
}

func TestAddProfileRoundTrip(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, yarnFacts(), false)

	rp := NewResourceProfile(1,
		NewExecutorResourceRequests().Cores(4),
		NewTaskResourceRequests().CPUs(2))
	require.NoError(t, m.AddProfile(rp))

	got, err := m.ProfileFromID(1)
	require.NoError(t, err)
	require.Same(t, rp, got)
	require.Equal(t, rp.ExecutorResources(), got.ExecutorResources())

	cpus, err := m.TaskCPUsForProfileID(1)
	require.NoError(t, err)
	require.Equal(t, 2, cpus)
}

func TestTaskCPUsFallsBackToDefault(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, yarnFacts(), false)

	rp := NewResourceProfile(1,
		NewExecutorResourceRequests().Cores(4),
		NewTaskResourceRequests().Resource("gpu", 1))
	require.NoError(t, m.AddProfile(rp))

	cpus, err := m.TaskCPUsForProfileID(1)
	require.NoError(t, err)
	require.Equal(t, 1, cpus)
}

func TestProfileFromIDUnknown(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, yarnFacts(), false)

	_, err := m.ProfileFromID(999)
	require.Error(t, err)
	require.True(t, derror.ErrResourceProfileNotFound.Equal(err))

	_, err = m.TaskCPUsForProfileID(999)
	require.True(t, derror.ErrResourceProfileNotFound.Equal(err))
}

func TestAddProfileRejectedOffYarn(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, ClusterFacts{}, false)

	rp := NewResourceProfile(1,
		NewExecutorResourceRequests().Cores(4),
		NewTaskResourceRequests().CPUs(1))
	err := m.AddProfile(rp)
	require.Error(t, err)
	require.True(t, derror.ErrResourceProfileUnsupported.Equal(err))

	// The rejected profile must not have been registered.
	_, err = m.ProfileFromID(1)
	require.True(t, derror.ErrResourceProfileNotFound.Equal(err))
}

func TestFirstWriterWinsByID(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, yarnFacts(), false)

	first := NewResourceProfile(7,
		NewExecutorResourceRequests().Cores(4),
		NewTaskResourceRequests().CPUs(1))
	second := NewResourceProfile(7,
		NewExecutorResourceRequests().Cores(8),
		NewTaskResourceRequests().CPUs(2))

	require.NoError(t, m.AddProfile(first))
	require.NoError(t, m.AddProfile(second))

	got, err := m.ProfileFromID(7)
	require.NoError(t, err)
	require.Same(t, first, got)
}

func TestExecutorReuseCompatibility(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, yarnFacts(), true)

	p1 := NewResourceProfile(1,
		NewExecutorResourceRequests().Cores(4).Memory(1, "g"),
		NewTaskResourceRequests().CPUs(1))
	p2 := NewResourceProfile(2,
		NewExecutorResourceRequests().Cores(4).Memory(1, "g"),
		NewTaskResourceRequests().CPUs(2).Resource("gpu", 0.5))
	p3 := NewResourceProfile(3,
		NewExecutorResourceRequests().Cores(8),
		NewTaskResourceRequests().CPUs(1))

	require.NoError(t, m.AddProfile(p1))
	require.NoError(t, m.AddProfile(p2))
	require.NoError(t, m.AddProfile(p3))

	require.True(t, m.CompatibleForExecutorReuse(1, 2))
	require.True(t, m.CompatibleForExecutorReuse(2, 1))
	require.False(t, m.CompatibleForExecutorReuse(1, 3))
	require.False(t, m.CompatibleForExecutorReuse(3, 1))

	// Unknown ids are a negative answer, not an error.
	require.False(t, m.CompatibleForExecutorReuse(1, 999))
	require.False(t, m.CompatibleForExecutorReuse(999, 1))
}

func TestExecutorReuseDisabled(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, yarnFacts(), false)

	p1 := NewResourceProfile(1,
		NewExecutorResourceRequests().Cores(4),
		NewTaskResourceRequests().CPUs(1))
	p2 := NewResourceProfile(2,
		NewExecutorResourceRequests().Cores(4),
		NewTaskResourceRequests().CPUs(1))

	require.NoError(t, m.AddProfile(p1))
	require.NoError(t, m.AddProfile(p2))

	require.False(t, m.CompatibleForExecutorReuse(1, 2))
	require.False(t, m.CompatibleForExecutorReuse(2, 1))
	require.False(t, m.CompatibleForExecutorReuse(1, 1))
}

func TestCompatibilitySymmetric(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, yarnFacts(), true)

	ids := []int64{1, 2, 3, 4}
	for _, id := range ids {
		cores := int64(4)
		if id%2 == 0 {
			cores = 8
		}
		rp := NewResourceProfile(id,
			NewExecutorResourceRequests().Cores(cores),
			NewTaskResourceRequests().CPUs(1))
		require.NoError(t, m.AddProfile(rp))
	}

	for _, a := range ids {
		for _, b := range ids {
			require.Equal(t,
				m.CompatibleForExecutorReuse(a, b),
				m.CompatibleForExecutorReuse(b, a),
				"compatibility must be symmetric for (%d, %d)", a, b)
		}
	}
	require.True(t, m.CompatibleForExecutorReuse(2, 4))
	require.False(t, m.CompatibleForExecutorReuse(1, 2))
}

func TestProfileAddedEventExactlyOnce(t *testing.T) {
	t.Parallel()

	events := notifier.NewNotifier[*ResourceProfile]()
	defer events.Close()
	receiver := events.NewReceiver()
	defer receiver.Close()

	m, err := NewManager(yarnFacts(), false, newTestDefaultProfile(), events)
	require.NoError(t, err)

	rp := NewResourceProfile(1,
		NewExecutorResourceRequests().Cores(4),
		NewTaskResourceRequests().CPUs(1))

	// Concurrent duplicate registrations of the same id must publish
	// exactly one event.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, m.AddProfile(rp))
		}()
	}
	wg.Wait()

	require.NoError(t, events.Flush(context.Background()))

	var got []int64
Drain:
	for {
		select {
		case ev := <-receiver.C:
			got = append(got, ev.ID())
		case <-time.After(100 * time.Millisecond):
			break Drain
		}
	}
	require.Equal(t, []int64{DefaultProfileID, 1}, got)
}

func TestConcurrentRegistrationAndLookup(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, yarnFacts(), true)

	const numProfiles = 32
	var wg sync.WaitGroup
	for i := 1; i <= numProfiles; i++ {
		id := int64(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			rp := NewResourceProfile(id,
				NewExecutorResourceRequests().Cores(4),
				NewTaskResourceRequests().CPUs(1))
			require.NoError(t, m.AddProfile(rp))

			got, err := m.ProfileFromID(id)
			require.NoError(t, err)
			require.Same(t, rp, got)
		}()
	}
	wg.Wait()

	// Links between ids registered at nearly the same instant may be
	// missing, which is accepted, but every link that was established
	// is written to both sets, so the relation stays symmetric.
	for a := int64(1); a <= numProfiles; a++ {
		for b := int64(1); b <= numProfiles; b++ {
			require.Equal(t,
				m.CompatibleForExecutorReuse(a, b),
				m.CompatibleForExecutorReuse(b, a))
		}
	}
	for a := int64(1); a <= numProfiles; a++ {
		got, err := m.ProfileFromID(a)
		require.NoError(t, err)
		require.Equal(t, a, got.ID())
	}
}
