package resourceprofile

import (
	"sync"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	derror "github.com/devaraj-kavali/spark/pkg/errors"
	"github.com/devaraj-kavali/spark/pkg/notifier"
)

// Manager is the driver-side registry of resource profiles. It validates
// profiles against the cluster-manager admission policy, assigns lookups
// over them, and maintains the executor-reuse compatibility index.
//
// All methods are safe for concurrent use. Profiles are never evicted,
// the profile count is expected to stay small over a process lifetime.
type Manager struct {
	facts        ClusterFacts
	reuseEnabled bool

	defaultProfile  *ResourceProfile
	defaultTaskCPUs int

	// profiles is the id -> *ResourceProfile source of truth.
	profiles sync.Map
	// compat maps a profile id to the set of other profile ids whose
	// executors it may reuse.
	compat sync.Map

	// events receives every profile exactly once, on its first
	// successful registration. Delivery is fire-and-forget.
	events *notifier.Notifier[*ResourceProfile]
}

// NewManager creates a Manager and registers the given default profile
// as the first entry of the registry. The default profile must carry the
// reserved id and define a cpus-per-task amount, which is cached for the
// fallback of TaskCPUsForProfileID.
func NewManager(
	facts ClusterFacts,
	reuseEnabled bool,
	defaultProfile *ResourceProfile,
	events *notifier.Notifier[*ResourceProfile],
) (*Manager, error) {
	if !defaultProfile.IsDefault() {
		return nil, derror.ErrInvalidArgument.GenWithStackByArgs(
			"the default profile must carry the reserved default id")
	}
	cpus, ok := defaultProfile.TaskCPUs()
	if !ok {
		return nil, derror.ErrInvalidArgument.GenWithStackByArgs(
			"the default profile must define a cpus-per-task amount")
	}

	m := &Manager{
		facts:           facts,
		reuseEnabled:    reuseEnabled,
		defaultProfile:  defaultProfile,
		defaultTaskCPUs: cpus,
		events:          events,
	}
	if err := m.AddProfile(defaultProfile); err != nil {
		// The default profile always passes the admission policy.
		return nil, err
	}
	return m, nil
}

// DefaultProfile returns the default profile. It never fails.
func (m *Manager) DefaultProfile() *ResourceProfile {
	return m.defaultProfile
}

// AddProfile registers rp. Registration is idempotent by id: if a
// profile with the same id has already been registered, the existing one
// is kept and rp is discarded. The profile-added event fires exactly
// once per distinct id.
//
// Returns an error when the admission policy rejects the profile, in
// which case the caller must not use it.
func (m *Manager) AddProfile(rp *ResourceProfile) error {
	if err := CheckSupported(m.facts, rp); err != nil {
		return err
	}

	// Force the limiting resource computation now so that the first
	// scheduling use is not charged the cost.
	rp.LimitingResource()

	_, loaded := m.profiles.LoadOrStore(rp.ID(), rp)
	if loaded {
		return nil
	}

	log.L().Info("Added resource profile",
		zap.Int64("profile-id", rp.ID()),
		zap.String("limiting-resource", rp.LimitingResource()),
		zap.Int("max-tasks-per-executor", rp.MaxTasksPerExecutor()))
	if m.events != nil {
		m.events.Notify(rp)
	}

	m.compatFor(rp.ID())
	if m.reuseEnabled {
		m.linkCompatible(rp)
	}
	return nil
}

// ProfileFromID resolves a profile id. An unknown id is an internal
// consistency bug upstream: ids must be registered before they are
// propagated anywhere else in the system.
func (m *Manager) ProfileFromID(rpID int64) (*ResourceProfile, error) {
	value, ok := m.profiles.Load(rpID)
	if !ok {
		return nil, derror.ErrResourceProfileNotFound.GenWithStackByArgs(rpID)
	}
	return value.(*ResourceProfile), nil
}

// TaskCPUsForProfileID returns the cpus-per-task of the given profile,
// falling back to the default profile's amount when the profile does not
// set one. Fails like ProfileFromID on an unknown id.
func (m *Manager) TaskCPUsForProfileID(rpID int64) (int, error) {
	rp, err := m.ProfileFromID(rpID)
	if err != nil {
		return 0, err
	}
	if cpus, ok := rp.TaskCPUs(); ok {
		return cpus, nil
	}
	return m.defaultTaskCPUs, nil
}

// CompatibleForExecutorReuse reports whether executors launched for one
// profile may be reused by the other. It is a query, not an assertion:
// unknown ids and a disabled reuse feature yield false, never an error.
func (m *Manager) CompatibleForExecutorReuse(rpID1, rpID2 int64) bool {
	if !m.reuseEnabled {
		return false
	}
	value, ok := m.compat.Load(rpID1)
	if !ok {
		return false
	}
	return value.(*compatSet).contains(rpID2)
}

// linkCompatible scans the registry as of now and symmetrically links rp
// with every registered profile requesting equal executor resources.
//
// A profile registered concurrently with this scan may be missed in one
// direction until its own scan runs. Registration is rare relative to
// lookups and a missed link only degrades executor reuse, so no stronger
// consistency is attempted here.
func (m *Manager) linkCompatible(rp *ResourceProfile) {
	set := m.compatFor(rp.ID())
	m.profiles.Range(func(_, value any) bool {
		other := value.(*ResourceProfile)
		if other.ID() == rp.ID() {
			// Self-compatibility is trivially true and not stored.
			return true
		}
		if !executorResourcesEqual(rp, other) {
			return true
		}
		set.add(other.ID())
		m.compatFor(other.ID()).add(rp.ID())
		return true
	})
}

func (m *Manager) compatFor(rpID int64) *compatSet {
	value, _ := m.compat.LoadOrStore(rpID, newCompatSet())
	return value.(*compatSet)
}

type compatSet struct {
	mu  sync.RWMutex
	ids map[int64]struct{}
}

func newCompatSet() *compatSet {
	return &compatSet{
		ids: make(map[int64]struct{}),
	}
}

func (s *compatSet) add(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

func (s *compatSet) contains(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}
