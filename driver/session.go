package driver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/devaraj-kavali/spark/pkg/autoid"
	"github.com/devaraj-kavali/spark/pkg/deps"
	"github.com/devaraj-kavali/spark/pkg/notifier"
	"github.com/devaraj-kavali/spark/pkg/resourceprofile"
)

// addedEventLogInterval bounds how often profile-added events are logged
// by the session's event loop.
const addedEventLogInterval = time.Second

// Session is the driver-side owner of the resource profile subsystem.
// It constructs the Manager, owns the profile-added event bus, assigns
// ids to new profiles and logs registrations in the background.
type Session struct {
	cfg   *Config
	appID string

	manager *resourceprofile.Manager
	events  *notifier.Notifier[*resourceprofile.ResourceProfile]
	ids     *autoid.IDAllocator

	wg sync.WaitGroup
}

// NewSession creates a Session from the given config. The default
// profile is registered before NewSession returns.
func NewSession(cfg *Config) (*Session, error) {
	dp := deps.NewDeps()
	if err := dp.Provide(func() *Config {
		return cfg
	}); err != nil {
		return nil, err
	}
	if err := dp.Provide(notifier.NewNotifier[*resourceprofile.ResourceProfile]); err != nil {
		return nil, err
	}
	if err := dp.Provide(func() *autoid.IDAllocator {
		return autoid.NewIDAllocator(resourceprofile.DefaultProfileID)
	}); err != nil {
		return nil, err
	}

	ret, err := dp.Construct(newSession)
	if err != nil {
		return nil, err
	}
	return ret.(*Session), nil
}

func newSession(
	cfg *Config,
	events *notifier.Notifier[*resourceprofile.ResourceProfile],
	ids *autoid.IDAllocator,
) (*Session, error) {
	s := &Session{
		cfg:    cfg,
		appID:  fmt.Sprintf("app-%s", autoid.NewUUIDAllocator().AllocID()),
		events: events,
		ids:    ids,
	}

	// Subscribe before the manager registers the default profile, so
	// that its event is observed too.
	receiver := events.NewReceiver()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runEventLoop(receiver)
	}()

	defaultProfile, err := cfg.DefaultProfile()
	if err != nil {
		events.Close()
		s.wg.Wait()
		return nil, err
	}
	manager, err := resourceprofile.NewManager(
		cfg.ClusterFacts(), cfg.ExecutorReuse, defaultProfile, events)
	if err != nil {
		events.Close()
		s.wg.Wait()
		return nil, err
	}
	s.manager = manager

	log.L().Info("Driver session started",
		zap.String("app-id", s.appID),
		zap.String("master", cfg.Master),
		zap.Bool("dynamic-allocation", cfg.DynamicAllocation),
		zap.Bool("executor-reuse", cfg.ExecutorReuse))
	return s, nil
}

// AppID returns the generated application id of this session.
func (s *Session) AppID() string {
	return s.appID
}

// Manager returns the resource profile manager owned by this session.
func (s *Session) Manager() *resourceprofile.Manager {
	return s.manager
}

// BuildProfile assigns the next profile id to the given requests and
// registers the resulting profile. The admission policy applies as in
// Manager.AddProfile.
func (s *Session) BuildProfile(
	execReqs *resourceprofile.ExecutorResourceRequests,
	taskReqs *resourceprofile.TaskResourceRequests,
) (*resourceprofile.ResourceProfile, error) {
	rp := resourceprofile.NewResourceProfile(s.ids.AllocID(), execReqs, taskReqs)
	if err := s.manager.AddProfile(rp); err != nil {
		return nil, err
	}
	return rp, nil
}

// Close flushes pending profile-added events and shuts the event bus
// down. The registry itself has no teardown, profiles live for the
// process lifetime.
func (s *Session) Close(ctx context.Context) error {
	err := s.events.Flush(ctx)
	s.events.Close()
	s.wg.Wait()

	log.L().Info("Driver session closed", zap.String("app-id", s.appID))
	return err
}

func (s *Session) runEventLoop(receiver *notifier.Receiver[*resourceprofile.ResourceProfile]) {
	defer receiver.Close()

	rl := rate.NewLimiter(rate.Every(addedEventLogInterval), 10)
	for rp := range receiver.C {
		if !rl.Allow() {
			// Profile registrations are expected to be rare. If they
			// are not, do not let the event log amplify the load.
			continue
		}
		log.L().Info("Resource profile added",
			zap.String("app-id", s.appID),
			zap.Int64("profile-id", rp.ID()),
			zap.Int("executor-resource-count", len(rp.ExecutorResources())),
			zap.Int("task-resource-count", len(rp.TaskResources())))
	}
}
