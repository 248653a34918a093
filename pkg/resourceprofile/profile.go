package resourceprofile

import (
	"math"
	"sync"
)

// DefaultProfileID is the reserved id of the default profile built from
// the application-level configuration. It is always the first id
// registered with the Manager and is never reused.
const DefaultProfileID int64 = 0

// ResourceProfile associates a stable id with the executor and task
// resource requirements of a stage. Once a profile has been handed to
// the Manager its resource maps must not be mutated anymore.
type ResourceProfile struct {
	id int64

	executorResources map[string]ExecutorResourceRequest
	taskResources     map[string]TaskResourceRequest

	// limiting resource computation is cached. The Manager forces it
	// eagerly at registration so the first scheduling path is not
	// charged the cost.
	limitingOnce        sync.Once
	limitingResource    string
	maxTasksPerExecutor int
}

// NewResourceProfile binds the given requests to a profile with the
// given id. The request maps are copied, so the collections can be
// reused by the caller afterwards.
func NewResourceProfile(
	id int64,
	executorReqs *ExecutorResourceRequests,
	taskReqs *TaskResourceRequests,
) *ResourceProfile {
	return &ResourceProfile{
		id:                id,
		executorResources: executorReqs.Requests(),
		taskResources:     taskReqs.Requests(),
	}
}

// ID returns the profile id.
func (rp *ResourceProfile) ID() int64 {
	return rp.id
}

// IsDefault returns whether this is the default profile.
func (rp *ResourceProfile) IsDefault() bool {
	return rp.id == DefaultProfileID
}

// ExecutorResources returns a copy of the executor-side requests keyed
// by resource name.
func (rp *ResourceProfile) ExecutorResources() map[string]ExecutorResourceRequest {
	ret := make(map[string]ExecutorResourceRequest, len(rp.executorResources))
	for name, req := range rp.executorResources {
		ret[name] = req
	}
	return ret
}

// TaskResources returns a copy of the task-side requests keyed by
// resource name.
func (rp *ResourceProfile) TaskResources() map[string]TaskResourceRequest {
	ret := make(map[string]TaskResourceRequest, len(rp.taskResources))
	for name, req := range rp.taskResources {
		ret[name] = req
	}
	return ret
}

// TaskCPUs returns the configured cpus-per-task of this profile, if set.
func (rp *ResourceProfile) TaskCPUs() (int, bool) {
	req, ok := rp.taskResources[ResourceCPUs]
	if !ok {
		return 0, false
	}
	return int(req.Amount), true
}

// LimitingResource returns the name of the task resource that limits the
// number of concurrent tasks an executor of this profile can run. The
// result is computed once and cached.
func (rp *ResourceProfile) LimitingResource() string {
	rp.limitingOnce.Do(rp.computeLimiting)
	return rp.limitingResource
}

// MaxTasksPerExecutor returns the number of task slots the limiting
// resource allows on one executor of this profile.
func (rp *ResourceProfile) MaxTasksPerExecutor() int {
	rp.limitingOnce.Do(rp.computeLimiting)
	return rp.maxTasksPerExecutor
}

func (rp *ResourceProfile) computeLimiting() {
	limiting := ResourceCPUs
	slots := math.MaxInt

	for name, taskReq := range rp.taskResources {
		execName := name
		if name == ResourceCPUs {
			execName = ResourceCores
		}
		execReq, ok := rp.executorResources[execName]
		if !ok || taskReq.Amount <= 0 {
			continue
		}
		resourceSlots := int(float64(execReq.Amount) / taskReq.Amount)
		if resourceSlots < slots {
			slots = resourceSlots
			limiting = name
		}
	}

	if slots == math.MaxInt {
		// No task resource is backed by an executor resource, a single
		// task slot is assumed.
		slots = 1
	}
	rp.limitingResource = limiting
	rp.maxTasksPerExecutor = slots
}

// executorResourcesEqual reports whether two profiles request textually
// equal executor resources, which is the criterion for sharing executors.
func executorResourcesEqual(a, b *ResourceProfile) bool {
	if len(a.executorResources) != len(b.executorResources) {
		return false
	}
	for name, req := range a.executorResources {
		other, ok := b.executorResources[name]
		if !ok || other != req {
			return false
		}
	}
	return true
}
