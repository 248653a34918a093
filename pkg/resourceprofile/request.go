package resourceprofile

// Well-known resource names. Executor-side requests use ResourceCores and
// ResourceMemory variants, task-side requests use ResourceCPUs. Any other
// name denotes a custom resource such as "gpu" or "fpga".
const (
	ResourceCores          = "cores"
	ResourceMemory         = "memory"
	ResourceMemoryOverhead = "memoryOverhead"
	ResourceOffHeap        = "offHeap"
	ResourceCPUs           = "cpus"
)

// ExecutorResourceRequest describes a single resource an executor must
// provide. It is a plain immutable value, compared by value.
type ExecutorResourceRequest struct {
	ResourceName    string
	Amount          int64
	Units           string
	DiscoveryScript string
	Vendor          string
}

// TaskResourceRequest describes the share of a resource a single task
// needs. Fractional amounts allow multiple tasks to share one resource
// address.
type TaskResourceRequest struct {
	ResourceName string
	Amount       float64
}

// ExecutorResourceRequests collects executor-side requests keyed by
// resource name. It is the mutable assembly stage of a profile; once the
// requests are bound into a ResourceProfile they are copied and never
// change again.
type ExecutorResourceRequests struct {
	requests map[string]ExecutorResourceRequest
}

// NewExecutorResourceRequests creates an empty request collection.
func NewExecutorResourceRequests() *ExecutorResourceRequests {
	return &ExecutorResourceRequests{
		requests: make(map[string]ExecutorResourceRequest),
	}
}

// Cores sets the number of cores per executor.
func (r *ExecutorResourceRequests) Cores(amount int64) *ExecutorResourceRequests {
	r.requests[ResourceCores] = ExecutorResourceRequest{
		ResourceName: ResourceCores,
		Amount:       amount,
	}
	return r
}

// Memory sets the heap memory per executor. Units follows the usual
// size suffix convention, e.g. "m" or "g".
func (r *ExecutorResourceRequests) Memory(amount int64, units string) *ExecutorResourceRequests {
	r.requests[ResourceMemory] = ExecutorResourceRequest{
		ResourceName: ResourceMemory,
		Amount:       amount,
		Units:        units,
	}
	return r
}

// MemoryOverhead sets the off-heap overhead memory per executor.
func (r *ExecutorResourceRequests) MemoryOverhead(amount int64, units string) *ExecutorResourceRequests {
	r.requests[ResourceMemoryOverhead] = ExecutorResourceRequest{
		ResourceName: ResourceMemoryOverhead,
		Amount:       amount,
		Units:        units,
	}
	return r
}

// OffHeapMemory sets the off-heap memory per executor.
func (r *ExecutorResourceRequests) OffHeapMemory(amount int64, units string) *ExecutorResourceRequests {
	r.requests[ResourceOffHeap] = ExecutorResourceRequest{
		ResourceName: ResourceOffHeap,
		Amount:       amount,
		Units:        units,
	}
	return r
}

// Resource sets a custom resource request, e.g. a GPU with its discovery
// script and vendor.
func (r *ExecutorResourceRequests) Resource(
	name string, amount int64, discoveryScript string, vendor string,
) *ExecutorResourceRequests {
	r.requests[name] = ExecutorResourceRequest{
		ResourceName:    name,
		Amount:          amount,
		DiscoveryScript: discoveryScript,
		Vendor:          vendor,
	}
	return r
}

// Requests returns a copy of the requests keyed by resource name.
func (r *ExecutorResourceRequests) Requests() map[string]ExecutorResourceRequest {
	ret := make(map[string]ExecutorResourceRequest, len(r.requests))
	for name, req := range r.requests {
		ret[name] = req
	}
	return ret
}

// TaskResourceRequests collects task-side requests keyed by resource name.
type TaskResourceRequests struct {
	requests map[string]TaskResourceRequest
}

// NewTaskResourceRequests creates an empty request collection.
func NewTaskResourceRequests() *TaskResourceRequests {
	return &TaskResourceRequests{
		requests: make(map[string]TaskResourceRequest),
	}
}

// CPUs sets the number of cpus per task.
func (r *TaskResourceRequests) CPUs(amount int) *TaskResourceRequests {
	r.requests[ResourceCPUs] = TaskResourceRequest{
		ResourceName: ResourceCPUs,
		Amount:       float64(amount),
	}
	return r
}

// Resource sets a custom resource request. Amounts below 1 mean multiple
// tasks share a single resource address.
func (r *TaskResourceRequests) Resource(name string, amount float64) *TaskResourceRequests {
	r.requests[name] = TaskResourceRequest{
		ResourceName: name,
		Amount:       amount,
	}
	return r
}

// Requests returns a copy of the requests keyed by resource name.
func (r *TaskResourceRequests) Requests() map[string]TaskResourceRequest {
	ret := make(map[string]TaskResourceRequest, len(r.requests))
	for name, req := range r.requests {
		ret[name] = req
	}
	return ret
}
