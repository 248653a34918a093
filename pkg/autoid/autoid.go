package autoid

import (
	"sync"

	"github.com/google/uuid"
)

// IDAllocator hands out sequential int64 ids. The driver uses it to
// assign resource profile ids, starting right after the reserved
// default profile id.
type IDAllocator struct {
	sync.Mutex
	internalID int64
}

// NewIDAllocator creates an allocator whose first AllocID returns base+1.
func NewIDAllocator(base int64) *IDAllocator {
	return &IDAllocator{
		internalID: base,
	}
}

func (a *IDAllocator) AllocID() int64 {
	a.Lock()
	defer a.Unlock()
	a.internalID++
	return a.internalID
}

type UUIDAllocator struct{}

func NewUUIDAllocator() *UUIDAllocator {
	return new(UUIDAllocator)
}

func (a *UUIDAllocator) AllocID() string {
	return uuid.New().String()
}
