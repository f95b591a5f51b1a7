package pascal

import (
	"sync"

	"go.uber.org/multierr"

	innoexec "github.com/wippyai/innoexec"
)

type Allocation struct {
	Ptr   uint32
	Size  uint32
	Align uint32
}

// Scope owns the foreign copies made for a single call. The foreign side may
// read them until the call returns; Free releases each one exactly once.
type Scope struct {
	allocations []Allocation
}

var scopePool = sync.Pool{
	New: func() any {
		return &Scope{allocations: make([]Allocation, 0, 8)}
	},
}

func NewScope() *Scope {
	return scopePool.Get().(*Scope)
}

const maxPooledScopeCapacity = 128

// Release returns to pool. Must call after Free(); scope invalid after Release.
func (s *Scope) Release() {
	// Only pool small scopes to prevent memory bloat
	if cap(s.allocations) > maxPooledScopeCapacity {
		return
	}
	s.allocations = s.allocations[:0]
	scopePool.Put(s)
}

func (s *Scope) FreeAndRelease(allocator innoexec.Allocator) error {
	err := s.Free(allocator)
	s.Release()
	return err
}

func (s *Scope) Add(ptr, size, align uint32) {
	s.allocations = append(s.allocations, Allocation{
		Ptr:   ptr,
		Size:  size,
		Align: align,
	})
}

// Free releases every recorded allocation and forgets them, so a second
// call frees nothing.
func (s *Scope) Free(allocator innoexec.Allocator) error {
	if allocator == nil {
		return nil
	}
	var err error
	for _, a := range s.allocations {
		if a.Ptr != 0 {
			err = multierr.Append(err, allocator.Free(a.Ptr, a.Size, a.Align))
		}
	}
	s.allocations = s.allocations[:0]
	return err
}

func (s *Scope) Count() int {
	return len(s.allocations)
}
