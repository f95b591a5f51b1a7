package engine

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	innoexec "github.com/wippyai/innoexec"
	"github.com/wippyai/innoexec/errors"
)

// allocator implements innoexec.Allocator over the guest's malloc/free.
// The guest heap decides alignment; blocks it returns misaligned for the
// requested alignment are released and reported as allocation failures.
type allocator struct {
	mallocFn   api.Function
	freeFn     api.Function
	currentCtx context.Context
	stackBuf   []uint64
	stackMutex sync.Mutex
}

func newAllocator(mallocFn, freeFn api.Function) *allocator {
	return &allocator{
		mallocFn: mallocFn,
		freeFn:   freeFn,
		stackBuf: make([]uint64, 1),
	}
}

func (a *allocator) setContext(ctx context.Context) {
	a.stackMutex.Lock()
	defer a.stackMutex.Unlock()
	a.currentCtx = ctx
}

func (a *allocator) callContext() context.Context {
	if a.currentCtx == nil {
		return context.Background()
	}
	return a.currentCtx
}

func (a *allocator) Alloc(size, align uint32) (uint32, error) {
	a.stackMutex.Lock()
	defer a.stackMutex.Unlock()

	a.stackBuf[0] = uint64(size)
	if err := a.mallocFn.CallWithStack(a.callContext(), a.stackBuf[:1]); err != nil {
		return 0, errors.AllocationFailed(errors.PhaseRuntime, size, align, err)
	}
	ptr := uint32(a.stackBuf[0])
	if ptr == 0 {
		return 0, errors.AllocationFailed(errors.PhaseRuntime, size, align, nil)
	}
	if align > 1 && ptr%align != 0 {
		return 0, multierr.Append(
			errors.New(errors.PhaseRuntime, errors.KindAllocation).
				Detail("malloc returned 0x%x, not aligned to %d", ptr, align).
				Value(ptr).
				Build(),
			a.release(ptr, size),
		)
	}
	return ptr, nil
}

func (a *allocator) Free(ptr, size, align uint32) error {
	if ptr == 0 {
		return nil
	}
	a.stackMutex.Lock()
	defer a.stackMutex.Unlock()
	return a.release(ptr, size)
}

func (a *allocator) release(ptr, size uint32) error {
	a.stackBuf[0] = uint64(ptr)
	if err := a.freeFn.CallWithStack(a.callContext(), a.stackBuf[:1]); err != nil {
		Logger().Warn("free: guest call failed",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size),
			zap.Error(err))
		return errors.ForeignCall(errors.PhaseRuntime, "free", err)
	}
	return nil
}

// Compile-time check that allocator implements innoexec.Allocator
var _ innoexec.Allocator = (*allocator)(nil)
