package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	innoexec "github.com/wippyai/innoexec"
	"github.com/wippyai/innoexec/errors"
	"github.com/wippyai/innoexec/pascal"
	"github.com/wippyai/innoexec/resource"
)

var engineIDs atomic.Uint32

// Engine hosts a PascalScript executor compiled to wasm32 and exposes its
// two entry points: compiling bytecode into an execution context and
// invoking a named procedure on it. Calls are serialized.
type Engine struct {
	runtime   wazero.Runtime
	module    api.Module
	mem       *Memory
	alloc     *allocator
	handles   *resource.Table
	compileFn api.Function
	invokeFn  api.Function
	retained  map[resource.Handle]*pascal.Scope
	exports   Exports
	mu        sync.Mutex
	id        uint32
	closed    bool
}

// New compiles and instantiates wasmBytes with WASI preview1 available and
// checks that every required export is present with the expected shape.
func New(ctx context.Context, wasmBytes []byte, cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	exports := cfg.Exports.withDefaults()

	// Cancelling ctx interrupts a running guest call and closes the module.
	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	e, err := instantiate(ctx, runtime, wasmBytes, cfg, exports)
	if err != nil {
		return nil, multierr.Append(err, runtime.Close(ctx))
	}
	Logger().Debug("engine loaded",
		zap.Uint32("engine", e.id),
		zap.Uint32("memory_bytes", e.mem.Size()))
	return e, nil
}

func instantiate(ctx context.Context, runtime wazero.Runtime, wasmBytes []byte, cfg *Config, exports Exports) (*Engine, error) {
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		return nil, errors.Load("instantiate WASI", err)
	}

	compiled, err := runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile engine module", err)
	}

	modCfg := wazero.NewModuleConfig().
		WithStartFunctions(DefaultStartFunction)
	if cfg.ModuleName != "" {
		modCfg = modCfg.WithName(cfg.ModuleName)
	}
	if cfg.Stdout != nil {
		modCfg = modCfg.WithStdout(cfg.Stdout)
	}
	if cfg.Stderr != nil {
		modCfg = modCfg.WithStderr(cfg.Stderr)
	}

	module, err := runtime.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return nil, errors.Load("instantiate engine module", err)
	}

	mem := module.ExportedMemory(exports.Memory)
	if mem == nil {
		return nil, errors.NotFound(errors.PhaseLoad, "memory export", exports.Memory)
	}

	fns := make(map[string]api.Function, 4)
	for _, want := range []struct {
		name    string
		params  int
		results int
	}{
		{exports.Malloc, 1, 1},
		{exports.Free, 1, 0},
		{exports.Compile, 1, 1},
		{exports.Invoke, 3, -1},
	} {
		fn := module.ExportedFunction(want.name)
		if fn == nil {
			return nil, errors.NotFound(errors.PhaseLoad, "function export", want.name)
		}
		def := fn.Definition()
		if len(def.ParamTypes()) != want.params || (want.results >= 0 && len(def.ResultTypes()) != want.results) {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
				Detail("export %s has signature %v -> %v", want.name, def.ParamTypes(), def.ResultTypes()).
				Build()
		}
		fns[want.name] = fn
	}
	if len(fns[exports.Invoke].Definition().ResultTypes()) > 1 {
		return nil, errors.Unsupported(errors.PhaseLoad, exports.Invoke+" returns more than one value")
	}

	e := &Engine{
		runtime:   runtime,
		module:    module,
		mem:       &Memory{mem: mem},
		alloc:     newAllocator(fns[exports.Malloc], fns[exports.Free]),
		handles:   resource.NewTable(),
		compileFn: fns[exports.Compile],
		invokeFn:  fns[exports.Invoke],
		retained:  make(map[resource.Handle]*pascal.Scope),
		exports:   exports,
		id:        engineIDs.Add(1),
	}
	e.handles.Subscribe(resource.ObserverFunc(e.logHandleEvent))
	return e, nil
}

func (e *Engine) logHandleEvent(ev resource.Event) {
	Logger().Debug("context "+ev.Type.String(),
		zap.Uint32("engine", e.id),
		zap.Uint32("handle", uint32(ev.Handle)),
		zap.Stringer("type", ev.TypeID),
		zap.Uint32("rep", ev.Rep))
}

// Model is the memory model of the guest: wasm32 is a 32-bit target.
func (e *Engine) Model() pascal.Model { return pascal.Model32 }

// Memory returns the guest's linear memory.
func (e *Engine) Memory() innoexec.Memory { return e.mem }

// Allocator returns the allocator backed by the guest's malloc and free.
func (e *Engine) Allocator() innoexec.Allocator { return e.alloc }

// Handles returns the table of issued execution contexts.
func (e *Engine) Handles() *resource.Table { return e.handles }

// NewSetupStepArray returns an empty array that lives in guest memory.
func (e *Engine) NewSetupStepArray() *pascal.DynamicArray[pascal.SetupStep] {
	return pascal.NewDynamicArray(e.mem, e.alloc, pascal.SetupStepCodec, e.Model())
}

// Compile hands bytecode to the compile entry point. A nil context from
// the guest is reported as a foreign_call error and no handle is issued.
// The lowered bytecode stays in guest memory until Close, since the guest
// may keep referring to it.
func (e *Engine) Compile(ctx context.Context, bytecode *pascal.AnsiString) (pascal.Exec, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return pascal.Exec{}, errors.NotInitialized(errors.PhaseCompile, "engine")
	}
	e.alloc.setContext(ctx)

	scope := pascal.NewScope()
	ptr, err := bytecode.Lower(e.mem, e.alloc, e.Model(), scope)
	if err != nil {
		return pascal.Exec{}, multierr.Append(err, scope.FreeAndRelease(e.alloc))
	}

	results, err := e.compileFn.Call(ctx, uint64(ptr))
	if err != nil {
		return pascal.Exec{}, multierr.Append(
			errors.ForeignCall(errors.PhaseCompile, e.exports.Compile, err),
			scope.FreeAndRelease(e.alloc),
		)
	}
	rep := uint32(results[0])
	if rep == 0 {
		return pascal.Exec{}, multierr.Append(
			errors.New(errors.PhaseCompile, errors.KindForeignCall).
				Foreign("TPSExec").
				Detail("%s returned no execution context", e.exports.Compile).
				Build(),
			scope.FreeAndRelease(e.alloc),
		)
	}

	h, err := e.handles.NewFromRep(resource.TypeExec, rep)
	if err != nil {
		return pascal.Exec{}, multierr.Append(err, scope.FreeAndRelease(e.alloc))
	}
	e.retained[h] = scope

	exec := pascal.NewExec(e.id, uint32(h))
	Logger().Debug("context compiled",
		zap.Stringer("exec", exec),
		zap.Uint32("rep", rep),
		zap.Uint64("bytecode_size", bytecode.Size()))
	return exec, nil
}

// Invoke calls procedure on exec with args as its positional parameters.
// The array record and the name are copied into guest memory for the call
// and released when it returns; args itself stays owned by the caller.
func (e *Engine) Invoke(ctx context.Context, exec pascal.Exec, args *pascal.DynamicArray[pascal.SetupStep], procedure *pascal.AnsiString) (result pascal.Variant, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return pascal.Empty(), errors.NotInitialized(errors.PhaseInvoke, "engine")
	}
	if exec.IsZero() || exec.Owner() != e.id {
		return pascal.Empty(), errors.NotFound(errors.PhaseInvoke, "execution context", exec.String())
	}
	rep, err := e.handles.Rep(resource.Handle(exec.ID()), resource.TypeExec)
	if err != nil {
		return pascal.Empty(), err
	}
	e.alloc.setContext(ctx)

	scope := pascal.NewScope()
	defer func() {
		err = multierr.Append(err, scope.FreeAndRelease(e.alloc))
	}()

	argsPtr, err := args.Lower(scope)
	if err != nil {
		return pascal.Empty(), err
	}
	namePtr, err := procedure.Lower(e.mem, e.alloc, e.Model(), scope)
	if err != nil {
		return pascal.Empty(), err
	}

	results, err := e.invokeFn.Call(ctx, uint64(rep), uint64(argsPtr), uint64(namePtr))
	if err != nil {
		return pascal.Empty(), errors.ForeignCall(errors.PhaseInvoke, e.exports.Invoke, err)
	}
	result = liftResult(e.invokeFn.Definition().ResultTypes(), results)
	Logger().Debug("procedure invoked",
		zap.Stringer("exec", exec),
		zap.Int("args", args.Len()),
		zap.Stringer("result", result))
	return result, nil
}

// liftResult maps a raw core result to a Variant. The executor returns no
// value or a single numeric value.
func liftResult(types []api.ValueType, results []uint64) pascal.Variant {
	if len(types) == 0 || len(results) == 0 {
		return pascal.Empty()
	}
	switch types[0] {
	case api.ValueTypeI32:
		return pascal.IntegerVariant(api.DecodeI32(results[0]))
	case api.ValueTypeI64:
		return pascal.Int64Variant(int64(results[0]))
	case api.ValueTypeF32:
		return pascal.SingleVariant(api.DecodeF32(results[0]))
	case api.ValueTypeF64:
		return pascal.DoubleVariant(api.DecodeF64(results[0]))
	}
	return pascal.Empty()
}

// Close releases retained bytecode, drops every issued handle and closes
// the runtime. Calling it again is a no-op.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.alloc.setContext(ctx)

	var err error
	e.handles.Each(func(h resource.Handle, _ resource.TypeID, _ uint32) bool {
		if scope, ok := e.retained[h]; ok {
			err = multierr.Append(err, scope.FreeAndRelease(e.alloc))
			delete(e.retained, h)
		}
		return true
	})
	err = multierr.Append(err, e.handles.Close())
	err = multierr.Append(err, e.runtime.Close(ctx))
	return err
}
