// Package engine hosts the PascalScript executor as a WebAssembly module.
//
// The executor is a wasm32 build of the interpreter that exports its heap
// and two entry points:
//
//	memory             linear memory
//	malloc(n) -> p     allocate n bytes
//	free(p)            release an allocation
//	GenerateExec(s)    compile the bytecode string at s into a TPSExec
//	TPSExecRunProcPN(e, args, name)
//	                   run the named procedure with a dynamic array of args
//
// Strings are passed as the address of their characters with the FPC
// AnsiString header in front of it. Arrays are passed as the address of
// their {data, cur_size} record. Layouts follow the 32-bit FPC model.
//
// # Usage
//
//	e, err := engine.New(ctx, wasmBytes, &engine.Config{MemoryLimitPages: 256})
//	if err != nil {
//	    return err
//	}
//	defer e.Close(ctx)
//
//	exec, err := e.Compile(ctx, bytecode)
//	args := e.NewSetupStepArray()
//	defer args.Free()
//	_ = args.Append(pascal.SetupStepInstall)
//	_, err = e.Invoke(ctx, exec, args, procName)
//
// # Ownership
//
// The host owns every string and array it builds. Copies made for a call
// are released when the call returns, except the bytecode handed to
// Compile, which is kept until Close because the executor may keep
// pointers into it. Execution contexts belong to the executor; the host
// only records them in a handle table so a stale or foreign Exec is
// rejected instead of being passed through.
//
// # WASI
//
// wasi_snapshot_preview1 is instantiated before the module so executors
// built with a WASI libc link. Output goes to Config.Stdout and
// Config.Stderr. The reactor initializer _initialize runs if present.
package engine
