// Package innoexec runs Inno Setup install scripts by handing their
// compiled PascalScript bytecode to a foreign interpreter and exchanging
// values with it in the interpreter's own memory layouts.
//
// # Architecture Overview
//
//	innoexec/            Root package with core Memory and Allocator interfaces
//	├── pascal/          Byte-exact FPC values: AnsiString, dynamic arrays,
//	│                    TSetupStep, TPSExec handles, Variant results
//	├── codepage/        Code page numbers to text encodings
//	├── memory/          In-process linear memory with an accounting allocator
//	├── engine/          wazero host for the wasm32 PascalScript executor
//	├── resource/        Handle table for execution contexts
//	├── installer/       Driver: compile the script, signal setup steps
//	├── script/          Locating the script bytecode
//	├── config/          Run settings from flags, environment and files
//	├── errors/          Structured error types for debugging
//	└── cmd/inno-cli/    Command-line front end
//
// # Quick Start
//
//	e, err := engine.New(ctx, wasmBytes, nil)
//	if err != nil {
//	    return err
//	}
//	defer e.Close(ctx)
//
//	d := installer.New(e, installer.Options{})
//	if err := d.Run(ctx, bytecode); err != nil {
//	    return err
//	}
//
// # Memory Interfaces
//
// Every value is written through Memory and allocated through Allocator,
// both addressed with 32-bit offsets. engine provides them over a wasm
// module's linear memory and its malloc/free; memory.Linear provides them
// in-process.
//
// # Ownership
//
// The host owns every string and array it builds and frees each one
// exactly once. Execution contexts belong to the interpreter and are never
// freed by the host.
package innoexec
