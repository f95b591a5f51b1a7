package engine

import "io"

// Default export names of a PascalScript executor built for wasm32.
const (
	DefaultMemoryExport  = "memory"
	DefaultMallocExport  = "malloc"
	DefaultFreeExport    = "free"
	DefaultCompileExport = "GenerateExec"
	DefaultInvokeExport  = "TPSExecRunProcPN"
	DefaultStartFunction = "_initialize"
)

// Exports names the entry points the engine module must export.
// Empty fields take the Default*Export values.
type Exports struct {
	Memory  string
	Malloc  string
	Free    string
	Compile string
	Invoke  string
}

func (x Exports) withDefaults() Exports {
	if x.Memory == "" {
		x.Memory = DefaultMemoryExport
	}
	if x.Malloc == "" {
		x.Malloc = DefaultMallocExport
	}
	if x.Free == "" {
		x.Free = DefaultFreeExport
	}
	if x.Compile == "" {
		x.Compile = DefaultCompileExport
	}
	if x.Invoke == "" {
		x.Invoke = DefaultInvokeExport
	}
	return x
}

// Config holds configuration for engine creation
type Config struct {
	// Stdout and Stderr receive the module's WASI output. nil discards it.
	Stdout io.Writer
	Stderr io.Writer

	Exports Exports

	// ModuleName is the instance name inside the wazero runtime.
	ModuleName string

	// MemoryLimitPages sets the maximum memory in pages (64KB each).
	// 0 means the wazero default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32
}
