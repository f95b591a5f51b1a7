// Package installer drives an installer script through the foreign engine.
//
// A run moves through fixed states:
//
//	Idle -> BytecodeLoaded -> ContextCompiled -> ProcedureInvoked -> Done
//
// Bytecode is wrapped as an AnsiString in the default code page and
// compiled into an execution context. The driver then builds a one-element
// TSetupStep array and the procedure name and invokes the procedure. If
// compilation yields no context, the procedure is never invoked. Any
// failure moves the driver to Failed and is returned as is; there are no
// retries.
package installer
