// Package errors provides structured error types for the marshalling core.
//
// Errors are categorized by Phase (where the error occurred) and Kind (which
// boundary contract was violated). The Error type carries the field path,
// Go and foreign type names, the offending value and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
//		Path("array", "3").
//		Foreign("TSetupStep").
//		Detail("index 3 out of bounds (length 1)").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseDecode, path, 3, 1)
//	err := errors.DoubleFree(errors.PhaseRuntime, ptr)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
