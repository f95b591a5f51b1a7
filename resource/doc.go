// Package resource tracks the foreign values the host hands out opaque
// handles for, such as compiled execution contexts.
//
// A handle is only a host-side name. The value it refers to lives in the
// engine's memory and is owned by the foreign runtime:
//
//	table := resource.NewTable()
//	h, _ := table.NewFromRep(resource.TypeExec, ptr)
//	ptr, err := table.Rep(h, resource.TypeExec)
//
// Rep fails with not_found for a handle that was never issued, was
// dropped, or names a different type.
package resource
