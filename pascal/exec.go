package pascal

import "fmt"

// Exec is an opaque handle to a compiled PascalScript execution context
// (TPSExec). Only an engine's compile entry point produces one, and the
// foreign side owns the context it names; the host never frees it.
type Exec struct {
	owner uint32
	id    uint32
}

// NewExec is for engine bindings: it wraps the engine's own identifier for
// a context it has just received from the foreign side.
func NewExec(owner, id uint32) Exec {
	return Exec{owner: owner, id: id}
}

// IsZero reports whether the handle names no context.
func (e Exec) IsZero() bool { return e.id == 0 }

// Owner identifies the engine that issued the handle.
func (e Exec) Owner() uint32 { return e.owner }

// ID is the issuing engine's identifier for the context.
func (e Exec) ID() uint32 { return e.id }

func (e Exec) String() string {
	if e.IsZero() {
		return "TPSExec(nil)"
	}
	return fmt.Sprintf("TPSExec(%d:%d)", e.owner, e.id)
}
