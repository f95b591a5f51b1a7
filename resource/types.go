package resource

// Handle is an opaque reference to a foreign value recorded in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// TypeID tags what kind of foreign value a handle names.
type TypeID uint32

const (
	// TypeExec names a compiled TPSExec execution context.
	TypeExec TypeID = iota + 1
)

func (t TypeID) String() string {
	switch t {
	case TypeExec:
		return "TPSExec"
	}
	return "unknown"
}

// Event types for handle lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

func (e EventType) String() string {
	if e == EventCreated {
		return "created"
	}
	return "dropped"
}

// Event represents a handle lifecycle event.
type Event struct {
	Handle Handle
	Rep    uint32
	TypeID TypeID
	Type   EventType
}

// Observer receives notifications about handle lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }
