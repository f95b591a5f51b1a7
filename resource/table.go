package resource

import (
	"strconv"
	"sync"

	"github.com/wippyai/innoexec/errors"
)

type entry struct {
	rep    uint32
	typeID TypeID
	valid  bool
}

// Table maps host handles to foreign representations, usually pointers
// into the engine's linear memory. Handles are never reused, so a dropped
// handle stays invalid for the life of the table.
type Table struct {
	entries   []entry
	observers []Observer
	live      int
	mu        sync.RWMutex
	closed    bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		entries: make([]entry, 0, 16),
	}
}

// NewFromRep records rep and returns its handle.
func (t *Table) NewFromRep(typeID TypeID, rep uint32) (Handle, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, errors.NotInitialized(errors.PhaseRuntime, "handle table")
	}
	t.entries = append(t.entries, entry{
		rep:    rep,
		typeID: typeID,
		valid:  true,
	})
	t.live++
	handle := Handle(len(t.entries))
	t.mu.Unlock()

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		TypeID: typeID,
		Rep:    rep,
	})
	return handle, nil
}

// Rep returns the representation for a live handle of the given type.
func (t *Table) Rep(handle Handle, typeID TypeID) (uint32, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.lookup(handle)
	if !ok || e.typeID != typeID {
		return 0, errors.NotFound(errors.PhaseRuntime, typeID.String()+" handle", strconv.FormatUint(uint64(handle), 10))
	}
	return e.rep, nil
}

// Drop invalidates a handle and returns its representation. The foreign
// value itself is not released.
func (t *Table) Drop(handle Handle) (uint32, bool) {
	t.mu.Lock()
	e, ok := t.lookup(handle)
	if !ok {
		t.mu.Unlock()
		return 0, false
	}
	t.entries[handle-1].valid = false
	t.live--
	t.mu.Unlock()

	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		TypeID: e.typeID,
		Rep:    e.rep,
	})
	return e.rep, true
}

func (t *Table) lookup(handle Handle) (entry, bool) {
	if handle == 0 || int(handle) > len(t.entries) {
		return entry{}, false
	}
	e := t.entries[handle-1]
	return e, e.valid
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.live
}

// Each iterates over live handles in creation order.
func (t *Table) Each(fn func(Handle, TypeID, uint32) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i, e := range t.entries {
		if e.valid && !fn(Handle(i+1), e.typeID, e.rep) {
			return
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// Close drops every live handle and stops accepting new ones.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	var handles []Handle
	for i, e := range t.entries {
		if e.valid {
			handles = append(handles, Handle(i+1))
		}
	}
	t.mu.Unlock()

	for _, h := range handles {
		t.Drop(h)
	}
	return nil
}

func (t *Table) notify(e Event) {
	t.mu.RLock()
	observers := t.observers
	t.mu.RUnlock()
	for _, o := range observers {
		o.OnResourceEvent(e)
	}
}
