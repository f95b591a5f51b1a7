package resource

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/innoexec/errors"
)

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	h, err := table.NewFromRep(TypeExec, 0x1000)
	if err != nil {
		t.Fatal(err)
	}
	if h == 0 {
		t.Fatal("expected non-zero handle")
	}

	rep, err := table.Rep(h, TypeExec)
	if err != nil {
		t.Fatal(err)
	}
	if rep != 0x1000 {
		t.Fatalf("Rep = 0x%x", rep)
	}

	if _, err := table.Rep(h, TypeID(99)); !errors.IsKind(err, errors.KindNotFound) {
		t.Fatalf("wrong type: %v", err)
	}

	if rep, ok := table.Drop(h); !ok || rep != 0x1000 {
		t.Fatalf("Drop = 0x%x, %v", rep, ok)
	}
	if table.Len() != 0 {
		t.Fatalf("Len = %d", table.Len())
	}
	if _, err := table.Rep(h, TypeExec); !errors.IsKind(err, errors.KindNotFound) {
		t.Fatalf("dropped handle: %v", err)
	}
	if _, ok := table.Drop(h); ok {
		t.Fatal("second Drop should fail")
	}
}

func TestTable_InvalidHandles(t *testing.T) {
	table := NewTable()
	for _, h := range []Handle{0, 1, 42} {
		if _, err := table.Rep(h, TypeExec); !errors.IsKind(err, errors.KindNotFound) {
			t.Errorf("Rep(%d): %v", h, err)
		}
	}
}

func TestTable_HandlesNotReused(t *testing.T) {
	table := NewTable()
	h1, _ := table.NewFromRep(TypeExec, 1)
	table.Drop(h1)
	h2, _ := table.NewFromRep(TypeExec, 2)
	if h1 == h2 {
		t.Fatalf("handle %d reused", h1)
	}
	if _, err := table.Rep(h1, TypeExec); err == nil {
		t.Fatal("old handle resolved after reuse")
	}
}

func TestTable_ObserverAndClose(t *testing.T) {
	table := NewTable()
	var events []Event
	table.Subscribe(ObserverFunc(func(e Event) { events = append(events, e) }))

	h1, _ := table.NewFromRep(TypeExec, 10)
	h2, _ := table.NewFromRep(TypeExec, 20)
	if err := table.Close(); err != nil {
		t.Fatal(err)
	}

	want := []Event{
		{Type: EventCreated, Handle: h1, TypeID: TypeExec, Rep: 10},
		{Type: EventCreated, Handle: h2, TypeID: TypeExec, Rep: 20},
		{Type: EventDropped, Handle: h1, TypeID: TypeExec, Rep: 10},
		{Type: EventDropped, Handle: h2, TypeID: TypeExec, Rep: 20},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("events (-want +got):\n%s", diff)
	}
	if table.Len() != 0 {
		t.Fatalf("Len after Close = %d", table.Len())
	}
	if _, err := table.NewFromRep(TypeExec, 1); !errors.IsKind(err, errors.KindNotInitialized) {
		t.Fatalf("NewFromRep after Close: %v", err)
	}
	if err := table.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestTable_Each(t *testing.T) {
	table := NewTable()
	for _, rep := range []uint32{5, 6, 7} {
		_, _ = table.NewFromRep(TypeExec, rep)
	}
	table.Drop(2)

	var reps []uint32
	table.Each(func(_ Handle, _ TypeID, rep uint32) bool {
		reps = append(reps, rep)
		return true
	})
	if diff := cmp.Diff([]uint32{5, 7}, reps); diff != "" {
		t.Fatalf("Each (-want +got):\n%s", diff)
	}
}
