package pascal

import (
	"bytes"
	"iter"
	"strconv"

	"go.uber.org/multierr"

	innoexec "github.com/wippyai/innoexec"
	"github.com/wippyai/innoexec/errors"
)

const dynamicArrayType = "DynamicArray"

// DynamicArray is a host-owned array laid out as the foreign runtime's
//
//	DynamicArray = record
//	  data: ppointer;  // table of element pointers
//	  cur_size: cuint; // number of elements
//	end;
//
// The table holds cur_size element pointers followed by a nil sentinel.
// Every element lives in its own allocation, owned by the array.
//
// Append reallocates the table: any address taken from Table before an
// Append is stale afterwards and must be re-resolved. Not safe for
// concurrent use.
type DynamicArray[T any] struct {
	mem   innoexec.Memory
	alloc innoexec.Allocator
	codec Codec[T]
	model Model
	table uint32
	size  uint32
	gen   uint32
	freed bool
}

// TableRef is a table address tagged with the array generation it was
// taken from.
type TableRef struct {
	Addr uint32
	gen  uint32
}

// NewDynamicArray returns an empty array with a nil table.
func NewDynamicArray[T any](mem innoexec.Memory, alloc innoexec.Allocator, codec Codec[T], model Model) *DynamicArray[T] {
	return &DynamicArray[T]{
		mem:   mem,
		alloc: alloc,
		codec: codec,
		model: model,
	}
}

// DynamicArrayFromSlice builds an array holding a copy of each value.
func DynamicArrayFromSlice[T any](mem innoexec.Memory, alloc innoexec.Allocator, codec Codec[T], model Model, values []T) (*DynamicArray[T], error) {
	a := NewDynamicArray(mem, alloc, codec, model)
	for _, v := range values {
		if err := a.Append(v); err != nil {
			return nil, multierr.Append(err, a.Free())
		}
	}
	return a, nil
}

// AdoptNullTerminated takes ownership of a table written by the foreign
// side. The length comes from the first nil slot; at most maxLen elements
// are scanned and a table with no sentinel in range is rejected.
func AdoptNullTerminated[T any](mem innoexec.Memory, alloc innoexec.Allocator, codec Codec[T], model Model, table uint32, maxLen int) (*DynamicArray[T], error) {
	a := NewDynamicArray(mem, alloc, codec, model)
	if table == 0 {
		return a, nil
	}
	ps := model.PointerSize()
	for i := 0; i <= maxLen; i++ {
		p, err := model.readPointer(mem, table+uint32(i)*ps)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseDecode, errors.KindOutOfBounds, err, "scan "+dynamicArrayType+" table")
		}
		if p == 0 {
			a.table = table
			a.size = uint32(i)
			return a, nil
		}
	}
	return nil, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
		Foreign(dynamicArrayType).
		Detail("no nil sentinel within %d elements", maxLen).
		Value(maxLen).
		Build()
}

func (a *DynamicArray[T]) checkLive() error {
	if a.freed {
		return errors.UseAfterFree(errors.PhaseRuntime, dynamicArrayType)
	}
	return nil
}

func (a *DynamicArray[T]) path(i int) []string {
	return []string{dynamicArrayType, strconv.Itoa(i)}
}

func (a *DynamicArray[T]) tableBytes(n uint32) uint32 {
	return (n + 1) * a.model.PointerSize()
}

// Len returns the number of elements.
func (a *DynamicArray[T]) Len() int { return int(a.size) }

// Table returns the current table address. The reference goes stale on
// the next Append, ClearAndFree, Detach or Free.
func (a *DynamicArray[T]) Table() TableRef {
	return TableRef{Addr: a.table, gen: a.gen}
}

// ResolveTable returns ref's address if it is still the current table.
func (a *DynamicArray[T]) ResolveTable(ref TableRef) (uint32, error) {
	if err := a.checkLive(); err != nil {
		return 0, err
	}
	if ref.gen != a.gen {
		return 0, errors.StalePointer(errors.PhaseRuntime, []string{dynamicArrayType}, ref.Addr, a.table)
	}
	return a.table, nil
}

// Append stores v in a new element allocation and grows the table by one.
func (a *DynamicArray[T]) Append(v T) error {
	if err := a.checkLive(); err != nil {
		return err
	}
	elem, err := a.newElement(v)
	if err != nil {
		return err
	}

	ps := a.model.PointerSize()
	n := a.size + 1
	size := a.tableBytes(n)
	table, err := a.alloc.Alloc(size, ps)
	if err != nil {
		return multierr.Append(
			errors.AllocationFailed(errors.PhaseEncode, size, ps, err),
			a.alloc.Free(elem, a.codec.Size, a.codec.Align),
		)
	}

	if a.table != 0 && a.size > 0 {
		old, err := a.mem.Read(a.table, a.size*ps)
		if err == nil {
			err = a.mem.Write(table, bytes.Clone(old))
		}
		if err != nil {
			return a.abortGrow(table, size, elem, err)
		}
	}
	// New pointer goes in the last valid slot, then the sentinel.
	if err := a.model.writePointer(a.mem, table+(n-1)*ps, elem); err != nil {
		return a.abortGrow(table, size, elem, err)
	}
	if err := a.model.writePointer(a.mem, table+n*ps, 0); err != nil {
		return a.abortGrow(table, size, elem, err)
	}

	if a.table != 0 {
		if err := a.alloc.Free(a.table, a.tableBytes(a.size), ps); err != nil {
			return a.abortGrow(table, size, elem, err)
		}
	}
	a.table = table
	a.size = n
	a.gen++
	return nil
}

func (a *DynamicArray[T]) newElement(v T) (uint32, error) {
	buf := make([]byte, a.codec.Size)
	if err := a.codec.Put(buf, v); err != nil {
		return 0, err
	}
	elem, err := a.alloc.Alloc(a.codec.Size, a.codec.Align)
	if err != nil {
		return 0, errors.AllocationFailed(errors.PhaseEncode, a.codec.Size, a.codec.Align, err)
	}
	if err := a.mem.Write(elem, buf); err != nil {
		return 0, multierr.Append(
			errors.Wrap(errors.PhaseEncode, errors.KindOutOfBounds, err, "write "+a.codec.Name),
			a.alloc.Free(elem, a.codec.Size, a.codec.Align),
		)
	}
	return elem, nil
}

func (a *DynamicArray[T]) abortGrow(table, size, elem uint32, cause error) error {
	return multierr.Combine(
		errors.Wrap(errors.PhaseEncode, errors.KindOutOfBounds, cause, "grow "+dynamicArrayType),
		a.alloc.Free(table, size, a.model.PointerSize()),
		a.alloc.Free(elem, a.codec.Size, a.codec.Align),
	)
}

// ElementAddr returns the address of element i.
func (a *DynamicArray[T]) ElementAddr(i int) (uint32, error) {
	if err := a.checkLive(); err != nil {
		return 0, err
	}
	if i < 0 || i >= int(a.size) {
		return 0, errors.OutOfBounds(errors.PhaseDecode, []string{dynamicArrayType}, i, int(a.size))
	}
	p, err := a.model.readPointer(a.mem, a.table+uint32(i)*a.model.PointerSize())
	if err != nil {
		return 0, errors.Wrap(errors.PhaseDecode, errors.KindOutOfBounds, err, "read "+dynamicArrayType+" table")
	}
	if p == 0 {
		return 0, errors.NilPointer(errors.PhaseDecode, a.path(i), a.codec.Name)
	}
	return p, nil
}

// Get returns element i. Indices outside [0, Len()) are reported as
// out_of_bounds.
func (a *DynamicArray[T]) Get(i int) (T, error) {
	var zero T
	p, err := a.ElementAddr(i)
	if err != nil {
		return zero, err
	}
	b, err := a.mem.Read(p, a.codec.Size)
	if err != nil {
		return zero, errors.Wrap(errors.PhaseDecode, errors.KindOutOfBounds, err, "read "+a.codec.Name)
	}
	return a.codec.Get(b)
}

// Values copies every element out by value.
func (a *DynamicArray[T]) Values() ([]T, error) {
	if err := a.checkLive(); err != nil {
		return nil, err
	}
	out := make([]T, 0, a.size)
	for i := range int(a.size) {
		v, err := a.Get(i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// All yields elements in order and stops at the first element that cannot
// be read. It is a read-only view; the array must not change while iterating.
func (a *DynamicArray[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := range int(a.size) {
			v, err := a.Get(i)
			if err != nil || !yield(i, v) {
				return
			}
		}
	}
}

// Lower writes the {data, cur_size} record into a scoped allocation and
// returns its address.
func (a *DynamicArray[T]) Lower(scope *Scope) (uint32, error) {
	if err := a.checkLive(); err != nil {
		return 0, err
	}
	ps := a.model.PointerSize()
	size := a.model.ArrayRecordSize()
	rec, err := a.alloc.Alloc(size, ps)
	if err != nil {
		return 0, errors.AllocationFailed(errors.PhaseEncode, size, ps, err)
	}
	scope.Add(rec, size, ps)
	if err := a.model.writePointer(a.mem, rec, a.table); err != nil {
		return 0, errors.Wrap(errors.PhaseEncode, errors.KindOutOfBounds, err, "write "+dynamicArrayType)
	}
	if err := a.mem.WriteU32(rec+ps, a.size); err != nil {
		return 0, errors.Wrap(errors.PhaseEncode, errors.KindOutOfBounds, err, "write "+dynamicArrayType)
	}
	return rec, nil
}

// Detach hands the table and its elements to the caller without freeing
// them and leaves the array empty and usable.
func (a *DynamicArray[T]) Detach() (table uint32, n int, err error) {
	if err := a.checkLive(); err != nil {
		return 0, 0, err
	}
	table, n = a.table, int(a.size)
	a.reset()
	return table, n, nil
}

// ClearAndFree frees every element and the table and leaves the array
// empty and usable.
func (a *DynamicArray[T]) ClearAndFree() error {
	if err := a.checkLive(); err != nil {
		return err
	}
	return a.release()
}

// Free releases every element and then the table. Calling it again is a
// no-op; any other use afterwards reports use_after_free.
func (a *DynamicArray[T]) Free() error {
	if a.freed {
		return nil
	}
	err := a.release()
	a.freed = true
	return err
}

func (a *DynamicArray[T]) release() error {
	if a.table == 0 {
		a.reset()
		return nil
	}
	var err error
	ps := a.model.PointerSize()
	for i := range a.size {
		p, rerr := a.model.readPointer(a.mem, a.table+i*ps)
		if rerr != nil {
			err = multierr.Append(err, rerr)
			continue
		}
		err = multierr.Append(err, a.alloc.Free(p, a.codec.Size, a.codec.Align))
	}
	err = multierr.Append(err, a.alloc.Free(a.table, a.tableBytes(a.size), ps))
	a.reset()
	return err
}

func (a *DynamicArray[T]) reset() {
	a.table = 0
	a.size = 0
	a.gen++
}
