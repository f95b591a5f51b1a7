// Package memory provides an in-process linear memory with an accounting
// allocator. It stands in for foreign memory when no engine is attached and
// lets tests observe every allocation and release.
package memory

import (
	"encoding/binary"
	"fmt"

	"github.com/wippyai/innoexec/errors"
)

const (
	// PageSize matches the WebAssembly page size so limits mean the same thing
	// for Linear and for an engine-backed memory.
	PageSize = 65536

	// base keeps address 0 (and the first words) unused so nil is never
	// handed out.
	base = 16
)

type block struct {
	ptr  uint32
	size uint32
}

// Linear is a growable little-endian byte space with a first-fit allocator.
// Not safe for concurrent use.
type Linear struct {
	live     map[uint32]uint32
	buf      []byte
	freeList []block
	brk      uint32
	maxPages uint32
	allocs   int
	frees    int
}

// NewLinear creates a memory that may grow up to maxPages pages.
// 0 means 256 pages (16MB).
func NewLinear(maxPages uint32) *Linear {
	if maxPages == 0 {
		maxPages = 256
	}
	return &Linear{
		buf:      make([]byte, PageSize),
		live:     make(map[uint32]uint32),
		brk:      base,
		maxPages: maxPages,
	}
}

// Size returns the current memory size in bytes.
func (m *Linear) Size() uint32 {
	return uint32(len(m.buf))
}

// Allocs returns the number of successful allocations.
func (m *Linear) Allocs() int { return m.allocs }

// Frees returns the number of successful releases.
func (m *Linear) Frees() int { return m.frees }

// Live returns the number of outstanding allocations.
func (m *Linear) Live() int { return len(m.live) }

// IsLive reports whether ptr is the start of an outstanding allocation.
func (m *Linear) IsLive(ptr uint32) bool {
	_, ok := m.live[ptr]
	return ok
}

// Alloc reserves size bytes aligned to align. The block is zeroed.
func (m *Linear) Alloc(size, align uint32) (uint32, error) {
	if size == 0 {
		size = 1
	}
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return 0, errors.InvalidInput(errors.PhaseRuntime, fmt.Sprintf("alignment %d is not a power of two", align))
	}

	for i, b := range m.freeList {
		if b.size >= size && b.ptr%align == 0 {
			m.freeList = append(m.freeList[:i], m.freeList[i+1:]...)
			return m.commit(b.ptr, b.size), nil
		}
	}

	ptr := alignTo(m.brk, align)
	end := uint64(ptr) + uint64(size)
	if err := m.ensure(end); err != nil {
		return 0, errors.AllocationFailed(errors.PhaseRuntime, size, align, err)
	}
	m.brk = uint32(end)
	return m.commit(ptr, size), nil
}

func (m *Linear) commit(ptr, size uint32) uint32 {
	clear(m.buf[ptr : ptr+size])
	m.live[ptr] = size
	m.allocs++
	return ptr
}

// Free releases an allocation. Freeing 0 is a no-op; freeing anything that
// is not a live allocation reports a double free and leaves state untouched.
func (m *Linear) Free(ptr, size, align uint32) error {
	if ptr == 0 {
		return nil
	}
	got, ok := m.live[ptr]
	if !ok {
		return errors.DoubleFree(errors.PhaseRuntime, ptr)
	}
	delete(m.live, ptr)
	m.freeList = append(m.freeList, block{ptr: ptr, size: got})
	m.frees++
	return nil
}

func (m *Linear) ensure(end uint64) error {
	if end <= uint64(len(m.buf)) {
		return nil
	}
	pages := (end + PageSize - 1) / PageSize
	if pages > uint64(m.maxPages) {
		return fmt.Errorf("memory limit of %d pages exceeded", m.maxPages)
	}
	grown := make([]byte, pages*PageSize)
	copy(grown, m.buf)
	m.buf = grown
	return nil
}

func (m *Linear) check(offset uint32, length uint64) error {
	if uint64(offset)+length > uint64(len(m.buf)) {
		return errors.New(errors.PhaseRuntime, errors.KindOutOfBounds).
			Detail("memory access out of bounds: offset=%d, length=%d", offset, length).
			Build()
	}
	return nil
}

// Read returns a view of length bytes at offset. The view aliases memory and
// is invalidated by growth.
func (m *Linear) Read(offset uint32, length uint32) ([]byte, error) {
	if err := m.check(offset, uint64(length)); err != nil {
		return nil, err
	}
	return m.buf[offset : offset+length], nil
}

// Write copies data to offset.
func (m *Linear) Write(offset uint32, data []byte) error {
	if err := m.check(offset, uint64(len(data))); err != nil {
		return err
	}
	copy(m.buf[offset:], data)
	return nil
}

// ReadU8 reads an unsigned 8-bit value.
func (m *Linear) ReadU8(offset uint32) (uint8, error) {
	if err := m.check(offset, 1); err != nil {
		return 0, err
	}
	return m.buf[offset], nil
}

// ReadU16 reads an unsigned 16-bit little-endian value.
func (m *Linear) ReadU16(offset uint32) (uint16, error) {
	if err := m.check(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.buf[offset:]), nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (m *Linear) ReadU32(offset uint32) (uint32, error) {
	if err := m.check(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.buf[offset:]), nil
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (m *Linear) ReadU64(offset uint32) (uint64, error) {
	if err := m.check(offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(m.buf[offset:]), nil
}

// WriteU8 writes an unsigned 8-bit value.
func (m *Linear) WriteU8(offset uint32, value uint8) error {
	if err := m.check(offset, 1); err != nil {
		return err
	}
	m.buf[offset] = value
	return nil
}

// WriteU16 writes an unsigned 16-bit little-endian value.
func (m *Linear) WriteU16(offset uint32, value uint16) error {
	if err := m.check(offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.buf[offset:], value)
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (m *Linear) WriteU32(offset uint32, value uint32) error {
	if err := m.check(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.buf[offset:], value)
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (m *Linear) WriteU64(offset uint32, value uint64) error {
	if err := m.check(offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m.buf[offset:], value)
	return nil
}

func alignTo(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}
