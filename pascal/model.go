package pascal

import (
	"encoding/binary"
	"math"

	innoexec "github.com/wippyai/innoexec"
	"github.com/wippyai/innoexec/errors"
)

// Model is an FPC memory model: the width of pointers and SizeInt.
type Model struct {
	name        string
	pointerSize uint32
}

var (
	// Model32 is the 32-bit model (i386, wasm32).
	Model32 = Model{name: "32-bit", pointerSize: 4}
	// Model64 is the 64-bit model (x86_64, aarch64).
	Model64 = Model{name: "64-bit", pointerSize: 8}
)

func (m Model) String() string { return m.name }

// PointerSize is the size of a pointer, and of SizeInt, in bytes.
func (m Model) PointerSize() uint32 { return m.pointerSize }

// StringHeaderSize is the number of bytes preceding the characters of an
// AnsiString: code page, char size, optional padding, refcount, length.
func (m Model) StringHeaderSize() uint32 {
	return 2*m.pointerSize + max(4, m.pointerSize)
}

// ArrayRecordSize is the size of the {data, cur_size} dynamic array record,
// padded to pointer alignment.
func (m Model) ArrayRecordSize() uint32 {
	return alignTo(m.pointerSize+4, m.pointerSize)
}

func (m Model) is64() bool { return m.pointerSize == 8 }

func (m Model) readPointer(mem innoexec.Memory, addr uint32) (uint32, error) {
	if !m.is64() {
		return mem.ReadU32(addr)
	}
	v, err := mem.ReadU64(addr)
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, errors.InvalidData(errors.PhaseDecode, nil, "pointer exceeds 32-bit address space")
	}
	return uint32(v), nil
}

func (m Model) writePointer(mem innoexec.Memory, addr, ptr uint32) error {
	if !m.is64() {
		return mem.WriteU32(addr, ptr)
	}
	return mem.WriteU64(addr, uint64(ptr))
}

func (m Model) putSizeInt(b []byte, v int64) {
	if m.is64() {
		binary.LittleEndian.PutUint64(b, uint64(v))
		return
	}
	binary.LittleEndian.PutUint32(b, uint32(int32(v)))
}

func (m Model) sizeInt(b []byte) int64 {
	if m.is64() {
		return int64(binary.LittleEndian.Uint64(b))
	}
	return int64(int32(binary.LittleEndian.Uint32(b)))
}

func alignTo(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}
