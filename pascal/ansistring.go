package pascal

import (
	"bytes"
	"encoding/binary"

	innoexec "github.com/wippyai/innoexec"
	"github.com/wippyai/innoexec/codepage"
	"github.com/wippyai/innoexec/errors"
)

// NotRefCounted is the reference count of a constant string. The host never
// shares strings, so it only produces this value.
const NotRefCounted int64 = -1

const ansiStringType = "AnsiString"

// AnsiString is the host-owned value of an FPC AnsiString.
//
// Layout in foreign memory, relative to the character data:
//
//	32-bit            64-bit
//	-12 code page     -24 code page     (u16)
//	-10 char size     -22 char size     (u16)
//	                  -20 padding       (4 bytes)
//	 -8 refcount      -16 refcount      (SizeInt)
//	 -4 size          -8  size          (SizeInt)
//	  0 chars, NUL terminated
//
// Size counts the terminator.
type AnsiString struct {
	data     []byte
	refCount int64
	codePage uint16
	charSize uint16
}

// FromText encodes s with the default code page (UTF-8, a superset of
// US-ASCII) and appends a NUL terminator.
func FromText(s string) (*AnsiString, error) {
	return FromTextCodePage(s, codepage.Default().CodePage)
}

// FromTextCodePage encodes s with the given code page. UTF-16 code pages
// produce a two-byte character size and terminator.
func FromTextCodePage(s string, cp uint16) (*AnsiString, error) {
	entry, err := codepage.Lookup(cp)
	if err != nil {
		e := errors.UnknownCodePage(errors.PhaseEncode, cp)
		e.Cause = err
		return nil, e
	}
	encoded, err := entry.Encoding.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errors.New(errors.PhaseEncode, errors.KindEncoding).
			Foreign(ansiStringType).
			Detail("text not representable in code page %d", cp).
			Cause(err).
			Build()
	}
	return newAnsiString(encoded, entry.CodePage, entry.CharSize), nil
}

// FromBytes wraps b, which is assumed to already be in the default code
// page, without converting it. b is copied.
func FromBytes(b []byte) (*AnsiString, error) {
	def := codepage.Default()
	return newAnsiString(bytes.Clone(b), def.CodePage, def.CharSize), nil
}

func newAnsiString(payload []byte, cp, charSize uint16) *AnsiString {
	data := make([]byte, len(payload)+int(charSize))
	copy(data, payload)
	return &AnsiString{
		data:     data,
		refCount: NotRefCounted,
		codePage: cp,
		charSize: charSize,
	}
}

func (s *AnsiString) CodePage() uint16 { return s.codePage }
func (s *AnsiString) CharSize() uint16 { return s.charSize }
func (s *AnsiString) RefCount() int64 { return s.refCount }

// Size is the byte length including the terminator.
func (s *AnsiString) Size() uint64 { return uint64(len(s.data)) }

// Text decodes exactly Size() bytes with the stored code page. The
// terminator decodes to a trailing NUL which callers trim if needed.
func (s *AnsiString) Text() (string, error) {
	enc, err := codepage.ToEncoding(s.codePage)
	if err != nil {
		return "", err
	}
	decoded, err := enc.NewDecoder().Bytes(s.data)
	if err != nil {
		return "", errors.Encoding(errors.PhaseDecode, "decode "+ansiStringType, err)
	}
	return string(decoded), nil
}

// Bytes returns a copy of exactly Size() bytes, terminator included.
func (s *AnsiString) Bytes() []byte {
	return bytes.Clone(s.data)
}

// MarshalModel returns the header and characters as laid out in memory.
// The characters start at model.StringHeaderSize().
func (s *AnsiString) MarshalModel(model Model) []byte {
	h := model.StringHeaderSize()
	ps := model.PointerSize()
	image := make([]byte, int(h)+len(s.data))
	binary.LittleEndian.PutUint16(image[0:], s.codePage)
	binary.LittleEndian.PutUint16(image[2:], s.charSize)
	model.putSizeInt(image[h-2*ps:], s.refCount)
	model.putSizeInt(image[h-ps:], int64(len(s.data)))
	copy(image[h:], s.data)
	return image
}

// UnmarshalModel parses an image produced by MarshalModel.
func UnmarshalModel(model Model, image []byte) (*AnsiString, error) {
	h := model.StringHeaderSize()
	if uint64(len(image)) < uint64(h) {
		return nil, errors.InvalidData(errors.PhaseDecode, []string{ansiStringType}, "image shorter than header")
	}
	ps := model.PointerSize()
	s := &AnsiString{
		codePage: binary.LittleEndian.Uint16(image[0:]),
		charSize: binary.LittleEndian.Uint16(image[2:]),
		refCount: model.sizeInt(image[h-2*ps:]),
	}
	size := model.sizeInt(image[h-ps:])
	if size < 0 || uint64(size) > uint64(len(image)-int(h)) {
		return nil, errors.OutOfBounds(errors.PhaseDecode, []string{ansiStringType}, int(size), len(image)-int(h))
	}
	chars := image[h : int64(h)+size]
	if err := s.setData(chars); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *AnsiString) setData(chars []byte) error {
	if s.charSize != 1 && s.charSize != 2 {
		return errors.InvalidData(errors.PhaseDecode, []string{ansiStringType}, "char size must be 1 or 2")
	}
	n := len(chars)
	if n < int(s.charSize) || n%int(s.charSize) != 0 {
		return errors.InvalidData(errors.PhaseDecode, []string{ansiStringType}, "size is not a whole number of characters")
	}
	for _, c := range chars[n-int(s.charSize):] {
		if c != 0 {
			return errors.InvalidData(errors.PhaseDecode, []string{ansiStringType}, "missing NUL terminator")
		}
	}
	s.data = bytes.Clone(chars)
	return nil
}

// Lower copies the string into foreign memory and returns the address of
// its characters, which is what the foreign side receives. The allocation
// is recorded in scope and lives until the scope is freed.
func (s *AnsiString) Lower(mem innoexec.Memory, alloc innoexec.Allocator, model Model, scope *Scope) (uint32, error) {
	image := s.MarshalModel(model)
	size := uint32(len(image))
	align := model.PointerSize()
	ptr, err := alloc.Alloc(size, align)
	if err != nil {
		return 0, errors.AllocationFailed(errors.PhaseEncode, size, align, err)
	}
	scope.Add(ptr, size, align)
	if err := mem.Write(ptr, image); err != nil {
		return 0, errors.Wrap(errors.PhaseEncode, errors.KindOutOfBounds, err, "write "+ansiStringType)
	}
	return ptr + model.StringHeaderSize(), nil
}

// LiftAnsiString copies a string out of foreign memory given the address of
// its characters.
func LiftAnsiString(mem innoexec.Memory, model Model, ptr uint32) (*AnsiString, error) {
	if ptr == 0 {
		return nil, errors.NilPointer(errors.PhaseDecode, nil, ansiStringType)
	}
	h := model.StringHeaderSize()
	if ptr < h {
		return nil, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			Foreign(ansiStringType).
			Detail("header of 0x%x starts before address 0", ptr).
			Build()
	}
	header, err := mem.Read(ptr-h, h)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindOutOfBounds, err, "read "+ansiStringType+" header")
	}
	ps := model.PointerSize()
	s := &AnsiString{
		codePage: binary.LittleEndian.Uint16(header[0:]),
		charSize: binary.LittleEndian.Uint16(header[2:]),
		refCount: model.sizeInt(header[h-2*ps:]),
	}
	size := model.sizeInt(header[h-ps:])
	if size <= 0 || size > int64(^uint32(0)) {
		return nil, errors.InvalidData(errors.PhaseDecode, []string{ansiStringType}, "invalid size field")
	}
	chars, err := mem.Read(ptr, uint32(size))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindOutOfBounds, err, "read "+ansiStringType+" characters")
	}
	if err := s.setData(chars); err != nil {
		return nil, err
	}
	return s, nil
}
