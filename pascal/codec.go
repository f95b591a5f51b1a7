package pascal

import "encoding/binary"

// Codec describes how one element of a DynamicArray is stored in its own
// foreign allocation.
type Codec[T any] struct {
	Put   func(b []byte, v T) error
	Get   func(b []byte) (T, error)
	Name  string
	Size  uint32
	Align uint32
}

// Int32Codec stores a Pascal Integer.
var Int32Codec = Codec[int32]{
	Name:  "Integer",
	Size:  4,
	Align: 4,
	Put: func(b []byte, v int32) error {
		binary.LittleEndian.PutUint32(b, uint32(v))
		return nil
	},
	Get: func(b []byte) (int32, error) {
		return int32(binary.LittleEndian.Uint32(b)), nil
	},
}

// Uint32Codec stores a Pascal Cardinal.
var Uint32Codec = Codec[uint32]{
	Name:  "Cardinal",
	Size:  4,
	Align: 4,
	Put: func(b []byte, v uint32) error {
		binary.LittleEndian.PutUint32(b, v)
		return nil
	},
	Get: func(b []byte) (uint32, error) {
		return binary.LittleEndian.Uint32(b), nil
	},
}

// Uint8Codec stores a Pascal Byte.
var Uint8Codec = Codec[uint8]{
	Name:  "Byte",
	Size:  1,
	Align: 1,
	Put: func(b []byte, v uint8) error {
		b[0] = v
		return nil
	},
	Get: func(b []byte) (uint8, error) {
		return b[0], nil
	},
}

// SetupStepCodec stores a TSetupStep as a C int.
var SetupStepCodec = Codec[SetupStep]{
	Name:  setupStepType,
	Size:  4,
	Align: 4,
	Put: func(b []byte, v SetupStep) error {
		if _, err := SetupStepFromInt32(int32(v)); err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(b, uint32(v.Int32()))
		return nil
	},
	Get: func(b []byte) (SetupStep, error) {
		return SetupStepFromInt32(int32(binary.LittleEndian.Uint32(b)))
	},
}
