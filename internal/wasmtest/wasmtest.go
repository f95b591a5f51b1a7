// Package wasmtest builds a minimal stand-in for the PascalScript executor
// as a raw wasm32 binary, for tests that need a real guest without a
// toolchain.
package wasmtest

import (
	"bytes"
)

// Options changes the behavior of the generated executor.
type Options struct {
	// Skip omits the export with this name.
	Skip string
	// TrapFree makes free hit unreachable.
	TrapFree bool
	// SpinCompile makes GenerateExec loop until the call is interrupted.
	SpinCompile bool
}

// Executor returns a module exporting memory, malloc, free, GenerateExec
// and TPSExecRunProcPN:
//
//	GenerateExec(p)          returns p unless the first bytecode byte is 0
//	TPSExecRunProcPN(e,a,n)  returns first step * 1000 + length field of n
//	malloc(n)                8-aligned bump allocator starting at 1024
//	free(p)                  no-op
func Executor(opts Options) []byte {
	generateExec := body(
		0x20, 0x00, 0x2d, 0x00, 0x00, // local.get 0; i32.load8_u
		0x04, 0x7f, 0x20, 0x00, // if (result i32) local.get 0
		0x05, 0x41, 0x00, 0x0b, // else i32.const 0 end
		0x0b,
	)
	if opts.SpinCompile {
		generateExec = body(
			0x03, 0x40, 0x0c, 0x00, 0x0b, // loop br 0 end
			0x41, 0x00,
			0x0b,
		)
	}
	runProc := body(
		0x20, 0x01, 0x28, 0x02, 0x00, // record.data
		0x28, 0x02, 0x00, // data[0]
		0x28, 0x02, 0x00, // *data[0]
		0x41, 0xe8, 0x07, 0x6c, // * 1000
		0x20, 0x02, 0x41, 0x04, 0x6b, 0x28, 0x02, 0x00, // size at name-4
		0x6a,
		0x0b,
	)
	malloc := body(
		0x23, 0x00, // old break is the result
		0x23, 0x00, 0x20, 0x00, 0x6a, // brk + n
		0x41, 0x07, 0x6a, 0x41, 0x78, 0x71, // round up to 8
		0x24, 0x00,
		0x0b,
	)
	free := body(0x0b)
	if opts.TrapFree {
		free = body(0x00, 0x0b)
	}

	exports := [][]byte{}
	for _, x := range []struct {
		name  string
		kind  byte
		index byte
	}{
		{"memory", 0x02, 0},
		{"GenerateExec", 0x00, 0},
		{"TPSExecRunProcPN", 0x00, 1},
		{"malloc", 0x00, 2},
		{"free", 0x00, 3},
	} {
		if x.name == opts.Skip {
			continue
		}
		exports = append(exports, append(name(x.name), x.kind, x.index))
	}

	return bytes.Join([][]byte{
		{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
		section(0x01, vec(
			[]byte{0x60, 0x01, 0x7f, 0x01, 0x7f},
			[]byte{0x60, 0x03, 0x7f, 0x7f, 0x7f, 0x01, 0x7f},
			[]byte{0x60, 0x01, 0x7f, 0x00},
		)),
		section(0x03, vec([]byte{0x00}, []byte{0x01}, []byte{0x00}, []byte{0x02})),
		section(0x05, vec([]byte{0x00, 0x01})),
		section(0x06, vec([]byte{0x7f, 0x01, 0x41, 0x80, 0x08, 0x0b})),
		section(0x07, vec(exports...)),
		section(0x0a, vec(generateExec, runProc, malloc, free)),
	}, nil)
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func section(id byte, payload ...[]byte) []byte {
	b := bytes.Join(payload, nil)
	return append(append([]byte{id}, uleb(uint32(len(b)))...), b...)
}

func vec(items ...[]byte) []byte {
	return append(uleb(uint32(len(items))), bytes.Join(items, nil)...)
}

func name(s string) []byte {
	return append(uleb(uint32(len(s))), s...)
}

func body(code ...byte) []byte {
	fn := append([]byte{0x00}, code...) // no locals
	return append(uleb(uint32(len(fn))), fn...)
}
