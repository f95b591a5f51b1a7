package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseEncode,
				Kind:    KindInvalidEnum,
				Path:    []string{"params", "0"},
				GoType:  "int32",
				Foreign: "TSetupStep",
				Detail:  "value 7",
			},
			contains: []string{"[encode]", "invalid_enum", "params.0", "int32", "TSetupStep", "value 7"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseRuntime,
				Kind:   KindAllocation,
				Detail: "memory full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[runtime]", "allocation", "memory full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseDecode,
		Kind:  KindOutOfBounds,
		Path:  []string{"array"},
	}

	if !err.Is(&Error{Phase: PhaseDecode, Kind: KindOutOfBounds}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseEncode, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindDoubleFree}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(fmt.Errorf("wrapped: %w", err), &Error{Phase: PhaseDecode, Kind: KindOutOfBounds}) {
		t.Error("errors.Is should match through wrapping")
	}
}

func TestKindOf(t *testing.T) {
	inner := DoubleFree(PhaseRuntime, 0x40)
	outer := ForeignCall(PhaseCompile, "GenerateExec", inner)

	if got := KindOf(fmt.Errorf("run: %w", outer)); got != KindForeignCall {
		t.Errorf("KindOf = %q, want %q", got, KindForeignCall)
	}
	if !IsKind(outer, KindDoubleFree) {
		t.Error("IsKind should find kind in cause chain")
	}
	if IsKind(outer, KindStalePointer) {
		t.Error("IsKind matched absent kind")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("KindOf of plain error should be empty")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseEncode, KindEncoding).
		Path("proc", "name").
		GoType("string").
		Foreign("AnsiString").
		Value(65001).
		Cause(cause).
		Detail("code page %d", 65001).
		Build()

	if err.Phase != PhaseEncode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseEncode)
	}
	if err.Kind != KindEncoding {
		t.Errorf("Kind = %v, want %v", err.Kind, KindEncoding)
	}
	if len(err.Path) != 2 || err.Path[0] != "proc" || err.Path[1] != "name" {
		t.Errorf("Path = %v, want [proc name]", err.Path)
	}
	if err.GoType != "string" || err.Foreign != "AnsiString" {
		t.Errorf("GoType=%v Foreign=%v", err.GoType, err.Foreign)
	}
	if err.Value != 65001 {
		t.Errorf("Value = %v, want 65001", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "code page 65001" {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		kind Kind
		want string
	}{
		{"OutOfBounds", OutOfBounds(PhaseDecode, []string{"array"}, 3, 1), KindOutOfBounds, "index 3 out of bounds (length 1)"},
		{"DoubleFree", DoubleFree(PhaseRuntime, 0x10), KindDoubleFree, "0x10"},
		{"UseAfterFree", UseAfterFree(PhaseRuntime, "DynamicArray"), KindUseAfterFree, "already freed"},
		{"StalePointer", StalePointer(PhaseDecode, nil, 0x20, 0x40), KindStalePointer, "0x20"},
		{"UnknownCodePage", UnknownCodePage(PhaseDecode, 9), KindEncoding, "code page 9"},
		{"AllocationFailed", AllocationFailed(PhaseEncode, 1024, 8, nil), KindAllocation, "1024"},
		{"InvalidEnum", InvalidEnum(PhaseDecode, nil, 4, "TSetupStep"), KindInvalidEnum, "TSetupStep"},
		{"NilPointer", NilPointer(PhaseDecode, nil, "AnsiString"), KindNilPointer, "nil pointer"},
		{"Unsupported", Unsupported(PhaseLoad, "payload extraction"), KindUnsupported, "payload extraction"},
		{"ForeignCall", ForeignCall(PhaseCompile, "GenerateExec", nil), KindForeignCall, "GenerateExec"},
		{"NotFound", NotFound(PhaseLoad, "export", "malloc"), KindNotFound, `"malloc"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if !strings.Contains(tt.err.Error(), tt.want) {
				t.Errorf("%q does not contain %q", tt.err.Error(), tt.want)
			}
		})
	}
}

func TestIsKind_Joined(t *testing.T) {
	joined := errors.Join(
		OutOfBounds(PhaseDecode, []string{"array"}, 3, 1),
		fmt.Errorf("free: %w", DoubleFree(PhaseRuntime, 0x10)),
	)
	if !IsKind(joined, KindOutOfBounds) || !IsKind(joined, KindDoubleFree) {
		t.Fatalf("IsKind missed a joined error: %v", joined)
	}
	if IsKind(joined, KindEncoding) {
		t.Fatal("IsKind matched absent kind")
	}

	var e *Error
	if !As(joined, &e) || e.Kind != KindOutOfBounds {
		t.Fatalf("As = %v", e)
	}
}
