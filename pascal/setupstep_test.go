package pascal

import (
	"testing"

	"github.com/wippyai/innoexec/errors"
)

func TestSetupStep_Int32RoundTrip(t *testing.T) {
	tests := []struct {
		step SetupStep
		code int32
		name string
	}{
		{SetupStepPreInstall, 0, "ssPreInstall"},
		{SetupStepInstall, 1, "ssInstall"},
		{SetupStepPostInstall, 2, "ssPostInstall"},
		{SetupStepDone, 3, "ssDone"},
	}
	for _, tt := range tests {
		if got := tt.step.Int32(); got != tt.code {
			t.Errorf("%s.Int32() = %d, want %d", tt.name, got, tt.code)
		}
		back, err := SetupStepFromInt32(tt.code)
		if err != nil {
			t.Fatal(err)
		}
		if back != tt.step {
			t.Errorf("SetupStepFromInt32(%d) = %v", tt.code, back)
		}
		if tt.step.String() != tt.name {
			t.Errorf("String() = %q, want %q", tt.step.String(), tt.name)
		}
	}
}

func TestSetupStepFromInt32_Invalid(t *testing.T) {
	for _, v := range []int32{-1, 4, 5, 255, -2147483648, 2147483647} {
		_, err := SetupStepFromInt32(v)
		if !errors.IsKind(err, errors.KindInvalidEnum) {
			t.Errorf("SetupStepFromInt32(%d): got %v, want invalid_enum", v, err)
		}
	}
}

func TestParseSetupStep(t *testing.T) {
	tests := map[string]SetupStep{
		"ssInstall":     SetupStepInstall,
		"SSPOSTINSTALL": SetupStepPostInstall,
		"preinstall":    SetupStepPreInstall,
		" done ":        SetupStepDone,
	}
	for in, want := range tests {
		got, err := ParseSetupStep(in)
		if err != nil {
			t.Fatalf("ParseSetupStep(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseSetupStep(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseSetupStep("uninstall"); err == nil {
		t.Fatal("expected error")
	}
	if s := SetupStep(7).String(); s != "TSetupStep(7)" {
		t.Fatalf("String of invalid step = %q", s)
	}
}
