package pascal

import (
	"strconv"
	"strings"

	"github.com/wippyai/innoexec/errors"
)

const setupStepType = "TSetupStep"

// SetupStep is Inno Setup's TSetupStep, the phase passed to CurStepChanged.
type SetupStep int32

const (
	SetupStepPreInstall  SetupStep = 0
	SetupStepInstall     SetupStep = 1
	SetupStepPostInstall SetupStep = 2
	SetupStepDone        SetupStep = 3
)

var setupStepNames = [...]string{
	SetupStepPreInstall:  "ssPreInstall",
	SetupStepInstall:     "ssInstall",
	SetupStepPostInstall: "ssPostInstall",
	SetupStepDone:        "ssDone",
}

// SetupStepFromInt32 accepts 0 through 3.
func SetupStepFromInt32(v int32) (SetupStep, error) {
	if v < int32(SetupStepPreInstall) || v > int32(SetupStepDone) {
		return 0, errors.InvalidEnum(errors.PhaseDecode, nil, v, setupStepType)
	}
	return SetupStep(v), nil
}

// ParseSetupStep accepts the script names (ssInstall) case-insensitively,
// with or without the ss prefix.
func ParseSetupStep(name string) (SetupStep, error) {
	name = strings.TrimSpace(name)
	for i, n := range setupStepNames {
		if strings.EqualFold(name, n) || strings.EqualFold(name, n[2:]) {
			return SetupStep(i), nil
		}
	}
	return 0, errors.InvalidEnum(errors.PhaseConfig, nil, name, setupStepType)
}

func (s SetupStep) Int32() int32 { return int32(s) }

func (s SetupStep) String() string {
	if s < SetupStepPreInstall || s > SetupStepDone {
		return setupStepType + "(" + strconv.Itoa(int(s)) + ")"
	}
	return setupStepNames[s]
}
