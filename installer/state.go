package installer

import "github.com/wippyai/innoexec/pascal"

// State is a stage of a driver run.
type State uint8

const (
	StateIdle State = iota
	StateBytecodeLoaded
	StateContextCompiled
	StateProcedureInvoked
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:             "idle",
	StateBytecodeLoaded:   "bytecode loaded",
	StateContextCompiled:  "context compiled",
	StateProcedureInvoked: "procedure invoked",
	StateDone:             "done",
	StateFailed:           "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Transition describes one state change. Step is set for transitions into
// StateProcedureInvoked; Err is set for transitions into StateFailed.
type Transition struct {
	Err  error
	From State
	To   State
	Step pascal.SetupStep
}

// Observer is called synchronously on every transition.
type Observer func(Transition)
