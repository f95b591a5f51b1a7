package installer

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/innoexec/errors"
	"github.com/wippyai/innoexec/pascal"
)

// DefaultProcedure is the script event Inno Setup calls when the setup step
// changes.
const DefaultProcedure = "CURSTEPCHANGED"

// Engine is the foreign execution engine as the driver uses it.
type Engine interface {
	Compile(ctx context.Context, bytecode *pascal.AnsiString) (pascal.Exec, error)
	Invoke(ctx context.Context, exec pascal.Exec, args *pascal.DynamicArray[pascal.SetupStep], procedure *pascal.AnsiString) (pascal.Variant, error)
	NewSetupStepArray() *pascal.DynamicArray[pascal.SetupStep]
}

// Options configures a Driver. Zero values select the defaults.
type Options struct {
	Observer Observer

	// Procedure is the script procedure to invoke. Default CURSTEPCHANGED.
	Procedure string

	// Step is passed by Run. Default ssInstall.
	Step *pascal.SetupStep
}

// Driver compiles installer bytecode and signals setup steps to it. A
// Driver runs once; any failure is terminal.
type Driver struct {
	engine    Engine
	observer  Observer
	procedure string
	step      pascal.SetupStep
	state     State
	exec      pascal.Exec
	result    pascal.Variant
}

// New returns an idle driver for engine.
func New(engine Engine, opts Options) *Driver {
	d := &Driver{
		engine:    engine,
		observer:  opts.Observer,
		procedure: opts.Procedure,
		step:      pascal.SetupStepInstall,
	}
	if d.procedure == "" {
		d.procedure = DefaultProcedure
	}
	if opts.Step != nil {
		d.step = *opts.Step
	}
	return d
}

// State returns the current state.
func (d *Driver) State() State { return d.state }

// Exec returns the compiled context, zero before StateContextCompiled.
func (d *Driver) Exec() pascal.Exec { return d.exec }

// Result returns the value of the last invocation. The executor's result
// is reported but not interpreted.
func (d *Driver) Result() pascal.Variant { return d.result }

// Run loads bytecode, compiles it and invokes the procedure with the
// configured step.
func (d *Driver) Run(ctx context.Context, bytecode []byte) error {
	return d.RunSteps(ctx, bytecode, []pascal.SetupStep{d.step})
}

// RunSteps is Run for a sequence of steps, each signalled against the same
// compiled context in order.
func (d *Driver) RunSteps(ctx context.Context, bytecode []byte, steps []pascal.SetupStep) error {
	if d.state != StateIdle {
		return errors.InvalidInput(errors.PhaseRuntime, "driver already ran (state "+d.state.String()+")")
	}
	if len(steps) == 0 {
		return errors.InvalidInput(errors.PhaseConfig, "no setup steps to signal")
	}

	code, err := pascal.FromBytes(bytecode)
	if err != nil {
		return d.fail(err)
	}
	d.transition(StateBytecodeLoaded, 0, nil)
	Logger().Debug("bytecode loaded",
		zap.Uint64("size", code.Size()),
		zap.Uint16("code_page", code.CodePage()))

	if err := d.compile(ctx, code); err != nil {
		return d.fail(err)
	}

	name, err := pascal.FromText(d.procedure)
	if err != nil {
		return d.fail(err)
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return d.fail(errors.Wrap(errors.PhaseInvoke, errors.KindForeignCall, err, "run cancelled"))
		}
		if err := d.invoke(ctx, name, step); err != nil {
			return d.fail(err)
		}
	}

	d.transition(StateDone, 0, nil)
	return nil
}

func (d *Driver) compile(ctx context.Context, code *pascal.AnsiString) error {
	exec, err := d.engine.Compile(ctx, code)
	if err != nil {
		if errors.IsKind(err, errors.KindForeignCall) {
			return err
		}
		return errors.ForeignCall(errors.PhaseCompile, "compile", err)
	}
	if exec.IsZero() {
		return errors.New(errors.PhaseCompile, errors.KindForeignCall).
			Foreign("TPSExec").
			Detail("compile produced no execution context").
			Build()
	}
	d.exec = exec
	d.transition(StateContextCompiled, 0, nil)
	Logger().Debug("context compiled", zap.Stringer("exec", exec))
	return nil
}

func (d *Driver) invoke(ctx context.Context, name *pascal.AnsiString, step pascal.SetupStep) (err error) {
	args := d.engine.NewSetupStepArray()
	defer func() {
		err = multierr.Append(err, args.Free())
	}()
	if err := args.Append(step); err != nil {
		return err
	}

	result, err := d.engine.Invoke(ctx, d.exec, args, name)
	if err != nil {
		var e *errors.Error
		if errors.As(err, &e) {
			return err
		}
		return errors.ForeignCall(errors.PhaseInvoke, d.procedure, err)
	}
	d.result = result
	d.transition(StateProcedureInvoked, step, nil)
	Logger().Info("procedure invoked",
		zap.String("procedure", d.procedure),
		zap.Stringer("step", step),
		zap.Stringer("result", result))
	return nil
}

func (d *Driver) fail(err error) error {
	Logger().Error("installer run failed",
		zap.Stringer("state", d.state),
		zap.Error(err))
	d.transition(StateFailed, 0, err)
	return err
}

func (d *Driver) transition(to State, step pascal.SetupStep, err error) {
	t := Transition{From: d.state, To: to, Step: step, Err: err}
	d.state = to
	if d.observer != nil {
		d.observer(t)
	}
}
