package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/innoexec/config"
	"github.com/wippyai/innoexec/engine"
	"github.com/wippyai/innoexec/installer"
	"github.com/wippyai/innoexec/script"
)

// reporter receives progress of a run.
type reporter interface {
	Stage(label string)
	Transition(t installer.Transition)
	Output() io.Writer
}

type logReporter struct {
	log *zap.Logger
}

func (r *logReporter) Stage(label string) {
	r.log.Info(label)
}

func (r *logReporter) Transition(t installer.Transition) {
	if t.Err != nil {
		return
	}
	fields := []zap.Field{zap.Stringer("from", t.From), zap.Stringer("to", t.To)}
	if t.To == installer.StateProcedureInvoked {
		fields = append(fields, zap.Stringer("step", t.Step))
	}
	r.log.Info("driver state", fields...)
}

func (r *logReporter) Output() io.Writer { return os.Stderr }

func run(ctx context.Context, cfg *config.Config, rep reporter) (err error) {
	if err := cfg.Validate(); err != nil {
		return err
	}
	steps, err := cfg.SetupSteps()
	if err != nil {
		return err
	}

	rep.Stage("preparing directories")
	if err := cfg.Prepare(); err != nil {
		return err
	}

	rep.Stage("reading installer")
	setup, err := os.ReadFile(cfg.InstallerPath)
	if err != nil {
		return fmt.Errorf("read installer: %w", err)
	}

	if err := os.Chdir(cfg.TmpDir); err != nil {
		return fmt.Errorf("enter tmp dir: %w", err)
	}

	rep.Stage("resolving install script")
	bytecode, err := scriptResolver(cfg, setup).Resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolve install script: %w", err)
	}

	rep.Stage("loading engine")
	wasm, err := os.ReadFile(cfg.Engine)
	if err != nil {
		return fmt.Errorf("read engine: %w", err)
	}
	eng, err := engine.New(ctx, wasm, &engine.Config{
		ModuleName:       "psexec",
		MemoryLimitPages: cfg.MemoryLimitPages,
		Stdout:           rep.Output(),
		Stderr:           rep.Output(),
	})
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, eng.Close(context.WithoutCancel(ctx)))
	}()

	engine.Logger().Debug("install options",
		zap.Strings("components", cfg.Components),
		zap.Strings("tasks", cfg.Tasks),
		zap.String("install_type", cfg.InstallType),
		zap.String("install_dir", cfg.InstallDir))

	rep.Stage("running " + cfg.Procedure)
	driver := installer.New(eng, installer.Options{
		Procedure: cfg.Procedure,
		Observer:  rep.Transition,
	})
	err = driver.RunSteps(ctx, bytecode, steps)
	engine.Logger().Debug("run finished",
		zap.Stringer("state", driver.State()),
		zap.Int("live_contexts", eng.Handles().Len()))
	return err
}

// scriptResolver prefers an explicit script file and otherwise extracts
// the script from the installer.
func scriptResolver(cfg *config.Config, setup []byte) script.Resolver {
	if cfg.InstallScript != "" {
		return script.FileResolver{Path: cfg.InstallScript}
	}
	return script.PayloadResolver{
		Extractor: script.UnsupportedExtractor{},
		Installer: setup,
		Dest:      cfg.TmpDir,
	}
}
