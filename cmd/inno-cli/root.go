package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/innoexec/config"
	"github.com/wippyai/innoexec/engine"
	"github.com/wippyai/innoexec/installer"
)

func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "inno-cli",
		Short: "Run an Inno Setup install script without Windows",
		Long: `Run the compiled PascalScript of an Inno Setup installer.

The script bytecode is compiled by a PascalScript executor built for
WebAssembly (--engine) and its CURSTEPCHANGED procedure is invoked with
the ssInstall step. Settings may also come from a config file (--config)
or INNOEXEC_* environment variables, e.g. INNOEXEC_INSTALL_DIR.

Examples:
  inno-cli --installer-path setup.exe --install-dir out \
    --install-script CompiledCode.bin --engine psexec.wasm

  inno-cli --config innoexec.yaml --steps ssPreInstall,ssInstall,ssPostInstall`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.LoadOptions{
				Flags:      cmd.Flags(),
				ConfigFile: configFile,
			})
			if err != nil {
				return err
			}

			interactive := !cfg.Verbose && term.IsTerminal(int(os.Stdout.Fd()))
			log, err := newLogger(cfg.Verbose, interactive)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			engine.SetLogger(log.Named("engine"))
			installer.SetLogger(log.Named("installer"))

			if interactive {
				return runWithProgress(cmd.Context(), cfg)
			}
			return run(cmd.Context(), cfg, &logReporter{log: log})
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "config file (TOML, YAML or JSON)")
	config.BindFlags(cmd.Flags())
	return cmd
}

// newLogger logs to stderr. The progress view owns the terminal, so only
// errors are logged while it is shown.
func newLogger(verbose, interactive bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	switch {
	case verbose:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case interactive:
		return zap.NewNop(), nil
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return cfg.Build()
}
