// Package config loads the settings of an installer run from defaults, an
// optional config file, INNOEXEC_* environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/wippyai/innoexec/errors"
	"github.com/wippyai/innoexec/installer"
	"github.com/wippyai/innoexec/pascal"
)

// EnvPrefix prefixes environment overrides: INNOEXEC_TMP_DIR, ...
const EnvPrefix = "INNOEXEC"

// Keys, also used as flag names.
const (
	KeyTmpDir           = "tmp-dir"
	KeyInstallDir       = "install-dir"
	KeyInstallerPath    = "installer-path"
	KeyComponents       = "components"
	KeyTasks            = "tasks"
	KeyInstallType      = "install-type"
	KeyInstallScript    = "install-script"
	KeyEngine           = "engine"
	KeyProcedure        = "procedure"
	KeySteps            = "steps"
	KeyMemoryLimitPages = "memory-limit-pages"
	KeyVerbose          = "verbose"
)

// Config is the settings of one installer run.
type Config struct {
	TmpDir        string   `mapstructure:"tmp-dir"`
	InstallDir    string   `mapstructure:"install-dir"`
	InstallerPath string   `mapstructure:"installer-path"`
	Components    []string `mapstructure:"components"`
	Tasks         []string `mapstructure:"tasks"`
	InstallType   string   `mapstructure:"install-type"`
	// InstallScript is compiled bytecode. When empty the script is
	// extracted from the installer.
	InstallScript string `mapstructure:"install-script"`
	// Engine is the PascalScript executor wasm module.
	Engine           string   `mapstructure:"engine"`
	Procedure        string   `mapstructure:"procedure"`
	Steps            []string `mapstructure:"steps"`
	MemoryLimitPages uint32   `mapstructure:"memory-limit-pages"`
	Verbose          bool     `mapstructure:"verbose"`
}

// DefaultConfig returns the defaults of every setting.
func DefaultConfig() *Config {
	return &Config{
		TmpDir:           "./tmp",
		Components:       []string{"*"},
		Tasks:            []string{"*"},
		InstallType:      "full",
		Procedure:        installer.DefaultProcedure,
		Steps:            []string{pascal.SetupStepInstall.String()},
		MemoryLimitPages: 4096,
	}
}

// BindFlags registers a flag for every setting on fs.
func BindFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.String(KeyTmpDir, d.TmpDir, "directory for temporary setup files")
	fs.String(KeyInstallDir, d.InstallDir, "directory to install into")
	fs.String(KeyInstallerPath, d.InstallerPath, "path to the Inno Setup installer")
	fs.StringSlice(KeyComponents, d.Components, "components to install")
	fs.StringSlice(KeyTasks, d.Tasks, "tasks to perform")
	fs.String(KeyInstallType, d.InstallType, "install type to complete")
	fs.String(KeyInstallScript, d.InstallScript, "path to extracted PascalScript bytecode (extracted from the installer if empty)")
	fs.String(KeyEngine, d.Engine, "path to the PascalScript executor wasm module")
	fs.String(KeyProcedure, d.Procedure, "script procedure to invoke")
	fs.StringSlice(KeySteps, d.Steps, "setup steps to signal, in order")
	fs.Uint32(KeyMemoryLimitPages, d.MemoryLimitPages, "executor memory limit in 64KiB pages")
	fs.BoolP(KeyVerbose, "v", d.Verbose, "verbose logging")
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// Flags, if set, are bound and take precedence over everything else.
	Flags *pflag.FlagSet
	// ConfigFile is a TOML, YAML or JSON file chosen by extension.
	ConfigFile string
}

// Load merges defaults, the config file, environment and flags.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	d := DefaultConfig()
	v.SetDefault(KeyTmpDir, d.TmpDir)
	v.SetDefault(KeyInstallDir, d.InstallDir)
	v.SetDefault(KeyInstallerPath, d.InstallerPath)
	v.SetDefault(KeyComponents, d.Components)
	v.SetDefault(KeyTasks, d.Tasks)
	v.SetDefault(KeyInstallType, d.InstallType)
	v.SetDefault(KeyInstallScript, d.InstallScript)
	v.SetDefault(KeyEngine, d.Engine)
	v.SetDefault(KeyProcedure, d.Procedure)
	v.SetDefault(KeySteps, d.Steps)
	v.SetDefault(KeyMemoryLimitPages, d.MemoryLimitPages)
	v.SetDefault(KeyVerbose, d.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.New(errors.PhaseConfig, errors.KindInvalidData).
				Detail("read config file %s", opts.ConfigFile).
				Cause(err).
				Build()
		}
	}

	if opts.Flags != nil {
		if err := v.BindPFlags(opts.Flags); err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "bind flags")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "decode config")
	}
	return &cfg, nil
}

// Validate checks that a run can start. All problems are reported at once.
func (c *Config) Validate() error {
	var err error
	required := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			err = multierr.Append(err, errors.InvalidInput(errors.PhaseConfig, "--"+key+" is required"))
		}
	}
	required(KeyTmpDir, c.TmpDir)
	required(KeyInstallDir, c.InstallDir)
	required(KeyInstallerPath, c.InstallerPath)
	required(KeyEngine, c.Engine)
	required(KeyInstallType, c.InstallType)
	required(KeyProcedure, c.Procedure)

	if _, serr := c.SetupSteps(); serr != nil {
		err = multierr.Append(err, serr)
	}
	return err
}

// SetupSteps parses Steps.
func (c *Config) SetupSteps() ([]pascal.SetupStep, error) {
	if len(c.Steps) == 0 {
		return nil, errors.InvalidInput(errors.PhaseConfig, "--"+KeySteps+" is empty")
	}
	steps := make([]pascal.SetupStep, 0, len(c.Steps))
	for _, s := range c.Steps {
		step, err := pascal.ParseSetupStep(s)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// Prepare creates the temporary and install directories and makes every
// path absolute, so the run can change into TmpDir.
func (c *Config) Prepare() error {
	for _, dir := range []string{c.TmpDir, c.InstallDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "create "+dir)
		}
	}
	for _, p := range []*string{&c.TmpDir, &c.InstallDir, &c.InstallerPath, &c.InstallScript, &c.Engine} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "resolve "+*p)
		}
		*p = abs
	}
	return nil
}
