package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"

	"github.com/wippyai/innoexec/errors"
	"github.com/wippyai/innoexec/pascal"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Fatalf("config (-want +got):\n%s", diff)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "innoexec.yaml")
	content := "install-type: compact\ninstall-dir: /from/file\ntasks: [desktopicon]\nengine: /from/file.wasm\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("INNOEXEC_INSTALL_DIR", "/from/env")
	t.Setenv("INNOEXEC_ENGINE", "/from/env.wasm")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	if err := fs.Parse([]string{"--engine", "/from/flag.wasm", "--steps", "ssPreInstall,ssInstall"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(LoadOptions{Flags: fs, ConfigFile: file})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InstallType != "compact" {
		t.Errorf("InstallType = %q, want value from file", cfg.InstallType)
	}
	if cfg.InstallDir != "/from/env" {
		t.Errorf("InstallDir = %q, want value from env", cfg.InstallDir)
	}
	if cfg.Engine != "/from/flag.wasm" {
		t.Errorf("Engine = %q, want value from flag", cfg.Engine)
	}
	if diff := cmp.Diff([]string{"desktopicon"}, cfg.Tasks); diff != "" {
		t.Errorf("Tasks (-want +got):\n%s", diff)
	}
	if cfg.TmpDir != "./tmp" {
		t.Errorf("TmpDir = %q, want default", cfg.TmpDir)
	}
	steps, err := cfg.SetupSteps()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]pascal.SetupStep{pascal.SetupStepPreInstall, pascal.SetupStepInstall}, steps); diff != "" {
		t.Errorf("steps (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "none.toml")})
	var e *errors.Error
	if !errors.As(err, &e) || e.Phase != errors.PhaseConfig {
		t.Fatalf("got %v, want config error", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Fatalf("got %v, want invalid_input", err)
	}

	cfg.InstallDir = "out"
	cfg.InstallerPath = "setup.exe"
	cfg.Engine = "executor.wasm"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config: %v", err)
	}

	cfg.Steps = []string{"ssInstall", "ssUninstall"}
	if err := cfg.Validate(); !errors.IsKind(err, errors.KindInvalidEnum) {
		t.Fatalf("bad step: %v", err)
	}
}

func TestPrepare(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.TmpDir = filepath.Join(dir, "a", "tmp")
	cfg.InstallDir = filepath.Join(dir, "b", "install")
	cfg.Engine = "executor.wasm"

	if err := cfg.Prepare(); err != nil {
		t.Fatal(err)
	}
	for _, d := range []string{cfg.TmpDir, cfg.InstallDir} {
		info, err := os.Stat(d)
		if err != nil || !info.IsDir() {
			t.Fatalf("%s not created: %v", d, err)
		}
	}
	if !filepath.IsAbs(cfg.Engine) {
		t.Fatalf("Engine not absolute: %s", cfg.Engine)
	}
	if cfg.InstallScript != "" {
		t.Fatal("empty path should stay empty")
	}
	// Idempotent on existing directories.
	if err := cfg.Prepare(); err != nil {
		t.Fatal(err)
	}
}
