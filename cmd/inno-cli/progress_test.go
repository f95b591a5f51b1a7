package main

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/innoexec/installer"
	"github.com/wippyai/innoexec/pascal"
)

func TestProgressModel_Flow(t *testing.T) {
	m := newProgressModel("setup.exe", nil)

	m.Update(stageMsg{label: "reading installer"})
	m.Update(stageMsg{label: "loading engine"})
	m.Update(transitionMsg{t: installer.Transition{To: installer.StateContextCompiled}})
	m.Update(transitionMsg{t: installer.Transition{To: installer.StateProcedureInvoked, Step: pascal.SetupStepInstall}})
	_, cmd := m.Update(finishedMsg{})
	if cmd == nil {
		t.Fatal("finished run should quit")
	}

	view := m.View()
	for _, want := range []string{"setup.exe", "reading installer", "loading engine", "signalled ssInstall", "completed"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestProgressModel_Error(t *testing.T) {
	m := newProgressModel("setup.exe", nil)
	m.Update(stageMsg{label: "running CURSTEPCHANGED"})
	m.Update(finishedMsg{err: stderrors.New("[compile] foreign_call")})

	view := m.View()
	if !strings.Contains(view, "✗ running CURSTEPCHANGED") || !strings.Contains(view, "[compile] foreign_call") {
		t.Fatalf("view:\n%s", view)
	}
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	for name, want := range map[string]string{
		"tmp-dir":      "./tmp",
		"install-type": "full",
		"components":   "[*]",
		"tasks":        "[*]",
		"procedure":    "CURSTEPCHANGED",
		"steps":        "[ssInstall]",
	} {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			t.Fatalf("flag --%s missing", name)
		}
		if f.DefValue != want {
			t.Errorf("--%s default = %q, want %q", name, f.DefValue, want)
		}
	}
	for _, name := range []string{"install-dir", "installer-path", "install-script", "engine", "config", "verbose"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("flag --%s missing", name)
		}
	}
}

func TestRootCmd_ValidationError(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--verbose", "--tmp-dir", t.TempDir()})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "--installer-path is required") {
		t.Fatalf("got %v", err)
	}
}
