package prereq

import (
	"context"
	"errors"
	"testing"

	"gitstrap/internal/execx"
	"gitstrap/internal/exitcodes"
	"gitstrap/internal/logging"
)

// TestVerifyAllPass verifies every probe runs in declared order
func TestVerifyAllPass(t *testing.T) {
	runner := &execx.FakeRunner{}

	err := Verify(context.Background(), runner, logging.Discard(), Defaults())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	want := []string{"git --version", "python --version", "pip --version"}
	got := runner.CommandLines()
	if len(got) != len(want) {
		t.Fatalf("probes run = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("probe %d = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestVerifyFailFast verifies the first failure stops the sequence and
// surfaces that prerequisite's dedicated code
func TestVerifyFailFast(t *testing.T) {
	runner := &execx.FakeRunner{
		Responses: []execx.Response{
			{Result: execx.Result{ExitCode: 0, Output: "git version 2.43"}},
			{Result: execx.Result{ExitCode: 127}},
		},
	}

	err := Verify(context.Background(), runner, logging.Discard(), Defaults())

	var perr *PrerequisiteError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PrerequisiteError, got %v", err)
	}
	if perr.Name != "python" {
		t.Errorf("failed prerequisite = %s, want python", perr.Name)
	}
	if perr.ExitCode() != exitcodes.PrereqPython {
		t.Errorf("ExitCode = %d, want %d", perr.ExitCode(), exitcodes.PrereqPython)
	}

	// pip must never have been probed
	if len(runner.Calls) != 2 {
		t.Errorf("probes run = %d, want 2 (fail fast)", len(runner.Calls))
	}
}

// TestVerifyProbeStartFailure verifies a tool that cannot even start
// (not on PATH) fails the same way as a bad exit status
func TestVerifyProbeStartFailure(t *testing.T) {
	runner := &execx.FakeRunner{
		Responses: []execx.Response{
			{Result: execx.Result{ExitCode: -1}, Err: errors.New("exec: \"git\": executable file not found in $PATH")},
		},
	}

	err := Verify(context.Background(), runner, logging.Discard(), Defaults())

	var perr *PrerequisiteError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PrerequisiteError, got %v", err)
	}
	if perr.ExitCode() != exitcodes.PrereqGit {
		t.Errorf("ExitCode = %d, want %d", perr.ExitCode(), exitcodes.PrereqGit)
	}
}

// TestVerifyCustomRequiredExitCode verifies comparison against a
// non-zero required status
func TestVerifyCustomRequiredExitCode(t *testing.T) {
	probes := []Prerequisite{
		{Name: "quirky", CheckCommand: []string{"quirky", "-check"}, RequiredExitCode: 3, FailureCode: 42},
	}
	runner := &execx.FakeRunner{
		Responses: []execx.Response{{Result: execx.Result{ExitCode: 3}}},
	}

	if err := Verify(context.Background(), runner, logging.Discard(), probes); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	runner = &execx.FakeRunner{
		Responses: []execx.Response{{Result: execx.Result{ExitCode: 0}}},
	}
	err := Verify(context.Background(), runner, logging.Discard(), probes)
	var perr *PrerequisiteError
	if !errors.As(err, &perr) || perr.ExitCode() != 42 {
		t.Errorf("expected dedicated code 42, got %v", err)
	}
}

// TestGenericFallbackCode verifies a prerequisite without a dedicated
// code still maps to the generic prerequisite exit code
func TestGenericFallbackCode(t *testing.T) {
	e := &PrerequisiteError{Name: "x"}
	if e.ExitCode() != exitcodes.PrerequisiteMissing {
		t.Errorf("ExitCode = %d, want %d", e.ExitCode(), exitcodes.PrerequisiteMissing)
	}
}
