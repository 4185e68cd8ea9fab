package prereq

import (
	"context"
	"fmt"

	"gitstrap/internal/execx"
	"gitstrap/internal/exitcodes"
	"gitstrap/internal/logging"
)

// Prerequisite describes one external tool whose presence gates the run.
// The sequence handed to Verify is static and ordered; it is never
// mutated at runtime.
type Prerequisite struct {
	Name             string
	CheckCommand     []string
	RequiredExitCode int
	FailureCode      int // dedicated exit code, stable across releases
}

// PrerequisiteError identifies which probe failed and carries its
// dedicated exit code
type PrerequisiteError struct {
	Name string
	Code int
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("prerequisite %s failed its probe (code %d)", e.Name, e.Code)
}

func (e *PrerequisiteError) ExitCode() int {
	if e.Code != 0 {
		return e.Code
	}
	return exitcodes.PrerequisiteMissing
}

// Defaults returns the probes the pybart bootstrap needs: git for the
// clone, python and pip for dependency install and the installer itself
func Defaults() []Prerequisite {
	return []Prerequisite{
		{Name: "git", CheckCommand: []string{"git", "--version"}, FailureCode: exitcodes.PrereqGit},
		{Name: "python", CheckCommand: []string{"python", "--version"}, FailureCode: exitcodes.PrereqPython},
		{Name: "pip", CheckCommand: []string{"pip", "--version"}, FailureCode: exitcodes.PrereqPip},
	}
}

// Verify runs each probe in declared order and stops at the first
// failure. Probe output lands in the run log only; the terminal outcome
// is just the dedicated code.
func Verify(ctx context.Context, runner execx.Runner, logger *logging.Logger, prereqs []Prerequisite) error {
	for _, p := range prereqs {
		if len(p.CheckCommand) == 0 {
			return &PrerequisiteError{Name: p.Name, Code: p.FailureCode}
		}

		res, err := runner.Run(ctx, "", p.CheckCommand[0], p.CheckCommand[1:]...)
		if res.Output != "" {
			logger.Infof("prereq", "%s probe output: %s", p.Name, res.Output)
		}
		if err != nil {
			logger.Errorf("prereq", "%s probe could not run: %v", p.Name, err)
			return &PrerequisiteError{Name: p.Name, Code: p.FailureCode}
		}
		if res.ExitCode != p.RequiredExitCode {
			logger.Errorf("prereq", "%s probe exited %d, required %d", p.Name, res.ExitCode, p.RequiredExitCode)
			return &PrerequisiteError{Name: p.Name, Code: p.FailureCode}
		}
		logger.Infof("prereq", "%s ok", p.Name)
	}
	return nil
}
