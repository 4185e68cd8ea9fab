package execx

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// OSRunner implements Runner using real os/exec calls
type OSRunner struct{}

func (OSRunner) Run(ctx context.Context, dir string, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	res := Result{Output: out.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		// Could not start the process at all (not found, permissions)
		res.ExitCode = -1
		return res, err
	}
	return res, nil
}
