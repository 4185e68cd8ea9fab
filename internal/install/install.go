package install

import (
	"context"
	"fmt"
	"strings"

	"gitstrap/internal/execx"
	"gitstrap/internal/exitcodes"
	"gitstrap/internal/logging"
)

// InstallerError wraps the downstream installer's raw exit status in the
// documented installer-failure code. The raw code is preserved so the
// log can record both.
type InstallerError struct {
	RawCode int
}

func (e *InstallerError) Error() string {
	return fmt.Sprintf("downstream installer exited %d", e.RawCode)
}

func (e *InstallerError) ExitCode() int {
	return exitcodes.InstallerFailure
}

// Run invokes the downstream installer inside the acquired source tree.
// The installer is an external collaborator; gitstrap only stages its
// inputs and folds its exit code into the result set.
func Run(ctx context.Context, runner execx.Runner, logger *logging.Logger, sourceRoot string, command []string) error {
	if len(command) == 0 {
		logger.Errorf("install", "no installer command configured")
		return &InstallerError{RawCode: -1}
	}

	logger.Infof("install", "running installer in %s: %s", sourceRoot, strings.Join(command, " "))
	res, err := runner.Run(ctx, sourceRoot, command[0], command[1:]...)
	if out := strings.TrimSpace(res.Output); out != "" {
		logger.Infof("install", "installer output: %s", out)
	}
	if err != nil {
		logger.Errorf("install", "installer could not run: %v", err)
		return &InstallerError{RawCode: res.ExitCode}
	}
	if res.ExitCode != 0 {
		logger.Errorf("install", "installer exited %d", res.ExitCode)
		return &InstallerError{RawCode: res.ExitCode}
	}

	logger.Infof("install", "installer finished successfully")
	return nil
}
