package acquire

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"gitstrap/internal/execx"
	"gitstrap/internal/exitcodes"
	"gitstrap/internal/fsops"
	"gitstrap/internal/logging"
	"gitstrap/internal/retry"
)

// AcquisitionError reports a source tree that could not be acquired,
// either because every clone attempt failed or because the tree that
// arrived is missing its installer entrypoint
type AcquisitionError struct {
	URL        string
	Attempts   int
	Incomplete bool // clone "succeeded" but the marker file is absent
}

func (e *AcquisitionError) Error() string {
	if e.Incomplete {
		return fmt.Sprintf("incomplete source tree from %s: installer entrypoint missing", e.URL)
	}
	return fmt.Sprintf("failed to clone %s after %d attempts", e.URL, e.Attempts)
}

func (e *AcquisitionError) ExitCode() int {
	if e.Incomplete {
		return exitcodes.IncompleteSourceTree
	}
	return exitcodes.CloneExhausted
}

// Result is the observable outcome of a successful acquisition
type Result struct {
	CommitRef string
	Attempts  int
}

// Acquirer clones a versioned source tree from a remote into a local
// destination, retrying the whole clone on failure. A prior partial
// clone is never reused: shallow or interrupted clones cannot be safely
// resumed, so the destination is wiped before every attempt.
type Acquirer struct {
	Runner  execx.Runner
	FS      fsops.FS
	Sleeper retry.Sleeper
	Logger  *logging.Logger
	GitBin  string
}

// Acquire clones url at branch into destination, then verifies the
// marker file (the downstream installer entrypoint) exists inside the
// tree. Running it twice against a stale destination yields the same
// tree as running it once against an empty one.
func (a *Acquirer) Acquire(ctx context.Context, url, branch, destination, marker string, policy retry.Policy) (Result, error) {
	if err := policy.Validate(); err != nil {
		return Result{}, err
	}

	var attempt int
	for attempt = 1; attempt <= policy.MaxAttempts; attempt++ {
		a.Logger.Infof("acquire", "attempt %d/%d: clone %s branch %s into %s", attempt, policy.MaxAttempts, url, branch, destination)

		if err := a.FS.RemoveAll(destination); err != nil {
			a.Logger.Warnf("acquire", "could not remove stale destination %s: %v", destination, err)
		}

		res, err := a.Runner.Run(ctx, "",
			a.GitBin, "clone", "--branch", branch, "--single-branch", url, destination)
		if out := strings.TrimSpace(res.Output); out != "" {
			a.Logger.Infof("acquire", "git output: %s", out)
		}
		if err == nil && res.ExitCode == 0 {
			return a.verify(ctx, url, destination, marker, attempt)
		}

		a.Logger.Warnf("acquire", "attempt %d/%d failed: exit %d err %v", attempt, policy.MaxAttempts, res.ExitCode, err)
		if attempt == policy.MaxAttempts {
			break
		}
		if serr := a.Sleeper.Sleep(ctx, policy.Delay); serr != nil {
			a.Logger.Errorf("acquire", "clone of %s aborted: %v", url, serr)
			return Result{}, &AcquisitionError{URL: url, Attempts: attempt}
		}
	}

	a.Logger.Errorf("acquire", "giving up on %s after %d attempts", url, policy.MaxAttempts)
	return Result{}, &AcquisitionError{URL: url, Attempts: policy.MaxAttempts}
}

// verify guards against a remote that cloned cleanly but does not carry
// the expected layout
func (a *Acquirer) verify(ctx context.Context, url, destination, marker string, attempts int) (Result, error) {
	markerPath := filepath.Join(destination, marker)
	ok, err := a.FS.Exists(markerPath)
	if err != nil {
		a.Logger.Errorf("acquire", "cannot check %s: %v", markerPath, err)
		return Result{}, &AcquisitionError{URL: url, Attempts: attempts, Incomplete: true}
	}
	if !ok {
		a.Logger.Errorf("acquire", "clone looked successful but %s is missing", markerPath)
		return Result{}, &AcquisitionError{URL: url, Attempts: attempts, Incomplete: true}
	}

	result := Result{Attempts: attempts}
	res, err := a.Runner.Run(ctx, destination, a.GitBin, "rev-parse", "HEAD")
	if err == nil && res.ExitCode == 0 {
		result.CommitRef = strings.TrimSpace(res.Output)
	} else {
		a.Logger.Warnf("acquire", "could not read commit ref: exit %d err %v", res.ExitCode, err)
	}

	a.Logger.Infof("acquire", "source acquired at %s (commit %s, attempt %d)", destination, result.CommitRef, attempts)
	return result, nil
}
