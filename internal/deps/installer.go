package deps

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"gitstrap/internal/execx"
	"gitstrap/internal/exitcodes"
	"gitstrap/internal/fsops"
	"gitstrap/internal/logging"
)

// DependencyError reports a manifest that is missing or a package
// manager run that did not finish cleanly. Dependency installation is
// all-or-nothing; there is no partial-success interpretation.
type DependencyError struct {
	ManifestPath string
	PMExitCode   int
	Missing      bool
}

func (e *DependencyError) Error() string {
	if e.Missing {
		return "dependency manifest missing: " + e.ManifestPath
	}
	return fmt.Sprintf("package manager exited %d for manifest %s", e.PMExitCode, e.ManifestPath)
}

func (e *DependencyError) ExitCode() int {
	return exitcodes.DependencyInstall
}

// Installer installs the declared package dependencies from a manifest
// shipped inside the acquired source tree
type Installer struct {
	Runner execx.Runner
	FS     fsops.FS
	Logger *logging.Logger

	// PackageManager is the command prefix the manifest path is appended
	// to, e.g. ["pip", "install", "-r"]
	PackageManager []string
}

// Install resolves manifestRel against sourceRoot and hands it to the
// package manager in a single invocation. A missing manifest is a hard
// failure, never silently skipped.
func (i *Installer) Install(ctx context.Context, sourceRoot, manifestRel string) error {
	manifestPath := filepath.Join(sourceRoot, manifestRel)

	ok, err := i.FS.Exists(manifestPath)
	if err != nil {
		i.Logger.Errorf("deps", "cannot check manifest %s: %v", manifestPath, err)
		return &DependencyError{ManifestPath: manifestPath, Missing: true}
	}
	if !ok {
		i.Logger.Errorf("deps", "manifest not found at %s", manifestPath)
		return &DependencyError{ManifestPath: manifestPath, Missing: true}
	}

	if len(i.PackageManager) == 0 {
		i.Logger.Errorf("deps", "no package manager configured")
		return &DependencyError{ManifestPath: manifestPath, Missing: true}
	}

	args := append(append([]string{}, i.PackageManager[1:]...), manifestPath)
	i.Logger.Infof("deps", "installing dependencies: %s %s", i.PackageManager[0], strings.Join(args, " "))

	res, err := i.Runner.Run(ctx, sourceRoot, i.PackageManager[0], args...)
	if out := strings.TrimSpace(res.Output); out != "" {
		i.Logger.Infof("deps", "package manager output: %s", out)
	}
	if err != nil {
		i.Logger.Errorf("deps", "package manager could not run: %v", err)
		return &DependencyError{ManifestPath: manifestPath, PMExitCode: res.ExitCode}
	}
	if res.ExitCode != 0 {
		i.Logger.Errorf("deps", "package manager exited %d", res.ExitCode)
		return &DependencyError{ManifestPath: manifestPath, PMExitCode: res.ExitCode}
	}

	i.Logger.Infof("deps", "dependencies installed from %s", manifestPath)
	return nil
}
