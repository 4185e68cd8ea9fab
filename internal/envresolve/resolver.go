package envresolve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gitstrap/internal/exitcodes"
	"gitstrap/internal/logging"
)

// Environment variables honored by the bootstrap entry point
const (
	EnvDeploymentHome = "GITSTRAP_DEPLOYMENT_HOME"
	EnvBranch         = "GITSTRAP_BRANCH"
)

// BranchProperty is the properties-file key that overrides the branch
const BranchProperty = "GITSTRAP_BRANCH"

// deploymentPrefix names the directories considered deployment roots
// during auto-discovery
const deploymentPrefix = "deployment"

// Context is the resolved deployment context for one bootstrap run.
// It is created once at start and never mutated afterwards; stages read
// from it instead of reaching into process-wide environment state.
type Context struct {
	WorkRoot       string
	PropertiesPath string // empty when no properties file was found
	Branch         string
	Environment    map[string]string
}

// EnvironmentError reports a deployment root that could not be resolved
type EnvironmentError struct {
	Reason string
}

func (e *EnvironmentError) Error() string {
	return "environment resolution failed: " + e.Reason
}

func (e *EnvironmentError) ExitCode() int {
	return exitcodes.EnvironmentResolution
}

// Options parameterize resolution; zero values fall back to discovery
// under DiscoveryDir and the default branch constant
type Options struct {
	ExplicitRoot      string // from a flag; wins over everything
	DiscoveryDir      string
	PropertiesFile    string // file name looked up inside the work root
	DefaultBranch     string
	RequireProperties bool // treat a missing properties file as fatal

	// Getenv defaults to os.Getenv; injectable for tests
	Getenv func(string) string
}

// Resolve determines the work root, loads deployment-scoped properties,
// and fixes the branch for the rest of the run. It only reads; no
// directories are created here.
func Resolve(opts Options, logger *logging.Logger) (*Context, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	root, err := resolveRoot(opts, getenv, logger)
	if err != nil {
		return nil, err
	}

	ctx := &Context{
		WorkRoot:    root,
		Environment: map[string]string{},
	}

	propsFile := opts.PropertiesFile
	if propsFile == "" {
		propsFile = "deployment.properties"
	}
	propsPath := filepath.Join(root, propsFile)
	props, err := loadProperties(propsPath)
	switch {
	case err == nil:
		ctx.PropertiesPath = propsPath
		ctx.Environment = props
		logger.Infof("envresolve", "loaded %d properties from %s", len(props), propsPath)
	case errors.Is(err, os.ErrNotExist):
		if opts.RequireProperties {
			return nil, &EnvironmentError{Reason: "required properties file missing: " + propsPath}
		}
		logger.Infof("envresolve", "no properties file at %s, using defaults", propsPath)
	default:
		return nil, &EnvironmentError{Reason: fmt.Sprintf("read properties %s: %v", propsPath, err)}
	}

	ctx.Branch = resolveBranch(ctx.Environment, getenv, opts.DefaultBranch)
	logger.Infof("envresolve", "work root %s, branch %s", ctx.WorkRoot, ctx.Branch)
	return ctx, nil
}

func resolveRoot(opts Options, getenv func(string) string, logger *logging.Logger) (string, error) {
	if opts.ExplicitRoot != "" {
		return verifyRoot(opts.ExplicitRoot)
	}
	if home := getenv(EnvDeploymentHome); home != "" {
		logger.Infof("envresolve", "deployment root from %s", EnvDeploymentHome)
		return verifyRoot(home)
	}
	return discoverRoot(opts.DiscoveryDir)
}

func verifyRoot(root string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", &EnvironmentError{Reason: fmt.Sprintf("deployment root %s: %v", root, err)}
	}
	if !info.IsDir() {
		return "", &EnvironmentError{Reason: "deployment root is not a directory: " + root}
	}
	return filepath.Clean(root), nil
}

// discoverRoot searches the well-known parent for exactly one directory
// matching the deployment naming convention. Zero or several candidates
// mean the host was not provisioned for a single bootstrap and the run
// must not guess.
func discoverRoot(parent string) (string, error) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return "", &EnvironmentError{Reason: fmt.Sprintf("scan %s: %v", parent, err)}
	}

	var candidates []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if strings.HasPrefix(strings.ToLower(entry.Name()), deploymentPrefix) {
			candidates = append(candidates, filepath.Join(parent, entry.Name()))
		}
	}

	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return "", &EnvironmentError{Reason: "ambiguous or missing deployment root: no deployment directory under " + parent}
	default:
		return "", &EnvironmentError{Reason: fmt.Sprintf("ambiguous or missing deployment root: %d deployment directories under %s", len(candidates), parent)}
	}
}

// resolveBranch applies the only precedence rule that exists:
// properties override > environment override > default constant
func resolveBranch(props map[string]string, getenv func(string) string, fallback string) string {
	if b := props[BranchProperty]; b != "" {
		return b
	}
	if b := getenv(EnvBranch); b != "" {
		return b
	}
	return fallback
}
