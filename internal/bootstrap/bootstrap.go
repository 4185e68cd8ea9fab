package bootstrap

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"time"

	"gitstrap/internal/acquire"
	"gitstrap/internal/config"
	"gitstrap/internal/deps"
	"gitstrap/internal/envresolve"
	"gitstrap/internal/execx"
	"gitstrap/internal/exitcodes"
	"gitstrap/internal/fsops"
	"gitstrap/internal/install"
	"gitstrap/internal/logging"
	"gitstrap/internal/metrics"
	"gitstrap/internal/netwait"
	"gitstrap/internal/orchestrator"
	"gitstrap/internal/prereq"
	"gitstrap/internal/retry"
)

// Stage labels as they appear in the result set and the log
const (
	StageResolve     = "resolve"
	StageVerify      = "verify"
	StageDNSWait     = "dns-wait"
	StageAcquire     = "acquire"
	StageInstallDeps = "install-deps"
	StageInstall     = "install"
)

// Options carry per-invocation knobs on top of the config file
type Options struct {
	ExplicitRoot string
	DryRun       bool
}

// Deps are the capability boundary: process execution, filesystem, DNS,
// clock. Production uses the OS-backed set; tests inject fakes and the
// orchestration logic stays identical on every platform.
type Deps struct {
	Runner   execx.Runner
	FS       fsops.FS
	Resolver netwait.HostResolver
	Sleeper  retry.Sleeper
	Getenv   func(string) string
}

// OSDeps returns the production capability set
func OSDeps() Deps {
	return Deps{
		Runner:   execx.OSRunner{},
		FS:       fsops.OSFS{},
		Resolver: net.DefaultResolver,
		Sleeper:  retry.ClockSleeper{},
		Getenv:   os.Getenv,
	}
}

// RunInfo is what the reporter persists alongside the outcome
type RunInfo struct {
	StartedAt time.Time
	Branch    string
	CommitRef string
}

// Execute runs the full bootstrap pipeline: resolve the deployment
// context, verify prerequisites, wait for the remote host to resolve,
// acquire the source tree, install its dependencies, and run the
// downstream installer. Stages share state through the deployment
// context resolved first; a failure anywhere short-circuits the rest
// and the reporter still emits the verdict.
func Execute(ctx context.Context, cfg *config.Config, opt Options, d Deps, logger *logging.Logger) (orchestrator.Outcome, *orchestrator.ResultSet, RunInfo) {
	info := RunInfo{StartedAt: time.Now()}

	var dctx *envresolve.Context
	var sourceRoot string

	waiter := &netwait.Waiter{Resolver: d.Resolver, Sleeper: d.Sleeper, Logger: logger}
	acquirer := &acquire.Acquirer{Runner: d.Runner, FS: d.FS, Sleeper: d.Sleeper, Logger: logger, GitBin: "git"}
	installer := &deps.Installer{Runner: d.Runner, FS: d.FS, Logger: logger, PackageManager: cfg.Dependencies.PackageManager}

	stages := []orchestrator.Stage{
		{
			Label:       StageResolve,
			Reached:     orchestrator.ReachedResolved,
			FailureCode: exitcodes.EnvironmentResolution,
			Run: func(context.Context) error {
				resolved, err := envresolve.Resolve(envresolve.Options{
					ExplicitRoot:   opt.ExplicitRoot,
					DiscoveryDir:   cfg.Deployment.DiscoveryDir,
					PropertiesFile: cfg.Deployment.PropertiesFile,
					DefaultBranch:  cfg.Deployment.DefaultBranch,
					Getenv:         d.Getenv,
				}, logger)
				if err != nil {
					return err
				}
				dctx = resolved
				info.Branch = dctx.Branch
				sourceRoot = cfg.Source.Destination
				if !filepath.IsAbs(sourceRoot) {
					sourceRoot = filepath.Join(dctx.WorkRoot, sourceRoot)
				}
				return nil
			},
		},
		{
			Label:       StageVerify,
			Reached:     orchestrator.ReachedVerified,
			FailureCode: exitcodes.PrerequisiteMissing,
			Run: func(sctx context.Context) error {
				return prereq.Verify(sctx, d.Runner, logger, prereq.Defaults())
			},
		},
		{
			Label:       StageDNSWait,
			Reached:     orchestrator.ReachedNetworkOk,
			FailureCode: exitcodes.DNSTimeout,
			Run: func(sctx context.Context) error {
				attempts, err := waiter.AwaitResolvable(sctx, cfg.Remote.Host, cfg.DNSPolicy())
				metrics.AddDNSAttempts(attempts)
				return err
			},
		},
		{
			Label:       StageAcquire,
			Reached:     orchestrator.ReachedSourceAcquired,
			FailureCode: exitcodes.CloneExhausted,
			Mutating:    true,
			Run: func(sctx context.Context) error {
				res, err := acquirer.Acquire(sctx, cfg.Remote.URL, dctx.Branch, sourceRoot, cfg.Source.MarkerFile, cfg.ClonePolicy())
				if err != nil {
					var aerr *acquire.AcquisitionError
					if errors.As(err, &aerr) {
						metrics.AddCloneAttempts(aerr.Attempts)
					}
					return err
				}
				metrics.AddCloneAttempts(res.Attempts)
				info.CommitRef = res.CommitRef
				return nil
			},
		},
		{
			Label:       StageInstallDeps,
			Reached:     orchestrator.ReachedDependenciesInstalled,
			FailureCode: exitcodes.DependencyInstall,
			Mutating:    true,
			Run: func(sctx context.Context) error {
				return installer.Install(sctx, sourceRoot, cfg.Dependencies.Manifest)
			},
		},
		{
			Label:       StageInstall,
			Reached:     orchestrator.ReachedInstalled,
			FailureCode: exitcodes.InstallerFailure,
			Mutating:    true,
			Run: func(sctx context.Context) error {
				return install.Run(sctx, d.Runner, logger, sourceRoot, cfg.Installer.Command)
			},
		},
	}

	o := &orchestrator.Orchestrator{Logger: logger, DryRun: opt.DryRun}
	outcome, results := o.Run(ctx, stages)
	return outcome, results, info
}
