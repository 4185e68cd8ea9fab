package execx

import "context"

// Result holds the observable outcome of one external process invocation
type Result struct {
	ExitCode int
	Output   string // combined stdout+stderr, destined for the run log only
}

// Runner abstracts external process execution
// Enables mocking in tests to prove retry loops and probes without
// spawning real tools
type Runner interface {
	// Run executes name with args and waits for it to exit. A non-zero
	// exit status is reported through Result.ExitCode, not through err;
	// err is reserved for failures to start or wait on the process.
	Run(ctx context.Context, dir string, name string, args ...string) (Result, error)
}
