package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitstrap/internal/exitcodes"
	"gitstrap/internal/logging"
	"gitstrap/internal/metrics"
)

// Stage is one tracked step of the bootstrap. Stages run strictly in
// order; there is no retry across stages, only inside the ones that
// carry their own bounded retry loops.
type Stage struct {
	Label       string
	Reached     StageReached // milestone recorded when the stage succeeds
	FailureCode int          // dedicated code when Run's error carries none
	Mutating    bool         // skipped under dry-run
	Run         func(ctx context.Context) error
}

// AggregateError reports a result set that disagrees with the stage
// outcomes, which means a stage misreported its own status
type AggregateError struct {
	Label string
}

func (e *AggregateError) Error() string {
	return "result set inconsistent at stage " + e.Label
}

func (e *AggregateError) ExitCode() int {
	return exitcodes.AggregateMismatch
}

// coded is satisfied by every stage error in the taxonomy
type coded interface {
	ExitCode() int
}

// Orchestrator executes the stage sequence and reports one aggregate
// verdict. A failing stage short-circuits the stages after it, but the
// reporter always runs so the log and exit code are produced either way.
type Orchestrator struct {
	Logger *logging.Logger
	DryRun bool
}

// Run walks the state machine Start -> ... -> Reporting and returns the
// terminal outcome plus the full result set for persistence
func (o *Orchestrator) Run(ctx context.Context, stages []Stage) (Outcome, *ResultSet) {
	results := &ResultSet{}
	reached := ReachedStart
	var firstErr error
	var failedLabel string

	for _, stage := range stages {
		if o.DryRun && stage.Mutating {
			o.Logger.Infof("orchestrator", "dry-run: skipping %s", stage.Label)
			continue
		}

		o.Logger.Infof("orchestrator", "-> %s", stage.Label)
		start := time.Now()
		err := stage.Run(ctx)
		elapsed := time.Since(start)
		metrics.ObserveStage(stage.Label, elapsed)

		if err == nil {
			results.Append(stage.Label, 0)
			reached = stage.Reached
			o.Logger.Infof("orchestrator", "%s ok in %.3fs", stage.Label, elapsed.Seconds())
			continue
		}

		code := resolveCode(err, stage.FailureCode)
		if code == 0 {
			// A stage that failed without a non-zero code would corrupt
			// the aggregate invariant; surface the mismatch instead
			err = &AggregateError{Label: stage.Label}
			code = exitcodes.AggregateMismatch
		}
		results.Append(stage.Label, code)
		metrics.RecordStageFailure(stage.Label)
		o.Logger.Errorf("orchestrator", "%s failed: %v", stage.Label, err)

		firstErr = err
		failedLabel = stage.Label
		break
	}

	return o.report(results, reached, firstErr, failedLabel), results
}

// report is the sole path to a terminal state; it writes the structured
// summary before the outcome is returned, even on fatal early exit
func (o *Orchestrator) report(results *ResultSet, reached StageReached, firstErr error, failedLabel string) Outcome {
	for _, e := range results.Entries() {
		o.Logger.Infof("report", "result %s: exit %d at %s", e.Label, e.ExitCode, e.Timestamp.Format(time.RFC3339))
	}

	aggregate := results.Aggregate()
	if (firstErr != nil) != (aggregate != 0) {
		o.Logger.Errorf("report", "result set and stage outcomes disagree (aggregate %d, failure %v)", aggregate, firstErr)
		aggregate = exitcodes.AggregateMismatch
	}

	outcome := Outcome{
		StageReached: reached,
		ExitCode:     aggregate,
		LogPath:      o.Logger.Path(),
	}
	metrics.RecordRun(aggregate)

	if aggregate == 0 {
		o.Logger.Infof("report", "run succeeded: stage %s, aggregate exit code 0", reached)
	} else {
		o.Logger.Errorf("report", "run failed at %s: %s; aggregate exit code %d", failedLabel, errMessage(firstErr), aggregate)
	}
	return outcome
}

func resolveCode(err error, fallback int) int {
	var c coded
	if errors.As(err, &c) {
		return c.ExitCode()
	}
	return fallback
}

func errMessage(err error) string {
	if err == nil {
		return "unknown failure"
	}
	return fmt.Sprintf("%v", err)
}
