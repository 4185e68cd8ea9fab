package orchestrator

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"gitstrap/internal/exitcodes"
	"gitstrap/internal/install"
	"gitstrap/internal/logging"
)

type stageSpy struct {
	ran []string
}

func (s *stageSpy) ok(label string, reached StageReached) Stage {
	return Stage{
		Label:   label,
		Reached: reached,
		Run: func(context.Context) error {
			s.ran = append(s.ran, label)
			return nil
		},
	}
}

func (s *stageSpy) failing(label string, reached StageReached, err error, code int) Stage {
	return Stage{
		Label:       label,
		Reached:     reached,
		FailureCode: code,
		Run: func(context.Context) error {
			s.ran = append(s.ran, label)
			return err
		},
	}
}

// TestAllStagesSucceed verifies the zero aggregate and furthest milestone
func TestAllStagesSucceed(t *testing.T) {
	spy := &stageSpy{}
	o := &Orchestrator{Logger: logging.Discard()}

	outcome, results := o.Run(context.Background(), []Stage{
		spy.ok("resolve", ReachedResolved),
		spy.ok("verify", ReachedVerified),
		spy.ok("install", ReachedInstalled),
	})

	if outcome.ExitCode != exitcodes.Success {
		t.Errorf("ExitCode = %d, want 0", outcome.ExitCode)
	}
	if outcome.StageReached != ReachedInstalled {
		t.Errorf("StageReached = %s, want Installed", outcome.StageReached)
	}
	entries := results.Entries()
	if len(entries) != 3 {
		t.Fatalf("result set has %d entries, want 3", len(entries))
	}
	for _, e := range entries {
		if e.ExitCode != 0 {
			t.Errorf("entry %s = %d, want 0", e.Label, e.ExitCode)
		}
	}
}

// TestFailureShortCircuits verifies later stages never run but the
// reporter still produces the outcome
func TestFailureShortCircuits(t *testing.T) {
	spy := &stageSpy{}
	boom := errors.New("dns never came up")
	o := &Orchestrator{Logger: logging.Discard()}

	outcome, results := o.Run(context.Background(), []Stage{
		spy.ok("resolve", ReachedResolved),
		spy.failing("dns-wait", ReachedNetworkOk, boom, exitcodes.DNSTimeout),
		spy.ok("acquire", ReachedSourceAcquired),
	})

	if got := strings.Join(spy.ran, ","); got != "resolve,dns-wait" {
		t.Errorf("stages run = %s, want resolve,dns-wait", got)
	}
	if outcome.ExitCode != exitcodes.DNSTimeout {
		t.Errorf("ExitCode = %d, want %d", outcome.ExitCode, exitcodes.DNSTimeout)
	}
	if outcome.StageReached != ReachedResolved {
		t.Errorf("StageReached = %s, want Resolved", outcome.StageReached)
	}

	entries := results.Entries()
	if len(entries) != 2 {
		t.Fatalf("result set has %d entries, want 2", len(entries))
	}
	if entries[1].ExitCode != exitcodes.DNSTimeout {
		t.Errorf("failed entry code = %d, want %d", entries[1].ExitCode, exitcodes.DNSTimeout)
	}
}

// TestAggregateMatchesFirstNonZero verifies first failure wins
func TestAggregateMatchesFirstNonZero(t *testing.T) {
	r := &ResultSet{}
	if r.Aggregate() != 0 {
		t.Error("empty result set should aggregate to 0")
	}

	r.Append("resolve", 0)
	r.Append("dns-wait", exitcodes.DNSTimeout)
	r.Append("acquire", exitcodes.CloneExhausted)

	if got := r.Aggregate(); got != exitcodes.DNSTimeout {
		t.Errorf("Aggregate = %d, want first failure %d", got, exitcodes.DNSTimeout)
	}
}

// TestTypedErrorCodeWins verifies a stage error carrying its own code
// overrides the stage's fallback code
func TestTypedErrorCodeWins(t *testing.T) {
	spy := &stageSpy{}
	o := &Orchestrator{Logger: logging.Discard()}

	outcome, _ := o.Run(context.Background(), []Stage{
		spy.failing("install", ReachedInstalled, &install.InstallerError{RawCode: 9}, exitcodes.AggregateMismatch),
	})

	if outcome.ExitCode != exitcodes.InstallerFailure {
		t.Errorf("ExitCode = %d, want %d", outcome.ExitCode, exitcodes.InstallerFailure)
	}
}

// TestInstallerFailureLogsRawCode covers the scenario where the
// downstream installer exits 9: the aggregate is the documented
// installer-failure code and the log's final line carries the raw 9
func TestInstallerFailureLogsRawCode(t *testing.T) {
	dir := t.TempDir()
	logger, err := logging.New(dir)
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	spy := &stageSpy{}
	o := &Orchestrator{Logger: logger}
	outcome, _ := o.Run(context.Background(), []Stage{
		spy.failing("install", ReachedInstalled, &install.InstallerError{RawCode: 9}, 0),
	})
	if err := logger.Close(); err != nil {
		t.Fatalf("close log: %v", err)
	}

	if outcome.ExitCode != exitcodes.InstallerFailure {
		t.Fatalf("ExitCode = %d, want %d", outcome.ExitCode, exitcodes.InstallerFailure)
	}
	if outcome.LogPath == "" {
		t.Fatal("outcome has no log path")
	}

	data, err := os.ReadFile(outcome.LogPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	last := lines[len(lines)-1]
	if !strings.Contains(last, "exited 9") {
		t.Errorf("final log line %q missing raw installer code", last)
	}
	if !strings.Contains(last, "exit code 16") {
		t.Errorf("final log line %q missing aggregate code", last)
	}
}

// TestZeroCodeFailureBecomesMismatch verifies a stage that fails
// without a usable code cannot corrupt the aggregate invariant
func TestZeroCodeFailureBecomesMismatch(t *testing.T) {
	spy := &stageSpy{}
	o := &Orchestrator{Logger: logging.Discard()}

	outcome, results := o.Run(context.Background(), []Stage{
		spy.failing("verify", ReachedVerified, errors.New("undisciplined failure"), 0),
	})

	if outcome.ExitCode != exitcodes.AggregateMismatch {
		t.Errorf("ExitCode = %d, want %d", outcome.ExitCode, exitcodes.AggregateMismatch)
	}
	if results.Aggregate() != exitcodes.AggregateMismatch {
		t.Errorf("Aggregate = %d, want %d", results.Aggregate(), exitcodes.AggregateMismatch)
	}
}

// TestDryRunSkipsMutatingStages verifies non-mutating stages still run
func TestDryRunSkipsMutatingStages(t *testing.T) {
	spy := &stageSpy{}
	o := &Orchestrator{Logger: logging.Discard(), DryRun: true}

	outcome, results := o.Run(context.Background(), []Stage{
		spy.ok("resolve", ReachedResolved),
		{Label: "acquire", Reached: ReachedSourceAcquired, Mutating: true, Run: func(context.Context) error {
			t.Error("mutating stage ran under dry-run")
			return nil
		}},
		spy.ok("verify", ReachedVerified),
	})

	if got := strings.Join(spy.ran, ","); got != "resolve,verify" {
		t.Errorf("stages run = %s, want resolve,verify", got)
	}
	if outcome.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", outcome.ExitCode)
	}
	if len(results.Entries()) != 2 {
		t.Errorf("result set has %d entries, want 2", len(results.Entries()))
	}
}

// TestResultSetEntriesAreACopy verifies callers cannot mutate recorded
// history through the returned slice
func TestResultSetEntriesAreACopy(t *testing.T) {
	r := &ResultSet{}
	r.Append("resolve", 0)

	entries := r.Entries()
	entries[0].ExitCode = 99

	if r.Aggregate() != 0 {
		t.Error("mutating the returned slice changed the result set")
	}
}
