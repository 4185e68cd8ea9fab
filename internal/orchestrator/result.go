package orchestrator

import "time"

// StageReached names the furthest milestone a run completed
type StageReached int

const (
	ReachedStart StageReached = iota
	ReachedResolved
	ReachedVerified
	ReachedNetworkOk
	ReachedSourceAcquired
	ReachedDependenciesInstalled
	ReachedInstalled
)

func (s StageReached) String() string {
	switch s {
	case ReachedResolved:
		return "Resolved"
	case ReachedVerified:
		return "Verified"
	case ReachedNetworkOk:
		return "NetworkOk"
	case ReachedSourceAcquired:
		return "SourceAcquired"
	case ReachedDependenciesInstalled:
		return "DependenciesInstalled"
	case ReachedInstalled:
		return "Installed"
	default:
		return "Start"
	}
}

// OperationResult is one tracked operation's exit status. Entries are
// appended by every executed stage, never removed, and read-only once
// appended.
type OperationResult struct {
	Label     string    `json:"label"`
	ExitCode  int       `json:"exit_code"`
	Timestamp time.Time `json:"timestamp"`
}

// ResultSet is the ordered record the aggregate verdict is computed
// from. The run's final status is non-zero iff at least one entry here
// is non-zero.
type ResultSet struct {
	entries []OperationResult
}

func (r *ResultSet) Append(label string, exitCode int) {
	r.entries = append(r.entries, OperationResult{
		Label:     label,
		ExitCode:  exitCode,
		Timestamp: time.Now(),
	})
}

// Entries returns a copy; the underlying sequence stays append-only
func (r *ResultSet) Entries() []OperationResult {
	out := make([]OperationResult, len(r.entries))
	copy(out, r.entries)
	return out
}

// Aggregate returns 0 only if every recorded result is 0; otherwise the
// first non-zero entry's code. First failure wins when several stages
// failed.
func (r *ResultSet) Aggregate() int {
	for _, e := range r.entries {
		if e.ExitCode != 0 {
			return e.ExitCode
		}
	}
	return 0
}

// Outcome is the terminal value of one bootstrap run, produced exactly
// once and handed back to the shell wrapper or CI system
type Outcome struct {
	StageReached StageReached `json:"stage_reached"`
	ExitCode     int          `json:"exit_code"`
	LogPath      string       `json:"log_path"`
}
