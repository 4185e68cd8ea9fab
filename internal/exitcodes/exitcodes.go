package exitcodes

// Exit codes for the gitstrap bootstrap orchestrator
// These codes form the operational contract with CI/CD wrappers and
// operators who grep for them; they must stay stable across releases
const (
	Success       = 0 // Every tracked operation finished with status 0
	InvalidConfig = 2 // Orchestrator configuration file invalid

	EnvironmentResolution = 10 // Deployment root ambiguous, missing, or unreadable
	PrerequisiteMissing   = 11 // A required tool failed its probe (generic fallback)
	DNSTimeout            = 12 // Remote host never became resolvable
	CloneExhausted        = 13 // Source clone failed on every attempt
	IncompleteSourceTree  = 14 // Clone succeeded but the installer entrypoint is missing
	DependencyInstall     = 15 // Package manager failed or manifest missing
	InstallerFailure      = 16 // Downstream installer exited non-zero
	AggregateMismatch     = 17 // Result set and stage outcomes disagree

	// Dedicated prerequisite codes, one per probe, so a wrapper can tell
	// "git missing" from "pip missing" without parsing the log
	PrereqGit    = 20
	PrereqPython = 21
	PrereqPip    = 22
)
