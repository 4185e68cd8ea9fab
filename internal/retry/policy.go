package retry

import (
	"errors"
	"fmt"
	"time"
)

var (
	errNoAttempts    = errors.New("max_attempts must be at least 1")
	errNegativeDelay = errors.New("delay cannot be negative")
)

// Policy bounds a retry loop: a fixed number of attempts separated by a
// fixed delay. There is deliberately no exponential backoff; bootstrap
// contexts expect the network to come up shortly after provisioning, so
// constant-interval polling with a hard ceiling is the right shape.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration

	// TotalTimeout optionally caps the whole loop in wall-clock time on
	// top of the attempt ceiling. Zero means no wall-clock cap.
	TotalTimeout time.Duration
}

func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry policy: %w", errNoAttempts)
	}
	if p.Delay < 0 {
		return fmt.Errorf("retry policy: %w", errNegativeDelay)
	}
	return nil
}

// Ceiling returns the worst-case duration the policy allows, ignoring
// the time the attempts themselves take.
func (p Policy) Ceiling() time.Duration {
	if p.MaxAttempts < 1 {
		return 0
	}
	return time.Duration(p.MaxAttempts-1) * p.Delay
}
