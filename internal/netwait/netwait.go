package netwait

import (
	"context"
	"fmt"

	"gitstrap/internal/exitcodes"
	"gitstrap/internal/logging"
	"gitstrap/internal/retry"
)

// HostResolver abstracts DNS lookups; *net.Resolver satisfies it
type HostResolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// DNSTimeoutError reports a host that never became resolvable within
// the policy's attempt ceiling
type DNSTimeoutError struct {
	Host     string
	Attempts int
}

func (e *DNSTimeoutError) Error() string {
	return fmt.Sprintf("host %s not resolvable after %d attempts", e.Host, e.Attempts)
}

func (e *DNSTimeoutError) ExitCode() int {
	return exitcodes.DNSTimeout
}

// Waiter polls name resolution for a remote host before any network
// operation is attempted against it
type Waiter struct {
	Resolver HostResolver
	Sleeper  retry.Sleeper
	Logger   *logging.Logger
}

// AwaitResolvable attempts resolution up to policy.MaxAttempts times
// with the policy's fixed delay in between. Fixed interval is
// deliberate: freshly provisioned hosts usually gain DNS within the
// window, and constant probing keeps the ceiling predictable.
func (w *Waiter) AwaitResolvable(ctx context.Context, host string, policy retry.Policy) (int, error) {
	if err := policy.Validate(); err != nil {
		return 0, err
	}
	if policy.TotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.TotalTimeout)
		defer cancel()
	}

	var attempts int
	for attempts = 1; attempts <= policy.MaxAttempts; attempts++ {
		addrs, err := w.Resolver.LookupHost(ctx, host)
		if err == nil && len(addrs) > 0 {
			w.Logger.Infof("netwait", "%s resolved to %s on attempt %d", host, addrs[0], attempts)
			return attempts, nil
		}

		w.Logger.Warnf("netwait", "attempt %d/%d: %s not resolvable: %v", attempts, policy.MaxAttempts, host, err)
		if attempts == policy.MaxAttempts {
			break
		}
		if serr := w.Sleeper.Sleep(ctx, policy.Delay); serr != nil {
			w.Logger.Errorf("netwait", "wait for %s aborted: %v", host, serr)
			return attempts, &DNSTimeoutError{Host: host, Attempts: attempts}
		}
	}

	w.Logger.Errorf("netwait", "%s never resolved within %d attempts (%s apart)", host, policy.MaxAttempts, policy.Delay)
	return policy.MaxAttempts, &DNSTimeoutError{Host: host, Attempts: policy.MaxAttempts}
}
