package netwait

import (
	"context"
	"errors"
)

var errNoSuchHost = errors.New("no such host")

// FakeResolver implements HostResolver for testing
// Fails the first FailuresBeforeOK lookups, then resolves
type FakeResolver struct {
	FailuresBeforeOK int
	Lookups          int
	Addrs            []string
}

func (f *FakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	f.Lookups++
	if f.Lookups <= f.FailuresBeforeOK {
		return nil, errNoSuchHost
	}
	if len(f.Addrs) == 0 {
		return []string{"192.0.2.10"}, nil
	}
	return f.Addrs, nil
}
