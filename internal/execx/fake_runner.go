package execx

import (
	"context"
	"strings"
)

// Call records one invocation seen by the fake
type Call struct {
	Dir  string
	Name string
	Args []string
}

// Response scripts the outcome of one fake invocation
type Response struct {
	Result Result
	Err    error
}

// FakeRunner implements Runner for testing
// Records every call and replays scripted responses in order; once the
// script is exhausted it keeps returning success
type FakeRunner struct {
	Calls     []Call
	Responses []Response
}

func (f *FakeRunner) Run(_ context.Context, dir string, name string, args ...string) (Result, error) {
	f.Calls = append(f.Calls, Call{Dir: dir, Name: name, Args: args})
	if len(f.Responses) == 0 {
		return Result{}, nil
	}
	r := f.Responses[0]
	f.Responses = f.Responses[1:]
	return r.Result, r.Err
}

// CommandLines renders recorded calls as "name arg arg" strings for
// assertions that only care about what was executed
func (f *FakeRunner) CommandLines() []string {
	lines := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		lines = append(lines, strings.TrimSpace(c.Name+" "+strings.Join(c.Args, " ")))
	}
	return lines
}
