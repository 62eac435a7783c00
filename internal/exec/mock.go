package exec

import (
	"context"
	"sync"
)

// Response is the canned result for a mocked command.
type Response struct {
	Stdout []byte
	Stderr []byte
	Err    error
}

// Matcher decides whether a rule applies to an invocation.
type Matcher func(dir, name string, args []string) bool

// rule pairs a matcher with its response.
type rule struct {
	match    Matcher
	response Response
}

// Call records one command invocation for verification.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// MockRunner returns pre-recorded responses for commands. Rules are
// matched in registration order; unmatched commands succeed with empty
// output, which keeps test setup focused on the interactions that matter.
type MockRunner struct {
	mu    sync.Mutex
	rules []rule
	calls []Call
}

// NewMockRunner creates an empty MockRunner.
func NewMockRunner() *MockRunner {
	return &MockRunner{}
}

// AddRule registers a matcher with its response.
func (m *MockRunner) AddRule(match Matcher, response Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rule{match: match, response: response})
}

// AddExact registers a rule matching a command name and argument list
// exactly, in any directory.
func (m *MockRunner) AddExact(name string, args []string, response Response) {
	m.AddRule(func(_, n string, a []string) bool {
		if n != name || len(a) != len(args) {
			return false
		}
		for i, arg := range args {
			if a[i] != arg {
				return false
			}
		}
		return true
	}, response)
}

// AddPrefix registers a rule matching a command whose arguments start
// with the given prefix.
func (m *MockRunner) AddPrefix(name string, prefix []string, response Response) {
	m.AddRule(func(_, n string, a []string) bool {
		if n != name || len(a) < len(prefix) {
			return false
		}
		for i, arg := range prefix {
			if a[i] != arg {
				return false
			}
		}
		return true
	}, response)
}

// Calls returns a copy of all recorded invocations.
func (m *MockRunner) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]Call, len(m.calls))
	copy(calls, m.calls)
	return calls
}

func (m *MockRunner) respond(dir, name string, args []string) Response {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Dir: dir, Name: name, Args: args})
	for _, r := range m.rules {
		if r.match(dir, name, args) {
			return r.response
		}
	}
	return Response{}
}

// Run returns the matched response's stdout and stderr.
func (m *MockRunner) Run(_ context.Context, dir string, name string, args ...string) (stdout, stderr []byte, err error) {
	resp := m.respond(dir, name, args)
	return resp.Stdout, resp.Stderr, resp.Err
}

// CombinedOutput returns the matched response's stdout followed by stderr.
func (m *MockRunner) CombinedOutput(_ context.Context, dir string, name string, args ...string) ([]byte, error) {
	resp := m.respond(dir, name, args)
	combined := append(append([]byte{}, resp.Stdout...), resp.Stderr...)
	return combined, resp.Err
}

var _ Runner = (*MockRunner)(nil)
