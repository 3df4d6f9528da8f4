package git

import (
	"context"
	"strings"
)

// MockCommandExecutor records calls and answers them by git subcommand.
type MockCommandExecutor struct {
	Calls []MockCall

	// Responses maps a subcommand (e.g. "rev-list") to its canned result.
	Responses map[string]MockResponse
}

// MockCall is a single recorded invocation.
type MockCall struct {
	Name string
	Args []string
}

// MockResponse is what the mock returns for a subcommand.
type MockResponse struct {
	Output string
	Err    error
}

// NewMockCommandExecutor creates a new mock executor
func NewMockCommandExecutor() *MockCommandExecutor {
	return &MockCommandExecutor{Responses: make(map[string]MockResponse)}
}

// ExecuteWithContext implements the CommandExecutor interface
func (m *MockCommandExecutor) ExecuteWithContext(ctx context.Context, name string, args ...string) error {
	_, err := m.ExecuteWithContextAndOutput(ctx, name, args...)
	return err
}

// ExecuteWithContextAndOutput implements the CommandExecutor interface
func (m *MockCommandExecutor) ExecuteWithContextAndOutput(_ context.Context, name string, args ...string) (string, error) {
	m.Calls = append(m.Calls, MockCall{Name: name, Args: args})
	resp := m.Responses[operationOf(args)]
	return resp.Output, resp.Err
}

// Subcommands returns the recorded calls as "op arg arg" strings without the -C prefix.
func (m *MockCommandExecutor) Subcommands() []string {
	out := make([]string, 0, len(m.Calls))
	for _, call := range m.Calls {
		args := call.Args
		for i, arg := range args {
			if arg == "-C" && i+1 < len(args) {
				args = args[i+2:]
				break
			}
		}
		out = append(out, strings.Join(args, " "))
	}
	return out
}
