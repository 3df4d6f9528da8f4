package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	syncErrors "github.com/bashhack/gitfilesync/internal/errors"
)

// CommandExecutor defines an interface for executing commands
type CommandExecutor interface {
	// ExecuteWithContext runs a command and reports its failure, if any
	ExecuteWithContext(ctx context.Context, name string, args ...string) error

	// ExecuteWithContextAndOutput runs a command and returns its stdout
	ExecuteWithContextAndOutput(ctx context.Context, name string, args ...string) (string, error)
}

// ExecExecutor is the default implementation of CommandExecutor
// that delegates to the os/exec package
type ExecExecutor struct {
	// Env, when non-nil, is appended to the inherited environment.
	Env []string
}

// NewExecExecutor creates a new ExecExecutor
func NewExecExecutor() *ExecExecutor {
	return &ExecExecutor{}
}

// ExecuteWithContext implements CommandExecutor.ExecuteWithContext
func (e *ExecExecutor) ExecuteWithContext(ctx context.Context, name string, args ...string) error {
	_, err := e.run(ctx, name, args)
	return err
}

// ExecuteWithContextAndOutput implements CommandExecutor.ExecuteWithContextAndOutput
func (e *ExecExecutor) ExecuteWithContextAndOutput(ctx context.Context, name string, args ...string) (string, error) {
	return e.run(ctx, name, args)
}

func (e *ExecExecutor) run(ctx context.Context, name string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if e.Env != nil {
		cmd.Env = append(cmd.Environ(), e.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// git reports some failures ("nothing to commit") on stdout only
		output := strings.TrimSpace(stderr.String())
		if output == "" {
			output = strings.TrimSpace(stdout.String())
		}
		wrapped := fmt.Errorf("%w: %w", syncErrors.ErrGitOperationFailed, err)
		return "", syncErrors.NewGitError(operationOf(args), args, wrapped, output)
	}

	return stdout.String(), nil
}

// operationOf returns the git subcommand in args, skipping global options
// such as "-C <path>" and "-c key=value".
func operationOf(args []string) string {
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "-C" || arg == "-c":
			i++
		case strings.HasPrefix(arg, "-"):
		default:
			return arg
		}
	}
	return "command"
}

// exitCode extracts the process exit code from an executor error, or -1.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if syncErrors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
