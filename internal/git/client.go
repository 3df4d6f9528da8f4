package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/shlex"

	"github.com/bashhack/gitfilesync/internal/constants"
	syncErrors "github.com/bashhack/gitfilesync/internal/errors"
)

// Client is the set of version-control operations the sync loop needs.
// Every method acts on the Repository the client was opened on.
type Client interface {
	// IsRepository reports whether the handle points inside a working tree.
	IsRepository(ctx context.Context) (bool, error)

	// Remotes lists the configured remote names.
	Remotes(ctx context.Context) ([]string, error)

	// CurrentBranch resolves the symbolic HEAD to its short branch name.
	CurrentBranch(ctx context.Context) (string, error)

	// Fetch updates the remote-tracking refs of the remote.
	Fetch(ctx context.Context) error

	// Divergence counts commits on each side of HEAD...<remote>/<branch>.
	Divergence(ctx context.Context, branch string) (Divergence, error)

	// Pull merges <remote> <branch> into the working tree.
	Pull(ctx context.Context, branch string) error

	// Status returns the porcelain working-tree status.
	Status(ctx context.Context) (Status, error)

	// StageAll stages every change, including untracked files and deletions.
	StageAll(ctx context.Context) error

	// Commit records the index with message.
	Commit(ctx context.Context, message string) error

	// Push sends branch to the remote.
	Push(ctx context.Context, branch string) error

	// UserName reads the configured user.name.
	UserName(ctx context.Context) (string, error)
}

// Repository is the handle every Client operation is bound to.
type Repository struct {
	// Path is the absolute path of the working copy.
	Path string

	// Remote is the remote to sync with.
	Remote string
}

// NewRepository resolves path to an absolute handle on the default remote.
func NewRepository(path string) (Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Repository{}, syncErrors.Wrap(err, "failed to resolve repository path")
	}
	return Repository{Path: abs, Remote: constants.DefaultRemote}, nil
}

// String returns the repository path.
func (r Repository) String() string {
	return r.Path
}

// Divergence is the result of comparing HEAD with the remote-tracking branch.
type Divergence struct {
	// Ahead counts commits reachable from HEAD but not from the remote branch.
	Ahead int

	// Behind counts commits reachable from the remote branch but not from HEAD.
	Behind int
}

// InSync reports whether neither side has commits the other lacks.
func (d Divergence) InSync() bool {
	return d.Ahead == 0 && d.Behind == 0
}

func (d Divergence) String() string {
	return fmt.Sprintf("ahead %d, behind %d", d.Ahead, d.Behind)
}

// Backend names accepted by Open.
const (
	BackendCLI   = "cli"
	BackendGoGit = "gogit"
)

// Backends lists the valid backend names.
var Backends = []string{BackendCLI, BackendGoGit}

// Options selects and configures a Client implementation.
type Options struct {
	// Backend is BackendCLI (default) or BackendGoGit.
	Backend string

	// GitCommand is the shell-style command line used to invoke git by
	// the CLI backend, e.g. "git -c core.quotepath=off". Defaults to "git".
	GitCommand string

	// Executor overrides the CLI backend's command executor.
	Executor CommandExecutor
}

// Open returns a Client for repo.
func Open(repo Repository, opts Options) (Client, error) {
	switch opts.Backend {
	case "", BackendCLI:
		command, err := ParseCommand(opts.GitCommand)
		if err != nil {
			return nil, err
		}
		executor := opts.Executor
		if executor == nil {
			executor = NewExecExecutor()
		}
		return NewCLIClientWithDeps(repo, command, executor), nil
	case BackendGoGit:
		return NewGoGitClient(repo), nil
	default:
		return nil, syncErrors.NewConfigError("backend", opts.Backend,
			syncErrors.Wrapf(syncErrors.ErrInvalidConfiguration, "expected one of %s", strings.Join(Backends, ", ")))
	}
}

// ParseCommand splits a shell-style git command line. An empty line means "git".
func ParseCommand(line string) ([]string, error) {
	if strings.TrimSpace(line) == "" {
		return []string{"git"}, nil
	}
	command, err := shlex.Split(line)
	if err != nil {
		return nil, syncErrors.NewConfigError("git-command", line,
			syncErrors.Wrap(syncErrors.ErrInvalidConfiguration, err.Error()))
	}
	if len(command) == 0 {
		return []string{"git"}, nil
	}
	return command, nil
}
