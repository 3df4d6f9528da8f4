package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	syncErrors "github.com/bashhack/gitfilesync/internal/errors"
)

// CLIClient implements Client by running the git executable.
type CLIClient struct {
	repo     Repository
	command  []string
	executor CommandExecutor
}

// NewCLIClient creates a CLIClient that runs "git" through an ExecExecutor.
func NewCLIClient(repo Repository) *CLIClient {
	return NewCLIClientWithDeps(repo, []string{"git"}, NewExecExecutor())
}

// NewCLIClientWithDeps creates a CLIClient with a custom command prefix and executor.
func NewCLIClientWithDeps(repo Repository, command []string, executor CommandExecutor) *CLIClient {
	if len(command) == 0 {
		command = []string{"git"}
	}
	return &CLIClient{
		repo:     repo,
		command:  command,
		executor: executor,
	}
}

// IsRepository checks that `git status` succeeds and prints something.
// Exit code 128 (git's fatal error) is treated as "not a repository";
// other failures, such as a missing git binary, are returned.
func (c *CLIClient) IsRepository(ctx context.Context) (bool, error) {
	output, err := c.output(ctx, "status")
	if err != nil {
		if exitCode(err) == 128 {
			return false, nil
		}
		return false, err
	}
	return strings.TrimSpace(output) != "", nil
}

// Remotes runs `git remote`.
func (c *CLIClient) Remotes(ctx context.Context) ([]string, error) {
	output, err := c.output(ctx, "remote")
	if err != nil {
		return nil, err
	}
	return strings.Fields(output), nil
}

// CurrentBranch runs `git symbolic-ref --short HEAD`.
func (c *CLIClient) CurrentBranch(ctx context.Context) (string, error) {
	output, err := c.output(ctx, "symbolic-ref", "--short", "HEAD")
	if err != nil {
		if exitCode(err) == 128 {
			return "", syncErrors.Wrap(syncErrors.ErrDetachedHead, err.Error())
		}
		return "", err
	}

	branch := strings.TrimSpace(output)
	if branch == "" {
		return "", syncErrors.ErrDetachedHead
	}
	return branch, nil
}

// Fetch runs `git fetch <remote>`.
func (c *CLIClient) Fetch(ctx context.Context) error {
	if err := c.run(ctx, "fetch", c.repo.Remote); err != nil {
		return syncErrors.Wrap(syncErrors.ErrFetchFailed, err.Error())
	}
	return nil
}

// Divergence runs `git rev-list --left-right --count HEAD...<remote>/<branch>`.
// A branch without a remote-tracking ref has never been pushed: it is
// behind by nothing and ahead by every commit the remote lacks.
func (c *CLIClient) Divergence(ctx context.Context, branch string) (Divergence, error) {
	trackingRef := fmt.Sprintf("refs/remotes/%s/%s", c.repo.Remote, branch)
	refs, err := c.output(ctx, "for-each-ref", "--format=%(refname)", trackingRef)
	if err != nil {
		return Divergence{}, err
	}
	if strings.TrimSpace(refs) == "" {
		return c.unpublished(ctx)
	}

	rangeSpec := fmt.Sprintf("HEAD...%s/%s", c.repo.Remote, branch)
	output, err := c.output(ctx, "rev-list", "--left-right", "--count", rangeSpec)
	if err != nil {
		return Divergence{}, err
	}
	return parseLeftRightCount(output)
}

// unpublished counts the commits on HEAD that no <remote>/* ref contains.
func (c *CLIClient) unpublished(ctx context.Context) (Divergence, error) {
	output, err := c.output(ctx, "rev-list", "--count", "HEAD", "--not", "--remotes="+c.repo.Remote)
	if err != nil {
		return Divergence{}, err
	}
	ahead, err := strconv.Atoi(strings.TrimSpace(output))
	if err != nil {
		return Divergence{}, fmt.Errorf("invalid ahead count %q: %w", strings.TrimSpace(output), err)
	}
	return Divergence{Ahead: ahead}, nil
}

func parseLeftRightCount(output string) (Divergence, error) {
	fields := strings.Fields(output)
	if len(fields) != 2 {
		return Divergence{}, fmt.Errorf("unexpected rev-list count output %q", strings.TrimSpace(output))
	}

	ahead, err := strconv.Atoi(fields[0])
	if err != nil {
		return Divergence{}, fmt.Errorf("invalid ahead count %q: %w", fields[0], err)
	}
	behind, err := strconv.Atoi(fields[1])
	if err != nil {
		return Divergence{}, fmt.Errorf("invalid behind count %q: %w", fields[1], err)
	}
	return Divergence{Ahead: ahead, Behind: behind}, nil
}

// Pull runs `git pull --no-rebase --no-edit <remote> <branch>`. A pull that
// stops on conflicts returns an error wrapping ErrMergeConflict; the
// conflict markers stay in the working tree.
func (c *CLIClient) Pull(ctx context.Context, branch string) error {
	err := c.run(ctx, "pull", "--no-rebase", "--no-edit", c.repo.Remote, branch)
	if err == nil {
		return nil
	}

	unmerged, diffErr := c.output(ctx, "diff", "--name-only", "--diff-filter=U")
	if diffErr == nil && strings.TrimSpace(unmerged) != "" {
		paths := strings.Fields(unmerged)
		return syncErrors.NewGitError("pull", []string{c.repo.Remote, branch},
			syncErrors.Wrap(syncErrors.ErrMergeConflict, strings.Join(paths, ", ")), "")
	}
	return err
}

// Status runs `git status --porcelain`.
func (c *CLIClient) Status(ctx context.Context) (Status, error) {
	output, err := c.output(ctx, "status", "--porcelain")
	if err != nil {
		return Status{}, err
	}
	return ParseStatus(output)
}

// StageAll runs `git add --all`.
func (c *CLIClient) StageAll(ctx context.Context) error {
	return c.run(ctx, "add", "--all")
}

// Commit runs `git commit -m <message>`.
func (c *CLIClient) Commit(ctx context.Context, message string) error {
	err := c.run(ctx, "commit", "-m", message)
	if err != nil && isNothingToCommit(err) {
		return syncErrors.Wrap(syncErrors.ErrNothingToCommit, err.Error())
	}
	return err
}

// Push runs `git push <remote> <branch>`.
func (c *CLIClient) Push(ctx context.Context, branch string) error {
	err := c.run(ctx, "push", c.repo.Remote, branch)
	if err != nil && isPushRejection(err) {
		return syncErrors.Wrap(syncErrors.ErrPushRejected, err.Error())
	}
	return err
}

// UserName runs `git config user.name`.
func (c *CLIClient) UserName(ctx context.Context) (string, error) {
	output, err := c.output(ctx, "config", "user.name")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

func (c *CLIClient) args(args []string) (string, []string) {
	all := make([]string, 0, len(c.command)+2+len(args))
	all = append(all, c.command[1:]...)
	all = append(all, "-C", c.repo.Path)
	all = append(all, args...)
	return c.command[0], all
}

func (c *CLIClient) run(ctx context.Context, args ...string) error {
	name, all := c.args(args)
	return c.executor.ExecuteWithContext(ctx, name, all...)
}

func (c *CLIClient) output(ctx context.Context, args ...string) (string, error) {
	name, all := c.args(args)
	return c.executor.ExecuteWithContextAndOutput(ctx, name, all...)
}

func gitOutput(err error) string {
	var gitErr *syncErrors.GitError
	if syncErrors.As(err, &gitErr) {
		return gitErr.Output
	}
	return err.Error()
}

func isNothingToCommit(err error) bool {
	out := gitOutput(err)
	return strings.Contains(out, "nothing to commit") || strings.Contains(out, "no changes added to commit")
}

func isPushRejection(err error) bool {
	out := gitOutput(err)
	for _, marker := range []string{"[rejected]", "non-fast-forward", "fetch first", "[remote rejected]"} {
		if strings.Contains(out, marker) {
			return true
		}
	}
	return false
}
