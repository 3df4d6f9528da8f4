package git

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/object"

	syncErrors "github.com/bashhack/gitfilesync/internal/errors"
)

// GoGitClient implements Client in-process with go-git. It needs no git
// executable, but pulls are limited to fast-forwards.
//
// go-git only reads .gitignore files inside the worktree, so the client adds
// the core.excludesFile patterns from the system and global git config itself.
// Those are read from /etc/gitconfig and $HOME/.gitconfig; the XDG location
// and GIT_CONFIG_GLOBAL are not consulted.
type GoGitClient struct {
	repo Repository
}

// NewGoGitClient creates a GoGitClient for repo.
func NewGoGitClient(repo Repository) *GoGitClient {
	return &GoGitClient{repo: repo}
}

// open re-reads the repository on every call so that changes made by
// other tools between iterations are always visible.
func (c *GoGitClient) open() (*gogit.Repository, error) {
	r, err := gogit.PlainOpenWithOptions(c.repo.Path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, syncErrors.NewGitError("open", []string{c.repo.Path}, err, "")
	}
	return r, nil
}

func (c *GoGitClient) worktree() (*gogit.Repository, *gogit.Worktree, error) {
	r, err := c.open()
	if err != nil {
		return nil, nil, err
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, nil, syncErrors.NewGitError("worktree", nil, err, "")
	}
	excludes, err := userExcludes()
	if err != nil {
		return nil, nil, syncErrors.NewGitError("excludes", nil, err, "")
	}
	wt.Excludes = append(wt.Excludes, excludes...)
	return r, wt, nil
}

// userExcludes loads the ignore patterns git applies from outside the
// repository. A missing config or excludes file yields no patterns.
func userExcludes() ([]gitignore.Pattern, error) {
	root := osfs.New("/")
	system, err := gitignore.LoadSystemPatterns(root)
	if err != nil {
		return nil, err
	}
	global, err := gitignore.LoadGlobalPatterns(root)
	if err != nil {
		return nil, err
	}
	return append(system, global...), nil
}

// IsRepository reports whether the path is inside a non-bare repository.
func (c *GoGitClient) IsRepository(_ context.Context) (bool, error) {
	r, err := gogit.PlainOpenWithOptions(c.repo.Path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if syncErrors.Is(err, gogit.ErrRepositoryNotExists) {
			return false, nil
		}
		return false, syncErrors.NewGitError("open", []string{c.repo.Path}, err, "")
	}
	if _, err := r.Worktree(); err != nil {
		if syncErrors.Is(err, gogit.ErrIsBareRepository) {
			return false, nil
		}
		return false, syncErrors.NewGitError("worktree", nil, err, "")
	}
	return true, nil
}

// Remotes lists configured remote names in sorted order.
func (c *GoGitClient) Remotes(_ context.Context) ([]string, error) {
	r, err := c.open()
	if err != nil {
		return nil, err
	}
	remotes, err := r.Remotes()
	if err != nil {
		return nil, syncErrors.NewGitError("remote", nil, err, "")
	}

	names := make([]string, 0, len(remotes))
	for _, remote := range remotes {
		names = append(names, remote.Config().Name)
	}
	sort.Strings(names)
	return names, nil
}

// CurrentBranch returns the branch HEAD points at.
func (c *GoGitClient) CurrentBranch(_ context.Context) (string, error) {
	r, err := c.open()
	if err != nil {
		return "", err
	}
	head, err := r.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", syncErrors.NewGitError("symbolic-ref", []string{"HEAD"}, err, "")
	}
	if head.Type() != plumbing.SymbolicReference || !head.Target().IsBranch() {
		return "", syncErrors.ErrDetachedHead
	}
	return head.Target().Short(), nil
}

// Fetch updates the remote-tracking refs.
func (c *GoGitClient) Fetch(ctx context.Context) error {
	r, err := c.open()
	if err != nil {
		return syncErrors.Wrap(syncErrors.ErrFetchFailed, err.Error())
	}
	err = r.FetchContext(ctx, &gogit.FetchOptions{RemoteName: c.repo.Remote})
	switch {
	case err == nil, syncErrors.Is(err, gogit.NoErrAlreadyUpToDate):
		return nil
	default:
		return syncErrors.Wrap(syncErrors.ErrFetchFailed,
			syncErrors.NewGitError("fetch", []string{c.repo.Remote}, err, "").Error())
	}
}

// Divergence walks the history of HEAD and the remote-tracking branch and
// counts the commits unique to each side.
func (c *GoGitClient) Divergence(_ context.Context, branch string) (Divergence, error) {
	r, err := c.open()
	if err != nil {
		return Divergence{}, err
	}

	head, err := r.Head()
	if err != nil {
		return Divergence{}, syncErrors.NewGitError("rev-list", []string{"HEAD"}, err, "")
	}
	local, err := ancestors(r, head.Hash())
	if err != nil {
		return Divergence{}, err
	}

	remoteRef := plumbing.NewRemoteReferenceName(c.repo.Remote, branch)
	remote, err := r.Reference(remoteRef, true)
	if syncErrors.Is(err, plumbing.ErrReferenceNotFound) {
		return c.unpublished(r, local)
	}
	if err != nil {
		return Divergence{}, syncErrors.NewGitError("rev-list", []string{remoteRef.String()}, err, "")
	}
	upstream, err := ancestors(r, remote.Hash())
	if err != nil {
		return Divergence{}, err
	}

	var d Divergence
	for hash := range local {
		if _, ok := upstream[hash]; !ok {
			d.Ahead++
		}
	}
	for hash := range upstream {
		if _, ok := local[hash]; !ok {
			d.Behind++
		}
	}
	return d, nil
}

// unpublished counts the commits in local that no <remote>/* ref contains.
func (c *GoGitClient) unpublished(r *gogit.Repository, local map[plumbing.Hash]struct{}) (Divergence, error) {
	refs, err := r.References()
	if err != nil {
		return Divergence{}, syncErrors.NewGitError("rev-list", []string{"--remotes=" + c.repo.Remote}, err, "")
	}
	defer refs.Close()

	prefix := "refs/remotes/" + c.repo.Remote + "/"
	published := make(map[plumbing.Hash]struct{})
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference || !strings.HasPrefix(ref.Name().String(), prefix) {
			return nil
		}
		seen, err := ancestors(r, ref.Hash())
		if err != nil {
			return err
		}
		for hash := range seen {
			published[hash] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return Divergence{}, err
	}

	var d Divergence
	for hash := range local {
		if _, ok := published[hash]; !ok {
			d.Ahead++
		}
	}
	return d, nil
}

func ancestors(r *gogit.Repository, from plumbing.Hash) (map[plumbing.Hash]struct{}, error) {
	iter, err := r.Log(&gogit.LogOptions{From: from})
	if err != nil {
		return nil, syncErrors.NewGitError("log", []string{from.String()}, err, "")
	}
	defer iter.Close()

	seen := make(map[plumbing.Hash]struct{})
	err = iter.ForEach(func(commit *object.Commit) error {
		seen[commit.Hash] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, syncErrors.NewGitError("log", []string{from.String()}, err, "")
	}
	return seen, nil
}

// Pull fetches and fast-forwards the branch to the remote-tracking ref.
// Histories that need a merge commit return an error wrapping
// ErrNotFastForward. Local modifications to tracked files block the
// update, as they do for `git merge`.
func (c *GoGitClient) Pull(ctx context.Context, branch string) error {
	args := []string{c.repo.Remote, branch}
	if err := c.Fetch(ctx); err != nil {
		return syncErrors.NewGitError("pull", args, err, "")
	}

	r, wt, err := c.worktree()
	if err != nil {
		return err
	}
	head, err := r.Head()
	if err != nil {
		return syncErrors.NewGitError("pull", args, err, "")
	}
	remote, err := r.Reference(plumbing.NewRemoteReferenceName(c.repo.Remote, branch), true)
	if err != nil {
		return syncErrors.NewGitError("pull", args, err, "")
	}
	if head.Hash() == remote.Hash() {
		return nil
	}

	upstream, err := ancestors(r, remote.Hash())
	if err != nil {
		return err
	}
	if _, ok := upstream[head.Hash()]; !ok {
		local, err := ancestors(r, head.Hash())
		if err != nil {
			return err
		}
		if _, ahead := local[remote.Hash()]; ahead {
			return nil
		}
		return syncErrors.NewGitError("pull", args, syncErrors.ErrNotFastForward, "")
	}

	if err := wt.Reset(&gogit.ResetOptions{Commit: remote.Hash(), Mode: gogit.MergeReset}); err != nil {
		return syncErrors.NewGitError("pull", args, err, "")
	}
	return nil
}

// Status converts the go-git status into porcelain-style entries sorted by path.
func (c *GoGitClient) Status(_ context.Context) (Status, error) {
	_, wt, err := c.worktree()
	if err != nil {
		return Status{}, err
	}
	st, err := wt.Status()
	if err != nil {
		return Status{}, syncErrors.NewGitError("status", nil, err, "")
	}

	entries := make([]StatusEntry, 0, len(st))
	for path, fs := range st {
		if fs.Staging == gogit.Unmodified && fs.Worktree == gogit.Unmodified {
			continue
		}
		entries = append(entries, StatusEntry{
			Index:    byte(fs.Staging),
			Worktree: byte(fs.Worktree),
			Path:     path,
			OrigPath: fs.Extra,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return Status{Entries: entries}, nil
}

// StageAll stages modifications, deletions and untracked files.
func (c *GoGitClient) StageAll(_ context.Context) error {
	_, wt, err := c.worktree()
	if err != nil {
		return err
	}
	if err := wt.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return syncErrors.NewGitError("add", []string{"--all"}, err, "")
	}
	return nil
}

// Commit records the index. Author and committer come from the git config.
func (c *GoGitClient) Commit(_ context.Context, message string) error {
	_, wt, err := c.worktree()
	if err != nil {
		return err
	}
	if _, err := wt.Commit(message, &gogit.CommitOptions{}); err != nil {
		if syncErrors.Is(err, gogit.ErrEmptyCommit) {
			return syncErrors.Wrap(syncErrors.ErrNothingToCommit, err.Error())
		}
		return syncErrors.NewGitError("commit", []string{"-m", message}, err, "")
	}
	return nil
}

// Push sends refs/heads/<branch> to the same ref on the remote.
func (c *GoGitClient) Push(ctx context.Context, branch string) error {
	r, err := c.open()
	if err != nil {
		return err
	}
	ref := plumbing.NewBranchReferenceName(branch)
	err = r.PushContext(ctx, &gogit.PushOptions{
		RemoteName: c.repo.Remote,
		RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf("%s:%s", ref, ref))},
	})
	switch {
	case err == nil, syncErrors.Is(err, gogit.NoErrAlreadyUpToDate):
		return nil
	case syncErrors.Is(err, gogit.ErrNonFastForwardUpdate), syncErrors.Is(err, gogit.ErrForceNeeded),
		strings.Contains(err.Error(), "non-fast-forward"):
		return syncErrors.Wrap(syncErrors.ErrPushRejected, err.Error())
	default:
		return syncErrors.NewGitError("push", []string{c.repo.Remote, branch}, err, "")
	}
}

// UserName reads user.name from the local and global config.
func (c *GoGitClient) UserName(_ context.Context) (string, error) {
	r, err := c.open()
	if err != nil {
		return "", err
	}
	cfg, err := r.ConfigScoped(config.GlobalScope)
	if err != nil {
		return "", syncErrors.NewGitError("config", []string{"user.name"}, err, "")
	}
	return cfg.User.Name, nil
}

var (
	_ Client = (*CLIClient)(nil)
	_ Client = (*GoGitClient)(nil)
)
