package syncloop

import (
	"context"
	"fmt"
	"sync"

	syncErrors "github.com/bashhack/gitfilesync/internal/errors"
	"github.com/bashhack/gitfilesync/internal/git"
)

// fakeClient is a scriptable git.Client that models a working copy with a
// remote. Successful pulls clear Behind, commits clean the tree and add to
// Ahead, pushes clear Ahead.
type fakeClient struct {
	mu  sync.Mutex
	ops []string

	NotRepo    bool
	RepoErr    error
	RemoteList []string
	Branch     string
	BranchErr  error
	User       string
	UserErr    error

	Ahead  int
	Behind int
	Tree   git.Status

	FetchErr      error
	DivergenceErr error
	PullErr       error
	StatusErr     error
	StageErr      error
	CommitErr     error
	PushErr       error

	// PullLeaves is the status left behind by a pull that fails.
	PullLeaves git.Status

	Commits []string
	Pushes  int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		RemoteList: []string{"origin"},
		Branch:     "main",
		User:       "Alice",
	}
}

func dirtyTree(paths ...string) git.Status {
	var status git.Status
	for _, p := range paths {
		status.Entries = append(status.Entries, git.StatusEntry{Index: ' ', Worktree: 'M', Path: p})
	}
	return status
}

func (f *fakeClient) record(format string, args ...interface{}) {
	f.ops = append(f.ops, fmt.Sprintf(format, args...))
}

// Ops returns the operations performed so far.
func (f *fakeClient) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

func (f *fakeClient) ResetOps() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = nil
}

func (f *fakeClient) Set(fn func(f *fakeClient)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeClient) IsRepository(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("status-check")
	return !f.NotRepo, f.RepoErr
}

func (f *fakeClient) Remotes(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("remote")
	return f.RemoteList, nil
}

func (f *fakeClient) CurrentBranch(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("branch")
	return f.Branch, f.BranchErr
}

func (f *fakeClient) Fetch(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("fetch")
	return f.FetchErr
}

func (f *fakeClient) Divergence(_ context.Context, branch string) (git.Divergence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("divergence %s", branch)
	if f.DivergenceErr != nil {
		return git.Divergence{}, f.DivergenceErr
	}
	return git.Divergence{Ahead: f.Ahead, Behind: f.Behind}, nil
}

func (f *fakeClient) Pull(_ context.Context, branch string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("pull %s", branch)
	if f.PullErr != nil {
		if len(f.PullLeaves.Entries) > 0 {
			f.Tree = f.PullLeaves
		}
		return f.PullErr
	}
	f.Behind = 0
	return nil
}

func (f *fakeClient) Status(context.Context) (git.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("status")
	return f.Tree, f.StatusErr
}

func (f *fakeClient) StageAll(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("add")
	return f.StageErr
}

func (f *fakeClient) Commit(_ context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("commit %s", message)
	if f.CommitErr != nil {
		return f.CommitErr
	}
	if !f.Tree.Dirty() {
		return syncErrors.ErrNothingToCommit
	}
	f.Tree = git.Status{}
	f.Ahead++
	f.Commits = append(f.Commits, message)
	return nil
}

func (f *fakeClient) Push(_ context.Context, branch string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("push %s", branch)
	if f.PushErr != nil {
		return f.PushErr
	}
	f.Ahead = 0
	f.Pushes++
	return nil
}

func (f *fakeClient) UserName(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("user-name")
	return f.User, f.UserErr
}

var _ git.Client = (*fakeClient)(nil)
