// Package git provides the version-control operations used by gitfilesync.
//
// Every operation is reached through the Client interface and acts on the
// Repository handle the client was opened on, so nothing depends on the
// process working directory.
//
// # Backends
//
// Two implementations are available:
//
// - CLIClient runs the git executable ("git -C <path> ...") through a
// CommandExecutor. It supports everything the installed git supports,
// including merge pulls that stop on conflicts.
// - GoGitClient uses go-git in-process. It needs no git binary but can only
// fast-forward on pull; diverged histories return ErrNotFastForward. Ignore
// rules from core.excludesFile are read from /etc/gitconfig and
// $HOME/.gitconfig only.
//
// Open selects a backend by name:
//
//	repo, err := git.NewRepository("/path/to/repo")
//	if err != nil {
//	    // Handle error
//	}
//	client, err := git.Open(repo, git.Options{Backend: git.BackendCLI})
//	if err != nil {
//	    // Handle error
//	}
//	branch, err := client.CurrentBranch(ctx)
//
// # Status
//
// ParseStatus turns `git status --porcelain` output into StatusEntry values.
// Both backends report status in the same two-letter form, so callers can
// treat them the same way.
//
// # Error Handling
//
// Failures are returned as *errors.GitError carrying the git subcommand and
// its output. Conditions the sync loop reacts to are wrapped around sentinel
// errors (ErrFetchFailed, ErrMergeConflict, ErrPushRejected and so on) and can
// be tested with errors.Is.
//
// # Concurrency Model
//
// Clients hold no mutable state and may be shared, but git itself serializes
// access to a repository through its index lock.
package git
