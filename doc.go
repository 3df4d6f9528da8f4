// Package gitfilesync keeps a git working copy in sync with its remote.
//
// gitfilesync runs a simple loop: fetch, pull if behind, commit and push if
// dirty, sleep, repeat. Every machine running it against the same remote
// converges on the same files without anyone typing a git command. Conflicts
// are left in the files as markers for a human to resolve.
//
// # Quick Start
//
//	# Navigate to a clone that has an origin remote
//	cd /path/to/your/notes
//
//	# Start syncing once per second
//	gitfilesync
//
//	# Press Ctrl+C to stop when finished
//
// # Key Features
//
//   - Two git backends: the git binary (default) or pure Go via go-git
//   - Commit message "commit from <user.name>", a fixed override, or "not useful"
//   - Optional filesystem watching to sync right after an edit
//   - Exponential backoff while the remote is unreachable
//   - Single-instance lock per repository
//
// # Module Structure
//
// The module is organized into these packages:
//
//   - cmd/gitfilesync: Command-line interface
//   - internal/syncloop: The synchronization loop and session summary
//   - internal/git: Repository operations (CLI and go-git backends) and porcelain parsing
//   - internal/watch: Debounced filesystem change notifications
//   - internal/config: Defaults, environment variables and flags
//   - internal/lock: File-based locking mechanism
//   - internal/logger: User-facing output and the debug log
//   - internal/errors: Sentinel and typed errors
//   - internal/constants: Progress messages and banner
package gitfilesync
