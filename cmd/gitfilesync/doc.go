// Package main implements gitfilesync, a loop that keeps a git working copy
// in sync with its remote.
//
// Once per interval gitfilesync fetches from origin, pulls when the remote
// branch has commits the local branch lacks, and stages, commits and pushes
// whatever changed locally. It is meant for notes, dotfiles and other
// directories where every machine should simply see the latest files.
// Merge conflicts are never resolved: the conflicted files are committed
// with their markers so a human can fix them later.
//
// # Basic Usage
//
//	gitfilesync                          # Sync the current directory every second
//	gitfilesync --repo ~/notes           # Sync another repository
//	gitfilesync --interval 30s           # Sync every 30 seconds
//	gitfilesync -m "laptop sync"         # Use a fixed commit message
//	gitfilesync --message-policy static  # Commit with the message "not useful"
//	gitfilesync --watch --backoff        # React to edits, back off when offline
//
// # Output
//
// Progress is reported on stdout with the lines
//
//	Found remote changes, pulling!
//	Found changes, pushing!
//	Found unpushed commits, pushing!
//
// and the two startup diagnostics "Not a git repo, exiting" and
// "No available remote repo, exiting". Errors go to stderr.
//
// # Exit Codes
//
//   - 0: stopped by SIGINT, SIGTERM or SIGHUP, or --max-iterations reached
//   - 1: not a repository, no remote, invalid configuration, another
//     instance running, or the retry limit exceeded
//
// See the config package for every flag and environment variable.
package main
