// Package errors provides error handling utilities for the gitfilesync application.
//
// This package defines the sentinel errors used to classify failures of the
// sync loop, together with typed errors that carry the context of a failed
// git invocation, a lock file problem or a bad configuration value. All of
// them participate in the standard wrapping conventions, so callers inspect
// them with errors.Is and errors.As.
//
// # Usage
//
// Classifying a failed git command:
//
//	err := client.Push(ctx, branch)
//	if errors.Is(err, errors.ErrPushRejected) {
//	    // the remote moved on; the next iteration pulls first
//	}
//
// Inspecting the captured output:
//
//	var gitErr *errors.GitError
//	if errors.As(err, &gitErr) {
//	    fmt.Println(gitErr.Operation, gitErr.Output)
//	}
//
// # Thread Safety
//
// All types and functions in this package are safe for concurrent use
// by multiple goroutines.
package errors
