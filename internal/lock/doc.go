// Package lock keeps two gitfilesync processes from syncing the same
// working copy at once.
//
// A Locker owns one lock file per repository, named after a hash of the
// repository path and placed in the XDG runtime directory. The file is
// created exclusively, held with a non-blocking flock and carries the owner's
// PID so that a lock left behind by a dead process can be detected and taken
// over.
//
// # Usage
//
//	locker, err := lock.New("/path/to/repo")
//	if err != nil {
//	    return err
//	}
//	if err := locker.Acquire(); err != nil {
//	    // errors.Is(err, errors.ErrAlreadyRunning) when another instance holds it
//	    return err
//	}
//	defer locker.Release()
//
// Only Unix-like systems are supported.
package lock
