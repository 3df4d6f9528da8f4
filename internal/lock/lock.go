package lock

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/adrg/xdg"

	syncErrors "github.com/bashhack/gitfilesync/internal/errors"
)

// Locker prevents concurrent gitfilesync instances using file locks
type Locker struct {
	lockFile string
	lockFd   *os.File
	pid      int
	acquired bool
}

// New creates a Locker for the specified repository path. The lock file
// lives under $XDG_RUNTIME_DIR/gitfilesync (or the xdg fallback).
func New(repoPath string) (*Locker, error) {
	if runtime.GOOS == "windows" {
		return nil, syncErrors.NewLockError("", 0,
			syncErrors.Wrap(syncErrors.ErrLockAcquisitionFailure,
				"gitfilesync only supports Unix-like operating systems"))
	}

	lockFile, err := xdg.RuntimeFile(filepath.Join("gitfilesync", lockFileName(repoPath)))
	if err != nil {
		return nil, syncErrors.NewLockError("", 0,
			syncErrors.Wrap(err, "failed to resolve lock file location"))
	}

	return NewWithPath(lockFile), nil
}

// NewWithPath creates a Locker on an explicit lock file path.
func NewWithPath(lockFile string) *Locker {
	return &Locker{
		lockFile: lockFile,
		pid:      os.Getpid(),
	}
}

func lockFileName(repoPath string) string {
	repoHash := fmt.Sprintf("%x", sha256.Sum256([]byte(repoPath)))[:16]
	return fmt.Sprintf("gitfilesync-%s.lock", repoHash)
}

// Path returns the lock file path.
func (l *Locker) Path() string {
	return l.lockFile
}

// Acquired reports whether this Locker currently holds the lock.
func (l *Locker) Acquired() bool {
	return l.acquired
}

// Acquire tries to acquire the lock
func (l *Locker) Acquire() error {
	err := l.claim(os.O_CREATE|os.O_EXCL, "failed to create lock file")
	if err == nil {
		return nil
	}
	if !os.IsExist(err) {
		return err
	}
	return l.acquireExisting()
}

// claim opens the lock file with the extra flags, flocks it and writes our PID.
// os.IsExist errors from the open are returned unwrapped.
func (l *Locker) claim(flags int, openFailure string) error {
	fd, err := os.OpenFile(l.lockFile, flags|os.O_RDWR, 0o666)
	if err != nil {
		if os.IsExist(err) {
			return err
		}
		return syncErrors.NewLockError(l.lockFile, 0, syncErrors.Wrap(err, openFailure))
	}
	l.lockFd = fd

	if err := l.flock(); err != nil {
		l.closeFileDescriptor()
		return syncErrors.NewLockError(l.lockFile, 0,
			syncErrors.Wrap(err, "failed to lock newly created lock file"))
	}

	return l.finishClaim()
}

// acquireExisting acquires a lock on a lock file some process left behind
func (l *Locker) acquireExisting() error {
	fd, err := os.OpenFile(l.lockFile, os.O_RDWR, 0o666)
	if err != nil {
		return syncErrors.NewLockError(l.lockFile, 0,
			syncErrors.Wrap(err, "failed to open existing lock file"))
	}
	l.lockFd = fd

	if err := l.flock(); err != nil {
		l.closeFileDescriptor()

		// EWOULDBLOCK and EAGAIN are distinct on some older systems.
		if syncErrors.Is(err, syscall.EWOULDBLOCK) || syncErrors.Is(err, syscall.EAGAIN) {
			return l.handleBlockedLock()
		}
		return syncErrors.NewLockError(l.lockFile, 0, syncErrors.Wrap(err, "failed to acquire lock"))
	}

	return l.finishClaim()
}

// finishClaim records our PID in a freshly flocked lock file.
func (l *Locker) finishClaim() error {
	if err := l.writePid(); err != nil {
		if releaseErr := l.Release(); releaseErr != nil {
			return syncErrors.Wrap(err, fmt.Sprintf("failed to write PID and failed to release lock: %v", releaseErr))
		}
		return err
	}

	l.acquired = true
	return nil
}

// handleBlockedLock decides whether a flocked file belongs to a live process
func (l *Locker) handleBlockedLock() error {
	otherPid, err := l.readLockFilePid()
	if err != nil {
		return syncErrors.NewLockError(l.lockFile, 0,
			syncErrors.Wrap(syncErrors.ErrAlreadyRunning, fmt.Sprintf("lock holder PID unreadable: %v", err)))
	}

	if isProcessRunning(otherPid) {
		return syncErrors.NewLockError(l.lockFile, otherPid, syncErrors.ErrAlreadyRunning)
	}

	if err := os.Remove(l.lockFile); err != nil {
		return syncErrors.NewLockError(l.lockFile, otherPid,
			syncErrors.Wrap(err, fmt.Sprintf("found stale lock file from PID %d, but failed to remove it", otherPid)))
	}

	err = l.claim(os.O_CREATE|os.O_EXCL, "failed to open lock file after removing stale lock")
	if os.IsExist(err) {
		return syncErrors.NewLockError(l.lockFile, 0,
			syncErrors.Wrap(syncErrors.ErrAlreadyRunning, "lock was taken right after the stale lock was removed"))
	}
	return err
}

// flock gets an exclusive non-blocking lock
func (l *Locker) flock() error {
	return syscall.Flock(int(l.lockFd.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

// writePid clears the file and writes the current PID
func (l *Locker) writePid() error {
	if err := l.lockFd.Truncate(0); err != nil {
		return syncErrors.NewLockError(l.lockFile, l.pid,
			syncErrors.Wrap(err, "failed to truncate lock file"))
	}
	if _, err := l.lockFd.WriteAt([]byte(strconv.Itoa(l.pid)), 0); err != nil {
		return syncErrors.NewLockError(l.lockFile, l.pid,
			syncErrors.Wrap(err, "failed to write PID to lock file"))
	}
	return nil
}

func (l *Locker) closeFileDescriptor() {
	if l.lockFd != nil {
		_ = l.lockFd.Close()
		l.lockFd = nil
	}
}

// isProcessRunning checks if a process exists using signal 0
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// readLockFilePid reads and parses the PID from the lock file
func (l *Locker) readLockFilePid() (int, error) {
	data, err := os.ReadFile(l.lockFile)
	if err != nil {
		return 0, syncErrors.Wrap(err, "failed to read lock file")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, syncErrors.Wrap(err, "invalid PID in lock file")
	}
	return pid, nil
}

// Release releases the lock if it was acquired. It is safe to call more than once.
func (l *Locker) Release() error {
	if l.lockFd == nil {
		return nil
	}

	var err error
	if flockErr := syscall.Flock(int(l.lockFd.Fd()), syscall.LOCK_UN); flockErr != nil {
		err = syncErrors.NewLockError(l.lockFile, l.pid,
			syncErrors.Wrap(flockErr, "failed to release lock"))
	}

	if closeErr := l.lockFd.Close(); closeErr != nil && err == nil {
		err = syncErrors.NewLockError(l.lockFile, l.pid,
			syncErrors.Wrap(closeErr, "failed to close lock file"))
	}

	l.lockFd = nil
	l.acquired = false

	// Remove even after earlier failures; report only the first error.
	if removeErr := os.Remove(l.lockFile); removeErr != nil && !os.IsNotExist(removeErr) && err == nil {
		err = syncErrors.NewLockError(l.lockFile, l.pid,
			syncErrors.Wrap(removeErr, "failed to remove lock file"))
	}

	return err
}
