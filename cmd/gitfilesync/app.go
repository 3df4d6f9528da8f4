package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/bashhack/gitfilesync/internal/config"
	"github.com/bashhack/gitfilesync/internal/constants"
	syncErrors "github.com/bashhack/gitfilesync/internal/errors"
	"github.com/bashhack/gitfilesync/internal/git"
	"github.com/bashhack/gitfilesync/internal/lock"
	"github.com/bashhack/gitfilesync/internal/logger"
	"github.com/bashhack/gitfilesync/internal/syncloop"
	"github.com/bashhack/gitfilesync/internal/watch"
)

// Syncer runs the synchronization loop
type Syncer interface {
	Preflight(ctx context.Context) error
	SetTrigger(trigger <-chan struct{})
	Run(ctx context.Context) error
	PrintSummary()
}

// Locker manages file locking
type Locker interface {
	Acquire() error
	Release() error
}

// Watcher wakes the loop when the working tree changes
type Watcher interface {
	Triggers() <-chan struct{}
	Run(ctx context.Context) error
	Close() error
}

// AppOptions contains app configuration and dependencies.
// Nil optional dependencies are replaced with defaults by NewApp or Initialize.
type AppOptions struct {
	// Config holds the application configuration settings (required).
	// The application will panic if this field is nil.
	Config *config.Config

	// Optional components

	// Logger provides logging functionality (optional, a default will be created if nil).
	Logger logger.Logger

	// Locker prevents two instances from syncing the same repository
	// (optional, a default will be created if nil and locking is enabled).
	Locker Locker

	// Client performs repository operations (optional, opened from Config if nil).
	Client git.Client

	// Syncer runs the loop (optional, a default will be created if nil).
	Syncer Syncer

	// I/O dependencies

	// Stdout is the writer for standard output (optional, defaults to os.Stdout).
	Stdout io.Writer

	// Stderr is the writer for error output (optional, defaults to os.Stderr).
	Stderr io.Writer

	// System dependencies

	// Exit is the function to terminate the application (optional, defaults to os.Exit).
	Exit func(code int)

	// ExecLookPath is used to find executables in PATH (optional, defaults to exec.LookPath).
	ExecLookPath func(file string) (string, error)

	// Clock drives the loop schedule (optional, defaults to the real clock).
	Clock clockwork.Clock
}

// App is the main gitfilesync application.
// It wires the components together and manages the application lifecycle.
type App struct {
	// Config holds the application configuration and settings.
	Config *config.Config

	// Logger provides logging functionality for both internal and user-facing messages.
	Logger logger.Logger

	// Locker holds the single-instance lock while the loop runs.
	Locker Locker

	// Client performs repository operations.
	Client git.Client

	// Syncer runs the synchronization loop.
	Syncer Syncer

	// Watcher is set when --watch is enabled.
	Watcher Watcher

	// Stdout is the writer for standard output messages.
	Stdout io.Writer

	// Stderr is the writer for error messages and warnings.
	Stderr io.Writer

	exit         func(code int)
	execLookPath func(file string) (string, error)
	clock        clockwork.Clock

	// started is set once preflight has passed and the loop is about to run.
	// It is read by the signal goroutine.
	started atomic.Bool

	closeOnce   sync.Once
	closeErr    error
	summaryOnce sync.Once
}

// NewDefaultApp creates an App with standard dependencies.
// The environment is loaded here; flags are bound later by the root command.
func NewDefaultApp(versionInfo config.VersionInfo) *App {
	cfg := config.New()
	cfg.VersionInfo = versionInfo
	cfg.LoadFromEnvironment()

	return NewApp(AppOptions{
		Config:       cfg,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Exit:         os.Exit,
		ExecLookPath: exec.LookPath,
	})
}

// NewApp creates an App with custom dependencies specified in opts.
// It panics if opts.Config is nil.
func NewApp(opts AppOptions) *App {
	if opts.Config == nil {
		panic("Config is required in AppOptions")
	}

	app := &App{
		Config:       opts.Config,
		Logger:       opts.Logger,
		Locker:       opts.Locker,
		Client:       opts.Client,
		Syncer:       opts.Syncer,
		Stdout:       opts.Stdout,
		Stderr:       opts.Stderr,
		exit:         opts.Exit,
		execLookPath: opts.ExecLookPath,
		clock:        opts.Clock,
	}

	if app.Stdout == nil {
		app.Stdout = os.Stdout
	}
	if app.Stderr == nil {
		app.Stderr = os.Stderr
	}
	if app.exit == nil {
		app.exit = os.Exit
	}
	if app.execLookPath == nil {
		app.execLookPath = exec.LookPath
	}
	if app.clock == nil {
		app.clock = clockwork.NewRealClock()
	}

	return app
}

// Initialize finalizes the configuration and sets up components not
// provided during construction.
func (a *App) Initialize() error {
	if err := a.Config.Finalize(); err != nil {
		if syncErrors.Is(err, syncErrors.ErrInvalidConfiguration) {
			return err
		}
		return syncErrors.Wrap(syncErrors.ErrInvalidConfiguration, err.Error())
	}

	if a.Logger == nil {
		a.Logger = logger.New(logger.Options{
			Enabled: a.Config.Debug,
			LogFile: a.Config.LogFile,
			Verbose: a.Config.Verbose,
			Stdout:  a.Stdout,
			Stderr:  a.Stderr,
		})
	}

	if a.Locker == nil && !a.Config.NoLock {
		locker, err := lock.New(a.Config.RepoPath)
		if err != nil {
			return syncErrors.Wrap(err, "failed to initialize lock")
		}
		a.Locker = locker
	}

	if a.Client == nil {
		repo, err := git.NewRepository(a.Config.RepoPath)
		if err != nil {
			return err
		}
		client, err := git.Open(repo, a.Config.GitOptions())
		if err != nil {
			return err
		}
		a.Client = client
	}

	if a.Syncer == nil {
		syncer, err := syncloop.NewSyncerWithDeps(a.Config.SyncConfig(), a.Client, a.Logger, a.clock, nil)
		if err != nil {
			return fmt.Errorf("failed to create sync loop: %w", err)
		}
		a.Syncer = syncer
	}

	return nil
}

// Run handles the informational flags, then checks preconditions and
// runs the loop until ctx is cancelled or the loop stops on its own.
func (a *App) Run(ctx context.Context) error {
	if a.Config.Version {
		a.ShowVersion()
		return nil
	}

	if a.Config.ShowLogo {
		a.ShowLogo()
		return nil
	}

	if err := a.Initialize(); err != nil {
		return err
	}

	// Ensure we always clean up logger / lock / watcher, even on early error paths
	defer func() {
		if err := a.Close(); err != nil {
			_, _ = fmt.Fprintf(a.Stderr, "❌ Error during cleanup: %v\n", err)
		}
	}()

	if err := a.checkRequiredCommands(); err != nil {
		_, _ = fmt.Fprintf(a.Stderr, "❌ Error: %v. Please install it and try again.\n", err)
		return err
	}

	if err := a.Syncer.Preflight(ctx); err != nil {
		return err
	}
	a.Logger.Info("Repository %s verified", a.Config.RepoPath)

	if a.Locker != nil {
		if err := a.Locker.Acquire(); err != nil {
			if syncErrors.Is(err, syncErrors.ErrAlreadyRunning) {
				return err
			}
			return syncErrors.Wrap(syncErrors.ErrLockAcquisitionFailure, err.Error())
		}
	}

	if err := a.startWatcher(ctx); err != nil {
		return err
	}

	a.started.Store(true)
	return a.Syncer.Run(ctx)
}

// startWatcher attaches the file watcher to the loop. It runs after the
// preflight so a missing repository is reported as such.
func (a *App) startWatcher(ctx context.Context) error {
	if a.Watcher == nil && a.Config.Watch {
		w, err := watch.New(a.Config.RepoPath, watch.Options{
			Clock:  a.clock,
			Logger: a.Logger,
		})
		if err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
		a.Watcher = w
	}
	if a.Watcher == nil {
		return nil
	}

	a.Syncer.SetTrigger(a.Watcher.Triggers())
	go func() {
		if err := a.Watcher.Run(ctx); err != nil && ctx.Err() == nil {
			a.Logger.WarningToUser("File watcher stopped: %v", err)
		}
	}()
	return nil
}

// Started reports whether the loop was entered.
func (a *App) Started() bool {
	return a.started.Load()
}

// ShowVersion displays version information
func (a *App) ShowVersion() {
	_, _ = fmt.Fprintf(a.Stdout, "gitfilesync %s (%s) built on %s\n",
		a.Config.VersionInfo.Version,
		a.Config.VersionInfo.Commit,
		a.Config.VersionInfo.Date)
}

// ShowLogo displays ASCII art logo
func (a *App) ShowLogo() {
	_, _ = fmt.Fprintln(a.Stdout, constants.Logo)
	_, _ = fmt.Fprintln(a.Stdout, "")

	asciiArtWidth := 50
	padding := max((asciiArtWidth-len(constants.Tagline))/2, 0)
	centeredTagline := fmt.Sprintf("%s%s", strings.Repeat(" ", padding), constants.Tagline)
	_, _ = fmt.Fprintln(a.Stdout, centeredTagline)
}

// checkRequiredCommands verifies the git command is available in PATH.
// The go-git backend needs no binary.
func (a *App) checkRequiredCommands() error {
	if a.Config.Backend == git.BackendGoGit {
		return nil
	}

	command, err := git.ParseCommand(a.Config.GitCommand)
	if err != nil {
		return err
	}
	if _, err := a.execLookPath(command[0]); err != nil {
		return fmt.Errorf("%s is not found in PATH", command[0])
	}
	return nil
}

// Close releases resources held by the App. Only the first call does any
// work; later calls return its result.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = a.close()
	})
	return a.closeErr
}

func (a *App) close() error {
	var errs []error

	if a.Watcher != nil {
		if err := a.Watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if a.Locker != nil {
		if err := a.Locker.Release(); err != nil {
			if a.Logger != nil {
				a.Logger.Error("Failed to release lock during cleanup: %v", err)
			} else {
				_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to release lock during cleanup: %v\n", err)
			}
			errs = append(errs, err)
		}
	}

	if a.Logger != nil {
		if err := a.Logger.Close(); err != nil {
			_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to close logger: %v\n", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return syncErrors.Join(errs...)
	}
	return nil
}

// CleanupOnSignal releases resources and shows a summary when the loop
// does not stop in time after a signal.
func (a *App) CleanupOnSignal() {
	if err := a.Close(); err != nil {
		_, _ = fmt.Fprintf(a.Stderr, "❌ Error during cleanup: %v\n", err)
	}

	a.printSummary()
}

// printSummary prints the session summary once, if the loop was entered.
func (a *App) printSummary() {
	if !a.Started() || a.Syncer == nil {
		return
	}
	a.summaryOnce.Do(a.Syncer.PrintSummary)
}
