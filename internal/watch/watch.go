package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"

	syncErrors "github.com/bashhack/gitfilesync/internal/errors"
	"github.com/bashhack/gitfilesync/internal/logger"
)

// DefaultDebounce is the quiet period required before a trigger is sent.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// Clock defaults to the real clock.
	Clock clockwork.Clock

	// Logger receives watch errors. Required.
	Logger logger.Logger
}

// Watcher reports debounced changes below a root directory.
type Watcher struct {
	root     string
	debounce time.Duration
	clock    clockwork.Clock
	logger   logger.Logger
	fs       *fsnotify.Watcher
	triggers chan struct{}
}

// New creates a Watcher and registers every directory below root.
func New(root string, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, syncErrors.Wrap(err, "failed to create filesystem watcher")
	}

	w := &Watcher{
		root:     root,
		debounce: opts.Debounce,
		clock:    opts.Clock,
		logger:   opts.Logger,
		fs:       fsw,
		triggers: make(chan struct{}, 1),
	}

	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Triggers returns the channel that receives one value per debounced burst.
func (w *Watcher) Triggers() <-chan struct{} {
	return w.triggers
}

// Run processes filesystem events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	var timer clockwork.Timer
	var fire <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				w.maybeAddDir(event.Name)
			}
			if timer == nil {
				timer = w.clock.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.Chan()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warning("Filesystem watcher error: %v", err)

		case <-fire:
			timer, fire = nil, nil
			select {
			case w.triggers <- struct{}{}:
			default:
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return !insideGitDir(w.root, event.Name)
}

func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Lstat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addTree(path); err != nil {
		w.logger.Warning("Failed to watch new directory %s: %v", path, err)
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// the directory may be gone already
			if path != root && os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return syncErrors.Wrapf(err, "failed to watch %s", path)
		}
		return nil
	})
}

func insideGitDir(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == ".git" {
			return true
		}
	}
	return false
}
