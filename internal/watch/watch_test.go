package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bashhack/gitfilesync/internal/logger"
)

func quietLogger() logger.Logger {
	return logger.NewWithOutput(false, "", false, io.Discard, io.Discard)
}

// startWatcher runs a watcher over a fresh tree containing a .git directory.
func startWatcher(t *testing.T, opts Options) (string, *Watcher) {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "objects"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0755))

	opts.Logger = quietLogger()
	w, err := New(root, opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Close()
	})
	return root, w
}

func waitTrigger(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case <-w.Triggers():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for trigger")
	}
}

func assertNoTrigger(t *testing.T, w *Watcher, within time.Duration) {
	t.Helper()
	select {
	case <-w.Triggers():
		t.Fatal("unexpected trigger")
	case <-time.After(within):
	}
}

func TestWatcherDebouncesWithFakeClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	root, w := startWatcher(t, Options{Debounce: time.Second, Clock: clock})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "b.txt"), []byte("b"), 0644))
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(500 * time.Millisecond)
	assertNoTrigger(t, w, 100*time.Millisecond)

	clock.Advance(time.Second)
	waitTrigger(t, w)
	assertNoTrigger(t, w, 100*time.Millisecond)
}

func TestWatcherEvents(t *testing.T) {
	tests := map[string]struct {
		change  func(t *testing.T, root string)
		trigger bool
	}{
		"FileCreated": {
			change: func(t *testing.T, root string) {
				require.NoError(t, os.WriteFile(filepath.Join(root, "new.txt"), []byte("x"), 0644))
			},
			trigger: true,
		},
		"NestedFileWritten": {
			change: func(t *testing.T, root string) {
				require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "guide.md"), []byte("x"), 0644))
			},
			trigger: true,
		},
		"GitDirectoryIgnored": {
			change: func(t *testing.T, root string) {
				require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "index.lock"), []byte("x"), 0644))
				require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "objects", "pack"), []byte("x"), 0644))
			},
			trigger: false,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			root, w := startWatcher(t, Options{Debounce: 20 * time.Millisecond})
			tc.change(t, root)
			if tc.trigger {
				waitTrigger(t, w)
			} else {
				assertNoTrigger(t, w, 300*time.Millisecond)
			}
		})
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root, w := startWatcher(t, Options{Debounce: 20 * time.Millisecond})

	sub := filepath.Join(root, "later")
	require.NoError(t, os.Mkdir(sub, 0755))
	waitTrigger(t, w)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "inside.txt"), []byte("x"), 0644))
	waitTrigger(t, w)
}

func TestWatcherSingleSlot(t *testing.T) {
	root, w := startWatcher(t, Options{Debounce: 10 * time.Millisecond})

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "burst.txt"), []byte{byte(i)}, 0644))
		time.Sleep(50 * time.Millisecond)
	}

	waitTrigger(t, w)
	assertNoTrigger(t, w, 100*time.Millisecond)
}

func TestNewMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), Options{Logger: quietLogger()})
	assert.Error(t, err)
}

func TestInsideGitDir(t *testing.T) {
	tests := map[string]struct {
		path string
		want bool
	}{
		"Root":          {path: "/repo", want: false},
		"File":          {path: "/repo/a.txt", want: false},
		"GitDir":        {path: "/repo/.git", want: true},
		"GitObject":     {path: "/repo/.git/objects/ab", want: true},
		"Submodule":     {path: "/repo/vendor/lib/.git/HEAD", want: true},
		"LookalikeName": {path: "/repo/.gitignore", want: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, insideGitDir("/repo", tc.path))
		})
	}
}
