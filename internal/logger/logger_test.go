package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "test.log")

	log := NewWithOutput(false, logFile, true, &bytes.Buffer{}, &bytes.Buffer{})
	require.NotNil(t, log)
	_, err := os.Stat(logFile)
	assert.True(t, os.IsNotExist(err), "no log file expected when debug is disabled")
	assert.NoDirExists(t, filepath.Dir(logFile))

	stdout := &bytes.Buffer{}
	log = NewWithOutput(true, logFile, true, stdout, &bytes.Buffer{})
	require.NotNil(t, log)
	t.Cleanup(func() { _ = log.Close() })

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "gitfilesync debug logging started")
	assert.Contains(t, stdout.String(), logFile)
}

func TestMessageRouting(t *testing.T) {
	tests := map[string]struct {
		verbose    bool
		emit       func(l Logger)
		wantStdout string
		wantStderr string
		wantFile   string
	}{
		"StatusMessageIsVerbatim": {
			emit:       func(l Logger) { l.StatusMessage("Found changes, pushing!") },
			wantStdout: "Found changes, pushing!\n",
		},
		"InfoIsFileOnly": {
			emit:     func(l Logger) { l.Info("iteration %d done", 3) },
			wantFile: "iteration 3 done",
		},
		"WarningHiddenWhenQuiet": {
			verbose:  false,
			emit:     func(l Logger) { l.Warning("fetch failed") },
			wantFile: "fetch failed",
		},
		"WarningShownWhenVerbose": {
			verbose:    true,
			emit:       func(l Logger) { l.Warning("fetch failed") },
			wantStdout: "⚠️  fetch failed\n",
			wantFile:   "fetch failed",
		},
		"ErrorGoesToStderr": {
			emit:       func(l Logger) { l.Error("push rejected") },
			wantStderr: "❌ push rejected\n",
			wantFile:   "push rejected",
		},
		"WarningToUser": {
			emit:       func(l Logger) { l.WarningToUser("conflict in %s", "a.txt") },
			wantStdout: "⚠️  conflict in a.txt\n",
			wantFile:   "conflict in a.txt",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			logFile := filepath.Join(t.TempDir(), "test.log")
			stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

			// the startup line goes to stdout; drop it after construction
			log := NewWithOutput(true, logFile, test.verbose, stdout, stderr)
			stdout.Reset()
			stderr.Reset()

			test.emit(log)
			require.NoError(t, log.Close())

			assert.Equal(t, test.wantStdout, stdout.String())
			assert.Equal(t, test.wantStderr, stderr.String())

			content, err := os.ReadFile(logFile)
			require.NoError(t, err)
			if test.wantFile != "" {
				assert.Contains(t, string(content), test.wantFile)
			}
		})
	}
}

func TestStatusMessageNotLogged(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")
	log := NewWithOutput(true, logFile, true, &bytes.Buffer{}, &bytes.Buffer{})

	log.StatusMessage("Found remote changes, pulling!")
	require.NoError(t, log.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "Found remote changes")
}

func TestAttrs(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")
	log := New(Options{
		Enabled: true,
		LogFile: logFile,
		Stdout:  &bytes.Buffer{},
		Stderr:  &bytes.Buffer{},
		Attrs:   []slog.Attr{slog.String("repo", "/srv/notes")},
	})

	log.Info("hello")
	require.NoError(t, log.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		assert.Contains(t, line, "repo=/srv/notes")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	log := NewWithOutput(true, filepath.Join(t.TempDir(), "test.log"), false, &bytes.Buffer{}, &bytes.Buffer{})

	require.NoError(t, log.Close())
	require.NoError(t, log.Close())

	// writes after close must not panic or reach the closed file
	log.Info("after close")
}

func TestFallbackToStderr(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	stderr := &bytes.Buffer{}
	log := NewWithOutput(true, filepath.Join(blocker, "sub", "test.log"), false, &bytes.Buffer{}, stderr)
	t.Cleanup(func() { _ = log.Close() })

	assert.Contains(t, stderr.String(), "Failed to open log file")
}
