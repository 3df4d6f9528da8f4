package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/bashhack/gitfilesync/internal/config"
)

// MockSyncer implements the Syncer interface for testing
type MockSyncer struct {
	PreflightErr    error
	RunErr          error
	PreflightCalled bool
	RunCalled       bool
	SummaryCalled   bool
	SummaryCount    int
	Trigger         <-chan struct{}
}

func (m *MockSyncer) Preflight(ctx context.Context) error {
	m.PreflightCalled = true
	return m.PreflightErr
}

func (m *MockSyncer) Run(ctx context.Context) error {
	m.RunCalled = true
	return m.RunErr
}

func (m *MockSyncer) SetTrigger(trigger <-chan struct{}) {
	m.Trigger = trigger
}

func (m *MockSyncer) PrintSummary() {
	m.SummaryCalled = true
	m.SummaryCount++
}

// MockLocker implements the Locker interface for testing
type MockLocker struct {
	AcquireErr    error
	ReleaseErr    error
	AcquireCalled bool
	ReleaseCalled bool
	ReleaseCount  int
}

func (m *MockLocker) Acquire() error {
	m.AcquireCalled = true
	return m.AcquireErr
}

func (m *MockLocker) Release() error {
	m.ReleaseCalled = true
	m.ReleaseCount++
	return m.ReleaseErr
}

// MockWatcher implements the Watcher interface for testing
type MockWatcher struct {
	CloseErr    error
	CloseCalled bool
	triggers    chan struct{}
}

func (m *MockWatcher) Triggers() <-chan struct{} {
	if m.triggers == nil {
		m.triggers = make(chan struct{}, 1)
	}
	return m.triggers
}

func (m *MockWatcher) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (m *MockWatcher) Close() error {
	m.CloseCalled = true
	return m.CloseErr
}

// MockLogger implements the Logger interface for testing
type MockLogger struct {
	mu          sync.Mutex
	Messages    []string
	CloseErr    error
	CloseCalled bool
}

func (m *MockLogger) record(level, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, level+": "+fmt.Sprintf(format, args...))
}

func (m *MockLogger) Info(format string, args ...interface{}) { m.record("info", format, args...) }

func (m *MockLogger) Warning(format string, args ...interface{}) { m.record("warning", format, args...) }

func (m *MockLogger) Error(format string, args ...interface{}) { m.record("error", format, args...) }

func (m *MockLogger) WarningToUser(format string, args ...interface{}) {
	m.record("warning-user", format, args...)
}

func (m *MockLogger) StatusMessage(format string, args ...interface{}) {
	m.record("status", format, args...)
}

func (m *MockLogger) Close() error {
	m.CloseCalled = true
	return m.CloseErr
}

// Testing helper functions

// NewTestApp creates an App on a finalizable config whose repository and
// log file live in temporary directories. The environment is not read.
func NewTestApp(repoPath, logFile string) *App {
	cfg := config.New()
	cfg.RepoPath = repoPath
	cfg.LogFile = logFile

	return NewApp(AppOptions{
		Config: cfg,
		Exit:   func(int) {},
	})
}

// WithMocks installs a mock logger, locker and syncer on app.
func WithMocks(app *App) (*App, *MockLogger, *MockLocker, *MockSyncer) {
	mockLogger := &MockLogger{}
	mockLocker := &MockLocker{}
	mockSyncer := &MockSyncer{}
	app.Logger = mockLogger
	app.Locker = mockLocker
	app.Syncer = mockSyncer
	app.execLookPath = func(file string) (string, error) { return "/usr/bin/" + file, nil }
	return app, mockLogger, mockLocker, mockSyncer
}
