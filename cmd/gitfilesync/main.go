package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bashhack/gitfilesync/internal/config"
	syncErrors "github.com/bashhack/gitfilesync/internal/errors"
)

// Version information - injected at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// shutdownGrace is how long the loop gets to stop after a signal before
// resources are released forcibly.
const shutdownGrace = 5 * time.Second

func main() {
	versionInfo := config.VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	app := NewDefaultApp(versionInfo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		sig := <-c
		_, _ = fmt.Fprintf(app.Stdout, "\nReceived signal %v, stopping gitfilesync...\n", sig)
		cancel()

		select {
		case <-done:
		case <-time.After(shutdownGrace):
			app.CleanupOnSignal()
			app.exit(1)
		}
	}()

	code := app.Execute(ctx, os.Args[1:])
	close(done)
	app.exit(code)
}

// Execute parses args on the root command, runs the app and returns the
// process exit code.
func (a *App) Execute(ctx context.Context, args []string) int {
	cmd := a.NewRootCommand()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)

	a.printSummary()

	return a.exitCode(err)
}

// exitCode maps the result of a run to a process exit code. Cancellation is
// the normal signal shutdown path. The precondition failures have already
// printed their diagnostic.
func (a *App) exitCode(err error) int {
	switch {
	case err == nil, syncErrors.Is(err, context.Canceled):
		return 0
	case syncErrors.Is(err, syncErrors.ErrNotGitRepository), syncErrors.Is(err, syncErrors.ErrNoRemote):
		return 1
	default:
		_, _ = fmt.Fprintf(a.Stderr, "❌ Error: %v\n", err)
		return 1
	}
}

// NewRootCommand builds the gitfilesync command with every configuration
// flag bound to a.Config.
func (a *App) NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gitfilesync",
		Short:         "Keep a git working copy in sync with its remote",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.Config.ApplyFlags()
			return a.Run(cmd.Context())
		},
	}

	cmd.SetOut(a.Stdout)
	cmd.SetErr(a.Stderr)
	cmd.Flags().SortFlags = false
	a.Config.BindFlags(cmd.Flags())

	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		a.Config.PrintUsage(c.Flags(), c.OutOrStdout())
	})
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return syncErrors.Wrap(syncErrors.ErrInvalidFlag, err.Error())
	})

	return cmd
}
