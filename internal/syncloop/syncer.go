package syncloop

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"

	"github.com/bashhack/gitfilesync/internal/constants"
	syncErrors "github.com/bashhack/gitfilesync/internal/errors"
	"github.com/bashhack/gitfilesync/internal/git"
	"github.com/bashhack/gitfilesync/internal/logger"
)

// Syncer keeps a working copy synchronized with its remote.
type Syncer struct {
	// config holds all the settings for this syncer
	config Config

	// client performs every repository operation
	client git.Client

	// logger handles all output messages with appropriate formatting
	logger logger.Logger

	// clock schedules iterations
	clock clockwork.Clock

	// trigger, when non-nil, wakes the loop before the interval elapses
	trigger <-chan struct{}

	// message is the commit message, fixed after Preflight
	message string

	stats SessionStats
}

// NewSyncer creates a Syncer on the real clock.
func NewSyncer(config Config, client git.Client, logger logger.Logger) (*Syncer, error) {
	return NewSyncerWithDeps(config, client, logger, clockwork.NewRealClock(), nil)
}

// NewSyncerWithDeps creates a Syncer with a custom clock and an optional early-wake trigger.
func NewSyncerWithDeps(
	config Config,
	client git.Client,
	logger logger.Logger,
	clock clockwork.Clock,
	trigger <-chan struct{},
) (*Syncer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sync configuration: %w", err)
	}

	return &Syncer{
		config:  config,
		client:  client,
		logger:  logger,
		clock:   clock,
		trigger: trigger,
		stats:   SessionStats{StartTime: clock.Now()},
	}, nil
}

// CommitMessage returns the message resolved by Preflight.
func (s *Syncer) CommitMessage() string {
	return s.message
}

// SetTrigger installs a channel that wakes the loop before the interval
// elapses. Call it before Run.
func (s *Syncer) SetTrigger(trigger <-chan struct{}) {
	s.trigger = trigger
}

// Stats returns a copy of the session counters.
func (s *Syncer) Stats() SessionStats {
	return s.stats
}

// Preflight verifies the repository and remote, then fixes the commit
// message for the rest of the run. Failures print the matching diagnostic
// and return ErrNotGitRepository or ErrNoRemote.
func (s *Syncer) Preflight(ctx context.Context) error {
	isRepo, err := s.client.IsRepository(ctx)
	if err != nil || !isRepo {
		s.logger.StatusMessage(constants.MsgNotRepository)
		if err != nil {
			s.logger.Info("Repository check failed: %v", err)
			return syncErrors.Wrap(syncErrors.ErrNotGitRepository, err.Error())
		}
		return syncErrors.ErrNotGitRepository
	}

	remotes, err := s.client.Remotes(ctx)
	if err != nil || len(remotes) == 0 {
		s.logger.StatusMessage(constants.MsgNoRemote)
		if err != nil {
			s.logger.Info("Listing remotes failed: %v", err)
			return syncErrors.Wrap(syncErrors.ErrNoRemote, err.Error())
		}
		return syncErrors.ErrNoRemote
	}
	if !slices.Contains(remotes, constants.DefaultRemote) {
		s.logger.WarningToUser("No remote named %q (found %s); fetch and push will fail",
			constants.DefaultRemote, strings.Join(remotes, ", "))
	}

	s.message = ResolveCommitMessage(ctx, s.config, s.client, s.logger)
	s.logger.Info("Commit message for this session: %q", s.message)
	return nil
}

// ResolveCommitMessage picks the commit message for a run according to
// the configured policy.
func ResolveCommitMessage(ctx context.Context, config Config, client git.Client, log logger.Logger) string {
	if config.MessagePolicy == PolicyStatic {
		return constants.StaticCommitMessage
	}
	if config.CommitMessage != "" {
		return config.CommitMessage
	}

	name, err := client.UserName(ctx)
	if err != nil || name == "" {
		log.WarningToUser("Could not read git user.name, using %q as commit message", constants.StaticCommitMessage)
		if err != nil {
			log.Info("Reading user.name failed: %v", err)
		}
		return constants.StaticCommitMessage
	}
	return constants.CommitMessagePrefix + name
}

// RunIteration performs one fetch/pull/commit/push pass. The add, commit
// and push steps each run even when an earlier one failed; their errors
// are joined into the returned error. Merge conflicts are warnings only.
func (s *Syncer) RunIteration(ctx context.Context) (IterationReport, error) {
	var report IterationReport
	var errs []error

	branch, err := s.client.CurrentBranch(ctx)
	if err != nil {
		s.logger.WarningToUser("Cannot determine current branch, skipping: %v", err)
		s.stats.record(report, err)
		return report, err
	}
	report.Context.Branch = branch

	fetchErr := s.client.Fetch(ctx)
	if fetchErr != nil {
		s.logger.WarningToUser("Fetch failed, not checking for remote changes: %v", fetchErr)
		errs = append(errs, fetchErr)
	} else {
		report.Fetched = true
		errs = append(errs, s.pullIfBehind(ctx, branch, &report))
	}

	status, err := s.client.Status(ctx)
	if err != nil {
		s.logger.Warning("Failed to read working tree status: %v", err)
		errs = append(errs, err)
	} else {
		report.Context.Status = status
		if status.Dirty() {
			errs = append(errs, s.commitAndPush(ctx, branch, status, &report)...)
		} else if s.config.PushPending && fetchErr == nil {
			errs = append(errs, s.pushPending(ctx, branch, &report))
		}
	}

	err = syncErrors.Join(errs...)
	s.stats.record(report, err)
	return report, err
}

func (s *Syncer) pullIfBehind(ctx context.Context, branch string, report *IterationReport) error {
	d, err := s.client.Divergence(ctx, branch)
	if err != nil {
		s.logger.Warning("Failed to compare with %s/%s: %v", constants.DefaultRemote, branch, err)
		return err
	}
	report.Context.Divergence = d
	if d.Behind == 0 {
		return nil
	}

	s.logger.StatusMessage(constants.MsgPullingRemote)
	s.logger.Info("Pulling %d commit(s) into %s", d.Behind, branch)
	err = s.client.Pull(ctx, branch)
	switch {
	case err == nil:
		report.Pulled = true
		return nil
	case syncErrors.Is(err, syncErrors.ErrMergeConflict):
		report.Conflicts = s.conflictedPaths(ctx)
		s.logger.WarningToUser("Pull stopped on merge conflicts, resolve them in the working tree: %v", err)
		return nil
	default:
		s.logger.WarningToUser("Pull failed: %v", err)
		return err
	}
}

func (s *Syncer) conflictedPaths(ctx context.Context) []string {
	status, err := s.client.Status(ctx)
	if err != nil {
		return nil
	}
	return status.Conflicted()
}

func (s *Syncer) commitAndPush(ctx context.Context, branch string, status git.Status, report *IterationReport) []error {
	var errs []error

	s.logger.StatusMessage(constants.MsgPushingChanges)
	if conflicted := status.Conflicted(); len(conflicted) > 0 {
		s.logger.WarningToUser("Committing files that still contain conflict markers: %s", strings.Join(conflicted, ", "))
	}

	if err := s.client.StageAll(ctx); err != nil {
		s.logger.WarningToUser("Failed to stage changes: %v", err)
		errs = append(errs, err)
	}

	err := s.client.Commit(ctx, s.message)
	switch {
	case err == nil:
		report.Committed = true
		s.logger.Info("Committed %d path(s) on %s", len(status.Entries), branch)
	case syncErrors.Is(err, syncErrors.ErrNothingToCommit):
		s.logger.Info("Nothing to commit after staging: %v", err)
	default:
		s.logger.WarningToUser("Failed to create commit: %v", err)
		errs = append(errs, err)
	}

	if err := s.push(ctx, branch, report); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func (s *Syncer) pushPending(ctx context.Context, branch string, report *IterationReport) error {
	d, err := s.client.Divergence(ctx, branch)
	if err != nil {
		s.logger.Warning("Failed to count unpushed commits: %v", err)
		return err
	}
	report.Context.Divergence = d
	if d.Ahead == 0 {
		return nil
	}

	s.logger.StatusMessage(constants.MsgPushingUnpushed)
	return s.push(ctx, branch, report)
}

func (s *Syncer) push(ctx context.Context, branch string, report *IterationReport) error {
	err := s.client.Push(ctx, branch)
	switch {
	case err == nil:
		report.Pushed = true
		return nil
	case syncErrors.Is(err, syncErrors.ErrPushRejected):
		s.logger.WarningToUser("Push rejected, the remote has new commits; retrying after the next pull")
		s.logger.Info("Push rejection: %v", err)
		return err
	default:
		s.logger.WarningToUser("Failed to push: %v", err)
		return err
	}
}

// retryState tracks consecutive identical errors.
type retryState struct {
	consecutiveErrors int
	lastErrorMsg      string
}

// trackError applies the MaxRetries policy to the outcome of one iteration.
// It returns a non-nil error once the same error has repeated too often.
func (s *Syncer) trackError(state *retryState, err error) error {
	if err == nil {
		state.consecutiveErrors = 0
		state.lastErrorMsg = ""
		return nil
	}

	s.logger.Info("Iteration failed: %v", err)

	currentErrorMsg := err.Error()
	if currentErrorMsg == state.lastErrorMsg {
		state.consecutiveErrors++
	} else {
		state.consecutiveErrors = 1
		state.lastErrorMsg = currentErrorMsg
	}

	// Using '>' instead of '>=' so MaxRetries = 1 allows one retry
	if s.config.MaxRetries > 0 && state.consecutiveErrors > s.config.MaxRetries {
		s.logger.Error("Reached maximum number of consecutive errors (%d). Stopping gitfilesync.", s.config.MaxRetries)
		s.logger.WarningToUser("Too many consecutive errors (same error %d times in a row). Stopping gitfilesync.", state.consecutiveErrors)
		return syncErrors.Wrap(syncErrors.ErrGitOperationFailed,
			fmt.Sprintf("maximum retries (%d) exceeded with error: %v", s.config.MaxRetries, err))
	}
	return nil
}

func (s *Syncer) newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.config.Interval
	b.MaxInterval = s.config.MaxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Clock = s.clock
	b.Reset()
	return b
}

// Run iterates until ctx is cancelled, MaxIterations is reached or the
// retry limit is exceeded. The first iteration starts immediately.
func (s *Syncer) Run(ctx context.Context) error {
	s.stats.StartTime = s.clock.Now()

	var bo *backoff.ExponentialBackOff
	if s.config.Backoff {
		bo = s.newBackoff()
	}

	var state retryState
	for iteration := 1; ; iteration++ {
		if err := ctx.Err(); err != nil {
			s.logger.Info("Received cancellation signal, shutting down gracefully...")
			return err
		}

		_, err := s.RunIteration(ctx)
		if ctx.Err() != nil {
			continue
		}
		if fatal := s.trackError(&state, err); fatal != nil {
			return fatal
		}

		if s.config.MaxIterations > 0 && iteration >= s.config.MaxIterations {
			s.logger.Info("Completed %d iteration(s), stopping", iteration)
			return nil
		}

		wait := s.config.Interval
		if bo != nil {
			if err != nil {
				wait = bo.NextBackOff()
				s.logger.Info("Backing off for %s after failed iteration", wait)
			} else {
				bo.Reset()
			}
		}

		select {
		case <-ctx.Done():
		case <-s.clock.After(wait):
		case <-s.trigger:
			s.logger.Info("Woken early by a filesystem change")
		}
	}
}

// PrintSummary prints a summary of the session.
func (s *Syncer) PrintSummary() {
	duration := s.clock.Since(s.stats.StartTime)
	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60
	seconds := int(duration.Seconds()) % 60

	s.logger.StatusMessage("")
	s.logger.StatusMessage("---------------------------------------------")
	s.logger.StatusMessage("📊 gitfilesync Session Summary")
	s.logger.StatusMessage("---------------------------------------------")
	s.logger.StatusMessage("🔁 Iterations: %d (%d with errors)", s.stats.Iterations, s.stats.FailedIterations)
	s.logger.StatusMessage("⬇️  Pulls: %d", s.stats.Pulls)
	s.logger.StatusMessage("✅ Commits: %d", s.stats.Commits)
	s.logger.StatusMessage("⬆️  Pushes: %d", s.stats.Pushes)
	s.logger.StatusMessage("⏱️  Session duration: %dh %dm %ds", hours, minutes, seconds)
	if s.stats.Branch != "" {
		s.logger.StatusMessage("🌿 Branch: %s", s.stats.Branch)
	}
	s.logger.StatusMessage("---------------------------------------------")
	s.logger.StatusMessage("🛑 gitfilesync terminated at %s", s.clock.Now().Format(time.DateTime))
}
